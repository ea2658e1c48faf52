package sessionpool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruanjonker/sessionpool"
	"github.com/ruanjonker/sessionpool/pooltest"
)

func TestRegistryStartLookupStop(t *testing.T) {
	t.Parallel()

	registry := sessionpool.NewRegistry()
	t.Cleanup(registry.StopAll)

	config := &sessionpool.Config{Size: 2, Driver: pooltest.NewDriver()}

	pool, err := registry.Start(context.Background(), "primary", config)
	require.NoError(t, err)

	found, ok := registry.Lookup("primary")
	require.True(t, ok)
	require.Same(t, pool, found)

	_, ok = registry.Lookup("replica")
	assert.False(t, ok)

	require.NoError(t, registry.Stop("primary"))
	_, ok = registry.Lookup("primary")
	assert.False(t, ok)

	// The pool was closed, not just forgotten.
	_, err = pool.Acquire(context.Background())
	require.ErrorIs(t, err, sessionpool.ErrClosed)
}

func TestRegistryDuplicateName(t *testing.T) {
	t.Parallel()

	registry := sessionpool.NewRegistry()
	t.Cleanup(registry.StopAll)

	config := &sessionpool.Config{Size: 1, Driver: pooltest.NewDriver()}

	_, err := registry.Start(context.Background(), "primary", config)
	require.NoError(t, err)

	_, err = registry.Start(context.Background(), "primary", config)
	require.EqualError(t, err, `pool "primary" already started`)
}

func TestRegistryStopUnknown(t *testing.T) {
	t.Parallel()

	registry := sessionpool.NewRegistry()
	require.EqualError(t, registry.Stop("nope"), `pool "nope" not started`)
}

func TestRegistryStopAll(t *testing.T) {
	t.Parallel()

	registry := sessionpool.NewRegistry()

	var pools []*sessionpool.Pool
	for _, name := range []string{"a", "b", "c"} {
		pool, err := registry.Start(context.Background(), name, &sessionpool.Config{Size: 1, Driver: pooltest.NewDriver()})
		require.NoError(t, err)
		pools = append(pools, pool)
	}

	registry.StopAll()

	for _, pool := range pools {
		_, err := pool.Acquire(context.Background())
		require.ErrorIs(t, err, sessionpool.ErrClosed)
	}
}
