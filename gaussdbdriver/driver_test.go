package gaussdbdriver

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruanjonker/sessionpool"
)

func TestConnString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   *sessionpool.Config
		expected string
	}{
		{
			name: "no password",
			config: &sessionpool.Config{
				Host:     "localhost",
				Port:     5432,
				User:     "app",
				Database: "app",
			},
			expected: `host='localhost' port=5432 user='app' dbname='app'`,
		},
		{
			name: "with password",
			config: &sessionpool.Config{
				Host:     "db.example.com",
				Port:     5433,
				User:     "jack",
				Password: "secret",
				Database: "orders",
			},
			expected: `host='db.example.com' port=5433 user='jack' dbname='orders' password='secret'`,
		},
		{
			name: "password needing quoting",
			config: &sessionpool.Config{
				Host:     "localhost",
				Port:     5432,
				User:     "jack",
				Password: `pass 'word' \slash`,
				Database: "app",
			},
			expected: `host='localhost' port=5432 user='jack' dbname='app' password='pass \'word\' \\slash'`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, connString(tt.config))
		})
	}
}

func TestPoolIntegration(t *testing.T) {
	connString := os.Getenv(sessionpool.EnvTestConnString)
	if connString == "" {
		t.Skipf("Skipping due to missing environment variable %v", sessionpool.EnvTestConnString)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pool, err := sessionpool.New(ctx, Driver{}, connString)
	require.NoError(t, err)
	defer pool.Close()

	sess, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer pool.Release(sess)

	conn := sess.(*Session).Conn()
	require.NoError(t, conn.Ping(ctx))

	// The setup statement selected the configured schema.
	rr := conn.ExecParams(ctx, "show search_path", nil, nil, nil, nil)
	require.True(t, rr.NextRow())
	assert.Equal(t, pool.Config().Schema, string(rr.Values()[0]))
	_, err = rr.Close()
	require.NoError(t, err)
}
