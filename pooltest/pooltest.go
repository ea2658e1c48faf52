// Package pooltest provides utilities for testing sessionpool and packages
// that integrate with sessionpool.
package pooltest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ruanjonker/sessionpool"
)

// Driver is an in-memory sessionpool.Driver with scriptable behavior. All
// methods are safe for concurrent use.
type Driver struct {
	mu           sync.Mutex
	nextID       int
	connectCount int
	connectErr   error
	connectDelay time.Duration
	sessions     []*Session
}

var _ sessionpool.Driver = (*Driver)(nil)

// NewDriver returns a Driver whose connects always succeed immediately.
func NewDriver() *Driver {
	return &Driver{}
}

// Connect creates a new in-memory session, honoring any scripted failure
// or delay.
func (d *Driver) Connect(ctx context.Context, config *sessionpool.Config) (sessionpool.Session, error) {
	d.mu.Lock()
	err := d.connectErr
	delay := d.connectDelay
	d.connectCount++
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.nextID++
	s := &Session{
		id:   d.nextID,
		done: make(chan struct{}),
	}
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()

	return s, nil
}

// FailConnects makes every subsequent Connect return err. Passing nil
// restores normal behavior.
func (d *Driver) FailConnects(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectErr = err
}

// DelayConnects makes every subsequent Connect sleep for delay before
// completing.
func (d *Driver) DelayConnects(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectDelay = delay
}

// ConnectCount returns the number of Connect calls made so far, including
// failed ones.
func (d *Driver) ConnectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectCount
}

// Sessions returns every session the driver ever created, in creation
// order.
func (d *Driver) Sessions() []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Session(nil), d.sessions...)
}

// OpenSessions returns the sessions that have not been closed or killed.
func (d *Driver) OpenSessions() []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	var open []*Session
	for _, s := range d.sessions {
		if !s.Closed() {
			open = append(open, s)
		}
	}
	return open
}

// Session is an in-memory stand-in for a database session.
type Session struct {
	id int

	mu         sync.Mutex
	closed     bool
	closeCount int
	done       chan struct{}
}

var _ sessionpool.Session = (*Session)(nil)

func (s *Session) String() string { return fmt.Sprintf("testsession-%d", s.id) }

// Close marks the session closed. It is idempotent but counts every call
// so tests can assert no double-close happened.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// Done is closed when the session terminates for any reason.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Kill simulates the session dying on its own, outside of an explicit
// Close.
func (s *Session) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Closed reports whether the session has been closed or killed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseCount returns how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}

// PoolTestRunner controls how a *sessionpool.Pool is created and closed by
// tests. All fields are required. Use DefaultPoolTestRunner to get a
// PoolTestRunner with reasonable default values.
type PoolTestRunner struct {
	// CreateConfig returns a *sessionpool.Config suitable for use with
	// sessionpool.NewWithConfig.
	CreateConfig func(t testing.TB) *sessionpool.Config

	// AfterStart is called after the pool is created. It allows for
	// arbitrary setup before a test begins.
	AfterStart func(t testing.TB, pool *sessionpool.Pool)

	// AfterTest is called after the test is run. It allows for validating
	// the state of the pool before it is closed.
	AfterTest func(t testing.TB, pool *sessionpool.Pool)

	// ClosePool closes pool.
	ClosePool func(t testing.TB, pool *sessionpool.Pool)
}

// DefaultPoolTestRunner returns a new PoolTestRunner backed by driver with
// all fields set to reasonable default values.
func DefaultPoolTestRunner(driver *Driver, size int) PoolTestRunner {
	return PoolTestRunner{
		CreateConfig: func(t testing.TB) *sessionpool.Config {
			return &sessionpool.Config{Size: size, Driver: driver}
		},
		AfterStart: func(t testing.TB, pool *sessionpool.Pool) {},
		AfterTest:  func(t testing.TB, pool *sessionpool.Pool) {},
		ClosePool: func(t testing.TB, pool *sessionpool.Pool) {
			pool.Close()
		},
	}
}

func (ptr *PoolTestRunner) RunTest(ctx context.Context, t testing.TB, f func(ctx context.Context, t testing.TB, pool *sessionpool.Pool)) {
	t.Helper()

	config := ptr.CreateConfig(t)
	pool, err := sessionpool.NewWithConfig(ctx, config)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	defer ptr.ClosePool(t, pool)

	ptr.AfterStart(t, pool)
	f(ctx, t, pool)
	ptr.AfterTest(t, pool)
}
