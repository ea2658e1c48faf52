package sessionpool

import "context"

// Session is one live database session. A Session is owned by the pool
// while idle and by exactly one borrower while acquired. It is not safe
// for concurrent use. The pool tracks sessions by identity, so drivers
// must return comparable values; a pointer type is the usual choice.
type Session interface {
	// Close releases the underlying resources. It is idempotent and must
	// never fail in a way the pool has to handle; drivers swallow or log
	// internal close failures.
	Close(ctx context.Context) error

	// Done returns a channel that is closed when the session terminates
	// for any reason, including termination outside of an explicit Close.
	// The pool uses it to forget sessions that die on their own. A driver
	// that cannot detect abnormal termination may return nil.
	Done() <-chan struct{}
}

// Driver establishes sessions on behalf of a pool. Connect must fully
// initialize the session, including any post-connect setup such as schema
// selection; if any step fails the session must be torn down and a single
// error returned. A Driver must be safe for concurrent use by multiple
// pools.
type Driver interface {
	Connect(ctx context.Context, config *Config) (Session, error)
}
