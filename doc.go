// Package sessionpool is a bounded pool of database sessions.
/*
sessionpool multiplexes many concurrent callers over a small, capped number
of long-lived database sessions. A session is opened lazily on demand, lent
to exactly one borrower at a time, and reused once returned. When the pool
is at capacity, callers either wait in strict arrival order or fail fast.

Creating a Pool

The primary way of creating a pool is with [New]:

    pool, err := sessionpool.New(context.Background(), gaussdbdriver.Driver{}, os.Getenv("DATABASE_URL"))

The connection string is in URL format. Pool settings such as pool_size can
be specified here. In addition, a config struct can be created by
[ParseConfig] and modified before establishing the pool with
[NewWithConfig].

    config, err := sessionpool.ParseConfig(os.Getenv("DATABASE_URL"))
    if err != nil {
        // ...
    }
    config.Driver = gaussdbdriver.Driver{}
    config.IdleTimeout = 5 * time.Minute

    pool, err := sessionpool.NewWithConfig(context.Background(), config)

A pool returns without waiting for any sessions to be established. Acquire
a session immediately after creating the pool to check if a session can
successfully be established.

Acquiring Sessions

[Pool.Acquire] blocks until a session is available or the configured
AcquireTimeout elapses. The context passed to Acquire is treated as the
borrower's lifetime: if it is cancelled while the session is still out on
loan, the pool discards that session rather than reuse it, since its
transactional state is unknown. [Pool.TryAcquire] never waits.

Every acquired session must be returned with [Pool.Release]. Releasing a
session the pool no longer tracks is a no-op.

Drivers

The pool is driver-agnostic. Package
github.com/ruanjonker/sessionpool/gaussdbdriver provides the production
[Driver] backed by gaussdb-go. Package
github.com/ruanjonker/sessionpool/pooltest provides an in-memory driver
for testing code that consumes a pool.
*/
package sessionpool
