package sessionpool

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type acquireResult struct {
	session Session
	err     error
}

// waiter is a suspended wait-mode acquire. reply is buffered so the pool
// never blocks delivering to a caller that has already given up.
type waiter struct {
	id    uuid.UUID
	watch <-chan struct{}
	reply chan acquireResult
}

// borrow tracks one session out on loan. stop tears down the borrower
// liveness watch when the session comes back normally.
type borrow struct {
	stop chan struct{}
}

// idleSession pairs a free session with the time it last came back.
type idleSession struct {
	session    Session
	returnedAt time.Time
}

type acquireRequest struct {
	w    *waiter
	wait bool
}

type releaseRequest struct {
	session Session
}

type cancelRequest struct {
	id   uuid.UUID
	done chan struct{}
}

type borrowerCrashRequest struct {
	session Session
	borrow  *borrow
}

type sessionDeadRequest struct {
	session Session
}

type statRequest struct {
	reply chan Stat
}

type stopRequest struct {
	done chan struct{}
}

// Pool is a bounded pool of database sessions. It is safe for concurrent
// use. All pool state is owned by a single goroutine; the exported methods
// communicate with it by message passing, so every state transition is
// serialized.
type Pool struct {
	cfg     *Config
	driver  Driver
	baseCtx context.Context

	acquireTracer AcquireTracer
	releaseTracer ReleaseTracer
	connectTracer ConnectTracer

	reqs chan any
	done chan struct{} // closed when the coordinator goroutine exits

	closeOnce sync.Once
}

// New creates a Pool using driver and a connection string. See
// [ParseConfig] for the connection string format.
func New(ctx context.Context, driver Driver, connString string) (*Pool, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	config.Driver = driver

	return NewWithConfig(ctx, config)
}

// NewWithConfig creates a Pool from config. config is copied, so it may be
// reused after the call. No session is established until the first
// Acquire; ctx bounds session establishment for the life of the pool.
func NewWithConfig(ctx context.Context, config *Config) (*Pool, error) {
	config = config.Copy()
	if err := config.validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:     config,
		driver:  config.Driver,
		baseCtx: ctx,
		reqs:    make(chan any, 16),
		done:    make(chan struct{}),
	}

	p.acquireTracer = config.Tracer
	if t, ok := config.Tracer.(ReleaseTracer); ok {
		p.releaseTracer = t
	}
	if t, ok := config.Tracer.(ConnectTracer); ok {
		p.connectTracer = t
	}

	go p.run()

	return p, nil
}

// Config returns a copy of the configuration the pool was created with.
func (p *Pool) Config() *Config { return p.cfg.Copy() }

// run is the pool coordinator. It owns free, borrowed, and waiting
// outright and processes one request to completion at a time.
func (p *Pool) run() {
	free := list.New()    // *idleSession, oldest return at the front
	borrowed := make(map[Session]*borrow)
	waiting := list.New() // *waiter in arrival order

	var reapC <-chan time.Time
	if p.cfg.IdleTimeout > 0 {
		ticker := time.NewTicker(p.cfg.ReapInterval)
		defer ticker.Stop()
		reapC = ticker.C
	}

	for {
		select {
		case raw := <-p.reqs:
			switch req := raw.(type) {
			case *acquireRequest:
				p.handleAcquire(req, free, borrowed, waiting)
			case *releaseRequest:
				p.handleRelease(req.session, free, borrowed, waiting)
			case *cancelRequest:
				for e := waiting.Front(); e != nil; e = e.Next() {
					if e.Value.(*waiter).id == req.id {
						waiting.Remove(e)
						break
					}
				}
				close(req.done)
			case *borrowerCrashRequest:
				// The borrow pointer guards against the session having been
				// released and re-lent while this notification was in flight.
				if borrowed[req.session] == req.borrow {
					delete(borrowed, req.session)
					p.closeSession(req.session)
				}
			case *sessionDeadRequest:
				p.handleSessionDead(req.session, free, borrowed)
			case *statRequest:
				req.reply <- Stat{
					free:    free.Len(),
					inUse:   len(borrowed),
					max:     p.cfg.Size,
					waiting: waiting.Len(),
				}
			case *stopRequest:
				for e := free.Front(); e != nil; e = e.Next() {
					p.closeSession(e.Value.(*idleSession).session)
				}
				for sess, b := range borrowed {
					close(b.stop)
					p.closeSession(sess)
				}
				close(p.done)
				close(req.done)
				return
			default:
				// The pool's state can no longer be trusted with an
				// unrecognized request in the stream. Fail fast; a
				// supervising layer restarts the pool.
				panic(fmt.Sprintf("sessionpool: unknown request type %T", raw))
			}
		case <-reapC:
			p.reapIdle(free)
		}
	}
}

func (p *Pool) handleAcquire(req *acquireRequest, free *list.List, borrowed map[Session]*borrow, waiting *list.List) {
	if front := free.Front(); front != nil {
		idle := free.Remove(front).(*idleSession)
		p.lend(idle.session, req.w, borrowed)
		return
	}

	if len(borrowed) < p.cfg.Size {
		sess, err := p.connect()
		if err != nil {
			req.w.reply <- acquireResult{err: err}
			return
		}
		p.lend(sess, req.w, borrowed)
		return
	}

	if req.wait {
		waiting.PushBack(req.w)
		return
	}

	req.w.reply <- acquireResult{err: ErrBusy}
}

func (p *Pool) handleRelease(sess Session, free *list.List, borrowed map[Session]*borrow, waiting *list.List) {
	b, ok := borrowed[sess]
	if !ok {
		// Double release, or a session the pool already forgot because it
		// died on loan.
		return
	}
	close(b.stop)
	delete(borrowed, sess)

	if front := waiting.Front(); front != nil {
		w := waiting.Remove(front).(*waiter)
		// Straight to the oldest waiter; the session never touches the
		// free list on this path.
		p.lend(sess, w, borrowed)
		return
	}

	free.PushBack(&idleSession{session: sess, returnedAt: time.Now()})
}

func (p *Pool) handleSessionDead(sess Session, free *list.List, borrowed map[Session]*borrow) {
	if b, ok := borrowed[sess]; ok {
		// The borrower is not told; its eventual Release is a no-op.
		close(b.stop)
		delete(borrowed, sess)
		p.closeSession(sess)
		return
	}
	for e := free.Front(); e != nil; e = e.Next() {
		if e.Value.(*idleSession).session == sess {
			free.Remove(e)
			p.closeSession(sess)
			return
		}
	}
}

// lend hands sess to w and begins watching the borrower for abnormal
// termination.
func (p *Pool) lend(sess Session, w *waiter, borrowed map[Session]*borrow) {
	b := &borrow{stop: make(chan struct{})}
	borrowed[sess] = b
	if w.watch != nil {
		go p.watchBorrower(sess, b, w.watch)
	}
	w.reply <- acquireResult{session: sess}
}

// watchBorrower reports the borrower's death to the coordinator. The
// session's transactional state is unknown at that point, so it is closed,
// not reused.
func (p *Pool) watchBorrower(sess Session, b *borrow, watch <-chan struct{}) {
	select {
	case <-watch:
		select {
		case p.reqs <- &borrowerCrashRequest{session: sess, borrow: b}:
		case <-b.stop:
		case <-p.done:
		}
	case <-b.stop:
	case <-p.done:
	}
}

// watchSession reports abnormal session termination to the coordinator.
func (p *Pool) watchSession(sess Session) {
	done := sess.Done()
	if done == nil {
		return
	}
	select {
	case <-done:
		select {
		case p.reqs <- &sessionDeadRequest{session: sess}:
		case <-p.done:
		}
	case <-p.done:
	}
}

// connect opens one session synchronously. The coordinator does not
// process other requests while a connect is in flight; session
// establishment is point-to-point and capacity-bounded, so the stall is
// acceptable.
func (p *Pool) connect() (Session, error) {
	if p.connectTracer != nil {
		p.connectTracer.TraceConnectStart(p, TraceConnectStartData{Config: p.cfg})
	}
	start := time.Now()

	sess, err := p.driver.Connect(p.baseCtx, p.cfg)

	if p.connectTracer != nil {
		p.connectTracer.TraceConnectEnd(p, TraceConnectEndData{Session: sess, Err: err, Duration: time.Since(start)})
	}
	if err != nil {
		return nil, &ConnectError{Config: p.cfg, err: err}
	}

	go p.watchSession(sess)
	return sess, nil
}

func (p *Pool) reapIdle(free *list.List) {
	cutoff := time.Now().Add(-p.cfg.IdleTimeout)
	for front := free.Front(); front != nil; front = free.Front() {
		idle := front.Value.(*idleSession)
		if idle.returnedAt.After(cutoff) {
			break
		}
		free.Remove(front)
		p.closeSession(idle.session)
	}
}

func (p *Pool) closeSession(sess Session) {
	// Close errors are the driver's to swallow or log.
	_ = sess.Close(context.Background())
}

// Acquire obtains a session, waiting up to the configured AcquireTimeout
// for one to become available. Waiters are served strictly in arrival
// order.
//
// ctx is the borrower's lifetime: if it ends while the session is still
// out on loan, the pool discards that session instead of reusing it.
// Cancelling ctx while waiting abandons the acquire.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	return p.acquire(ctx, true, p.cfg.AcquireTimeout)
}

// AcquireWithTimeout is like Acquire but overrides the configured
// AcquireTimeout for this call. The timeout bounds only the wait, never
// how long the session may be held.
func (p *Pool) AcquireWithTimeout(ctx context.Context, timeout time.Duration) (Session, error) {
	return p.acquire(ctx, true, timeout)
}

// TryAcquire is like Acquire but never waits: if the pool is at capacity
// with no idle session it returns ErrBusy immediately.
func (p *Pool) TryAcquire(ctx context.Context) (Session, error) {
	return p.acquire(ctx, false, p.cfg.AcquireTimeout)
}

func (p *Pool) acquire(ctx context.Context, wait bool, timeout time.Duration) (sess Session, err error) {
	if p.acquireTracer != nil {
		ctx = p.acquireTracer.TraceAcquireStart(ctx, p, TraceAcquireStartData{})
		defer func() {
			p.acquireTracer.TraceAcquireEnd(ctx, p, TraceAcquireEndData{Session: sess, Err: err})
		}()
	}

	w := &waiter{
		id:    uuid.New(),
		watch: ctx.Done(),
		reply: make(chan acquireResult, 1),
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.reqs <- &acquireRequest{w: w, wait: wait}:
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, &AcquireTimeoutError{Wait: timeout}
	}

	select {
	case res := <-w.reply:
		return res.session, res.err
	case <-p.done:
		return nil, ErrClosed
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = &AcquireTimeoutError{Wait: timeout}
	}

	// Gave up while queued. Cancel synchronously: once the pool
	// acknowledges, either this waiter was removed before delivery or a
	// session is already sitting in the reply buffer. Draining the buffer
	// and releasing whatever is found closes the orphaned-delivery window.
	p.cancelWait(w.id)
	select {
	case res := <-w.reply:
		if res.session != nil {
			p.Release(res.session)
		}
	default:
	}
	return nil, err
}

func (p *Pool) cancelWait(id uuid.UUID) {
	req := &cancelRequest{id: id, done: make(chan struct{})}
	select {
	case p.reqs <- req:
	case <-p.done:
		return
	}
	select {
	case <-req.done:
	case <-p.done:
	}
}

// Release returns a session to the pool. The return is processed
// asynchronously; Release does not wait for it. Releasing a session the
// pool no longer tracks is a no-op.
func (p *Pool) Release(session Session) {
	if session == nil {
		return
	}
	if p.releaseTracer != nil {
		p.releaseTracer.TraceRelease(p, TraceReleaseData{Session: session})
	}
	select {
	case p.reqs <- &releaseRequest{session: session}:
	case <-p.done:
	}
}

// Stat returns a snapshot of pool statistics. On a closed pool all counts
// are zero.
func (p *Pool) Stat() *Stat {
	req := &statRequest{reply: make(chan Stat, 1)}
	select {
	case p.reqs <- req:
	case <-p.done:
		return &Stat{}
	}
	select {
	case s := <-req.reply:
		return &s
	case <-p.done:
		return &Stat{}
	}
}

// DatabaseName acquires a session, reads the configured database name, and
// releases the session. It is a cheap way to verify the pool can serve
// requests.
func (p *Pool) DatabaseName(ctx context.Context) (string, error) {
	sess, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}
	p.Release(sess)
	return p.cfg.Database, nil
}

// Close closes every session the pool knows about, idle and acquired
// alike, and stops the coordinator. Callers still waiting receive
// ErrClosed. Close blocks until shutdown completes and is safe to call
// more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		req := &stopRequest{done: make(chan struct{})}
		select {
		case p.reqs <- req:
		case <-p.done:
			return
		}
		select {
		case <-req.done:
		case <-p.done:
		}
	})
}
