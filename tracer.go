package sessionpool

import (
	"context"
	"time"
)

// AcquireTracer traces Acquire and TryAcquire.
type AcquireTracer interface {
	// TraceAcquireStart is called at the beginning of an acquire. The
	// returned context is used for the rest of the call and will be passed
	// to TraceAcquireEnd.
	TraceAcquireStart(ctx context.Context, pool *Pool, data TraceAcquireStartData) context.Context

	// TraceAcquireEnd is called when the acquire completes, successfully
	// or not.
	TraceAcquireEnd(ctx context.Context, pool *Pool, data TraceAcquireEndData)
}

type TraceAcquireStartData struct{}

type TraceAcquireEndData struct {
	Session Session
	Err     error
}

// ReleaseTracer traces Release.
type ReleaseTracer interface {
	TraceRelease(pool *Pool, data TraceReleaseData)
}

type TraceReleaseData struct {
	Session Session
}

// ConnectTracer traces session establishment performed by the pool.
type ConnectTracer interface {
	TraceConnectStart(pool *Pool, data TraceConnectStartData)
	TraceConnectEnd(pool *Pool, data TraceConnectEndData)
}

type TraceConnectStartData struct {
	Config *Config
}

type TraceConnectEndData struct {
	Session  Session
	Err      error
	Duration time.Duration
}
