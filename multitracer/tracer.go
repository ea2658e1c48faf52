// Package multitracer provides a Tracer that can combine several tracers into one.
package multitracer

import (
	"context"

	"github.com/ruanjonker/sessionpool"
)

// Tracer can combine several tracers into one.
// You can use New to automatically split tracers by interface.
type Tracer struct {
	AcquireTracers []sessionpool.AcquireTracer
	ReleaseTracers []sessionpool.ReleaseTracer
	ConnectTracers []sessionpool.ConnectTracer
}

// New returns new Tracer from tracers with automatically split tracers by interface.
func New(tracers ...sessionpool.AcquireTracer) *Tracer {
	var t Tracer

	for _, tracer := range tracers {
		t.AcquireTracers = append(t.AcquireTracers, tracer)

		if releaseTracer, ok := tracer.(sessionpool.ReleaseTracer); ok {
			t.ReleaseTracers = append(t.ReleaseTracers, releaseTracer)
		}

		if connectTracer, ok := tracer.(sessionpool.ConnectTracer); ok {
			t.ConnectTracers = append(t.ConnectTracers, connectTracer)
		}
	}

	return &t
}

func (t *Tracer) TraceAcquireStart(ctx context.Context, pool *sessionpool.Pool, data sessionpool.TraceAcquireStartData) context.Context {
	for _, tracer := range t.AcquireTracers {
		ctx = tracer.TraceAcquireStart(ctx, pool, data)
	}

	return ctx
}

func (t *Tracer) TraceAcquireEnd(ctx context.Context, pool *sessionpool.Pool, data sessionpool.TraceAcquireEndData) {
	for _, tracer := range t.AcquireTracers {
		tracer.TraceAcquireEnd(ctx, pool, data)
	}
}

func (t *Tracer) TraceRelease(pool *sessionpool.Pool, data sessionpool.TraceReleaseData) {
	for _, tracer := range t.ReleaseTracers {
		tracer.TraceRelease(pool, data)
	}
}

func (t *Tracer) TraceConnectStart(pool *sessionpool.Pool, data sessionpool.TraceConnectStartData) {
	for _, tracer := range t.ConnectTracers {
		tracer.TraceConnectStart(pool, data)
	}
}

func (t *Tracer) TraceConnectEnd(pool *sessionpool.Pool, data sessionpool.TraceConnectEndData) {
	for _, tracer := range t.ConnectTracers {
		tracer.TraceConnectEnd(pool, data)
	}
}
