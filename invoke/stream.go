package invoke

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Brano80/veridion-nexus/observer"
)

// Stream is a lazy, finite, non-restartable sequence of chunks. Recv returns
// io.EOF after the last chunk. A stream is consumed by a single goroutine.
type Stream[T any] interface {
	Recv() (T, error)
	Close() error
}

// OpenStream opens a streamed backend call under instrumentation.
//
// Chunks are forwarded as received: never reordered, dropped, or buffered.
// One summary event covering the whole stream is submitted once the backend
// signals completion; timing spans from open to completion. A mid-stream
// backend failure submits an error-variant event and is surfaced to the
// consumer at the point of failure; chunks already yielded stand. With an
// awaited submitter, a failed summary submission is surfaced by the Recv
// that observed completion, in place of its io.EOF.
func OpenStream[T any](ctx context.Context, inv *Invoker, meta Metadata, open func(context.Context) (Stream[T], error)) (Stream[T], error) {
	if err := inv.gate.Require(meta.TargetRegion); err != nil {
		return nil, err
	}

	info := newInvokeInfo(meta, true)
	inv.observer.OnInvokeStart(ctx, info)

	start := time.Now()
	inner, err := open(ctx)
	if err != nil {
		info.Duration = time.Since(start)
		inv.observer.OnInvokeEnd(ctx, info, err)
		inv.submitError(ctx, meta, err)
		return nil, err
	}

	return &instrumentedStream[T]{
		ctx:   ctx,
		inv:   inv,
		meta:  meta,
		info:  info,
		start: start,
		inner: inner,
	}, nil
}

type instrumentedStream[T any] struct {
	ctx      context.Context
	inv      *Invoker
	meta     Metadata
	info     observer.InvokeInfo
	start    time.Time
	inner    Stream[T]
	finished bool
}

func (s *instrumentedStream[T]) Recv() (T, error) {
	chunk, err := s.inner.Recv()
	if err == nil {
		return chunk, nil
	}
	if errors.Is(err, io.EOF) {
		if subErr := s.finish(nil); subErr != nil {
			return chunk, subErr
		}
		return chunk, err
	}
	s.finish(err)
	return chunk, err
}

// Close releases the underlying stream. Closing before completion abandons
// the stream without a summary event.
func (s *instrumentedStream[T]) Close() error {
	return s.inner.Close()
}

// finish runs at most once per stream. The returned error is a failed
// awaited summary submission; error-variant submission failures are
// discarded.
func (s *instrumentedStream[T]) finish(cause error) error {
	if s.finished {
		return nil
	}
	s.finished = true

	elapsed := time.Since(s.start)
	s.info.Duration = elapsed
	s.inv.observer.OnInvokeEnd(s.ctx, s.info, cause)

	if cause != nil {
		s.inv.submitError(s.ctx, s.meta, cause)
		return nil
	}
	return s.inv.submitSuccess(s.ctx, s.meta, elapsed)
}
