// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package spanbuffer holds the spans of traces whose root span has not been
// observed yet.
package spanbuffer // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/spanbuffer"

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/tracedata"
)

var (
	errInvalidMaxTraces = errors.New("max traces must be positive")
	errInvalidTTL       = errors.New("ttl must be positive")
)

// Reason tells why a trace left the buffer without its root span.
type Reason string

const (
	// ReasonExpired is used for traces untouched for longer than the TTL.
	ReasonExpired Reason = "ttl"
	// ReasonCapacity is used for traces pushed out to make room for a new one.
	ReasonCapacity Reason = "capacity"
	// ReasonShutdown is used for traces still buffered when the buffer is drained.
	ReasonShutdown Reason = "shutdown"
)

// EvictFunc receives the spans of an evicted trace, exactly as they were
// buffered. It is called once per evicted trace, never while the buffer lock is
// held.
type EvictFunc func(traceID pcommon.TraceID, spans []tracedata.Span, reason Reason)

// Option configures a Buffer.
type Option func(*Buffer)

// WithClock replaces the clock used to track when traces were last touched.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		b.now = now
	}
}

type entry struct {
	traceID     pcommon.TraceID
	spans       []tracedata.Span
	lastTouched time.Time
}

type eviction struct {
	entry  *entry
	reason Reason
}

// Buffer is a concurrency safe store of spans keyed by trace ID. Entries are
// kept in the order they were last touched: the least recently touched entry
// is the first to go when the buffer is full or the TTL elapses.
type Buffer struct {
	mtx       sync.Mutex
	lru       *simplelru.LRU[pcommon.TraceID, *entry]
	spanCount int

	maxTraces int
	ttl       time.Duration
	onEvict   EvictFunc
	now       func() time.Time
}

// New creates a Buffer holding at most maxTraces traces, each for at most ttl
// after it was last touched.
func New(maxTraces int, ttl time.Duration, onEvict EvictFunc, opts ...Option) (*Buffer, error) {
	if maxTraces <= 0 {
		return nil, errInvalidMaxTraces
	}
	if ttl <= 0 {
		return nil, errInvalidTTL
	}

	// capacity is enforced by Merge so that evicted spans go through onEvict
	lru, err := simplelru.NewLRU[pcommon.TraceID, *entry](maxTraces, nil)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		lru:       lru,
		maxTraces: maxTraces,
		ttl:       ttl,
		onEvict:   onEvict,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Merge appends spans to the trace's entry, creating it when absent. Adding a
// trace to a full buffer evicts the least recently touched trace first.
func (b *Buffer) Merge(traceID pcommon.TraceID, spans []tracedata.Span) {
	b.notify(b.merge(traceID, spans))
}

func (b *Buffer) merge(traceID pcommon.TraceID, spans []tracedata.Span) []eviction {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	now := b.now()
	b.spanCount += len(spans)

	if e, ok := b.lru.Get(traceID); ok {
		e.spans = append(e.spans, spans...)
		e.lastTouched = now
		return nil
	}

	var evicted []eviction
	for b.lru.Len() >= b.maxTraces {
		_, oldest, ok := b.lru.RemoveOldest()
		if !ok {
			break
		}
		b.spanCount -= len(oldest.spans)
		evicted = append(evicted, eviction{entry: oldest, reason: ReasonCapacity})
	}

	b.lru.Add(traceID, &entry{
		traceID:     traceID,
		spans:       append([]tracedata.Span(nil), spans...),
		lastTouched: now,
	})
	return evicted
}

// TakeAndClear removes the trace's entry and returns its spans, or nil when the
// trace is not buffered. The eviction callback is not invoked.
func (b *Buffer) TakeAndClear(traceID pcommon.TraceID) []tracedata.Span {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	e, ok := b.lru.Peek(traceID)
	if !ok {
		return nil
	}
	b.lru.Remove(traceID)
	b.spanCount -= len(e.spans)
	return e.spans
}

// Expire evicts every trace that was not touched during the last TTL.
func (b *Buffer) Expire() {
	b.notify(b.expire())
}

func (b *Buffer) expire() []eviction {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	deadline := b.now().Add(-b.ttl)
	var evicted []eviction
	for {
		_, oldest, ok := b.lru.GetOldest()
		if !ok || oldest.lastTouched.After(deadline) {
			return evicted
		}
		b.lru.RemoveOldest()
		b.spanCount -= len(oldest.spans)
		evicted = append(evicted, eviction{entry: oldest, reason: ReasonExpired})
	}
}

// Drain evicts every buffered trace, oldest first.
func (b *Buffer) Drain() {
	b.notify(b.drain())
}

func (b *Buffer) drain() []eviction {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	evicted := make([]eviction, 0, b.lru.Len())
	for {
		_, oldest, ok := b.lru.RemoveOldest()
		if !ok {
			break
		}
		evicted = append(evicted, eviction{entry: oldest, reason: ReasonShutdown})
	}
	b.spanCount = 0
	return evicted
}

func (b *Buffer) notify(evicted []eviction) {
	if b.onEvict == nil {
		return
	}
	for _, ev := range evicted {
		b.onEvict(ev.entry.traceID, ev.entry.spans, ev.reason)
	}
}

// Len returns the number of buffered traces.
func (b *Buffer) Len() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.lru.Len()
}

// SpanCount returns the number of buffered spans across all traces.
func (b *Buffer) SpanCount() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.spanCount
}
