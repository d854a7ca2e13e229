// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package spansquashingprocessor // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor"

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/collector/processor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/batchpertrace"
	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/metadata"
	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/spanbuffer"
	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/squash"
	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/tracedata"
)

const (
	flushReasonKey  = "reason"
	flushReasonRoot = "root"
)

// flush is a finalized trace on its way to the next consumer.
type flush struct {
	traceID pcommon.TraceID
	reason  string
	td      ptrace.Traces
}

// squashingProcessor buffers the spans of each trace until its root span shows
// up, then squashes repetitive sibling spans and forwards the trace. Traces
// whose root never arrives are forwarded untouched once they leave the buffer.
//
// Delivery to the next consumer happens on flush workers: errors are logged
// and counted, never retried nor returned to the caller.
type squashingProcessor struct {
	logger       *zap.Logger
	nextConsumer consumer.Traces
	telemetry    *metadata.TelemetryBuilder

	threshold     int
	allowedNames  map[string]struct{}
	buffer        *spanbuffer.Buffer
	checkInterval time.Duration
	numWorkers    int

	// runningMu guards running and the closing of flushQueue.
	runningMu  sync.RWMutex
	running    bool
	flushQueue chan flush

	cancel  context.CancelFunc
	sweeper sync.WaitGroup
	workers sync.WaitGroup
}

var _ processor.Traces = (*squashingProcessor)(nil)

func newSquashingProcessor(set processor.Settings, nextConsumer consumer.Traces, cfg *Config) (*squashingProcessor, error) {
	telemetryBuilder, err := metadata.NewTelemetryBuilder(set.TelemetrySettings)
	if err != nil {
		return nil, err
	}

	sp := &squashingProcessor{
		logger:        set.Logger,
		nextConsumer:  nextConsumer,
		telemetry:     telemetryBuilder,
		threshold:     cfg.Threshold,
		allowedNames:  cfg.allowedNameSet(),
		checkInterval: cfg.BufferCheckInterval,
		numWorkers:    cfg.NumFlushWorkers,
		flushQueue:    make(chan flush, cfg.FlushQueueSize),
	}

	sp.buffer, err = spanbuffer.New(cfg.BufferMaxTraces, cfg.BufferTTL, sp.onEvict)
	if err != nil {
		return nil, err
	}

	err = telemetryBuilder.RegisterProcessorSpansquashingTracesBufferedCallback(func(_ context.Context, o metric.Int64Observer) error {
		o.Observe(int64(sp.buffer.Len()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sp, nil
}

// Start launches the flush workers and the expiration sweeper.
func (sp *squashingProcessor) Start(context.Context, component.Host) error {
	ctx, cancel := context.WithCancel(context.Background())
	sp.cancel = cancel

	sp.runningMu.Lock()
	sp.running = true
	sp.runningMu.Unlock()

	for i := 0; i < sp.numWorkers; i++ {
		sp.workers.Add(1)
		go sp.flushWorker()
	}

	sp.sweeper.Add(1)
	go sp.sweep(ctx)

	return nil
}

// Shutdown forwards every trace still in the buffer and waits for the flush
// workers to deliver what is queued.
func (sp *squashingProcessor) Shutdown(ctx context.Context) error {
	defer sp.telemetry.Shutdown()

	if sp.cancel != nil {
		sp.cancel()
	}
	sp.sweeper.Wait()

	sp.buffer.Drain()

	sp.runningMu.Lock()
	if sp.running {
		sp.running = false
		close(sp.flushQueue)
	}
	sp.runningMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sp.workers.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Capabilities returns the consumer's capabilities. Incoming data is copied
// before it is buffered, so it is never mutated.
func (sp *squashingProcessor) Capabilities() consumer.Capabilities {
	return consumer.Capabilities{MutatesData: false}
}

// ConsumeTraces splits the batch per trace. Traces whose root span is part of
// the batch are squashed and flushed together with their buffered spans; the
// others are buffered. Spans without trace or span ID are dropped.
func (sp *squashingProcessor) ConsumeTraces(ctx context.Context, td ptrace.Traces) error {
	batches, malformed := batchpertrace.Partition(td)
	if malformed > 0 {
		sp.telemetry.ProcessorSpansquashingSpansMalformed.Add(ctx, int64(malformed))
		sp.logger.Debug("Dropped spans without trace or span ID", zap.Int("span_count", malformed))
	}

	for _, batch := range batches {
		if !batch.HasRoot() {
			sp.buffer.Merge(batch.TraceID, batch.Spans)
			continue
		}

		spans := append(sp.buffer.TakeAndClear(batch.TraceID), batch.Spans...)
		sp.flushComplete(ctx, batch.TraceID, spans)
	}

	return nil
}

func (sp *squashingProcessor) flushComplete(ctx context.Context, traceID pcommon.TraceID, spans []tracedata.Span) {
	kept, dropped := squash.Squash(spans, sp.threshold, sp.allowedNames)
	final := squash.Prune(kept, dropped)
	pruned := len(kept) - len(final)

	if len(dropped) > 0 {
		sp.telemetry.ProcessorSpansquashingSpansSquashed.Add(ctx, int64(len(dropped)))
	}
	if pruned > 0 {
		sp.telemetry.ProcessorSpansquashingSpansPruned.Add(ctx, int64(pruned))
	}

	sp.logger.Debug("Flushing complete trace",
		zap.Stringer("trace_id", traceID),
		zap.Int("span_count", len(spans)),
		zap.Int("squashed", len(dropped)),
		zap.Int("pruned", pruned),
	)

	sp.enqueue(ctx, flush{
		traceID: traceID,
		reason:  flushReasonRoot,
		td:      tracedata.Assemble(final),
	})
}

// onEvict forwards a trace that left the buffer before its root span arrived.
// Without a root the trace is not known to be complete, so it is not squashed.
func (sp *squashingProcessor) onEvict(traceID pcommon.TraceID, spans []tracedata.Span, reason spanbuffer.Reason) {
	sp.logger.Debug("Flushing incomplete trace",
		zap.Stringer("trace_id", traceID),
		zap.Int("span_count", len(spans)),
		zap.String(flushReasonKey, string(reason)),
	)

	sp.enqueue(context.Background(), flush{
		traceID: traceID,
		reason:  string(reason),
		td:      tracedata.Assemble(spans),
	})
}

// enqueue hands a flush to the workers, blocking while the queue is full. Once
// the processor is not running the flush is delivered on the calling goroutine
// instead.
func (sp *squashingProcessor) enqueue(ctx context.Context, f flush) {
	sp.telemetry.ProcessorSpansquashingTracesFlushed.Add(ctx, 1,
		metric.WithAttributes(attribute.String(flushReasonKey, f.reason)))

	sp.runningMu.RLock()
	defer sp.runningMu.RUnlock()

	if !sp.running {
		sp.deliver(f)
		return
	}
	sp.flushQueue <- f
}

func (sp *squashingProcessor) flushWorker() {
	defer sp.workers.Done()
	for f := range sp.flushQueue {
		sp.deliver(f)
	}
}

func (sp *squashingProcessor) deliver(f flush) {
	ctx := context.Background()
	if err := sp.nextConsumer.ConsumeTraces(ctx, f.td); err != nil {
		sp.telemetry.ProcessorSpansquashingFlushFailures.Add(ctx, 1)
		sp.logger.Error("Failed to forward trace",
			zap.Stringer("trace_id", f.traceID),
			zap.String(flushReasonKey, f.reason),
			zap.Int("span_count", f.td.SpanCount()),
			zap.Error(err),
		)
	}
}

func (sp *squashingProcessor) sweep(ctx context.Context) {
	defer sp.sweeper.Done()

	ticker := time.NewTicker(sp.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sp.buffer.Expire()
		}
	}
}
