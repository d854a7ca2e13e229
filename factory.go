// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package spansquashingprocessor // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor"

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/collector/processor"
	"go.opentelemetry.io/collector/processor/processorhelper"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/metadata"
)

const (
	defaultThreshold           = 50
	defaultBufferTTL           = 2 * time.Minute
	defaultBufferMaxTraces     = 1000
	defaultBufferCheckInterval = time.Second
	defaultNumFlushWorkers     = 1
	defaultFlushQueueSize      = 100
)

// NewFactory returns a new factory for the span squashing processor.
func NewFactory() processor.Factory {
	return processor.NewFactory(
		metadata.Type,
		createDefaultConfig,
		processor.WithTraces(createTracesProcessor, metadata.TracesStability),
	)
}

func createDefaultConfig() component.Config {
	return &Config{
		Threshold:           defaultThreshold,
		BufferTTL:           defaultBufferTTL,
		BufferMaxTraces:     defaultBufferMaxTraces,
		BufferCheckInterval: defaultBufferCheckInterval,
		NumFlushWorkers:     defaultNumFlushWorkers,
		FlushQueueSize:      defaultFlushQueueSize,
	}
}

func createTracesProcessor(
	ctx context.Context,
	set processor.Settings,
	cfg component.Config,
	nextConsumer consumer.Traces,
) (processor.Traces, error) {
	oCfg, ok := cfg.(*Config)
	if !ok {
		return nil, fmt.Errorf("invalid config type: %+v", cfg)
	}

	if oCfg.passthrough() {
		set.Logger.Info("Span squashing disabled by an empty allowed_names, forwarding spans untouched")
		return processorhelper.NewTraces(
			ctx,
			set,
			cfg,
			nextConsumer,
			func(_ context.Context, td ptrace.Traces) (ptrace.Traces, error) {
				return td, nil
			},
			processorhelper.WithCapabilities(consumer.Capabilities{MutatesData: false}),
		)
	}

	sp, err := newSquashingProcessor(set, nextConsumer, oCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating the span squashing processor: %w", err)
	}
	return sp, nil
}
