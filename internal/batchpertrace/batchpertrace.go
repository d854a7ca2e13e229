// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchpertrace // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/batchpertrace"

import (
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/tracedata"
)

// Batch holds every span of a single trace found in one incoming ptrace.Traces.
type Batch struct {
	TraceID pcommon.TraceID
	Spans   []tracedata.Span
}

// HasRoot reports whether the batch contains the root span of its trace.
func (b Batch) HasRoot() bool {
	return tracedata.ContainsRoot(b.Spans)
}

// Partition returns one Batch for each trace in the given ptrace.Traces, in the
// order each trace is first seen. Spans keep their relative order within a
// trace. Spans missing a trace or span ID are skipped and counted as malformed.
//
// The returned spans are copies: the input can be reused by the caller.
func Partition(td ptrace.Traces) (batches []Batch, malformed int) {
	index := make(map[pcommon.TraceID]int)

	for i := 0; i < td.ResourceSpans().Len(); i++ {
		rs := td.ResourceSpans().At(i)
		// resource and scope copies are shared by every span under them
		resource := pcommon.NewResource()
		rs.Resource().CopyTo(resource)

		for j := 0; j < rs.ScopeSpans().Len(); j++ {
			ss := rs.ScopeSpans().At(j)
			scope := pcommon.NewInstrumentationScope()
			ss.Scope().CopyTo(scope)

			for k := 0; k < ss.Spans().Len(); k++ {
				span := ss.Spans().At(k)
				if !tracedata.IsValid(span) {
					malformed++
					continue
				}

				owned := ptrace.NewSpan()
				span.CopyTo(owned)

				traceID := span.TraceID()
				pos, ok := index[traceID]
				if !ok {
					pos = len(batches)
					index[traceID] = pos
					batches = append(batches, Batch{TraceID: traceID})
				}
				batches[pos].Spans = append(batches[pos].Spans, tracedata.Span{
					Resource:          resource,
					Scope:             scope,
					Span:              owned,
					ResourceSchemaURL: rs.SchemaUrl(),
					ScopeSchemaURL:    ss.SchemaUrl(),
				})
			}
		}
	}

	return batches, malformed
}
