// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracedata holds the span record the processor works on and the
// helpers to classify spans and to turn them back into ptrace.Traces.
package tracedata // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/tracedata"

import (
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/open-telemetry/opentelemetry-collector-contrib/pkg/pdatautil"
)

// Span flag bits describing whether the parent span context was remote.
// See opentelemetry-proto trace.proto SpanFlags.
const (
	flagContextHasIsRemote uint32 = 0x00000100
	flagContextIsRemote    uint32 = 0x00000200
)

// Span is a span together with the resource and instrumentation scope it
// was reported under. The processor owns every Span it holds: they are
// copies of the incoming data and are never handed back to the caller.
type Span struct {
	Resource pcommon.Resource
	Scope    pcommon.InstrumentationScope
	Span     ptrace.Span

	// Schema URLs of the enclosing ResourceSpans and ScopeSpans.
	ResourceSchemaURL string
	ScopeSchemaURL    string
}

// HasRemoteParent reports whether the span's parent lives in another process,
// as recorded by the SDK in the span flags.
func HasRemoteParent(span ptrace.Span) bool {
	flags := span.Flags()
	return flags&flagContextHasIsRemote != 0 && flags&flagContextIsRemote != 0
}

// IsRoot reports whether the span has no local parent. Observing such a span
// marks its trace as complete.
func IsRoot(span ptrace.Span) bool {
	return span.ParentSpanID().IsEmpty() || HasRemoteParent(span)
}

// IsValid reports whether the span carries both a trace and a span identifier.
func IsValid(span ptrace.Span) bool {
	return !span.TraceID().IsEmpty() && !span.SpanID().IsEmpty()
}

// ContainsRoot reports whether any of the spans is a root span.
func ContainsRoot(spans []Span) bool {
	for _, s := range spans {
		if IsRoot(s.Span) {
			return true
		}
	}
	return false
}

type resourceKey struct {
	attrs     [16]byte
	schemaURL string
}

type scopeKey struct {
	resource  resourceKey
	schemaURL string
	name      string
	version   string
	attrs     [16]byte
}

// Assemble builds a ptrace.Traces out of the given spans. Spans reported under
// equal resources and scopes end up in the same ResourceSpans and ScopeSpans;
// both are emitted in the order they are first seen.
func Assemble(spans []Span) ptrace.Traces {
	td := ptrace.NewTraces()
	resources := make(map[resourceKey]ptrace.ResourceSpans)
	scopes := make(map[scopeKey]ptrace.SpanSlice)

	for _, s := range spans {
		rKey := resourceKey{
			attrs:     pdatautil.MapHash(s.Resource.Attributes()),
			schemaURL: s.ResourceSchemaURL,
		}
		rs, ok := resources[rKey]
		if !ok {
			rs = td.ResourceSpans().AppendEmpty()
			rs.SetSchemaUrl(s.ResourceSchemaURL)
			s.Resource.CopyTo(rs.Resource())
			resources[rKey] = rs
		}

		sKey := scopeKey{
			resource:  rKey,
			schemaURL: s.ScopeSchemaURL,
			name:      s.Scope.Name(),
			version:   s.Scope.Version(),
			attrs:     pdatautil.MapHash(s.Scope.Attributes()),
		}
		dest, ok := scopes[sKey]
		if !ok {
			ss := rs.ScopeSpans().AppendEmpty()
			ss.SetSchemaUrl(s.ScopeSchemaURL)
			s.Scope.CopyTo(ss.Scope())
			dest = ss.Spans()
			scopes[sKey] = dest
		}

		s.Span.CopyTo(dest.AppendEmpty())
	}

	return td
}
