// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package squash collapses groups of repetitive sibling spans of a complete
// trace into a single representative span.
package squash // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/squash"

import (
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/tracedata"
)

const (
	// AttributeSquashed marks a span that stands for a group of squashed spans.
	AttributeSquashed = "trace.squashed"
	// AttributeSquashCount holds the number of spans the representative replaced,
	// itself included.
	AttributeSquashCount = "trace.squash_count"
)

// groupKey identifies spans that are structurally identical: same parent,
// same operation name and same completion status.
type groupKey struct {
	parent  pcommon.SpanID
	name    string
	code    ptrace.StatusCode
	message string
}

func keyOf(span ptrace.Span) groupKey {
	return groupKey{
		parent:  span.ParentSpanID(),
		name:    span.Name(),
		code:    span.Status().Code(),
		message: span.Status().Message(),
	}
}

// Squash groups the spans of a trace by parent, name and status and replaces
// every group of at least threshold spans with one squashed span. When
// allowedNames is non-nil only groups whose name it contains are eligible; an
// empty, non-nil allowedNames disables squashing altogether.
//
// It returns the spans to keep and the IDs of the spans absorbed into a
// representative. The representative reuses the ID of the earliest span of its
// group, which is never reported as dropped. Groups are emitted in the order
// they are first seen in trace.
func Squash(trace []tracedata.Span, threshold int, allowedNames map[string]struct{}) ([]tracedata.Span, map[pcommon.SpanID]struct{}) {
	dropped := make(map[pcommon.SpanID]struct{})
	if allowedNames != nil && len(allowedNames) == 0 {
		return trace, dropped
	}

	var order []groupKey
	groups := make(map[groupKey][]tracedata.Span)
	for _, s := range trace {
		key := keyOf(s.Span)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	kept := make([]tracedata.Span, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if !eligible(key.name, allowedNames) || len(group) < threshold {
			kept = append(kept, group...)
			continue
		}

		representative := collapse(group)
		kept = append(kept, representative)
		for _, s := range group {
			if id := s.Span.SpanID(); id != representative.Span.SpanID() {
				dropped[id] = struct{}{}
			}
		}
	}

	return kept, dropped
}

func eligible(name string, allowedNames map[string]struct{}) bool {
	if allowedNames == nil {
		return true
	}
	_, ok := allowedNames[name]
	return ok
}

// collapse builds the representative of a group: a copy of its earliest
// starting span (the first one in input order on ties) stretched to the latest
// end time of the group.
func collapse(group []tracedata.Span) tracedata.Span {
	earliest := group[0]
	var end pcommon.Timestamp
	for _, s := range group {
		if s.Span.StartTimestamp() < earliest.Span.StartTimestamp() {
			earliest = s
		}
		if e := s.Span.EndTimestamp(); e > end {
			end = e
		}
	}

	span := ptrace.NewSpan()
	earliest.Span.CopyTo(span)
	span.SetEndTimestamp(end)
	span.Attributes().PutBool(AttributeSquashed, true)
	span.Attributes().PutInt(AttributeSquashCount, int64(len(group)))

	representative := earliest
	representative.Span = span
	return representative
}
