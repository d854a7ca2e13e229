// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package squash // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/squash"

import (
	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/tracedata"
)

// Prune removes every span whose parent chain reaches one of the dropped
// span IDs. Each round removes the direct children of the current dropped set
// and makes them the dropped set of the next round, until a round removes
// nothing. Spans whose parent is not part of spans are left alone, and the
// relative order of the remaining spans is preserved.
func Prune(spans []tracedata.Span, dropped map[pcommon.SpanID]struct{}) []tracedata.Span {
	kept := spans
	for len(dropped) > 0 {
		next := make(map[pcommon.SpanID]struct{})
		remaining := make([]tracedata.Span, 0, len(kept))
		for _, s := range kept {
			if _, ok := dropped[s.Span.ParentSpanID()]; ok {
				next[s.Span.SpanID()] = struct{}{}
				continue
			}
			remaining = append(remaining, s)
		}
		kept = remaining
		dropped = next
	}
	return kept
}
