// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

//go:generate mdatagen metadata.yaml

// Package spansquashingprocessor reduces the size of traces with many
// repetitive sibling spans.
//
// Spans are buffered per trace until the trace's root span is observed. The
// complete trace is then inspected: every group of at least threshold spans
// sharing parent, name and status is replaced by a single span covering the
// whole group, marked with the trace.squashed and trace.squash_count
// attributes, and the descendants of the replaced spans are removed. Traces
// whose root never arrives leave the buffer after buffer_ttl, or when the
// buffer is full, and are forwarded without squashing.
package spansquashingprocessor // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor"
