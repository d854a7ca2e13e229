// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package spansquashingprocessor // import "github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor"

import (
	"errors"
	"time"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/confmap/xconfmap"
	"go.uber.org/multierr"
)

var (
	errThresholdTooLow      = errors.New("threshold must be at least 2")
	errInvalidBufferTTL     = errors.New("buffer_ttl must be positive")
	errInvalidMaxTraces     = errors.New("buffer_max_traces must be positive")
	errInvalidInterval      = errors.New("buffer_check_interval must be positive")
	errInvalidWorkers       = errors.New("num_flush_workers must be positive")
	errInvalidQueueSize     = errors.New("flush_queue_size must not be negative")
	errEmptyAllowedSpanName = errors.New("allowed_names must not contain empty names")
)

// Config defines the configuration for the span squashing processor.
type Config struct {
	// Threshold is the minimum number of spans sharing parent, name and status
	// that get squashed into a single span.
	Threshold int `mapstructure:"threshold"`

	// AllowedNames restricts squashing to spans with one of these names. When
	// not set every name is eligible. When set to an empty list squashing is
	// disabled and spans are forwarded untouched.
	AllowedNames []string `mapstructure:"allowed_names"`

	// BufferTTL is how long spans of a trace without root are kept after the
	// trace was last touched. Expired traces are forwarded without squashing.
	BufferTTL time.Duration `mapstructure:"buffer_ttl"`

	// BufferMaxTraces is the maximum number of traces held in the buffer. The
	// least recently touched trace is forwarded when the limit is reached.
	BufferMaxTraces int `mapstructure:"buffer_max_traces"`

	// BufferCheckInterval is the period of the check for expired traces.
	BufferCheckInterval time.Duration `mapstructure:"buffer_check_interval"`

	// NumFlushWorkers is the number of goroutines sending traces to the next consumer.
	NumFlushWorkers int `mapstructure:"num_flush_workers"`

	// FlushQueueSize is the number of traces waiting for a flush worker before
	// ingestion blocks.
	FlushQueueSize int `mapstructure:"flush_queue_size"`

	// prevent unkeyed literal initialization
	_ struct{}
}

var _ component.Config = (*Config)(nil)
var _ xconfmap.Validator = (*Config)(nil)

// Validate checks if the processor configuration is valid.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.Threshold < 2 {
		errs = multierr.Append(errs, errThresholdTooLow)
	}
	for _, name := range cfg.AllowedNames {
		if name == "" {
			errs = multierr.Append(errs, errEmptyAllowedSpanName)
			break
		}
	}
	if cfg.BufferTTL <= 0 {
		errs = multierr.Append(errs, errInvalidBufferTTL)
	}
	if cfg.BufferMaxTraces <= 0 {
		errs = multierr.Append(errs, errInvalidMaxTraces)
	}
	if cfg.BufferCheckInterval <= 0 {
		errs = multierr.Append(errs, errInvalidInterval)
	}
	if cfg.NumFlushWorkers <= 0 {
		errs = multierr.Append(errs, errInvalidWorkers)
	}
	if cfg.FlushQueueSize < 0 {
		errs = multierr.Append(errs, errInvalidQueueSize)
	}
	return errs
}

// passthrough reports whether squashing is disabled altogether.
func (cfg *Config) passthrough() bool {
	return cfg.AllowedNames != nil && len(cfg.AllowedNames) == 0
}

// allowedNameSet returns the eligible span names, or nil when every name is eligible.
func (cfg *Config) allowedNameSet() map[string]struct{} {
	if cfg.AllowedNames == nil {
		return nil
	}
	set := make(map[string]struct{}, len(cfg.AllowedNames))
	for _, name := range cfg.AllowedNames {
		set[name] = struct{}{}
	}
	return set
}
