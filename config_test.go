// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package spansquashingprocessor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/confmap/confmaptest"
	"go.opentelemetry.io/collector/confmap/xconfmap"

	"github.com/open-telemetry/opentelemetry-collector-contrib/processor/spansquashingprocessor/internal/metadata"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       component.ID
		expected component.Config
		errs     []error
	}{
		{
			id:       component.NewID(metadata.Type),
			expected: createDefaultConfig(),
		},
		{
			id: component.NewIDWithName(metadata.Type, "custom"),
			expected: &Config{
				Threshold:           10,
				AllowedNames:        []string{"retry", "fanout"},
				BufferTTL:           30 * time.Second,
				BufferMaxTraces:     500,
				BufferCheckInterval: 500 * time.Millisecond,
				NumFlushWorkers:     4,
				FlushQueueSize:      10,
			},
		},
		{
			id: component.NewIDWithName(metadata.Type, "disabled"),
			expected: &Config{
				Threshold:           defaultThreshold,
				AllowedNames:        []string{},
				BufferTTL:           defaultBufferTTL,
				BufferMaxTraces:     defaultBufferMaxTraces,
				BufferCheckInterval: defaultBufferCheckInterval,
				NumFlushWorkers:     defaultNumFlushWorkers,
				FlushQueueSize:      defaultFlushQueueSize,
			},
		},
		{
			id:   component.NewIDWithName(metadata.Type, "invalid"),
			errs: []error{errThresholdTooLow, errInvalidBufferTTL, errInvalidWorkers},
		},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			cm, err := confmaptest.LoadConf(filepath.Join("testdata", "config.yaml"))
			require.NoError(t, err)

			factory := NewFactory()
			cfg := factory.CreateDefaultConfig()

			sub, err := cm.Sub(tt.id.String())
			require.NoError(t, err)
			require.NoError(t, sub.Unmarshal(cfg))

			if len(tt.errs) > 0 {
				err := xconfmap.Validate(cfg)
				require.Error(t, err)
				for _, want := range tt.errs {
					assert.ErrorIs(t, err, want)
				}
				return
			}

			assert.NoError(t, xconfmap.Validate(cfg))
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{
			name:   "default",
			modify: func(*Config) {},
		},
		{
			name:   "threshold of one",
			modify: func(cfg *Config) { cfg.Threshold = 1 },
			err:    errThresholdTooLow,
		},
		{
			name:   "empty allowed name",
			modify: func(cfg *Config) { cfg.AllowedNames = []string{"retry", ""} },
			err:    errEmptyAllowedSpanName,
		},
		{
			name:   "negative ttl",
			modify: func(cfg *Config) { cfg.BufferTTL = -time.Second },
			err:    errInvalidBufferTTL,
		},
		{
			name:   "no buffer capacity",
			modify: func(cfg *Config) { cfg.BufferMaxTraces = 0 },
			err:    errInvalidMaxTraces,
		},
		{
			name:   "no check interval",
			modify: func(cfg *Config) { cfg.BufferCheckInterval = 0 },
			err:    errInvalidInterval,
		},
		{
			name:   "negative queue size",
			modify: func(cfg *Config) { cfg.FlushQueueSize = -1 },
			err:    errInvalidQueueSize,
		},
		{
			name:   "unbuffered queue",
			modify: func(cfg *Config) { cfg.FlushQueueSize = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createDefaultConfig().(*Config)
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAllowedNameSet(t *testing.T) {
	cfg := createDefaultConfig().(*Config)
	assert.Nil(t, cfg.allowedNameSet())
	assert.False(t, cfg.passthrough())

	cfg.AllowedNames = []string{}
	assert.NotNil(t, cfg.allowedNameSet())
	assert.Empty(t, cfg.allowedNameSet())
	assert.True(t, cfg.passthrough())

	cfg.AllowedNames = []string{"retry", "retry", "fanout"}
	assert.Equal(t, map[string]struct{}{"retry": {}, "fanout": {}}, cfg.allowedNameSet())
	assert.False(t, cfg.passthrough())
}
