package entigo

import (
	"github.com/hupe1980/entigo/codec"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	indexes          []string
	compression      codec.Compression
}

// Option configures builder construction.
//
// Options primarily exist to avoid exploding the API surface with
// constructor variants.
type Option func(*options)

// WithLogger configures structured logging for builder operations.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithIndexes registers value-to-position indexes for the named attributes
// at construction time. Names outside the schema are ignored.
func WithIndexes(names ...string) Option {
	return func(o *options) {
		o.indexes = append(o.indexes, names...)
	}
}

// WithCompression configures the block compression used by Save.
// The default is codec.DefaultCompression.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}
