package segquery

import (
	"log/slog"

	"github.com/hupe1980/segquery/resource"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	controller       *resource.Controller
}

// Option configures Searcher constructor behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring
// searches. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &segquery.BasicMetricsCollector{}
//	s, _ := segquery.New(schema, segments, segquery.WithMetricsCollector(metrics))
//	// ... search ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for searches.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := segquery.NewJSONLogger(slog.LevelInfo)
//	s, _ := segquery.New(schema, segments, segquery.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds the segment fan-out with the given
// controller. A nil controller leaves the fan-out unbounded.
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithResourceLimits is a convenience wrapper that builds a controller from
// the given config and sets it.
func WithResourceLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.controller = resource.NewController(cfg)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
