package dispatch

import "log/slog"

// managerOptions holds configuration for a manager (unexported)
type managerOptions struct {
	logger          *slog.Logger
	tracingEnabled  bool
	recoveryEnabled bool
	metricsEnabled  bool
}

// Option option function for manager configuration
type Option func(*managerOptions)

// WithLogger sets a custom logger for the manager
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracing enables/disables tracing for all events on this manager
func WithTracing(enabled bool) Option {
	return func(o *managerOptions) {
		o.tracingEnabled = enabled
	}
}

// WithRecovery enables/disables panic recovery in handlers for all events
// on this manager. Recovery should stay enabled outside of tests.
func WithRecovery(enabled bool) Option {
	return func(o *managerOptions) {
		o.recoveryEnabled = enabled
	}
}

// WithMetrics enables/disables metrics for all events on this manager
func WithMetrics(enabled bool) Option {
	return func(o *managerOptions) {
		o.metricsEnabled = enabled
	}
}

// newManagerOptions creates options with defaults and applies provided options
func newManagerOptions(opts ...Option) *managerOptions {
	o := &managerOptions{
		logger:          slog.Default(),
		tracingEnabled:  true,
		recoveryEnabled: true,
		metricsEnabled:  true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
