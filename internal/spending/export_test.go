package spending

import "time"

// MockTimeProvider is a time provider returning a fixed time for tests.
type MockTimeProvider struct {
	FixedTime time.Time
}

// Now implements timeProvider.
func (m MockTimeProvider) Now() time.Time {
	return m.FixedTime
}

// WithTimeProvider sets the time provider for the client.
func WithTimeProvider(tp timeProvider) Options {
	return func(o *options) {
		o.timeProvider = tp
	}
}
