package remote

import "time"

// DefaultBaseURL is the RobotEvents site.
const DefaultBaseURL = "https://www.robotevents.com"

// Config holds the fetch client configuration.
type Config struct {
	// BaseURL is the scheme and host of the remote service.
	BaseURL string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// BaseDelay is the wait after the first transient failure; it doubles
	// with every further failure.
	BaseDelay time.Duration

	// MaxDelay caps the wait between transient failures.
	MaxDelay time.Duration

	// MaxRetries is how many times a transient failure is retried.
	MaxRetries int

	// MaxRateLimitWaits is how many 429 responses a single request tolerates.
	MaxRateLimitWaits int

	// RequestsPerSecond paces outbound requests per host. 0 disables pacing.
	RequestsPerSecond float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         "vexsync/1.0 (+https://github.com/xraph/vexsync)",
		Timeout:           30 * time.Second,
		BaseDelay:         time.Second,
		MaxDelay:          2 * time.Minute,
		MaxRetries:        8,
		MaxRateLimitWaits: 100,
		RequestsPerSecond: 5,
	}
}
