// internal/fulfillment/config.go
package fulfillment

import "time"

// Config holds the worker's tunables.
type Config struct {
	Timeout        time.Duration
	CandidateLimit int
	MinCandidates  int
	SampleSize     int
	EmailSubject   string
}

// DefaultConfig matches the production settings: query 50 candidates,
// require at least 3, sample 3.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		CandidateLimit: 50,
		MinCandidates:  3,
		SampleSize:     3,
		EmailSubject:   "Your Dining Concierge Suggestions",
	}
}
