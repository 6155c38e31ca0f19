package models

import "time"

// RateLimitResult is the outcome of a single bucket check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Message string `json:"message"`
}

// IPKey namespaces a client IP for the registration bucket.
func IPKey(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "register:ip:" + ip
}
