package ai

import "errors"

var (
	ErrInvalidConfiguration    = errors.New("invalid model configuration")
	ErrAPICallFailed           = errors.New("API call to model failed")
	ErrContextDeadlineExceeded = errors.New("context deadline exceeded")
	ErrInvalidJSON             = errors.New("model returned invalid JSON")
	ErrModelUnavailable        = errors.New("model temporarily unavailable")
	ErrRateLimitExceeded       = errors.New("rate limit exceeded")
)
