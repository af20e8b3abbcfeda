package errs

import (
	"errors"
)

var (
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota for this client is exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrAuthRequired indicates the remote service demanded authentication.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAPIKeyNotFound indicates the InnerTube API key could not be scraped.
	ErrAPIKeyNotFound = errors.New("api key not found")
	// ErrPlaylistUnavailable indicates the exclusion playlist cannot be listed.
	ErrPlaylistUnavailable = errors.New("playlist unavailable")
)
