// Package botguard hooks optional attestation into InnerTube requests. When
// YouTube answers 403, a configured Solver produces a token that is applied to
// the retried request; tokens are cached keyed by the request characteristics.
package botguard

import (
	"context"
	"time"
)

// Input carries the parameters required to perform an attestation.
type Input struct {
	UserAgent     string
	PageURL       string
	ClientName    string
	ClientVersion string
	VisitorID     string
}

// Output contains the attestation result to be applied to InnerTube requests.
type Output struct {
	Token     string
	ExpiresAt time.Time
	// Optional metadata for diagnostics
	Metadata map[string]string
}

// Solver is an interface for attestation providers.
type Solver interface {
	Attest(ctx context.Context, input Input) (Output, error)
}

// Cache stores attestation outputs keyed by input characteristics.
type Cache interface {
	Get(key string) (Output, bool)
	Set(key string, value Output)
}

// KeyFromInput derives a cache key from the Input fields that influence the
// attestation result.
func KeyFromInput(in Input) string {
	return in.UserAgent + "|" + in.ClientName + "|" + in.ClientVersion + "|" + in.VisitorID
}
