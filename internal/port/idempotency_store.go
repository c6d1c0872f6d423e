package port

import "context"

// IdempotencyStore remembers keys it has seen before.
type IdempotencyStore interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
