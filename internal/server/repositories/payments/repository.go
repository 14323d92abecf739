package payments

import "context"

// Repository records payment gateway success callbacks. The reference is the
// primary key, making callback delivery idempotent.
type Repository interface {
	// Record stores the callback and reports whether it was seen for the
	// first time. A repeated reference is not an error.
	Record(ctx context.Context, reference, viewerID, creatorID string, amount int64) (bool, error)
}
