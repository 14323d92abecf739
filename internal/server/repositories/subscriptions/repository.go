package subscriptions

import "context"

// Repository is the persistence surface for the creator/subscriber
// relation. The primary key keeps the set free of duplicates.
type Repository interface {
	// Add inserts the relation and reports whether a row was created.
	// false means the viewer was already subscribed.
	Add(ctx context.Context, creatorID, subscriberID string) (bool, error)
	// Remove deletes the relation; removing an absent row is a no-op.
	Remove(ctx context.Context, creatorID, subscriberID string) error
	Exists(ctx context.Context, creatorID, subscriberID string) (bool, error)
}
