// Package cache provides the ingest idempotency stores. Storage event
// notifications can be delivered more than once; a processed event id is
// remembered so redeliveries are acknowledged without reprocessing.
package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event ids for a bounded time,
// together with the shipment each event resolved to.
type IdempotencyStore interface {
	// MarkProcessed records that an event completed processing for the given
	// shipment, with a TTL. Returns true if the event was newly marked.
	MarkProcessed(ctx context.Context, eventID, shipmentID string, ttl time.Duration) (bool, error)
	// Processed reports whether an event was already processed and, when it
	// was, the shipment id recorded for it.
	Processed(ctx context.Context, eventID string) (shipmentID string, processed bool, err error)
	// Close releases the store's resources.
	Close() error
}
