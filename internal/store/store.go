// Package store defines the persistence ports consumed by the services layer
// and provides two implementations: a Firestore adapter for production and an
// in-memory adapter with the same semantics for tests and local runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
)

// ErrNotFound is returned when a document does not exist. Ownership
// mismatches are also reported as ErrNotFound by the services layer, so a
// caller cannot distinguish "not yours" from "does not exist".
var ErrNotFound = errors.New("document not found")

// TransportError wraps a store or network failure. The core never retries
// these; the user action is simply retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// CancelFunc stops a live subscription. Implementations make it idempotent;
// the producer closes the snapshot channel after stopping.
type CancelFunc func()

// ChecklistStore is the persistence port for per-entity document records.
// Records live under {collection}/{entityId}/files/{slotId}; the path nesting
// is the authority for which entity owns which record.
type ChecklistStore interface {
	// UpsertRecord writes the record keyed by its slot id, overwriting the
	// fields present in rec and leaving any other stored fields untouched.
	// The upload timestamp is assigned by the store, not the caller.
	UpsertRecord(ctx context.Context, collection, entityID string, rec models.DocumentRecord) error
	DeleteRecord(ctx context.Context, collection, entityID, slotID string) error
	ListRecords(ctx context.Context, collection, entityID string) ([]models.DocumentRecord, error)
	// WatchRecords delivers the full record set for the entity, ordered by
	// upload time, on every remote change. Each delivery replaces the last.
	WatchRecords(ctx context.Context, collection, entityID string) (<-chan []models.DocumentRecord, CancelFunc, error)
}

// EntityStore is the persistence port for prospect and property documents.
type EntityStore interface {
	GetProspect(ctx context.Context, id string) (models.Prospect, error)
	CreateProspect(ctx context.Context, p models.Prospect) error
	ListProspects(ctx context.Context, ownerUID string) ([]models.Prospect, error)
	UpdateProspect(ctx context.Context, id string, fields map[string]any) error

	GetProperty(ctx context.Context, id string) (models.Property, error)
	ListProperties(ctx context.Context, ownerUID string) ([]models.Property, error)
	UpdateProperty(ctx context.Context, id string, fields map[string]any) error

	// ConvertProspect commits one atomic batch: create the property document
	// and mark the source prospect Converted. Both writes land or neither.
	ConvertProspect(ctx context.Context, prospectID string, prop models.Property) error
}

// ListingStore is the persistence port for the public visibility gate.
type ListingStore interface {
	GetOwnerProfile(ctx context.Context, ownerUID string) (models.OwnerProfile, error)
	// WatchPublicListings delivers the owner's properties with
	// isListedPublicly == true on every remote change.
	WatchPublicListings(ctx context.Context, ownerUID string) (<-chan []models.Property, CancelFunc, error)
}
