package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

// Sentinel defaults for Property fields a Prospect does not carry. Non-zero
// so the derived record passes downstream non-zero validation until the
// owner fills in real values.
const (
	defaultLandDetails   = "Pending survey"
	defaultAreaSqFt      = 1.0
	defaultPurchasePrice = 1.0
)

// Coordinator performs the guarded entity transitions: the atomic
// prospect-to-property conversion and plain in-place edits. Every read goes
// through the ownership predicate; a mismatch reads as not-found.
type Coordinator struct {
	store store.EntityStore
	log   *slog.Logger
}

// NewCoordinator builds a coordinator on the given entity store.
func NewCoordinator(st store.EntityStore) *Coordinator {
	return &Coordinator{store: st, log: slog.Default()}
}

// Convert derives a Property from the Prospect and commits the conversion as
// one atomic batch: create the property, mark the prospect Converted. Both
// writes land or neither does.
//
// The converted-status precondition is checked here against a fresh read,
// not inside the batch itself, so two sessions converting the same prospect
// at once can race past the check. Conversions are not single-writer
// exclusive today.
func (c *Coordinator) Convert(ctx context.Context, uid, prospectID string, draft models.PropertyDraft) (string, error) {
	prospect, err := c.store.GetProspect(ctx, prospectID)
	if err != nil {
		return "", err
	}
	if !CanAccess(uid, prospect) {
		return "", store.ErrNotFound
	}
	if prospect.Status == models.StatusConverted {
		return "", ErrAlreadyConverted
	}

	prop := deriveProperty(prospect, draft)
	if err := c.store.ConvertProspect(ctx, prospectID, prop); err != nil {
		c.log.Error("conversion failed", "prospectId", prospectID, "error", err)
		return "", fmt.Errorf("conversion failed: %w", err)
	}
	c.log.Info("prospect converted", "prospectId", prospectID, "propertyId", prop.ID)
	return prop.ID, nil
}

func deriveProperty(p models.Prospect, draft models.PropertyDraft) models.Property {
	now := time.Now()
	prop := models.Property{
		ID:            uuid.NewString(),
		Name:          p.Name,
		Address:       p.Address,
		PropertyType:  p.PropertyType,
		LandDetails:   draft.LandDetails,
		AreaSqFt:      draft.AreaSqFt,
		PurchaseDate:  now,
		PurchasePrice: draft.PurchasePrice,
		Status:        models.StatusActive,
		DateAdded:     now,
		OwnerUID:      p.OwnerUID,
	}
	if prop.LandDetails == "" {
		prop.LandDetails = defaultLandDetails
	}
	if prop.AreaSqFt == 0 {
		prop.AreaSqFt = defaultAreaSqFt
	}
	if prop.PurchasePrice == 0 {
		prop.PurchasePrice = defaultPurchasePrice
	}
	return prop
}

// CreateProspect stamps ownership and defaults, then writes the prospect.
func (c *Coordinator) CreateProspect(ctx context.Context, uid string, p models.Prospect) (string, error) {
	if uid == "" {
		return "", store.ErrNotFound
	}
	p.ID = uuid.NewString()
	p.OwnerUID = uid
	p.Status = models.StatusActive
	p.DateAdded = time.Now()
	if err := c.store.CreateProspect(ctx, p); err != nil {
		return "", &WriteError{Op: "prospect create", Err: err}
	}
	return p.ID, nil
}

// GetProspect reads one prospect through the ownership predicate.
func (c *Coordinator) GetProspect(ctx context.Context, uid, id string) (models.Prospect, error) {
	p, err := c.store.GetProspect(ctx, id)
	if err != nil {
		return models.Prospect{}, err
	}
	if !CanAccess(uid, p) {
		return models.Prospect{}, store.ErrNotFound
	}
	return p, nil
}

// ListProspects returns the caller's prospects.
func (c *Coordinator) ListProspects(ctx context.Context, uid string) ([]models.Prospect, error) {
	if uid == "" {
		return nil, store.ErrNotFound
	}
	return c.store.ListProspects(ctx, uid)
}

// GetProperty reads one property through the ownership predicate.
func (c *Coordinator) GetProperty(ctx context.Context, uid, id string) (models.Property, error) {
	p, err := c.store.GetProperty(ctx, id)
	if err != nil {
		return models.Property{}, err
	}
	if !CanAccess(uid, p) {
		return models.Property{}, store.ErrNotFound
	}
	return p, nil
}

// ListProperties returns the caller's properties.
func (c *Coordinator) ListProperties(ctx context.Context, uid string) ([]models.Property, error) {
	if uid == "" {
		return nil, store.ErrNotFound
	}
	return c.store.ListProperties(ctx, uid)
}

// UpdateProspect applies a plain, non-atomic edit after the ownership check.
func (c *Coordinator) UpdateProspect(ctx context.Context, uid, id string, fields map[string]any) error {
	if _, err := c.GetProspect(ctx, uid, id); err != nil {
		return err
	}
	delete(fields, "ownerUid")
	if err := c.store.UpdateProspect(ctx, id, fields); err != nil {
		return &WriteError{Op: "prospect update", Err: err}
	}
	return nil
}

// UpdateProperty applies a plain, non-atomic edit after the ownership check.
func (c *Coordinator) UpdateProperty(ctx context.Context, uid, id string, fields map[string]any) error {
	if _, err := c.GetProperty(ctx, uid, id); err != nil {
		return err
	}
	delete(fields, "ownerUid")
	if err := c.store.UpdateProperty(ctx, id, fields); err != nil {
		return &WriteError{Op: "property update", Err: err}
	}
	return nil
}

// SetPublicListing toggles a property's public visibility. A listing made
// public without a price is accepted here; the visibility gate excludes it
// from the public view until a price is set.
func (c *Coordinator) SetPublicListing(ctx context.Context, uid, id string, enabled bool, price *float64) error {
	fields := map[string]any{"isListedPublicly": enabled}
	if price != nil {
		fields["listingPrice"] = *price
	}
	return c.UpdateProperty(ctx, uid, id, fields)
}
