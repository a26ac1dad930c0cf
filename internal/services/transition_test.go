package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/services"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

const ownerUID = "owner-1"

func seedProspect(st *store.Memory) models.Prospect {
	p := models.Prospect{
		ID:           "prospect-1",
		Name:         "Lakeside Plot",
		Address:      "12 Lake Rd",
		PropertyType: "Land",
		Status:       models.StatusActive,
		OwnerUID:     ownerUID,
	}
	st.SeedProspect(p)
	return p
}

func TestConvertCreatesPropertyAndMarksProspect(t *testing.T) {
	st := store.NewMemory()
	src := seedProspect(st)
	coord := services.NewCoordinator(st)

	draft := models.PropertyDraft{LandDetails: "2 acre lakeside", AreaSqFt: 87120, PurchasePrice: 450000}
	propertyID, err := coord.Convert(context.Background(), ownerUID, src.ID, draft)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	prop, err := st.GetProperty(context.Background(), propertyID)
	if err != nil {
		t.Fatalf("derived property missing: %v", err)
	}
	if prop.Name != src.Name || prop.Address != src.Address || prop.OwnerUID != ownerUID {
		t.Errorf("derived property did not inherit prospect fields: %+v", prop)
	}
	if prop.AreaSqFt != 87120 || prop.PurchasePrice != 450000 || prop.LandDetails != "2 acre lakeside" {
		t.Errorf("draft fields not applied: %+v", prop)
	}
	if prop.IsListedPublic {
		t.Errorf("derived property must not be publicly listed by default")
	}

	converted, err := st.GetProspect(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("get prospect: %v", err)
	}
	if converted.Status != models.StatusConverted {
		t.Fatalf("prospect status = %q, want %q", converted.Status, models.StatusConverted)
	}
}

func TestConvertSentinelDefaults(t *testing.T) {
	st := store.NewMemory()
	src := seedProspect(st)
	coord := services.NewCoordinator(st)

	propertyID, err := coord.Convert(context.Background(), ownerUID, src.ID, models.PropertyDraft{})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	prop, err := st.GetProperty(context.Background(), propertyID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if prop.AreaSqFt == 0 || prop.PurchasePrice == 0 || prop.LandDetails == "" {
		t.Fatalf("required fields must get non-zero sentinel defaults: %+v", prop)
	}
	if prop.PurchaseDate.IsZero() || prop.DateAdded.IsZero() {
		t.Fatalf("date fields must be stamped: %+v", prop)
	}
	if !prop.PurchaseDate.Equal(prop.DateAdded) {
		t.Fatalf("conversion must stamp both dates from one instant: purchase=%v added=%v", prop.PurchaseDate, prop.DateAdded)
	}
}

func TestConvertIsAtomicUnderBatchFailure(t *testing.T) {
	st := store.NewMemory()
	src := seedProspect(st)
	coord := services.NewCoordinator(st)

	st.FailWrites = fmt.Errorf("network dropped mid-commit")
	if _, err := coord.Convert(context.Background(), ownerUID, src.ID, models.PropertyDraft{}); err == nil {
		t.Fatalf("expected conversion failure")
	}
	st.FailWrites = nil

	// Neither write may have landed.
	p, err := st.GetProspect(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("get prospect: %v", err)
	}
	if p.Status != models.StatusActive {
		t.Fatalf("failed conversion must not mark prospect, status = %q", p.Status)
	}
	props, err := st.ListProperties(context.Background(), ownerUID)
	if err != nil {
		t.Fatalf("list properties: %v", err)
	}
	if len(props) != 0 {
		t.Fatalf("failed conversion must not create a property: %+v", props)
	}

	// The action is retryable: the same call succeeds once the store is back.
	if _, err := coord.Convert(context.Background(), ownerUID, src.ID, models.PropertyDraft{}); err != nil {
		t.Fatalf("retry after transport failure should succeed: %v", err)
	}
}

func TestConvertTwiceRejected(t *testing.T) {
	st := store.NewMemory()
	src := seedProspect(st)
	coord := services.NewCoordinator(st)

	if _, err := coord.Convert(context.Background(), ownerUID, src.ID, models.PropertyDraft{}); err != nil {
		t.Fatalf("first convert failed: %v", err)
	}
	_, err := coord.Convert(context.Background(), ownerUID, src.ID, models.PropertyDraft{})
	if !errors.Is(err, services.ErrAlreadyConverted) {
		t.Fatalf("expected ErrAlreadyConverted, got %v", err)
	}

	props, listErr := st.ListProperties(context.Background(), ownerUID)
	if listErr != nil {
		t.Fatalf("list properties: %v", listErr)
	}
	if len(props) != 1 {
		t.Fatalf("second conversion must not create another property, got %d", len(props))
	}
}

func TestConvertOwnershipMismatchReadsAsNotFound(t *testing.T) {
	st := store.NewMemory()
	src := seedProspect(st)
	coord := services.NewCoordinator(st)

	_, err := coord.Convert(context.Background(), "someone-else", src.ID, models.PropertyDraft{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("ownership mismatch must read as not-found, got %v", err)
	}
}

func TestUpdatePropertyGuarded(t *testing.T) {
	st := store.NewMemory()
	st.SeedProperty(models.Property{ID: "prop-9", Name: "Old", OwnerUID: ownerUID})
	coord := services.NewCoordinator(st)

	if err := coord.UpdateProperty(context.Background(), "someone-else", "prop-9", map[string]any{"name": "Hacked"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign update must read as not-found, got %v", err)
	}

	fields := map[string]any{"name": "New", "ownerUid": "someone-else"}
	if err := coord.UpdateProperty(context.Background(), ownerUID, "prop-9", fields); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	p, err := st.GetProperty(context.Background(), "prop-9")
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if p.Name != "New" {
		t.Errorf("name = %q, want New", p.Name)
	}
	if p.OwnerUID != ownerUID {
		t.Errorf("ownerUid must not be editable, got %q", p.OwnerUID)
	}
}

func TestSetPublicListing(t *testing.T) {
	st := store.NewMemory()
	st.SeedProperty(models.Property{ID: "prop-9", OwnerUID: ownerUID})
	coord := services.NewCoordinator(st)

	price := 500000.0
	if err := coord.SetPublicListing(context.Background(), ownerUID, "prop-9", true, &price); err != nil {
		t.Fatalf("set public listing failed: %v", err)
	}
	p, err := st.GetProperty(context.Background(), "prop-9")
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if !p.IsListedPublic || p.ListingPrice == nil || *p.ListingPrice != price {
		t.Fatalf("listing not applied: %+v", p)
	}

	// Toggling public without a price is accepted at write time; the gate
	// filters such listings out of the public view.
	st.SeedProperty(models.Property{ID: "prop-10", OwnerUID: ownerUID})
	if err := coord.SetPublicListing(context.Background(), ownerUID, "prop-10", true, nil); err != nil {
		t.Fatalf("priceless listing toggle failed: %v", err)
	}
}

func TestCreateProspectStampsOwnership(t *testing.T) {
	st := store.NewMemory()
	coord := services.NewCoordinator(st)

	id, err := coord.CreateProspect(context.Background(), ownerUID, models.Prospect{Name: "Corner Lot", OwnerUID: "spoofed"})
	if err != nil {
		t.Fatalf("create prospect failed: %v", err)
	}
	p, err := st.GetProspect(context.Background(), id)
	if err != nil {
		t.Fatalf("get prospect: %v", err)
	}
	if p.OwnerUID != ownerUID {
		t.Errorf("ownerUid = %q, want %q", p.OwnerUID, ownerUID)
	}
	if p.Status != models.StatusActive {
		t.Errorf("status = %q, want Active", p.Status)
	}
}
