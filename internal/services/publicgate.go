package services

import (
	"context"
	"log/slog"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

// GateState is the public view's access decision.
type GateState string

const (
	GateLoading  GateState = "Loading"
	GateInvalid  GateState = "Invalid"
	GateDisabled GateState = "Disabled"
	GateEnabled  GateState = "Enabled"
)

// PublicView is the outcome of resolving the gate for one owner token.
// Listings and Cancel are set only in the Enabled state; callers must invoke
// Cancel exactly once when the view goes away.
type PublicView struct {
	State       GateState
	DisplayName string
	Listings    <-chan []models.Property
	Cancel      store.CancelFunc
}

// PublicGate decides whether an unauthenticated viewer may see a subset of
// one owner's property records, and which subset.
type PublicGate struct {
	store store.ListingStore
	log   *slog.Logger
}

// NewPublicGate builds a gate on the given listing store.
func NewPublicGate(st store.ListingStore) *PublicGate {
	return &PublicGate{store: st, log: slog.Default()}
}

// Resolve runs the gate state machine for the owner token. An empty token is
// Invalid. A failed profile lookup, an unreachable store, and a profile with
// public listings switched off all collapse into Disabled: an outside viewer
// cannot tell whether a token is wrong or merely switched off.
func (g *PublicGate) Resolve(ctx context.Context, ownerToken string) PublicView {
	if ownerToken == "" {
		return PublicView{State: GateInvalid}
	}

	profile, err := g.store.GetOwnerProfile(ctx, ownerToken)
	if err != nil {
		g.log.Info("public view unavailable", "reason", "profile lookup failed", "error", err)
		return PublicView{State: GateDisabled}
	}
	if !profile.PublicListingsEnabled {
		return PublicView{State: GateDisabled}
	}

	raw, cancel, err := g.store.WatchPublicListings(ctx, ownerToken)
	if err != nil {
		g.log.Info("public view unavailable", "reason", "listing subscription failed", "error", err)
		return PublicView{State: GateDisabled}
	}

	filtered := make(chan []models.Property, 1)
	go func() {
		defer close(filtered)
		for snapshot := range raw {
			select {
			case filtered <- FilterListable(snapshot):
			case <-ctx.Done():
				return
			}
		}
	}()

	return PublicView{
		State:       GateEnabled,
		DisplayName: profile.DisplayName,
		Listings:    filtered,
		Cancel:      cancel,
	}
}

// Snapshot resolves the gate and returns the first listing snapshot, then
// tears the subscription down. It serves one-shot readers such as the HTTP
// entry point; interactive clients use Resolve and keep the stream.
func (g *PublicGate) Snapshot(ctx context.Context, ownerToken string) (GateState, string, []models.Property) {
	view := g.Resolve(ctx, ownerToken)
	if view.State != GateEnabled {
		return view.State, "", nil
	}
	defer view.Cancel()

	select {
	case listings, ok := <-view.Listings:
		if !ok {
			return GateDisabled, "", nil
		}
		return GateEnabled, view.DisplayName, listings
	case <-ctx.Done():
		return GateDisabled, "", nil
	}
}

// FilterListable keeps the properties that qualify for the public view:
// flagged public and carrying a listing price. A public listing without
// pricing is incomplete data, not an error, and is simply excluded.
func FilterListable(props []models.Property) []models.Property {
	out := make([]models.Property, 0, len(props))
	for _, p := range props {
		if !p.IsListedPublic || p.ListingPrice == nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
