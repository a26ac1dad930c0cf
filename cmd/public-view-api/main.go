package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Deepanshv/prop-manager-sub001/internal/config"
	"github.com/Deepanshv/prop-manager-sub001/internal/gcp"
	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/services"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

var (
	gate    *services.PublicGate
	once    sync.Once
	initErr error
)

func init() {
	functions.HTTP("PublicListings", handlePublicListings)
}

// main is required by the Go Functions Framework.
func main() {}

func setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	gate = services.NewPublicGate(store.NewFirestore(fsClient))
	return nil
}

// handlePublicListings serves the unauthenticated public view. The owner
// token arrives in the URL; everything short of a fully enabled profile
// renders the same "not available" response.
func handlePublicListings(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		initErr = setup(context.Background())
	})
	if initErr != nil {
		log.Printf("CRITICAL: public view initialization failed: %v", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	ownerToken := r.URL.Query().Get("owner")
	state, displayName, listings := gate.Snapshot(r.Context(), ownerToken)

	resp := models.PublicListingsResponse{State: string(state)}
	if state == services.GateEnabled {
		resp.DisplayName = displayName
		resp.Listings = listings
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
	}
}
