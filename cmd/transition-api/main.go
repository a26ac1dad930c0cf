package main

import (
	"context"
	"encoding/json"
	"errors"
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
	coordinator *services.Coordinator
	checklists  store.ChecklistStore
	once        sync.Once
	initErr     error
)

func init() {
	functions.HTTP("ConvertProspect", handleConvertProspect)
	functions.HTTP("CreateProspect", handleCreateProspect)
	functions.HTTP("UpdateEntity", handleUpdateEntity)
	functions.HTTP("SetPublicListing", handleSetPublicListing)
	functions.HTTP("GetPortfolio", handleGetPortfolio)
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
	fs := store.NewFirestore(fsClient)
	coordinator = services.NewCoordinator(fs)
	checklists = fs
	return nil
}

func ready(w http.ResponseWriter) bool {
	once.Do(func() {
		initErr = setup(context.Background())
	})
	if initErr != nil {
		log.Printf("CRITICAL: transition service initialization failed: %v", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return false
	}
	return true
}

func handleConvertProspect(w http.ResponseWriter, r *http.Request) {
	if !ready(w) {
		return
	}
	var req models.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	propertyID, err := coordinator.Convert(r.Context(), req.OwnerUID, req.ProspectID, req.Draft)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, models.ConvertResponse{Status: "success", NewPropertyID: propertyID})
}

func handleCreateProspect(w http.ResponseWriter, r *http.Request) {
	if !ready(w) {
		return
	}
	var req models.CreateProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	prospectID, err := coordinator.CreateProspect(r.Context(), req.OwnerUID, req.Prospect)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, models.CreateProspectResponse{Status: "success", ProspectID: prospectID})
}

func handleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	if !ready(w) {
		return
	}
	var req models.UpdateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Collection {
	case models.ProspectCollection:
		err = coordinator.UpdateProspect(r.Context(), req.OwnerUID, req.EntityID, req.Fields)
	case models.PropertyCollection:
		err = coordinator.UpdateProperty(r.Context(), req.OwnerUID, req.EntityID, req.Fields)
	default:
		http.Error(w, "Bad Request: unknown collection", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "updated"})
}

func handleSetPublicListing(w http.ResponseWriter, r *http.Request) {
	if !ready(w) {
		return
	}
	var req models.SetPublicListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	if err := coordinator.SetPublicListing(r.Context(), req.OwnerUID, req.PropertyID, req.Enabled, req.ListingPrice); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "updated"})
}

func handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	if !ready(w) {
		return
	}
	uid := r.URL.Query().Get("ownerUid")

	prospects, err := coordinator.ListProspects(r.Context(), uid)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	properties, err := coordinator.ListProperties(r.Context(), uid)
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	ids := make([]string, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}
	complete, err := services.Summaries(r.Context(), checklists, models.PropertyCollection, ids)
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, models.PortfolioResponse{
		Prospects:         prospects,
		Properties:        properties,
		ChecklistComplete: complete,
	})
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, services.ErrAlreadyConverted):
		http.Error(w, "Conflict: "+err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal Server Error: operation failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
	}
}
