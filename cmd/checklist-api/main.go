package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Deepanshv/prop-manager-sub001/internal/blob"
	"github.com/Deepanshv/prop-manager-sub001/internal/config"
	"github.com/Deepanshv/prop-manager-sub001/internal/gcp"
	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/services"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

var (
	appInstance *checklistApp
	once        sync.Once
	initErr     error
)

func init() {
	// Entry point names as configured in GCP.
	functions.HTTP("UploadDocument", handleUploadDocument)
	functions.HTTP("DeleteDocument", handleDeleteDocument)
	functions.HTTP("GetChecklist", handleGetChecklist)
	functions.HTTP("ViewDocument", handleViewDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// maxLiveEngines bounds how many per-entity subscriptions this instance
// keeps open at once. The least recently used engine is closed when the
// bound would be exceeded.
const maxLiveEngines = 64

// checklistApp holds the shared clients plus one live checklist engine per
// recently used entity. Engines are created lazily; the cache is LRU so an
// instance that serves many entities does not accumulate subscriptions.
type checklistApp struct {
	coordinator *services.Coordinator
	checklists  store.ChecklistStore
	uploader    blob.Uploader

	mu      sync.Mutex
	engines map[string]*services.ChecklistEngine
	order   []string // engine keys, least recently used first
}

func setup(ctx context.Context) (*checklistApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}

	fs := store.NewFirestore(fsClient)
	return &checklistApp{
		coordinator: services.NewCoordinator(fs),
		checklists:  fs,
		uploader:    blob.NewGCSUploader(storageClient, cfg.DocumentBucket, cfg.PublicBaseURL),
		engines:     make(map[string]*services.ChecklistEngine),
	}, nil
}

func app(w http.ResponseWriter) *checklistApp {
	once.Do(func() {
		appInstance, initErr = setup(context.Background())
	})
	if initErr != nil {
		log.Printf("CRITICAL: checklist service initialization failed: %v", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return nil
	}
	return appInstance
}

func (a *checklistApp) engine(collection, entityID string) (*services.ChecklistEngine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := collection + "/" + entityID
	if e, ok := a.engines[key]; ok {
		a.touchLocked(key)
		return e, nil
	}
	e := services.NewChecklistEngine(a.checklists, a.uploader, collection, entityID)
	if err := e.Start(context.Background()); err != nil {
		return nil, err
	}
	a.engines[key] = e
	a.order = append(a.order, key)
	for len(a.order) > maxLiveEngines {
		oldest := a.order[0]
		a.order = a.order[1:]
		if evicted, ok := a.engines[oldest]; ok {
			delete(a.engines, oldest)
			evicted.Close()
		}
	}
	return e, nil
}

// touchLocked moves key to the most recently used end. Caller holds a.mu.
func (a *checklistApp) touchLocked(key string) {
	for i, k := range a.order {
		if k == key {
			a.order = append(append(a.order[:i:i], a.order[i+1:]...), key)
			return
		}
	}
}

// authorize resolves the entity through the ownership predicate. An entity
// that is not the caller's reads as not-found.
func (a *checklistApp) authorize(ctx context.Context, uid, collection, entityID string) error {
	switch collection {
	case models.ProspectCollection:
		_, err := a.coordinator.GetProspect(ctx, uid, entityID)
		return err
	case models.PropertyCollection:
		_, err := a.coordinator.GetProperty(ctx, uid, entityID)
		return err
	default:
		return store.ErrNotFound
	}
}

func handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	a := app(w)
	if a == nil {
		return
	}

	var req models.UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		http.Error(w, "Bad Request: file data must be base64", http.StatusBadRequest)
		return
	}

	if err := a.authorize(r.Context(), req.OwnerUID, req.Collection, req.EntityID); err != nil {
		writeServiceError(w, err)
		return
	}
	engine, err := a.engine(req.Collection, req.EntityID)
	if err != nil {
		log.Printf("ERROR: checklist engine start failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	payload := services.FilePayload{FileName: req.FileName, ContentType: req.ContentType, Data: data}
	if err := engine.Upload(r.Context(), req.SlotID, payload); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, models.UploadDocumentResponse{Status: "accepted", SlotID: req.SlotID})
}

func handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	a := app(w)
	if a == nil {
		return
	}

	var req models.DeleteDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if err := a.authorize(r.Context(), req.OwnerUID, req.Collection, req.EntityID); err != nil {
		writeServiceError(w, err)
		return
	}
	engine, err := a.engine(req.Collection, req.EntityID)
	if err != nil {
		log.Printf("ERROR: checklist engine start failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := engine.Delete(r.Context(), req.SlotID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "slotId": req.SlotID})
}

func handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	a := app(w)
	if a == nil {
		return
	}

	uid := r.URL.Query().Get("ownerUid")
	collection := r.URL.Query().Get("collection")
	entityID := r.URL.Query().Get("entityId")
	if err := a.authorize(r.Context(), uid, collection, entityID); err != nil {
		writeServiceError(w, err)
		return
	}
	engine, err := a.engine(collection, entityID)
	if err != nil {
		log.Printf("ERROR: checklist engine start failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, engine.Checklist())
}

// handleViewDocument returns the confirmed URL for inline preview.
func handleViewDocument(w http.ResponseWriter, r *http.Request) {
	a := app(w)
	if a == nil {
		return
	}

	uid := r.URL.Query().Get("ownerUid")
	collection := r.URL.Query().Get("collection")
	entityID := r.URL.Query().Get("entityId")
	slotID := r.URL.Query().Get("slotId")
	if err := a.authorize(r.Context(), uid, collection, entityID); err != nil {
		writeServiceError(w, err)
		return
	}
	engine, err := a.engine(collection, entityID)
	if err != nil {
		log.Printf("ERROR: checklist engine start failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	url, err := engine.View(slotID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]string{"slotId": slotID, "url": url})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, services.ErrUnknownSlot), errors.Is(err, services.ErrEmptySlot):
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrSlotBusy):
		http.Error(w, "Conflict: "+err.Error(), http.StatusConflict)
	default:
		// Specifics are already logged at the operation boundary.
		http.Error(w, "Internal Server Error: operation failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
	}
}
