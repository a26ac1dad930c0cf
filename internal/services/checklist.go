package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Deepanshv/prop-manager-sub001/internal/blob"
	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

// SlotState is the derived, never-persisted state of one checklist slot.
type SlotState string

const (
	SlotEmpty     SlotState = "Empty"
	SlotUploading SlotState = "Uploading"
	SlotUpdating  SlotState = "Updating"
	SlotFilled    SlotState = "Filled"
)

// SlotView is one slot's derived state plus its last confirmed record.
// Record is nil unless the store has echoed a record back for the slot.
type SlotView struct {
	Slot   models.DocumentSlot
	State  SlotState
	Record *models.DocumentRecord
}

// FilePayload is the raw upload input: bytes plus a declared content type.
type FilePayload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type pendingWrite struct {
	url       string // blob URL, set just before the record write is issued
	issuedGen uint64 // snapshot generation at the time the write was issued
	written   bool   // the record write has returned success
}

// ChecklistEngine tracks the required-document checklist of one entity. It
// owns the slot catalog mapping, drives upload/delete/view operations, and
// reconciles live snapshots from the store.
//
// The engine never trusts its own optimistic state: a slot counts as Filled
// only once the subscription echoes the written record back. Until then the
// slot reads Uploading (or Updating over an occupied slot), and a concurrent
// upload to the same slot is rejected so two writes cannot interleave behind
// one displayed state.
type ChecklistEngine struct {
	store      store.ChecklistStore
	uploader   blob.Uploader
	collection string
	entityID   string
	log        *slog.Logger

	mu            sync.Mutex
	started       bool
	pending       map[string]*pendingWrite
	confirmed     map[string]models.DocumentRecord
	snapGen       uint64 // count of snapshots applied so far
	updates       chan []SlotView
	updatesClosed bool

	cancelWatch store.CancelFunc
	closeOnce   sync.Once
}

// NewChecklistEngine builds an engine for one entity's checklist. Call Start
// before using it and Close when the view goes away.
func NewChecklistEngine(st store.ChecklistStore, up blob.Uploader, collection, entityID string) *ChecklistEngine {
	return &ChecklistEngine{
		store:      st,
		uploader:   up,
		collection: collection,
		entityID:   entityID,
		log:        slog.With("collection", collection, "entityId", entityID),
		pending:    make(map[string]*pendingWrite),
		confirmed:  make(map[string]models.DocumentRecord),
		updates:    make(chan []SlotView, 16),
	}
}

// Start seeds the confirmed state with a one-shot read, then opens the live
// subscription. The subscription stays open until Close.
func (e *ChecklistEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("checklist engine already started")
	}
	e.started = true
	e.mu.Unlock()

	recs, err := e.store.ListRecords(ctx, e.collection, e.entityID)
	if err != nil {
		return fmt.Errorf("failed to load checklist: %w", err)
	}
	e.applySnapshot(recs)

	snaps, cancel, err := e.store.WatchRecords(ctx, e.collection, e.entityID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to checklist: %w", err)
	}
	e.cancelWatch = cancel
	go e.consume(snaps)
	return nil
}

// Close cancels the subscription. Safe to call more than once; any store or
// blob operation still in flight completes and its result is discarded.
func (e *ChecklistEngine) Close() {
	e.closeOnce.Do(func() {
		if e.cancelWatch != nil {
			e.cancelWatch()
		}
	})
}

/// Updates is the re-render stream: a full replacement slot view on every
// confirmed or optimistic change. The channel closes after Close.
func (e *ChecklistEngine) Updates() <-chan []SlotView {
	return e.updates
}

func (e *ChecklistEngine) consume(snaps <-chan []models.DocumentRecord) {
	for recs := range snaps {
		e.applySnapshot(recs)
	}
	e.mu.Lock()
	e.updatesClosed = true
	close(e.updates)
	e.mu.Unlock()
}

// applySnapshot replaces the confirmed state with a store delivery and
// settles any pending write the delivery accounts for.
func (e *ChecklistEngine) applySnapshot(recs []models.DocumentRecord) {
	e.mu.Lock()
	e.snapGen++
	e.confirmed = make(map[string]models.DocumentRecord, len(recs))
	for _, rec := range recs {
		e.confirmed[rec.ID] = rec
	}
	for slotID, pw := range e.pending {
		if pw.url == "" {
			continue // write not issued yet; keep suppressing
		}
		rec, ok := e.confirmed[slotID]
		switch {
		case ok && rec.URL == pw.url:
			// Our own write echoed back.
			delete(e.pending, slotID)
		case pw.written:
			// Our write landed but the delivery shows a different outcome:
			// a later overwrite or delete from elsewhere won. The store is
			// authoritative either way, so stop suppressing.
			delete(e.pending, slotID)
		}
	}
	e.mu.Unlock()
	e.notify()
}

// Upload acquires a blob URL first and writes the metadata record only on
// success, so a failed upload leaves no partial state. The record is keyed
// by the slot id: re-uploading to an occupied slot overwrites in place.
func (e *ChecklistEngine) Upload(ctx context.Context, slotID string, file FilePayload) error {
	slot, ok := models.SlotByID(slotID)
	if !ok {
		return ErrUnknownSlot
	}

	e.mu.Lock()
	if _, busy := e.pending[slotID]; busy {
		e.mu.Unlock()
		return ErrSlotBusy
	}
	pw := &pendingWrite{}
	e.pending[slotID] = pw
	e.mu.Unlock()
	e.notify()

	key := fmt.Sprintf("%s/%s/%s/%s", e.collection, e.entityID, slotID, file.FileName)
	url, err := e.uploader.Upload(ctx, blob.Payload{Key: key, ContentType: file.ContentType, Data: file.Data})
	if err != nil {
		e.clearPending(slotID)
		e.log.Error("blob upload failed", "slotId", slotID, "error", err)
		return &UploadError{SlotID: slotID, Err: err}
	}

	rec := models.DocumentRecord{
		ID:           slotID,
		DocumentType: slot.DisplayName,
		FileName:     file.FileName,
		URL:          url,
		ContentType:  file.ContentType,
		SizeBytes:    int64(len(file.Data)),
	}
	// Record the issued URL before the write goes out so an echo that
	// arrives while UpsertRecord is still returning can settle the slot.
	e.mu.Lock()
	pw.url = url
	pw.issuedGen = e.snapGen
	e.mu.Unlock()

	if err := e.store.UpsertRecord(ctx, e.collection, e.entityID, rec); err != nil {
		e.clearPending(slotID)
		e.log.Error("document record write failed", "slotId", slotID, "error", err)
		return &WriteError{Op: "document record write", Err: err}
	}

	// The slot stays Uploading/Updating until the subscription echoes the
	// write back; only then is the upload confirmed. An echo consumed while
	// UpsertRecord was still returning already settled the slot; if that echo
	// carried someone else's last-write-wins outcome instead of ours, the
	// store state is still authoritative, so settle rather than wedge.
	e.mu.Lock()
	pw.written = true
	if _, busy := e.pending[slotID]; busy && e.snapGen > pw.issuedGen {
		delete(e.pending, slotID)
	}
	e.mu.Unlock()
	e.notify()
	e.log.Info("document uploaded", "slotId", slotID, "fileName", file.FileName, "sizeBytes", rec.SizeBytes)
	return nil
}

// Delete removes the metadata record only. The blob behind the stored URL is
// retained; see the package documentation for the retention rationale.
func (e *ChecklistEngine) Delete(ctx context.Context, slotID string) error {
	if _, ok := models.SlotByID(slotID); !ok {
		return ErrUnknownSlot
	}
	e.mu.Lock()
	if _, busy := e.pending[slotID]; busy {
		e.mu.Unlock()
		return ErrSlotBusy
	}
	e.mu.Unlock()

	if err := e.store.DeleteRecord(ctx, e.collection, e.entityID, slotID); err != nil {
		e.log.Error("document record delete failed", "slotId", slotID, "error", err)
		return &WriteError{Op: "document record delete", Err: err}
	}
	e.log.Info("document deleted", "slotId", slotID)
	return nil
}

// View returns the confirmed URL for inline preview of the slot's document.
func (e *ChecklistEngine) View(slotID string) (string, error) {
	if _, ok := models.SlotByID(slotID); !ok {
		return "", ErrUnknownSlot
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.confirmed[slotID]
	if !ok {
		return "", ErrEmptySlot
	}
	return rec.URL, nil
}

// Snapshot derives the current per-slot views from confirmed state plus
// in-flight writes.
func (e *ChecklistEngine) Snapshot() []SlotView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *ChecklistEngine) snapshotLocked() []SlotView {
	views := make([]SlotView, 0, len(models.SlotCatalog))
	for _, slot := range models.SlotCatalog {
		view := SlotView{Slot: slot, State: SlotEmpty}
		if rec, ok := e.confirmed[slot.ID]; ok {
			recCopy := rec
			view.Record = &recCopy
			view.State = SlotFilled
		}
		if _, busy := e.pending[slot.ID]; busy {
			if view.Record != nil {
				view.State = SlotUpdating
			} else {
				view.State = SlotUploading
			}
		}
		views = append(views, view)
	}
	return views
}

// Checklist builds the roll-up DTO served to clients.
func (e *ChecklistEngine) Checklist() models.ChecklistResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := models.ChecklistResponse{EntityID: e.entityID, Complete: true}
	for _, view := range e.snapshotLocked() {
		filled := view.State == SlotFilled || view.State == SlotUpdating
		resp.Slots = append(resp.Slots, models.SlotStatus{
			SlotID:      view.Slot.ID,
			DisplayName: view.Slot.DisplayName,
			Filled:      filled,
		})
		if filled {
			resp.Records = append(resp.Records, *view.Record)
		} else {
			resp.Complete = false
		}
	}
	return resp
}

func (e *ChecklistEngine) clearPending(slotID string) {
	e.mu.Lock()
	delete(e.pending, slotID)
	e.mu.Unlock()
	e.notify()
}

// notify pushes the current view to the updates channel, dropping the oldest
// undelivered view if the consumer lags. Every delivery is a full replace.
func (e *ChecklistEngine) notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.updatesClosed {
		return
	}
	snapshot := e.snapshotLocked()
	for {
		select {
		case e.updates <- snapshot:
			return
		default:
			select {
			case <-e.updates:
			default:
			}
		}
	}
}

// Complete reports whether every slot in the catalog holds a record.
func Complete(recs []models.DocumentRecord) bool {
	bySlot := make(map[string]bool, len(recs))
	for _, rec := range recs {
		bySlot[rec.ID] = true
	}
	for _, slot := range models.SlotCatalog {
		if !bySlot[slot.ID] {
			return false
		}
	}
	return true
}

// Summaries computes checklist completeness for many entities concurrently.
// It backs the overview page, where one roll-up per entity is needed.
func Summaries(ctx context.Context, st store.ChecklistStore, collection string, entityIDs []string) (map[string]bool, error) {
	var mu sync.Mutex
	out := make(map[string]bool, len(entityIDs))

	eg, gctx := errgroup.WithContext(ctx)
	for _, id := range entityIDs {
		entityID := id
		eg.Go(func() error {
			recs, err := st.ListRecords(gctx, collection, entityID)
			if err != nil {
				return fmt.Errorf("entity %s: %w", entityID, err)
			}
			mu.Lock()
			out[entityID] = Complete(recs)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
