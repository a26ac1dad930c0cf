package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
)

func TestUpsertAssignsServerTimestampAndOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.UpsertRecord(ctx, "properties", "e1", models.DocumentRecord{ID: "sale-deed"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.UpsertRecord(ctx, "properties", "e1", models.DocumentRecord{ID: "tax-receipt"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	recs, err := m.ListRecords(ctx, "properties", "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "sale-deed" || recs[1].ID != "tax-receipt" {
		t.Fatalf("records not in upload order: %+v", recs)
	}
	if !recs[0].UploadedAt.Before(recs[1].UploadedAt) {
		t.Fatalf("timestamps must be strictly increasing: %v, %v", recs[0].UploadedAt, recs[1].UploadedAt)
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.UpsertRecord(ctx, "properties", "e1", models.DocumentRecord{ID: "sale-deed", FileName: "a.pdf"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.UpsertRecord(ctx, "properties", "e1", models.DocumentRecord{ID: "sale-deed", FileName: "b.pdf"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	recs, _ := m.ListRecords(ctx, "properties", "e1")
	if len(recs) != 1 {
		t.Fatalf("same key must hold one record, got %d", len(recs))
	}
	if recs[0].FileName != "b.pdf" {
		t.Fatalf("last write must win, got %q", recs[0].FileName)
	}
}

func TestWatchRecordsDeliversAuthoritativeSnapshots(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ch, cancel, err := m.WatchRecords(ctx, "properties", "e1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if got := mustReceive(t, ch); len(got) != 0 {
		t.Fatalf("initial snapshot must be empty, got %+v", got)
	}

	if err := m.UpsertRecord(ctx, "properties", "e1", models.DocumentRecord{ID: "sale-deed"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := mustReceive(t, ch); len(got) != 1 || got[0].ID != "sale-deed" {
		t.Fatalf("snapshot after upsert = %+v", got)
	}

	if err := m.DeleteRecord(ctx, "properties", "e1", "sale-deed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := mustReceive(t, ch); len(got) != 0 {
		t.Fatalf("snapshot after delete must be a full replace, got %+v", got)
	}

	cancel()
	cancel() // idempotent
	if _, ok := <-ch; ok {
		t.Fatalf("channel must close after cancel")
	}

	// A mutation after cancel must not panic or deliver.
	if err := m.UpsertRecord(ctx, "properties", "e1", models.DocumentRecord{ID: "tax-receipt"}); err != nil {
		t.Fatalf("upsert after cancel: %v", err)
	}
}

func TestWatchPublicListingsFiltersUnlisted(t *testing.T) {
	m := NewMemory()

	ch, cancel, err := m.WatchPublicListings(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()
	mustReceive(t, ch)

	m.SeedProperty(models.Property{ID: "a", OwnerUID: "owner-1", IsListedPublic: true})
	snapshot := mustReceive(t, ch)
	if len(snapshot) != 1 || snapshot[0].ID != "a" {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	m.SeedProperty(models.Property{ID: "b", OwnerUID: "owner-1", IsListedPublic: false})
	snapshot = mustReceive(t, ch)
	if len(snapshot) != 1 {
		t.Fatalf("unlisted property must not be delivered: %+v", snapshot)
	}
}

func TestConvertProspectBatchIsAllOrNothing(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.SeedProspect(models.Prospect{ID: "l1", Status: models.StatusActive, OwnerUID: "owner-1"})

	m.FailWrites = fmt.Errorf("mid-batch failure")
	err := m.ConvertProspect(ctx, "l1", models.Property{ID: "p1", OwnerUID: "owner-1"})
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	m.FailWrites = nil

	p, _ := m.GetProspect(ctx, "l1")
	if p.Status != models.StatusActive {
		t.Fatalf("failed batch must not touch the prospect, status = %q", p.Status)
	}
	if _, err := m.GetProperty(ctx, "p1"); err == nil {
		t.Fatalf("failed batch must not create the property")
	}

	if err := m.ConvertProspect(ctx, "l1", models.Property{ID: "p1", OwnerUID: "owner-1"}); err != nil {
		t.Fatalf("convert: %v", err)
	}
	p, _ = m.GetProspect(ctx, "l1")
	if p.Status != models.StatusConverted {
		t.Fatalf("status = %q, want Converted", p.Status)
	}
	if _, err := m.GetProperty(ctx, "p1"); err != nil {
		t.Fatalf("property missing after batch: %v", err)
	}
}

func TestSlowWatcherDropsOldestNotNewest(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ch, cancel, err := m.WatchRecords(ctx, "properties", "e1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	// Overflow the watcher buffer without draining it.
	for i := 0; i < 64; i++ {
		rec := models.DocumentRecord{ID: "sale-deed", FileName: fmt.Sprintf("v%d.pdf", i)}
		if err := m.UpsertRecord(ctx, "properties", "e1", rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	var last []models.DocumentRecord
	for {
		var ok bool
		select {
		case last, ok = <-ch:
			if !ok {
				t.Fatalf("channel closed unexpectedly")
			}
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	if len(last) != 1 || last[0].FileName != "v63.pdf" {
		t.Fatalf("lagging watcher must still end on the newest snapshot, got %+v", last)
	}
}

func mustReceive[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case snapshot, ok := <-ch:
		if !ok {
			t.Fatalf("snapshot channel closed unexpectedly")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return nil
	}
}
