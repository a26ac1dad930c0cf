package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/Deepanshv/prop-manager-sub001/internal/blob"
	"github.com/Deepanshv/prop-manager-sub001/internal/models"
	"github.com/Deepanshv/prop-manager-sub001/internal/services"
	"github.com/Deepanshv/prop-manager-sub001/internal/store"
)

func newTestApp() *checklistApp {
	st := store.NewMemory()
	return &checklistApp{
		coordinator: services.NewCoordinator(st),
		checklists:  st,
		uploader:    blob.NewMemory(),
		engines:     make(map[string]*services.ChecklistEngine),
	}
}

// drainUntilClosed consumes the engine's update stream until it closes,
// which only happens after the engine's subscription is torn down.
func drainUntilClosed(t *testing.T, e *services.ChecklistEngine) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-e.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("engine update stream never closed")
		}
	}
}

func TestEngineCacheEvictsAndClosesOldest(t *testing.T) {
	app := newTestApp()

	first, err := app.engine(models.PropertyCollection, "entity-0")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	for i := 1; i <= maxLiveEngines; i++ {
		if _, err := app.engine(models.PropertyCollection, fmt.Sprintf("entity-%d", i)); err != nil {
			t.Fatalf("engine %d: %v", i, err)
		}
	}

	app.mu.Lock()
	size := len(app.engines)
	_, stillCached := app.engines[models.PropertyCollection+"/entity-0"]
	app.mu.Unlock()
	if size != maxLiveEngines {
		t.Fatalf("cache size = %d, want %d", size, maxLiveEngines)
	}
	if stillCached {
		t.Fatalf("least recently used engine must be evicted")
	}
	drainUntilClosed(t, first)
}

func TestEngineCacheKeepsRecentlyUsed(t *testing.T) {
	app := newTestApp()

	for i := 0; i < maxLiveEngines; i++ {
		if _, err := app.engine(models.PropertyCollection, fmt.Sprintf("entity-%d", i)); err != nil {
			t.Fatalf("engine %d: %v", i, err)
		}
	}
	// Touch the oldest, then spill the cache: entity-1 is now the eviction
	// candidate, not entity-0.
	if _, err := app.engine(models.PropertyCollection, "entity-0"); err != nil {
		t.Fatalf("touch entity-0: %v", err)
	}
	if _, err := app.engine(models.PropertyCollection, "entity-overflow"); err != nil {
		t.Fatalf("engine overflow: %v", err)
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if _, ok := app.engines[models.PropertyCollection+"/entity-0"]; !ok {
		t.Fatalf("recently used engine must survive eviction")
	}
	if _, ok := app.engines[models.PropertyCollection+"/entity-1"]; ok {
		t.Fatalf("least recently used engine must be the one evicted")
	}
	if len(app.engines) != maxLiveEngines {
		t.Fatalf("cache size = %d, want %d", len(app.engines), maxLiveEngines)
	}
}
