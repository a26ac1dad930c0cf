package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
)

// Memory is an in-process implementation of the store ports with the same
// observable semantics as the Firestore adapter: last-write-wins on
// concurrent writes to one key, server-assigned upload timestamps, atomic
// conversion batches, and watch channels that replay the full snapshot on
// every change. It backs tests and local runs without credentials.
type Memory struct {
	mu         sync.Mutex
	prospects  map[string]models.Prospect
	properties map[string]models.Property
	profiles   map[string]models.OwnerProfile
	records    map[string]map[string]models.DocumentRecord // entity path -> slot id -> record
	clock      int64

	recordWatchers  map[string][]*memWatcher[models.DocumentRecord]
	listingWatchers map[string][]*memWatcher[models.Property]

	// FailWrites, when set, makes every mutating operation return the given
	// error without touching state. Tests use it to inject transport and
	// mid-batch failures.
	FailWrites error
}

type memWatcher[T any] struct {
	ch     chan []T
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		prospects:       make(map[string]models.Prospect),
		properties:      make(map[string]models.Property),
		profiles:        make(map[string]models.OwnerProfile),
		records:         make(map[string]map[string]models.DocumentRecord),
		recordWatchers:  make(map[string][]*memWatcher[models.DocumentRecord]),
		listingWatchers: make(map[string][]*memWatcher[models.Property]),
	}
}

func entityPath(collection, entityID string) string {
	return collection + "/" + entityID
}

// SeedProspect inserts a prospect directly, bypassing write failure injection.
func (m *Memory) SeedProspect(p models.Prospect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prospects[p.ID] = p
}

// SeedProperty inserts a property directly and notifies listing watchers.
func (m *Memory) SeedProperty(p models.Property) {
	m.mu.Lock()
	m.properties[p.ID] = p
	m.notifyListingsLocked(p.OwnerUID)
	m.mu.Unlock()
}

// SeedProfile inserts an owner profile directly.
func (m *Memory) SeedProfile(uid string, prof models.OwnerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[uid] = prof
}

func (m *Memory) UpsertRecord(ctx context.Context, collection, entityID string, rec models.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &TransportError{Op: "upsert document record", Err: m.FailWrites}
	}
	path := entityPath(collection, entityID)
	if m.records[path] == nil {
		m.records[path] = make(map[string]models.DocumentRecord)
	}
	// Server-assigned timestamp; a strictly increasing clock keeps ordering
	// deterministic even when writes land within one wall-clock tick.
	m.clock++
	rec.UploadedAt = time.Unix(0, m.clock*int64(time.Millisecond)).UTC()
	m.records[path][rec.ID] = rec
	m.notifyRecordsLocked(path)
	return nil
}

func (m *Memory) DeleteRecord(ctx context.Context, collection, entityID, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &TransportError{Op: "delete document record", Err: m.FailWrites}
	}
	path := entityPath(collection, entityID)
	delete(m.records[path], slotID)
	m.notifyRecordsLocked(path)
	return nil
}

func (m *Memory) ListRecords(ctx context.Context, collection, entityID string) ([]models.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordsSnapshotLocked(entityPath(collection, entityID)), nil
}

func (m *Memory) WatchRecords(ctx context.Context, collection, entityID string) (<-chan []models.DocumentRecord, CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := entityPath(collection, entityID)
	w := &memWatcher[models.DocumentRecord]{ch: make(chan []models.DocumentRecord, 16)}
	m.recordWatchers[path] = append(m.recordWatchers[path], w)
	w.send(m.recordsSnapshotLocked(path))

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.recordWatchers[path] = removeWatcher(m.recordWatchers[path], w)
			w.close()
		})
	}
	return w.ch, cancel, nil
}

func (m *Memory) recordsSnapshotLocked(path string) []models.DocumentRecord {
	recs := make([]models.DocumentRecord, 0, len(m.records[path]))
	for _, rec := range m.records[path] {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UploadedAt.Before(recs[j].UploadedAt) })
	return recs
}

func (m *Memory) notifyRecordsLocked(path string) {
	snapshot := m.recordsSnapshotLocked(path)
	for _, w := range m.recordWatchers[path] {
		w.send(snapshot)
	}
}

func (m *Memory) GetProspect(ctx context.Context, id string) (models.Prospect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prospects[id]
	if !ok {
		return models.Prospect{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) CreateProspect(ctx context.Context, p models.Prospect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &TransportError{Op: "create prospect", Err: m.FailWrites}
	}
	m.prospects[p.ID] = p
	return nil
}

func (m *Memory) ListProspects(ctx context.Context, ownerUID string) ([]models.Prospect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Prospect, 0)
	for _, p := range m.prospects {
		if p.OwnerUID == ownerUID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateProspect(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &TransportError{Op: "update prospects", Err: m.FailWrites}
	}
	p, ok := m.prospects[id]
	if !ok {
		return ErrNotFound
	}
	applyProspectFields(&p, fields)
	m.prospects[id] = p
	return nil
}

func (m *Memory) GetProperty(ctx context.Context, id string) (models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.properties[id]
	if !ok {
		return models.Property{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListProperties(ctx context.Context, ownerUID string) ([]models.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listingsSnapshotLocked(ownerUID, false), nil
}

func (m *Memory) UpdateProperty(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &TransportError{Op: "update properties", Err: m.FailWrites}
	}
	p, ok := m.properties[id]
	if !ok {
		return ErrNotFound
	}
	applyPropertyFields(&p, fields)
	m.properties[id] = p
	m.notifyListingsLocked(p.OwnerUID)
	return nil
}

func (m *Memory) ConvertProspect(ctx context.Context, prospectID string, prop models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		// The whole batch fails: neither write is applied.
		return &TransportError{Op: "commit conversion batch", Err: m.FailWrites}
	}
	src, ok := m.prospects[prospectID]
	if !ok {
		return ErrNotFound
	}
	src.Status = models.StatusConverted
	m.prospects[prospectID] = src
	m.properties[prop.ID] = prop
	m.notifyListingsLocked(prop.OwnerUID)
	return nil
}

func (m *Memory) GetOwnerProfile(ctx context.Context, ownerUID string) (models.OwnerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prof, ok := m.profiles[ownerUID]
	if !ok {
		return models.OwnerProfile{}, ErrNotFound
	}
	return prof, nil
}

func (m *Memory) WatchPublicListings(ctx context.Context, ownerUID string) (<-chan []models.Property, CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &memWatcher[models.Property]{ch: make(chan []models.Property, 16)}
	m.listingWatchers[ownerUID] = append(m.listingWatchers[ownerUID], w)
	w.send(m.listingsSnapshotLocked(ownerUID, true))

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.listingWatchers[ownerUID] = removeWatcher(m.listingWatchers[ownerUID], w)
			w.close()
		})
	}
	return w.ch, cancel, nil
}

func (m *Memory) listingsSnapshotLocked(ownerUID string, publicOnly bool) []models.Property {
	out := make([]models.Property, 0)
	for _, p := range m.properties {
		if p.OwnerUID != ownerUID {
			continue
		}
		if publicOnly && !p.IsListedPublic {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) notifyListingsLocked(ownerUID string) {
	snapshot := m.listingsSnapshotLocked(ownerUID, true)
	for _, w := range m.listingWatchers[ownerUID] {
		w.send(snapshot)
	}
}

// send never blocks the store: when a consumer lags behind, the oldest
// undelivered snapshot is dropped. Deliveries are authoritative replaces, so
// skipping an intermediate snapshot is safe.
func (w *memWatcher[T]) send(snapshot []T) {
	if w.closed {
		return
	}
	for {
		select {
		case w.ch <- snapshot:
			return
		default:
			select {
			case <-w.ch:
			default:
			}
		}
	}
}

func (w *memWatcher[T]) close() {
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}

func removeWatcher[T any](ws []*memWatcher[T], target *memWatcher[T]) []*memWatcher[T] {
	out := ws[:0]
	for _, w := range ws {
		if w != target {
			out = append(out, w)
		}
	}
	return out
}

func applyProspectFields(p *models.Prospect, fields map[string]any) {
	for path, value := range fields {
		switch path {
		case "name":
			p.Name, _ = value.(string)
		case "address":
			p.Address, _ = value.(string)
		case "propertyType":
			p.PropertyType, _ = value.(string)
		case "contactInfo":
			p.ContactInfo, _ = value.(string)
		case "status":
			p.Status, _ = value.(string)
		}
	}
}

func applyPropertyFields(p *models.Property, fields map[string]any) {
	for path, value := range fields {
		switch path {
		case "name":
			p.Name, _ = value.(string)
		case "address":
			p.Address, _ = value.(string)
		case "landDetails":
			p.LandDetails, _ = value.(string)
		case "status":
			p.Status, _ = value.(string)
		case "areaSqFt":
			p.AreaSqFt = asFloat(value)
		case "purchasePrice":
			p.PurchasePrice = asFloat(value)
		case "isListedPublicly":
			p.IsListedPublic, _ = value.(bool)
		case "listingPrice":
			if value == nil {
				p.ListingPrice = nil
			} else {
				f := asFloat(value)
				p.ListingPrice = &f
			}
		case "latitude":
			f := asFloat(value)
			p.Latitude = &f
		case "longitude":
			f := asFloat(value)
			p.Longitude = &f
		}
	}
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
