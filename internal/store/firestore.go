package store

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Deepanshv/prop-manager-sub001/internal/models"
)

// filesSubcollection is the subcollection under an entity document that
// holds its document records.
const filesSubcollection = "files"

// usersCollection holds the per-owner profile documents.
const usersCollection = "users"

// Firestore implements ChecklistStore, EntityStore and ListingStore on top
// of a shared Firestore client. The client is created once at process start
// and passed in; the adapter takes no ownership of its lifecycle.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore wraps an existing Firestore client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) files(collection, entityID string) *firestore.CollectionRef {
	return s.client.Collection(collection).Doc(entityID).Collection(filesSubcollection)
}

// UpsertRecord writes the record under its slot id with set-with-merge
// semantics: fields present here overwrite, anything else already stored is
// left alone. The upload timestamp is server-assigned.
func (s *Firestore) UpsertRecord(ctx context.Context, collection, entityID string, rec models.DocumentRecord) error {
	data := map[string]any{
		"documentType":    rec.DocumentType,
		"fileName":        rec.FileName,
		"url":             rec.URL,
		"contentType":     rec.ContentType,
		"sizeBytes":       rec.SizeBytes,
		"uploadTimestamp": firestore.ServerTimestamp,
	}
	if _, err := s.files(collection, entityID).Doc(rec.ID).Set(ctx, data, firestore.MergeAll); err != nil {
		return &TransportError{Op: "upsert document record", Err: err}
	}
	return nil
}

func (s *Firestore) DeleteRecord(ctx context.Context, collection, entityID, slotID string) error {
	if _, err := s.files(collection, entityID).Doc(slotID).Delete(ctx); err != nil {
		return &TransportError{Op: "delete document record", Err: err}
	}
	return nil
}

func (s *Firestore) ListRecords(ctx context.Context, collection, entityID string) ([]models.DocumentRecord, error) {
	docs, err := s.files(collection, entityID).OrderBy("uploadTimestamp", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, &TransportError{Op: "list document records", Err: err}
	}
	recs := make([]models.DocumentRecord, 0, len(docs))
	for _, doc := range docs {
		var rec models.DocumentRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode document record %s: %w", doc.Ref.ID, err)
		}
		rec.ID = doc.Ref.ID
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Firestore) WatchRecords(ctx context.Context, collection, entityID string) (<-chan []models.DocumentRecord, CancelFunc, error) {
	query := s.files(collection, entityID).OrderBy("uploadTimestamp", firestore.Asc)
	return watchQuery(ctx, query, func(doc *firestore.DocumentSnapshot) (models.DocumentRecord, error) {
		var rec models.DocumentRecord
		if err := doc.DataTo(&rec); err != nil {
			return models.DocumentRecord{}, err
		}
		rec.ID = doc.Ref.ID
		return rec, nil
	})
}

func (s *Firestore) GetProspect(ctx context.Context, id string) (models.Prospect, error) {
	doc, err := s.client.Collection(models.ProspectCollection).Doc(id).Get(ctx)
	if err != nil {
		return models.Prospect{}, mapGetErr("get prospect", err)
	}
	var p models.Prospect
	if err := doc.DataTo(&p); err != nil {
		return models.Prospect{}, fmt.Errorf("failed to decode prospect %s: %w", id, err)
	}
	p.ID = doc.Ref.ID
	return p, nil
}

func (s *Firestore) CreateProspect(ctx context.Context, p models.Prospect) error {
	if _, err := s.client.Collection(models.ProspectCollection).Doc(p.ID).Create(ctx, p); err != nil {
		return &TransportError{Op: "create prospect", Err: err}
	}
	return nil
}

func (s *Firestore) ListProspects(ctx context.Context, ownerUID string) ([]models.Prospect, error) {
	docs, err := s.client.Collection(models.ProspectCollection).
		Where("ownerUid", "==", ownerUID).Documents(ctx).GetAll()
	if err != nil {
		return nil, &TransportError{Op: "list prospects", Err: err}
	}
	out := make([]models.Prospect, 0, len(docs))
	for _, doc := range docs {
		var p models.Prospect
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode prospect %s: %w", doc.Ref.ID, err)
		}
		p.ID = doc.Ref.ID
		out = append(out, p)
	}
	return out, nil
}

func (s *Firestore) UpdateProspect(ctx context.Context, id string, fields map[string]any) error {
	return s.updateEntity(ctx, models.ProspectCollection, id, fields)
}

func (s *Firestore) GetProperty(ctx context.Context, id string) (models.Property, error) {
	doc, err := s.client.Collection(models.PropertyCollection).Doc(id).Get(ctx)
	if err != nil {
		return models.Property{}, mapGetErr("get property", err)
	}
	var p models.Property
	if err := doc.DataTo(&p); err != nil {
		return models.Property{}, fmt.Errorf("failed to decode property %s: %w", id, err)
	}
	p.ID = doc.Ref.ID
	return p, nil
}

func (s *Firestore) ListProperties(ctx context.Context, ownerUID string) ([]models.Property, error) {
	docs, err := s.client.Collection(models.PropertyCollection).
		Where("ownerUid", "==", ownerUID).Documents(ctx).GetAll()
	if err != nil {
		return nil, &TransportError{Op: "list properties", Err: err}
	}
	return propertiesFromDocs(docs)
}

func (s *Firestore) UpdateProperty(ctx context.Context, id string, fields map[string]any) error {
	return s.updateEntity(ctx, models.PropertyCollection, id, fields)
}

func (s *Firestore) updateEntity(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return &TransportError{Op: "update " + collection, Err: err}
	}
	return nil
}

// ConvertProspect issues the conversion as a single batched write. The batch
// commits atomically: a partial outcome (property created but prospect not
// marked, or the reverse) cannot reach the store.
func (s *Firestore) ConvertProspect(ctx context.Context, prospectID string, prop models.Property) error {
	batch := s.client.Batch()
	batch.Create(s.client.Collection(models.PropertyCollection).Doc(prop.ID), prop)
	batch.Update(s.client.Collection(models.ProspectCollection).Doc(prospectID), []firestore.Update{
		{Path: "status", Value: models.StatusConverted},
	})
	if _, err := batch.Commit(ctx); err != nil {
		return &TransportError{Op: "commit conversion batch", Err: err}
	}
	return nil
}

func (s *Firestore) GetOwnerProfile(ctx context.Context, ownerUID string) (models.OwnerProfile, error) {
	doc, err := s.client.Collection(usersCollection).Doc(ownerUID).Get(ctx)
	if err != nil {
		return models.OwnerProfile{}, mapGetErr("get owner profile", err)
	}
	var prof models.OwnerProfile
	if err := doc.DataTo(&prof); err != nil {
		return models.OwnerProfile{}, fmt.Errorf("failed to decode owner profile: %w", err)
	}
	return prof, nil
}

func (s *Firestore) WatchPublicListings(ctx context.Context, ownerUID string) (<-chan []models.Property, CancelFunc, error) {
	query := s.client.Collection(models.PropertyCollection).
		Where("ownerUid", "==", ownerUID).
		Where("isListedPublicly", "==", true)
	return watchQuery(ctx, query, func(doc *firestore.DocumentSnapshot) (models.Property, error) {
		var p models.Property
		if err := doc.DataTo(&p); err != nil {
			return models.Property{}, err
		}
		p.ID = doc.Ref.ID
		return p, nil
	})
}

// watchQuery turns a Firestore snapshot listener into a channel of decoded
// full snapshots. The returned cancel is idempotent; the channel is closed
// after the listener stops, whether by cancellation or listener error.
func watchQuery[T any](ctx context.Context, query firestore.Query, decode func(*firestore.DocumentSnapshot) (T, error)) (<-chan []T, CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := query.Snapshots(ctx)
	out := make(chan []T, 1)

	go func() {
		defer close(out)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				// Canceled or listener failure. Consumers keep their last
				// confirmed snapshot either way.
				return
			}
			items, err := decodeSnapshot(snap, decode)
			if err != nil {
				continue
			}
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return out, func() { once.Do(cancel) }, nil
}

func decodeSnapshot[T any](snap *firestore.QuerySnapshot, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	items := make([]T, 0)
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		item, err := decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func propertiesFromDocs(docs []*firestore.DocumentSnapshot) ([]models.Property, error) {
	out := make([]models.Property, 0, len(docs))
	for _, doc := range docs {
		var p models.Property
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode property %s: %w", doc.Ref.ID, err)
		}
		p.ID = doc.Ref.ID
		out = append(out, p)
	}
	return out, nil
}

func mapGetErr(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return &TransportError{Op: op, Err: err}
}
