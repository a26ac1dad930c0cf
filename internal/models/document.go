package models

import "time"

// DocumentSlot is one entry in the fixed catalog of required document types
// for an entity. The catalog is compiled in; slots are never persisted.
type DocumentSlot struct {
	ID          string
	DisplayName string
}

// SlotCatalog is the universe of required documents for a property record.
// A DocumentRecord's ID must always equal one of these slot IDs.
var SlotCatalog = []DocumentSlot{
	{ID: "sale-deed", DisplayName: "Sale Deed"},
	{ID: "tax-receipt", DisplayName: "Property Tax Receipt"},
	{ID: "survey-plan", DisplayName: "Survey Plan"},
	{ID: "encumbrance-cert", DisplayName: "Encumbrance Certificate"},
}

// SlotByID returns the catalog entry for the given slot id.
func SlotByID(id string) (DocumentSlot, bool) {
	for _, s := range SlotCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return DocumentSlot{}, false
}

// DocumentRecord is the persisted metadata for one uploaded document. The
// record is keyed by its slot id, so a re-upload to the same slot overwrites
// the previous record instead of creating a second one.
type DocumentRecord struct {
	ID           string    `firestore:"-" json:"id"`
	DocumentType string    `firestore:"documentType,omitempty" json:"documentType"`
	FileName     string    `firestore:"fileName,omitempty" json:"fileName"`
	URL          string    `firestore:"url,omitempty" json:"url"`
	ContentType  string    `firestore:"contentType,omitempty" json:"contentType"`
	SizeBytes    int64     `firestore:"sizeBytes,omitempty" json:"sizeBytes"`
	UploadedAt   time.Time `firestore:"uploadTimestamp,serverTimestamp" json:"uploadTimestamp"`
}
