package models

// These structs define the JSON payloads exchanged between the web client and
// the HTTP function entry points in cmd/.

// UploadDocumentRequest is the input for the checklist upload operation. File
// bytes arrive base64-encoded in Data.
type UploadDocumentRequest struct {
	OwnerUID    string `json:"ownerUid"`
	Collection  string `json:"collection"`
	EntityID    string `json:"entityId"`
	SlotID      string `json:"slotId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// UploadDocumentResponse is the output of the checklist upload operation.
// The write is acknowledged, not yet confirmed: confirmation arrives through
// the live checklist subscription.
type UploadDocumentResponse struct {
	Status string `json:"status"`
	SlotID string `json:"slotId"`
}

// DeleteDocumentRequest is the input for the checklist delete operation.
type DeleteDocumentRequest struct {
	OwnerUID   string `json:"ownerUid"`
	Collection string `json:"collection"`
	EntityID   string `json:"entityId"`
	SlotID     string `json:"slotId"`
}

// ChecklistResponse is the output of the checklist list operation.
type ChecklistResponse struct {
	EntityID string           `json:"entityId"`
	Slots    []SlotStatus     `json:"slots"`
	Records  []DocumentRecord `json:"records"`
	Complete bool             `json:"complete"`
}

// SlotStatus is one row of the checklist roll-up.
type SlotStatus struct {
	SlotID      string `json:"slotId"`
	DisplayName string `json:"displayName"`
	Filled      bool   `json:"filled"`
}

// ConvertRequest is the input for the prospect-to-property conversion.
type ConvertRequest struct {
	OwnerUID   string        `json:"ownerUid"`
	ProspectID string        `json:"prospectId"`
	Draft      PropertyDraft `json:"draft"`
}

// PropertyDraft carries the caller-supplied values for Property fields a
// Prospect does not have. Zero values are replaced with sentinel defaults.
type PropertyDraft struct {
	LandDetails   string  `json:"landDetails"`
	AreaSqFt      float64 `json:"areaSqFt"`
	PurchasePrice float64 `json:"purchasePrice"`
}

// ConvertResponse is the output of a successful conversion.
type ConvertResponse struct {
	Status        string `json:"status"`
	NewPropertyID string `json:"newPropertyId"`
}

// UpdateEntityRequest is the input for a plain in-place entity edit.
type UpdateEntityRequest struct {
	OwnerUID   string         `json:"ownerUid"`
	Collection string         `json:"collection"`
	EntityID   string         `json:"entityId"`
	Fields     map[string]any `json:"fields"`
}

// SetPublicListingRequest toggles a property's public visibility.
type SetPublicListingRequest struct {
	OwnerUID     string   `json:"ownerUid"`
	PropertyID   string   `json:"propertyId"`
	Enabled      bool     `json:"enabled"`
	ListingPrice *float64 `json:"listingPrice,omitempty"`
}

// CreateProspectRequest is the input for creating a new prospect.
type CreateProspectRequest struct {
	OwnerUID string   `json:"ownerUid"`
	Prospect Prospect `json:"prospect"`
}

// CreateProspectResponse is the output of a successful prospect creation.
type CreateProspectResponse struct {
	Status     string `json:"status"`
	ProspectID string `json:"prospectId"`
}

// PortfolioResponse is the owner's full entity roll-up with per-entity
// checklist completeness.
type PortfolioResponse struct {
	Prospects         []Prospect      `json:"prospects"`
	Properties        []Property      `json:"properties"`
	ChecklistComplete map[string]bool `json:"checklistComplete"`
}

// PublicListingsResponse is the output of the public view endpoint.
type PublicListingsResponse struct {
	State       string     `json:"state"`
	DisplayName string     `json:"displayName,omitempty"`
	Listings    []Property `json:"listings,omitempty"`
}
