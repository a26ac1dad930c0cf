package models

import "time"

// Entity status values shared by prospects and properties.
const (
	StatusActive    = "Active"
	StatusConverted = "Converted"
	StatusOnHold    = "OnHold"
	StatusSold      = "Sold"
)

// Collection names for the two entity kinds.
const (
	ProspectCollection = "prospects"
	PropertyCollection = "properties"
)

// Prospect is a potential acquisition being tracked before purchase.
type Prospect struct {
	ID           string    `firestore:"-" json:"id"`
	Name         string    `firestore:"name,omitempty" json:"name"`
	Address      string    `firestore:"address,omitempty" json:"address"`
	PropertyType string    `firestore:"propertyType,omitempty" json:"propertyType"`
	ContactInfo  string    `firestore:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	Status       string    `firestore:"status,omitempty" json:"status"`
	DateAdded    time.Time `firestore:"dateAdded,omitempty" json:"dateAdded"`
	OwnerUID     string    `firestore:"ownerUid,omitempty" json:"ownerUid"`
}

// GetOwnerUID implements services.Ownable.
func (p Prospect) GetOwnerUID() string { return p.OwnerUID }

// Property is an owned property record. A Property is either created directly
// or derived from a Prospect by conversion.
type Property struct {
	ID             string    `firestore:"-" json:"id"`
	Name           string    `firestore:"name,omitempty" json:"name"`
	Address        string    `firestore:"address,omitempty" json:"address"`
	PropertyType   string    `firestore:"propertyType,omitempty" json:"propertyType"`
	LandDetails    string    `firestore:"landDetails,omitempty" json:"landDetails"`
	AreaSqFt       float64   `firestore:"areaSqFt,omitempty" json:"areaSqFt"`
	PurchaseDate   time.Time `firestore:"purchaseDate,omitempty" json:"purchaseDate"`
	PurchasePrice  float64   `firestore:"purchasePrice,omitempty" json:"purchasePrice"`
	Status         string    `firestore:"status,omitempty" json:"status"`
	IsListedPublic bool      `firestore:"isListedPublicly" json:"isListedPublicly"`
	ListingPrice   *float64  `firestore:"listingPrice,omitempty" json:"listingPrice,omitempty"`
	Latitude       *float64  `firestore:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude      *float64  `firestore:"longitude,omitempty" json:"longitude,omitempty"`
	DateAdded      time.Time `firestore:"dateAdded,omitempty" json:"dateAdded"`
	OwnerUID       string    `firestore:"ownerUid,omitempty" json:"ownerUid"`
}

// GetOwnerUID implements services.Ownable.
func (p Property) GetOwnerUID() string { return p.OwnerUID }

// OwnerProfile is the per-owner settings document read by the public gate.
type OwnerProfile struct {
	DisplayName           string `firestore:"displayName,omitempty" json:"displayName"`
	PublicListingsEnabled bool   `firestore:"publicListingsEnabled" json:"publicListingsEnabled"`
}
