package domain

import "time"

// Invoice belongs to exactly one member via ClientID. The store does not
// enforce the relationship; the lifecycle manager consults it through
// HasDependents before a delete.
type Invoice struct {
	ID       string    `json:"id" bson:"_id,omitempty"`
	ClientID string    `json:"client_id" bson:"client_id"`
	Number   string    `json:"number" bson:"number"`
	IssuedAt time.Time `json:"issued_at" bson:"issued_at"`
	Concept  string    `json:"concept,omitempty" bson:"concept,omitempty"`
	Total    float64   `json:"total" bson:"total"`
	Currency string    `json:"currency" bson:"currency"`
	Paid     bool      `json:"paid" bson:"paid"`
}
