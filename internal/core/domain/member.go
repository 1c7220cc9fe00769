package domain

import (
	"errors"
	"time"
)

var ErrMemberNotFound = errors.New("member not found")
var ErrValidation = errors.New("validation failed")
var ErrHasDependents = errors.New("member has dependent invoices")
var ErrAuditInconsistency = errors.New("mutation succeeded but audit entry failed")
var ErrForbidden = errors.New("access forbidden")

// EmergencyContact is who to call when a member has an accident on the road.
type EmergencyContact struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Bike describes the member's registered bicycle.
type Bike struct {
	Brand  string `json:"brand,omitempty" bson:"brand,omitempty"`
	Model  string `json:"model,omitempty" bson:"model,omitempty"`
	Serial string `json:"serial,omitempty" bson:"serial,omitempty"`
}

// Member is the core record: one cyclist tracked by the club.
//
// A member lives in exactly one of two partitions — active or deleted.
// DeletionReason and DeletionDate are set if and only if the member is in the
// deleted partition; a restore strips them again.
type Member struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`

	Email     string     `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string     `json:"phone,omitempty" bson:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	Address   string     `json:"address,omitempty" bson:"address,omitempty"`
	City      string     `json:"city,omitempty" bson:"city,omitempty"`
	BloodType string     `json:"blood_type,omitempty" bson:"blood_type,omitempty"`

	Emergency EmergencyContact `json:"emergency_contact,omitempty" bson:"emergency_contact,omitempty"`
	Bike      Bike             `json:"bike,omitempty" bson:"bike,omitempty"`

	JerseySize string `json:"jersey_size,omitempty" bson:"jersey_size,omitempty"`
	Category   string `json:"category,omitempty" bson:"category,omitempty"`
	Notes      string `json:"notes,omitempty" bson:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	DeletionReason string     `json:"deletion_reason,omitempty" bson:"deletion_reason,omitempty"`
	DeletionDate   *time.Time `json:"deletion_date,omitempty" bson:"deletion_date,omitempty"`
}

// FullName returns the display name used in audit entries.
func (m *Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
