package handler

import (
	"time"

	"github.com/clubpedal/members-system/internal/core/ports"
)

// birthDateLayout is the wire format for the optional birth_date field.
const birthDateLayout = "2006-01-02"

type emergencyContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type bikeRequest struct {
	Brand  string `json:"brand"`
	Model  string `json:"model"`
	Serial string `json:"serial"`
}

type createMemberRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
	Address   string `json:"address"`
	City      string `json:"city"`
	BloodType string `json:"blood_type"`

	Emergency emergencyContactRequest `json:"emergency_contact"`
	Bike      bikeRequest             `json:"bike"`

	JerseySize string `json:"jersey_size"`
	Category   string `json:"category"`
	Notes      string `json:"notes"`
}

// updateMemberRequest is a patch: absent fields leave stored values alone.
type updateMemberRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	BloodType *string `json:"blood_type"`

	EmergencyName  *string `json:"emergency_name"`
	EmergencyPhone *string `json:"emergency_phone"`

	BikeBrand  *string `json:"bike_brand"`
	BikeModel  *string `json:"bike_model"`
	BikeSerial *string `json:"bike_serial"`

	JerseySize *string `json:"jersey_size"`
	Category   *string `json:"category"`
	Notes      *string `json:"notes"`
}

type deleteMemberRequest struct {
	Reason string `json:"reason" validate:"required"`
	Force  bool   `json:"force"`
}

type dependentsResponse struct {
	MemberID      string `json:"member_id"`
	HasDependents bool   `json:"has_dependents"`
	InvoiceCount  int64  `json:"invoice_count"`
}

func (r createMemberRequest) toInput(actor string) (ports.CreateMemberInput, error) {
	in := ports.CreateMemberInput{
		Actor:          actor,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		City:           r.City,
		BloodType:      r.BloodType,
		EmergencyName:  r.Emergency.Name,
		EmergencyPhone: r.Emergency.Phone,
		BikeBrand:      r.Bike.Brand,
		BikeModel:      r.Bike.Model,
		BikeSerial:     r.Bike.Serial,
		JerseySize:     r.JerseySize,
		Category:       r.Category,
		Notes:          r.Notes,
	}
	if r.BirthDate != "" {
		d, err := time.Parse(birthDateLayout, r.BirthDate)
		if err != nil {
			return in, err
		}
		in.BirthDate = &d
	}
	return in, nil
}

func (r updateMemberRequest) toInput(actor string) (ports.UpdateMemberInput, error) {
	in := ports.UpdateMemberInput{
		Actor:          actor,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		City:           r.City,
		BloodType:      r.BloodType,
		EmergencyName:  r.EmergencyName,
		EmergencyPhone: r.EmergencyPhone,
		BikeBrand:      r.BikeBrand,
		BikeModel:      r.BikeModel,
		BikeSerial:     r.BikeSerial,
		JerseySize:     r.JerseySize,
		Category:       r.Category,
		Notes:          r.Notes,
	}
	if r.BirthDate != nil && *r.BirthDate != "" {
		d, err := time.Parse(birthDateLayout, *r.BirthDate)
		if err != nil {
			return in, err
		}
		in.BirthDate = &d
	}
	return in, nil
}
