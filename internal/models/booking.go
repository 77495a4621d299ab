package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingKind tags which service a booking is for. All three kinds share
// one table; the kind decides which variant columns are meaningful.
type BookingKind string

const (
	BookingShelter     BookingKind = "shelter"
	BookingVaccination BookingKind = "vaccination"
	BookingGrooming    BookingKind = "grooming"
)

// BookingKinds lists every kind in route order.
var BookingKinds = []BookingKind{BookingShelter, BookingVaccination, BookingGrooming}

// ParseBookingKind accepts the kind in any letter case.
func ParseBookingKind(s string) (BookingKind, bool) {
	k := BookingKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case BookingShelter, BookingVaccination, BookingGrooming:
		return k, true
	}
	return "", false
}

// Title is the capitalised kind, used in notification and email text.
func (k BookingKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component. It travels as
// "YYYY-MM-DD" in JSON and maps to a Postgres DATE column.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// BookingDetails is the variant part of a booking. Each kind has exactly
// one implementation, so code that needs "the date to sort by" or "what
// goes in the confirmation email" asks the details instead of switching
// on the kind.
type BookingDetails interface {
	Kind() BookingKind
	// PrimaryDate is what listings sort by, newest first.
	PrimaryDate() Date
	Validate() error
	// Summary is the kind-specific block of the confirmation email.
	Summary() string
	// CcOwner reports whether the bound owner is copied on the
	// confirmation email.
	CcOwner() bool
}

type ShelterDetails struct {
	StartDate           Date   `json:"start_date"`
	EndDate             Date   `json:"end_date"`
	SpecialInstructions string `json:"special_instructions"`
}

func (ShelterDetails) Kind() BookingKind { return BookingShelter }
func (d ShelterDetails) PrimaryDate() Date { return d.StartDate }
func (ShelterDetails) CcOwner() bool { return true }

func (d ShelterDetails) Validate() error {
	if d.StartDate.IsZero() {
		return errors.New("start_date is required")
	}
	if d.EndDate.IsZero() {
		return errors.New("end_date is required")
	}
	if d.EndDate.Before(d.StartDate.Time) {
		return errors.New("end_date must not be before start_date")
	}
	return nil
}

func (d ShelterDetails) Summary() string {
	return fmt.Sprintf("Start Date: %s\nEnd Date: %s", d.StartDate, d.EndDate)
}

type VaccinationDetails struct {
	VaccinationDate Date   `json:"vaccination_date"`
	VaccineType     string `json:"vaccine_type"`
	SpecialNotes    string `json:"special_notes"`
}

func (VaccinationDetails) Kind() BookingKind { return BookingVaccination }
func (d VaccinationDetails) PrimaryDate() Date { return d.VaccinationDate }
func (VaccinationDetails) CcOwner() bool { return true }

func (d VaccinationDetails) Validate() error {
	if d.VaccinationDate.IsZero() {
		return errors.New("vaccination_date is required")
	}
	if strings.TrimSpace(d.VaccineType) == "" {
		return errors.New("vaccine_type is required")
	}
	return nil
}

func (d VaccinationDetails) Summary() string {
	return fmt.Sprintf("Date: %s\nVaccine Type: %s", d.VaccinationDate, d.VaccineType)
}

type GroomingDetails struct {
	AppointmentDate Date   `json:"appointment_date"`
	SpecialNotes    string `json:"special_notes"`
}

func (GroomingDetails) Kind() BookingKind { return BookingGrooming }
func (d GroomingDetails) PrimaryDate() Date { return d.AppointmentDate }
func (GroomingDetails) CcOwner() bool { return false }

func (d GroomingDetails) Validate() error {
	if d.AppointmentDate.IsZero() {
		return errors.New("appointment_date is required")
	}
	return nil
}

func (d GroomingDetails) Summary() string {
	return fmt.Sprintf("Appointment Date: %s", d.AppointmentDate)
}

// Booking is one shelter, vaccination or grooming booking.
//
// SelectedOwnerID is nil when the requester didn't pick an owner or
// picked one that isn't an approved owner. That is not an error.
type Booking struct {
	ID                uuid.UUID      `json:"id"`
	Kind              BookingKind    `json:"kind"`
	RequesterID       uuid.UUID      `json:"user"`
	RequesterName     string         `json:"user_name"`
	RequesterEmail    string         `json:"-"`
	SelectedOwnerID   *uuid.UUID     `json:"selected_owner"`
	SelectedOwnerName string         `json:"selected_owner_name,omitempty"`
	PetOwnerName      string         `json:"pet_owner_name"`
	PetName           string         `json:"pet_name"`
	Phone             string         `json:"phone"`
	Status            Status         `json:"status"`
	Details           BookingDetails `json:"details"`
	CreatedAt         time.Time      `json:"created_at"`
}
