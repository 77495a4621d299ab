package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pawsnest/backend/internal/models"
	"github.com/pawsnest/backend/internal/repository"
)

const bookingSelect = `
	SELECT b.id, b.kind, b.requester_id, r.username, r.email,
	       b.selected_owner_id, coalesce(o.username, ''),
	       b.pet_owner_name, b.pet_name, b.phone,
	       b.primary_date, b.end_date, b.vaccine_type, b.notes,
	       b.status, b.created_at
	FROM bookings b
	JOIN users r ON r.id = b.requester_id
	LEFT JOIN users o ON o.id = b.selected_owner_id`

type BookingStore struct {
	pool *pgxpool.Pool
}

func NewBookingStore(pool *pgxpool.Pool) *BookingStore {
	return &BookingStore{pool: pool}
}

// detailColumns flattens the variant details onto the shared columns.
func detailColumns(d models.BookingDetails) (primary time.Time, end *time.Time, vaccineType, notes string) {
	switch v := d.(type) {
	case models.ShelterDetails:
		e := v.EndDate.Time
		return v.StartDate.Time, &e, "", v.SpecialInstructions
	case models.VaccinationDetails:
		return v.VaccinationDate.Time, nil, v.VaccineType, v.SpecialNotes
	case models.GroomingDetails:
		return v.AppointmentDate.Time, nil, "", v.SpecialNotes
	}
	return time.Time{}, nil, "", ""
}

func detailsFromColumns(kind models.BookingKind, primary time.Time, end *time.Time, vaccineType, notes string) (models.BookingDetails, error) {
	switch kind {
	case models.BookingShelter:
		d := models.ShelterDetails{StartDate: models.NewDate(primary), SpecialInstructions: notes}
		if end != nil {
			d.EndDate = models.NewDate(*end)
		}
		return d, nil
	case models.BookingVaccination:
		return models.VaccinationDetails{
			VaccinationDate: models.NewDate(primary),
			VaccineType:     vaccineType,
			SpecialNotes:    notes,
		}, nil
	case models.BookingGrooming:
		return models.GroomingDetails{AppointmentDate: models.NewDate(primary), SpecialNotes: notes}, nil
	}
	return nil, fmt.Errorf("unknown booking kind %q", kind)
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b           models.Booking
		primary     time.Time
		end         *time.Time
		vaccineType string
		notes       string
	)
	err := row.Scan(
		&b.ID,
		&b.Kind,
		&b.RequesterID,
		&b.RequesterName,
		&b.RequesterEmail,
		&b.SelectedOwnerID,
		&b.SelectedOwnerName,
		&b.PetOwnerName,
		&b.PetName,
		&b.Phone,
		&primary,
		&end,
		&vaccineType,
		&notes,
		&b.Status,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.Details, err = detailsFromColumns(b.Kind, primary, end, vaccineType, notes); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BookingStore) Create(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	primary, end, vaccineType, notes := detailColumns(b.Details)

	query := `
		INSERT INTO bookings (kind, requester_id, selected_owner_id, pet_owner_name, pet_name, phone,
		                      primary_date, end_date, vaccine_type, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, query,
		b.Kind, b.RequesterID, b.SelectedOwnerID, b.PetOwnerName, b.PetName, b.Phone,
		primary, end, vaccineType, notes, b.Status,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	created, err := s.GetByID(ctx, b.Kind, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("insert booking: row %s vanished", id)
	}
	return created, nil
}

func (s *BookingStore) GetByID(ctx context.Context, kind models.BookingKind, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, bookingSelect+` WHERE b.kind = $1 AND b.id = $2`, kind, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *BookingStore) List(ctx context.Context, kind models.BookingKind, f repository.BookingFilter) ([]models.Booking, error) {
	query := bookingSelect + `
		WHERE b.kind = $1
		  AND ($2::uuid IS NULL OR b.requester_id = $2)
		  AND ($3::uuid IS NULL OR b.selected_owner_id = $3)
		ORDER BY b.primary_date DESC, b.created_at DESC`

	rows, err := s.pool.Query(ctx, query, kind, f.RequesterID, f.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}
