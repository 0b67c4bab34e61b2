package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"smilecare-sync/internal/domain"

	"go.uber.org/zap"
)

// PostgresBookingsRepo 预约 Repository 实现（bookings 表）
// The table persists snake_case column names; Scan code translates them to
// the canonical domain fields. id is a server-assigned bigserial rendered
// as a string in the domain model.
type PostgresBookingsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresBookingsRepo(db *sql.DB, logger *zap.Logger) *PostgresBookingsRepo {
	return &PostgresBookingsRepo{db: db, logger: logger}
}

var _ BookingsRepo = (*PostgresBookingsRepo)(nil)

// List returns the full ledger, most recently created first.
func (r *PostgresBookingsRepo) List(ctx context.Context) ([]domain.Booking, error) {
	query := `
		SELECT
			id::text,
			patient_name,
			service,
			booking_date,
			booking_time,
			status,
			created_at
		FROM bookings
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.PatientName, &b.Service, &b.Date, &b.Time, &status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Status = domain.BookingStatus(status)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// Insert persists a new booking. The local placeholder ID is not sent; the
// server assigns id and created_at.
func (r *PostgresBookingsRepo) Insert(ctx context.Context, b domain.Booking) error {
	status := b.Status
	if status == "" {
		status = domain.StatusConfirmed
	}

	query := `
		INSERT INTO bookings (patient_name, service, booking_date, booking_time, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, b.PatientName, b.Service, b.Date, b.Time, string(status)); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// Update applies a partial update by id. Local placeholder IDs ("BK-...")
// were never persisted remotely, so there is nothing to update.
func (r *PostgresBookingsRepo) Update(ctx context.Context, id string, patch domain.BookingPatch) error {
	numericID, err := parseRemoteID(id)
	if err != nil {
		return err
	}

	set := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.PatientName != nil {
		add("patient_name", *patch.PatientName)
	}
	if patch.Service != nil {
		add("service", *patch.Service)
	}
	if patch.Date != nil {
		add("booking_date", *patch.Date)
	}
	if patch.Time != nil {
		add("booking_time", *patch.Time)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, numericID)
	query := fmt.Sprintf("UPDATE bookings SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update booking %s: %w", id, err)
	}
	return nil
}

// Delete removes a booking by id.
func (r *PostgresBookingsRepo) Delete(ctx context.Context, id string) error {
	numericID, err := parseRemoteID(id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, numericID); err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}
	return nil
}

// parseRemoteID rejects local placeholder identifiers before they reach
// the store.
func parseRemoteID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("booking id %q was never assigned by the remote store", id)
	}
	return n, nil
}
