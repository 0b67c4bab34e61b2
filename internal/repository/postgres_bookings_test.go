package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"smilecare-sync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupBookingsRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresBookingsRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresBookingsRepo(db, zap.NewNop())
	return db, mock, repo
}

func TestBookingsList_OrderedMostRecentFirst(t *testing.T) {
	db, mock, repo := setupBookingsRepo(t)
	defer db.Close()

	newer := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "patient_name", "service", "booking_date", "booking_time", "status", "created_at"}).
		AddRow("42", "Jane Doe", "Teeth Cleaning", "2025-03-10", "09:30", "Confirmed", newer).
		AddRow("41", "John Roe", "Whitening", "2025-03-02", "14:00", "Confirmed", older)

	mock.ExpectQuery(`SELECT(.|\n)*FROM bookings(.|\n)*ORDER BY created_at DESC`).
		WillReturnRows(rows)

	bookings, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "42", bookings[0].ID)
	assert.Equal(t, "Jane Doe", bookings[0].PatientName)
	assert.Equal(t, domain.StatusConfirmed, bookings[0].Status)
	assert.Equal(t, newer, bookings[0].CreatedAt)
	assert.Equal(t, "41", bookings[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingsList_Empty(t *testing.T) {
	db, mock, repo := setupBookingsRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "patient_name", "service", "booking_date", "booking_time", "status", "created_at"})
	mock.ExpectQuery(`SELECT(.|\n)*FROM bookings`).WillReturnRows(rows)

	bookings, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingsInsert_DoesNotSendLocalID(t *testing.T) {
	db, mock, repo := setupBookingsRepo(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO bookings \(patient_name, service, booking_date, booking_time, status\)`).
		WithArgs("Jane Doe", "Teeth Cleaning", "2025-03-10", "09:30", "Confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), domain.Booking{
		ID:          "BK-1741600000000", // local placeholder, must not reach the store
		PatientName: "Jane Doe",
		Service:     "Teeth Cleaning",
		Date:        "2025-03-10",
		Time:        "09:30",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingsUpdate_PartialFields(t *testing.T) {
	db, mock, repo := setupBookingsRepo(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE bookings SET status = \$1 WHERE id = \$2`).
		WithArgs("Cancelled", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := domain.StatusCancelled
	err := repo.Update(context.Background(), "42", domain.BookingPatch{Status: &status})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingsUpdate_LocalPlaceholderRejected(t *testing.T) {
	db, mock, repo := setupBookingsRepo(t)
	defer db.Close()

	status := domain.StatusCancelled
	err := repo.Update(context.Background(), "BK-1741600000000", domain.BookingPatch{Status: &status})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingsDelete(t *testing.T) {
	db, mock, repo := setupBookingsRepo(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM bookings WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
