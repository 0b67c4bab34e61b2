package repository

import (
	"context"
	"testing"

	"smilecare-sync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordsList_JoinsPatientName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRecordsRepo(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "patient_id", "full_name", "visit_date", "tooth_number", "diagnosis", "treatment_done", "notes", "dentist_name"}).
		AddRow(int64(7), int64(3), "Jane Doe", "2025-03-10", "16", "Caries", "Filling", "", "Dr. Smith").
		AddRow(int64(6), int64(4), "", "2025-03-01", "", "Checkup", "", "no issues", "Dr. Smith")

	mock.ExpectQuery(`SELECT(.|\n)*FROM clinical_records cr(.|\n)*LEFT JOIN patients p`).
		WillReturnRows(rows)

	records, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jane Doe", records[0].PatientName)
	assert.Equal(t, int64(3), records[0].PatientID)
	// orphaned FK still lists, with an empty display name
	assert.Equal(t, "", records[1].PatientName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordsInsert_ReturnsServerID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRecordsRepo(db, zap.NewNop())

	mock.ExpectQuery(`INSERT INTO clinical_records`).
		WithArgs(int64(3), "2025-03-10", "16", "Caries", "Filling", "", "Dr. Smith").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	id, err := repo.Insert(context.Background(), domain.ClinicalRecord{
		PatientID:     3,
		VisitDate:     "2025-03-10",
		ToothNumber:   "16",
		Diagnosis:     "Caries",
		TreatmentDone: "Filling",
		DentistName:   "Dr. Smith",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServicesRename_ValueSubstitution(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresServicesRepo(db, zap.NewNop())

	// Only the catalog row changes; bookings keep the old free-text name.
	mock.ExpectExec(`UPDATE services SET name = \$2 WHERE name = \$1`).
		WithArgs("Whitening", "Teeth Whitening").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Rename(context.Background(), "Whitening", "Teeth Whitening"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
