package repository

import (
	"context"
	"database/sql"
	"fmt"

	"smilecare-sync/internal/domain"

	"go.uber.org/zap"
)

// PostgresRecordsRepo 电子病历 Repository 实现（clinical_records 表）
// List joins patients so every record carries the patient display name;
// re-deriving this join server-side is why change events trigger a full
// refetch instead of client-side patching.
type PostgresRecordsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresRecordsRepo(db *sql.DB, logger *zap.Logger) *PostgresRecordsRepo {
	return &PostgresRecordsRepo{db: db, logger: logger}
}

var _ RecordsRepo = (*PostgresRecordsRepo)(nil)

func (r *PostgresRecordsRepo) List(ctx context.Context) ([]domain.ClinicalRecord, error) {
	query := `
		SELECT
			cr.id,
			cr.patient_id,
			COALESCE(p.full_name, ''),
			COALESCE(cr.visit_date, ''),
			COALESCE(cr.tooth_number, ''),
			COALESCE(cr.diagnosis, ''),
			COALESCE(cr.treatment_done, ''),
			COALESCE(cr.notes, ''),
			COALESCE(cr.dentist_name, '')
		FROM clinical_records cr
		LEFT JOIN patients p ON p.id = cr.patient_id
		ORDER BY cr.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	defer rows.Close()

	var records []domain.ClinicalRecord
	for rows.Next() {
		var rec domain.ClinicalRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.PatientID,
			&rec.PatientName,
			&rec.VisitDate,
			&rec.ToothNumber,
			&rec.Diagnosis,
			&rec.TreatmentDone,
			&rec.Notes,
			&rec.DentistName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clinical record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clinical records: %w", err)
	}

	return records, nil
}

func (r *PostgresRecordsRepo) Insert(ctx context.Context, rec domain.ClinicalRecord) (int64, error) {
	query := `
		INSERT INTO clinical_records (patient_id, visit_date, tooth_number, diagnosis, treatment_done, notes, dentist_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		rec.PatientID, rec.VisitDate, rec.ToothNumber, rec.Diagnosis, rec.TreatmentDone, rec.Notes, rec.DentistName,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert clinical record: %w", err)
	}
	return id, nil
}

func (r *PostgresRecordsRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM clinical_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete clinical record %d: %w", id, err)
	}
	return nil
}
