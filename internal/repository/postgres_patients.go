package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"smilecare-sync/internal/domain"

	"go.uber.org/zap"
)

// PostgresPatientsRepo 患者档案 Repository 实现（patients 表）
type PostgresPatientsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresPatientsRepo(db *sql.DB, logger *zap.Logger) *PostgresPatientsRepo {
	return &PostgresPatientsRepo{db: db, logger: logger}
}

var _ PatientsRepo = (*PostgresPatientsRepo)(nil)

func (r *PostgresPatientsRepo) List(ctx context.Context) ([]domain.Patient, error) {
	query := `
		SELECT
			id,
			full_name,
			COALESCE(email, ''),
			COALESCE(phone, ''),
			COALESCE(date_of_birth, ''),
			COALESCE(gender, ''),
			COALESCE(address, ''),
			COALESCE(medical_history, ''),
			created_at
		FROM patients
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []domain.Patient
	for rows.Next() {
		var p domain.Patient
		if err := rows.Scan(
			&p.ID,
			&p.FullName,
			&p.Email,
			&p.Phone,
			&p.DateOfBirth,
			&p.Gender,
			&p.Address,
			&p.MedicalHistory,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}

	return patients, nil
}

// Insert persists a new patient and returns the server-assigned id.
func (r *PostgresPatientsRepo) Insert(ctx context.Context, p domain.Patient) (int64, error) {
	query := `
		INSERT INTO patients (full_name, email, phone, date_of_birth, gender, address, medical_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.FullName, p.Email, p.Phone, p.DateOfBirth, p.Gender, p.Address, p.MedicalHistory,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert patient: %w", err)
	}
	return id, nil
}

func (r *PostgresPatientsRepo) Update(ctx context.Context, id int64, patch domain.PatientPatch) error {
	set := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", *patch.DateOfBirth)
	}
	if patch.Gender != nil {
		add("gender", *patch.Gender)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.MedicalHistory != nil {
		add("medical_history", *patch.MedicalHistory)
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE patients SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update patient %d: %w", id, err)
	}
	return nil
}

func (r *PostgresPatientsRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete patient %d: %w", id, err)
	}
	return nil
}
