package repository

import (
	"context"
	"database/sql"
	"fmt"

	"smilecare-sync/internal/domain"

	"go.uber.org/zap"
)

// PostgresServicesRepo 服务目录 Repository 实现（services 表，仅 name 列）
// Names are unique and case-sensitive; there is no independent identifier,
// a rename rewrites the value in place.
type PostgresServicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresServicesRepo(db *sql.DB, logger *zap.Logger) *PostgresServicesRepo {
	return &PostgresServicesRepo{db: db, logger: logger}
}

var _ ServicesRepo = (*PostgresServicesRepo)(nil)

func (r *PostgresServicesRepo) List(ctx context.Context) ([]domain.Service, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}

	return services, nil
}

func (r *PostgresServicesRepo) Insert(ctx context.Context, s domain.Service) error {
	query := `INSERT INTO services (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, s.Name); err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}
	return nil
}

func (r *PostgresServicesRepo) Rename(ctx context.Context, oldName, newName string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE services SET name = $2 WHERE name = $1`, oldName, newName); err != nil {
		return fmt.Errorf("failed to rename service %q: %w", oldName, err)
	}
	return nil
}

func (r *PostgresServicesRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete service %q: %w", name, err)
	}
	return nil
}
