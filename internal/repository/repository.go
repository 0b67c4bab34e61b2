package repository

import (
	"context"
	"database/sql"

	"smilecare-sync/internal/domain"

	"go.uber.org/zap"
)

// Per-collection repository interfaces over the remote relational store.
// List ordering is most-recently-created first (server-assigned created_at)
// so the optimistic prepend in the sync engine lines up with refetched
// state. Any call may fail; callers catch, log and continue on optimistic
// local state.

// BookingsRepo 预约表数据访问
type BookingsRepo interface {
	List(ctx context.Context) ([]domain.Booking, error)
	Insert(ctx context.Context, b domain.Booking) error
	Update(ctx context.Context, id string, patch domain.BookingPatch) error
	Delete(ctx context.Context, id string) error
}

// ServicesRepo 服务目录数据访问
type ServicesRepo interface {
	List(ctx context.Context) ([]domain.Service, error)
	Insert(ctx context.Context, s domain.Service) error
	// Rename is value substitution: the services row changes, bookings
	// referencing the old name are left alone.
	Rename(ctx context.Context, oldName, newName string) error
	Delete(ctx context.Context, name string) error
}

// PatientsRepo 患者档案数据访问
type PatientsRepo interface {
	List(ctx context.Context) ([]domain.Patient, error)
	Insert(ctx context.Context, p domain.Patient) (int64, error)
	Update(ctx context.Context, id int64, patch domain.PatientPatch) error
	Delete(ctx context.Context, id int64) error
}

// RecordsRepo 电子病历数据访问（list 时服务端联表带出患者姓名）
type RecordsRepo interface {
	List(ctx context.Context) ([]domain.ClinicalRecord, error)
	Insert(ctx context.Context, r domain.ClinicalRecord) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Remote bundles the per-collection repositories. A nil *Remote is the
// degraded operating mode: the remote store was disabled or could not be
// constructed, the engine runs on cache-backed optimistic state and never
// schedules retries.
type Remote struct {
	Bookings BookingsRepo
	Services ServicesRepo
	Patients PatientsRepo
	Records  RecordsRepo
}

// NewPostgresRemote builds the lib/pq backed collection repositories.
func NewPostgresRemote(db *sql.DB, logger *zap.Logger) *Remote {
	return &Remote{
		Bookings: NewPostgresBookingsRepo(db, logger),
		Services: NewPostgresServicesRepo(db, logger),
		Patients: NewPostgresPatientsRepo(db, logger),
		Records:  NewPostgresRecordsRepo(db, logger),
	}
}
