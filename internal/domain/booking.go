package domain

import (
	"fmt"
	"time"
)

// BookingStatus 预约状态
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "Confirmed"
	StatusPending   BookingStatus = "Pending"
	StatusCancelled BookingStatus = "Cancelled"
)

// Booking is the canonical in-memory shape of one appointment.
// The remote store persists it in snake_case (bookings table:
// id, patient_name, service, booking_date, booking_time, status, created_at);
// the repository layer translates between the two.
//
// ID is opaque. Locally created bookings carry a time-based placeholder
// ("BK-<unix millis>") until a successful remote refresh replaces the row
// wholesale with the server-assigned identifier.
type Booking struct {
	ID          string        `json:"id"`
	PatientName string        `json:"name"`
	Service     string        `json:"service"` // free-text reference into the service catalog, no FK
	Date        string        `json:"date"`    // free-form, normalized on read by internal/dates
	Time        string        `json:"time"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"timestamp"`
}

// NewLocalBookingID generates the time-based placeholder identifier used
// for optimistic inserts.
func NewLocalBookingID(now time.Time) string {
	return fmt.Sprintf("BK-%d", now.UnixMilli())
}

// BookingPatch carries a partial update; nil fields are left untouched.
type BookingPatch struct {
	PatientName *string        `json:"name,omitempty"`
	Service     *string        `json:"service,omitempty"`
	Date        *string        `json:"date,omitempty"`
	Time        *string        `json:"time,omitempty"`
	Status      *BookingStatus `json:"status,omitempty"`
}

// Apply copies the non-nil patch fields onto b.
func (p BookingPatch) Apply(b *Booking) {
	if p.PatientName != nil {
		b.PatientName = *p.PatientName
	}
	if p.Service != nil {
		b.Service = *p.Service
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Time != nil {
		b.Time = *p.Time
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}
