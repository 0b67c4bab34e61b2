package domain

import "time"

// Patient 患者档案（对应 patients 表）
// Patient identifiers are assigned by the remote store. Optimistically
// created patients carry a time-based placeholder ID for the current
// session only; patients are not written to the local snapshot cache, so a
// local-only patient does not survive a restart without a remote store.
type Patient struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	DateOfBirth    string    `json:"dateOfBirth"`
	Gender         string    `json:"gender"`
	Address        string    `json:"address"`
	MedicalHistory string    `json:"medicalHistory"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PatientPatch carries a partial update; nil fields are left untouched.
type PatientPatch struct {
	FullName       *string `json:"fullName,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	DateOfBirth    *string `json:"dateOfBirth,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	Address        *string `json:"address,omitempty"`
	MedicalHistory *string `json:"medicalHistory,omitempty"`
}

// Apply copies the non-nil patch fields onto p.
func (pp PatientPatch) Apply(p *Patient) {
	if pp.FullName != nil {
		p.FullName = *pp.FullName
	}
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.DateOfBirth != nil {
		p.DateOfBirth = *pp.DateOfBirth
	}
	if pp.Gender != nil {
		p.Gender = *pp.Gender
	}
	if pp.Address != nil {
		p.Address = *pp.Address
	}
	if pp.MedicalHistory != nil {
		p.MedicalHistory = *pp.MedicalHistory
	}
}

// PatientSummary is the read-side roll-up derived from the booking ledger
// (unique patient names with visit counts), not a stored entity.
type PatientSummary struct {
	Name        string `json:"name"`
	TotalVisits int    `json:"totalVisits"`
	LastVisit   string `json:"lastVisit"`
	Service     string `json:"service"`
}
