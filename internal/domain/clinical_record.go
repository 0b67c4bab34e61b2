package domain

// ClinicalRecord 电子病历（对应 clinical_records 表，patient_id 外键 → patients）
// PatientName is joined server-side on list; re-deriving the join is the
// reason any change event triggers a full refetch instead of a client-side
// patch.
type ClinicalRecord struct {
	ID            int64  `json:"id"`
	PatientID     int64  `json:"patientId"`
	PatientName   string `json:"patientName,omitempty"`
	VisitDate     string `json:"visitDate"`
	ToothNumber   string `json:"toothNumber"`
	Diagnosis     string `json:"diagnosis"`
	TreatmentDone string `json:"treatmentDone"`
	Notes         string `json:"notes"`
	DentistName   string `json:"dentistName"`
}
