package history

import (
	"time"

	"github.com/google/uuid"
)

// MedicalHistory is one clinical visit record: the diagnosis reached, the
// symptoms observed and the treatment prescribed.
type MedicalHistory struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName  string     `db:"patient_name" json:"patient_name"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DoctorName   string     `db:"doctor_name" json:"doctor_name"`
	VisitDate    time.Time  `db:"visit_date" json:"visit_date"`
	Diagnosis    string     `db:"diagnosis" json:"diagnosis"`
	Description  string     `db:"description" json:"description,omitempty"`
	Symptoms     []string   `db:"symptoms" json:"symptoms"`
	Treatment    string     `db:"treatment" json:"treatment,omitempty"`
	Prescription string     `db:"prescription" json:"prescription,omitempty"`
	Notes        string     `db:"notes" json:"notes,omitempty"`
	FollowUpDate *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// NeedsFollowUp reports whether a follow-up visit is scheduled after now.
func (m *MedicalHistory) NeedsFollowUp(now time.Time) bool {
	return m.FollowUpDate != nil && m.FollowUpDate.After(now)
}
