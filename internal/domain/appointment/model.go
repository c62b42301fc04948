package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle stage of an appointment.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// DefaultDurationMinutes applies when the booking omits a duration.
const DefaultDurationMinutes = 30

// Appointment is a booked visit between a patient and a doctor.
type Appointment struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName        string     `db:"patient_name" json:"patient_name"`
	DoctorID           uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DoctorName         string     `db:"doctor_name" json:"doctor_name"`
	ScheduledAt        time.Time  `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes    int        `db:"duration_minutes" json:"duration_minutes"`
	Reason             string     `db:"reason" json:"reason,omitempty"`
	Notes              string     `db:"notes" json:"notes,omitempty"`
	Status             Status     `db:"status" json:"status"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason string     `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// EndsAt is the scheduled end of the visit.
func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two appointments share any time.
func (a *Appointment) Overlaps(other *Appointment) bool {
	return a.ScheduledAt.Before(other.EndsAt()) && other.ScheduledAt.Before(a.EndsAt())
}
