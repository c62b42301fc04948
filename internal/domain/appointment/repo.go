package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments. Lists are sorted by scheduled_at
// ascending so the next visit comes first.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListByDoctorWindow returns the doctor's non-cancelled appointments
	// overlapping [from, to), for conflict checks.
	ListByDoctorWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error)
}
