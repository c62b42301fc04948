package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists symptom reports. Lists are sorted by reported_at
// descending. A non-positive limit means no limit.
type Repository interface {
	Create(ctx context.Context, r *SymptomReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*SymptomReport, error)
	Update(ctx context.Context, r *SymptomReport) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit int) ([]*SymptomReport, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*SymptomReport, error)
	ListByStatus(ctx context.Context, status Status) ([]*SymptomReport, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*SymptomReport, error)
	ListUrgent(ctx context.Context, limit int) ([]*SymptomReport, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error)
}
