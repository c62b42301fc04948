package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists medical history records. Lists are sorted by visit_date
// descending.
type Repository interface {
	Create(ctx context.Context, m *MedicalHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalHistory, error)
	Update(ctx context.Context, m *MedicalHistory) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*MedicalHistory, error)
	// Search matches the query against diagnosis, patient name and
	// description using full-text search.
	Search(ctx context.Context, query string, limit, offset int) ([]*MedicalHistory, int, error)
}
