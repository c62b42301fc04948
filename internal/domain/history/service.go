package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrPatientRequired   = errors.New("patient id is required")
	ErrDoctorRequired    = errors.New("doctor id is required")
	ErrDiagnosisRequired = errors.New("diagnosis is required")
	ErrEmptyQuery        = errors.New("search query is required")
	ErrNotFound          = errors.New("medical history not found")
)

// Service owns clinical visit records.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput is the payload for a new visit record.
type CreateInput struct {
	PatientID    uuid.UUID  `json:"patient_id"`
	PatientName  string     `json:"patient_name"`
	DoctorID     uuid.UUID  `json:"doctor_id"`
	DoctorName   string     `json:"doctor_name"`
	VisitDate    time.Time  `json:"visit_date"`
	Diagnosis    string     `json:"diagnosis"`
	Description  string     `json:"description"`
	Symptoms     []string   `json:"symptoms"`
	Treatment    string     `json:"treatment"`
	Prescription string     `json:"prescription"`
	Notes        string     `json:"notes"`
	FollowUpDate *time.Time `json:"follow_up_date"`
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*MedicalHistory, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrPatientRequired
	}
	if in.DoctorID == uuid.Nil {
		return nil, ErrDoctorRequired
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, ErrDiagnosisRequired
	}
	if in.VisitDate.IsZero() {
		in.VisitDate = time.Now().UTC()
	}
	if in.Symptoms == nil {
		in.Symptoms = []string{}
	}

	now := time.Now().UTC()
	m := &MedicalHistory{
		ID:           uuid.New(),
		PatientID:    in.PatientID,
		PatientName:  in.PatientName,
		DoctorID:     in.DoctorID,
		DoctorName:   in.DoctorName,
		VisitDate:    in.VisitDate,
		Diagnosis:    in.Diagnosis,
		Description:  in.Description,
		Symptoms:     in.Symptoms,
		Treatment:    in.Treatment,
		Prescription: in.Prescription,
		Notes:        in.Notes,
		FollowUpDate: in.FollowUpDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create medical history: %w", err)
	}
	s.logger.Info().
		Str("history_id", m.ID.String()).
		Str("patient_id", m.PatientID.String()).
		Msg("medical history recorded")
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*MedicalHistory, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *MedicalHistory) error {
	if strings.TrimSpace(m.Diagnosis) == "" {
		return ErrDiagnosisRequired
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return fmt.Errorf("update medical history: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete medical history: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListByDateRange(ctx context.Context, from, to time.Time) ([]*MedicalHistory, error) {
	return s.repo.ListByDateRange(ctx, from, to)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*MedicalHistory, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, ErrEmptyQuery
	}
	return s.repo.Search(ctx, query, limit, offset)
}
