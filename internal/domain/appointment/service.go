package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrPatientRequired = errors.New("patient id is required")
	ErrDoctorRequired  = errors.New("doctor id is required")
	ErrPastSchedule    = errors.New("appointment must be scheduled in the future")
	ErrSlotTaken       = errors.New("doctor already has an appointment in that slot")
	ErrInvalidStatus   = errors.New("invalid appointment status")
	ErrTerminalStatus  = errors.New("appointment is already in a terminal state")
	ErrNotFound        = errors.New("appointment not found")
)

// Service owns appointment booking and lifecycle.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateInput is the booking payload.
type CreateInput struct {
	PatientID       uuid.UUID `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
}

// Create books an appointment after checking the doctor's calendar for
// overlapping bookings.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrPatientRequired
	}
	if in.DoctorID == uuid.Nil {
		return nil, ErrDoctorRequired
	}
	if !in.ScheduledAt.After(s.now()) {
		return nil, ErrPastSchedule
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = DefaultDurationMinutes
	}

	now := s.now().UTC()
	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		DoctorID:        in.DoctorID,
		DoctorName:      in.DoctorName,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: in.DurationMinutes,
		Reason:          in.Reason,
		Notes:           in.Notes,
		Status:          StatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	existing, err := s.repo.ListByDoctorWindow(ctx, a.DoctorID, a.ScheduledAt, a.EndsAt())
	if err != nil {
		return nil, fmt.Errorf("check doctor calendar: %w", err)
	}
	for _, other := range existing {
		if a.Overlaps(other) {
			return nil, ErrSlotTaken
		}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Time("scheduled_at", a.ScheduledAt).
		Msg("appointment booked")
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// UpdateStatus moves an appointment through its lifecycle. Terminal
// appointments stay put; use Cancel for cancellation so the reason and
// timestamp are recorded.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if a.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	ok, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Cancel marks an appointment cancelled with a reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if a.Status.IsTerminal() {
		return nil, ErrTerminalStatus
	}

	now := s.now().UTC()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("reason", reason).
		Msg("appointment cancelled")
	return a, nil
}
