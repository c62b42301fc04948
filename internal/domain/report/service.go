package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/respicare/respicare/internal/platform/aiclient"
)

var (
	ErrNoSymptoms       = errors.New("report must contain at least one symptom")
	ErrTooManySymptoms  = fmt.Errorf("report may contain at most %d symptoms", MaxSymptoms)
	ErrInvalidStatus    = errors.New("invalid report status")
	ErrPatientRequired  = errors.New("patient id is required")
	ErrNameRequired     = errors.New("patient name is required")
	ErrNotFound         = errors.New("report not found")
	ErrSymptomNameEmpty = errors.New("symptom name is required")
)

// List caps. Full scans are unbounded only for the statistics computation.
const (
	ListCap       = 100
	UrgentListCap = 50
)

// Enricher is the slice of the AI client the service depends on.
type Enricher interface {
	Analyze(ctx context.Context, req *aiclient.AnalysisRequest) (*aiclient.AnalysisResponse, error)
}

// Service owns symptom report intake, urgency scoring and lifecycle.
type Service struct {
	repo   Repository
	ai     Enricher
	logger zerolog.Logger
}

// NewService builds a report service. ai may be nil, in which case reports are
// never enriched.
func NewService(repo Repository, ai Enricher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, ai: ai, logger: logger}
}

// CreateInput is the intake payload for a new report.
type CreateInput struct {
	PatientID       uuid.UUID      `json:"patient_id"`
	PatientName     string         `json:"patient_name"`
	Age             int            `json:"age"`
	Gender          string         `json:"gender"`
	Symptoms        []SymptomEntry `json:"symptoms"`
	AdditionalNotes string         `json:"additional_notes"`
	ContactPhone    string         `json:"contact_phone"`
	ContactEmail    string         `json:"contact_email"`
	Location        *Location      `json:"location"`
}

func (in *CreateInput) validate() error {
	if in.PatientID == uuid.Nil {
		return ErrPatientRequired
	}
	if in.PatientName == "" {
		return ErrNameRequired
	}
	if len(in.Symptoms) == 0 {
		return ErrNoSymptoms
	}
	if len(in.Symptoms) > MaxSymptoms {
		return ErrTooManySymptoms
	}
	for _, s := range in.Symptoms {
		if s.Name == "" {
			return ErrSymptomNameEmpty
		}
	}
	return nil
}

// Create validates the intake, scores it, attempts best-effort AI enrichment
// and persists the report. Enrichment failures never fail the create; the
// report is stored without an analysis.
func (s *Service) Create(ctx context.Context, in *CreateInput) (*SymptomReport, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rep := &SymptomReport{
		ID:              uuid.New(),
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		Age:             in.Age,
		Gender:          in.Gender,
		Symptoms:        in.Symptoms,
		AdditionalNotes: in.AdditionalNotes,
		ContactPhone:    in.ContactPhone,
		ContactEmail:    in.ContactEmail,
		Location:        in.Location,
		Status:          StatusPending,
		ReportedAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	rep.UrgencyLevel = Score(rep.Symptoms)
	rep.Recommendation = Recommend(rep)
	rep.AIAnalysis = s.enrich(ctx, rep)

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	s.logger.Info().
		Str("report_id", rep.ID.String()).
		Int("urgency_level", rep.UrgencyLevel).
		Bool("ai_enriched", rep.HasAIAnalysis()).
		Msg("symptom report created")
	return rep, nil
}

// enrich calls the external analysis service and converts its response.
// Any failure is absorbed and logged; the caller gets nil.
func (s *Service) enrich(ctx context.Context, rep *SymptomReport) *AIAnalysis {
	if s.ai == nil {
		return nil
	}
	resp, err := s.ai.Analyze(ctx, buildAnalysisRequest(rep))
	if err != nil {
		s.logger.Warn().Err(err).
			Str("report_id", rep.ID.String()).
			Msg("ai enrichment unavailable, storing report without analysis")
		return nil
	}
	return convertAnalysis(resp)
}

func buildAnalysisRequest(rep *SymptomReport) *aiclient.AnalysisRequest {
	req := &aiclient.AnalysisRequest{
		PatientName:     rep.PatientName,
		Age:             rep.Age,
		Gender:          rep.Gender,
		AdditionalNotes: rep.AdditionalNotes,
	}
	for _, sym := range rep.Symptoms {
		req.Symptoms = append(req.Symptoms, aiclient.SymptomPayload{
			Name:        sym.Name,
			Severity:    string(sym.Severity),
			Duration:    fmt.Sprintf("%d days", sym.DurationDays),
			Description: sym.Note,
		})
	}
	if rep.Location != nil {
		req.Location = &aiclient.LocationPayload{
			Latitude:  rep.Location.Latitude,
			Longitude: rep.Location.Longitude,
			Address:   rep.Location.Address,
		}
	}
	return req
}

func convertAnalysis(resp *aiclient.AnalysisResponse) *AIAnalysis {
	out := &AIAnalysis{
		AnalysisID:             resp.AnalysisID,
		Urgency:                ParseUrgencyClass(resp.Urgency),
		Confidence:             resp.Confidence,
		GeneralRecommendations: resp.GeneralRecommendations,
	}
	for _, d := range resp.PossibleDiagnoses {
		out.PossibleDiagnoses = append(out.PossibleDiagnoses, PossibleDiagnosis{
			Condition:       d.Condition,
			Probability:     d.Probability,
			Recommendations: d.Recommendations,
			Severity:        d.Severity,
		})
	}
	ts, err := time.Parse(time.RFC3339, resp.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	out.Timestamp = ts
	return out
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*SymptomReport, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// ListAll returns the most recent reports, capped at ListCap.
func (s *Service) ListAll(ctx context.Context) ([]*SymptomReport, error) {
	return s.repo.List(ctx, ListCap)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*SymptomReport, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*SymptomReport, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *Service) ListByDateRange(ctx context.Context, from, to time.Time) ([]*SymptomReport, error) {
	return s.repo.ListByDateRange(ctx, from, to)
}

// ListUrgent returns the most recent urgent reports, capped at UrgentListCap.
func (s *Service) ListUrgent(ctx context.Context) ([]*SymptomReport, error) {
	return s.repo.ListUrgent(ctx, UrgentListCap)
}

// UpdateStatus sets the report's status. It returns ErrNotFound when id does
// not match a stored report and ErrInvalidStatus for out-of-set values.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	ok, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.logger.Info().
		Str("report_id", id.String()).
		Str("status", string(status)).
		Msg("report status updated")
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// SymptomFrequency is a symptom name with its occurrence count.
type SymptomFrequency struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LocationFrequency is a reported address with its occurrence count.
type LocationFrequency struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

// Statistics is an aggregate snapshot over all stored reports.
type Statistics struct {
	Total               int                 `json:"total"`
	UrgentCount         int                 `json:"urgent_count"`
	Pending             int                 `json:"pending"`
	InReview            int                 `json:"in_review"`
	Reviewed            int                 `json:"reviewed"`
	Closed              int                 `json:"closed"`
	WithAIAnalysis      int                 `json:"with_ai_analysis"`
	WithLocation        int                 `json:"with_location"`
	AverageSymptomCount float64             `json:"average_symptom_count"`
	TopSymptoms         []SymptomFrequency  `json:"top_symptoms"`
	TopLocations        []LocationFrequency `json:"top_locations"`
}

const topFrequencyLimit = 10

// Statistics computes the aggregate snapshot with a full scan. Counts reflect
// the store at a single point in time.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	reports, err := s.repo.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list reports for statistics: %w", err)
	}

	stats := &Statistics{Total: len(reports)}
	symptomCounts := map[string]int{}
	locationCounts := map[string]int{}
	totalSymptoms := 0

	for _, rep := range reports {
		if rep.IsUrgent() {
			stats.UrgentCount++
		}
		switch rep.Status {
		case StatusPending:
			stats.Pending++
		case StatusInReview:
			stats.InReview++
		case StatusReviewed:
			stats.Reviewed++
		case StatusClosed:
			stats.Closed++
		}
		if rep.HasAIAnalysis() {
			stats.WithAIAnalysis++
		}
		if rep.Location != nil {
			stats.WithLocation++
			if rep.Location.Address != "" {
				locationCounts[rep.Location.Address]++
			}
		}
		totalSymptoms += len(rep.Symptoms)
		for _, sym := range rep.Symptoms {
			symptomCounts[sym.Name]++
		}
	}

	if stats.Total > 0 {
		stats.AverageSymptomCount = float64(totalSymptoms) / float64(stats.Total)
	}
	for name, count := range symptomCounts {
		stats.TopSymptoms = append(stats.TopSymptoms, SymptomFrequency{Name: name, Count: count})
	}
	sort.Slice(stats.TopSymptoms, func(i, j int) bool {
		if stats.TopSymptoms[i].Count != stats.TopSymptoms[j].Count {
			return stats.TopSymptoms[i].Count > stats.TopSymptoms[j].Count
		}
		return stats.TopSymptoms[i].Name < stats.TopSymptoms[j].Name
	})
	if len(stats.TopSymptoms) > topFrequencyLimit {
		stats.TopSymptoms = stats.TopSymptoms[:topFrequencyLimit]
	}
	for addr, count := range locationCounts {
		stats.TopLocations = append(stats.TopLocations, LocationFrequency{Address: addr, Count: count})
	}
	sort.Slice(stats.TopLocations, func(i, j int) bool {
		if stats.TopLocations[i].Count != stats.TopLocations[j].Count {
			return stats.TopLocations[i].Count > stats.TopLocations[j].Count
		}
		return stats.TopLocations[i].Address < stats.TopLocations[j].Address
	})
	if len(stats.TopLocations) > topFrequencyLimit {
		stats.TopLocations = stats.TopLocations[:topFrequencyLimit]
	}
	return stats, nil
}
