package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/respicare/respicare/internal/platform/aiclient"
)

// -- Mock Repository --

type mockRepo struct {
	reports map[uuid.UUID]*SymptomReport
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[uuid.UUID]*SymptomReport)}
}

func (m *mockRepo) Create(_ context.Context, r *SymptomReport) error {
	m.reports[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*SymptomReport, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (m *mockRepo) Update(_ context.Context, r *SymptomReport) error {
	m.reports[r.ID] = r
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.reports[id]; !ok {
		return false, nil
	}
	delete(m.reports, id)
	return true, nil
}

func (m *mockRepo) sorted() []*SymptomReport {
	var result []*SymptomReport
	for _, r := range m.reports {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReportedAt.After(result[j].ReportedAt)
	})
	return result
}

func (m *mockRepo) List(_ context.Context, limit int) ([]*SymptomReport, error) {
	result := m.sorted()
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*SymptomReport, error) {
	var result []*SymptomReport
	for _, r := range m.sorted() {
		if r.PatientID == patientID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRepo) ListByStatus(_ context.Context, status Status) ([]*SymptomReport, error) {
	var result []*SymptomReport
	for _, r := range m.sorted() {
		if r.Status == status {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]*SymptomReport, error) {
	var result []*SymptomReport
	for _, r := range m.sorted() {
		if !r.ReportedAt.Before(from) && !r.ReportedAt.After(to) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRepo) ListUrgent(_ context.Context, limit int) ([]*SymptomReport, error) {
	var result []*SymptomReport
	for _, r := range m.sorted() {
		if r.IsUrgent() {
			result = append(result, r)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (bool, error) {
	r, ok := m.reports[id]
	if !ok {
		return false, nil
	}
	r.Status = status
	return true, nil
}

// -- Mock Enricher --

type mockEnricher struct {
	resp  *aiclient.AnalysisResponse
	err   error
	calls int
}

func (m *mockEnricher) Analyze(_ context.Context, _ *aiclient.AnalysisRequest) (*aiclient.AnalysisResponse, error) {
	m.calls++
	return m.resp, m.err
}

func newTestService(repo Repository, ai Enricher) *Service {
	return NewService(repo, ai, zerolog.Nop())
}

func validInput() *CreateInput {
	return &CreateInput{
		PatientID:   uuid.New(),
		PatientName: "Ana García",
		Age:         34,
		Gender:      "female",
		Symptoms: []SymptomEntry{
			{Name: "Fever (39°C)", Severity: SeveritySevere, DurationDays: 2},
			{Name: "Dry cough", Severity: SeverityModerate, DurationDays: 2},
		},
	}
}

func TestCreateComputesTriage(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	rep, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rep.ID == uuid.Nil {
		t.Error("report id not assigned")
	}
	if rep.Status != StatusPending {
		t.Errorf("Status = %q, want %q", rep.Status, StatusPending)
	}
	if rep.UrgencyLevel != 3 {
		t.Errorf("UrgencyLevel = %d, want 3", rep.UrgencyLevel)
	}
	if rep.Recommendation != AdviceFever24h {
		t.Errorf("Recommendation = %q, want fever advisory", rep.Recommendation)
	}
	if rep.HasAIAnalysis() {
		t.Error("report enriched without an enricher configured")
	}
	if _, ok := repo.reports[rep.ID]; !ok {
		t.Error("report not persisted")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)

	tests := []struct {
		name    string
		mutate  func(*CreateInput)
		wantErr error
	}{
		{"missing patient", func(in *CreateInput) { in.PatientID = uuid.Nil }, ErrPatientRequired},
		{"missing name", func(in *CreateInput) { in.PatientName = "" }, ErrNameRequired},
		{"no symptoms", func(in *CreateInput) { in.Symptoms = nil }, ErrNoSymptoms},
		{"unnamed symptom", func(in *CreateInput) {
			in.Symptoms = []SymptomEntry{{Severity: SeverityMild, DurationDays: 1}}
		}, ErrSymptomNameEmpty},
		{"too many symptoms", func(in *CreateInput) {
			in.Symptoms = nil
			for i := 0; i <= MaxSymptoms; i++ {
				in.Symptoms = append(in.Symptoms, SymptomEntry{Name: fmt.Sprintf("s%d", i)})
			}
		}, ErrTooManySymptoms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			if _, err := svc.Create(context.Background(), in); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateEnrichmentSuccess(t *testing.T) {
	ai := &mockEnricher{resp: &aiclient.AnalysisResponse{
		AnalysisID: "an-123",
		PossibleDiagnoses: []aiclient.Diagnosis{
			{Condition: "Influenza", Probability: 0.72, Severity: "moderate"},
		},
		Urgency:    "HIGH",
		Confidence: 0.81,
		Timestamp:  "2026-08-01T10:30:00Z",
	}}
	svc := newTestService(newMockRepo(), ai)

	rep, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ai.calls != 1 {
		t.Errorf("enricher called %d times, want 1", ai.calls)
	}
	if !rep.HasAIAnalysis() {
		t.Fatal("analysis not attached")
	}
	if rep.AIAnalysis.Urgency != UrgencyHigh {
		t.Errorf("Urgency = %q, want %q", rep.AIAnalysis.Urgency, UrgencyHigh)
	}
	if !rep.AIAnalysis.RequiresImmediateAttention() {
		t.Error("high urgency should require immediate attention")
	}
	if len(rep.AIAnalysis.PossibleDiagnoses) != 1 || rep.AIAnalysis.PossibleDiagnoses[0].Condition != "Influenza" {
		t.Errorf("diagnoses not converted: %+v", rep.AIAnalysis.PossibleDiagnoses)
	}
	want := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	if !rep.AIAnalysis.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", rep.AIAnalysis.Timestamp, want)
	}
	// Rule-based triage stays authoritative regardless of the analysis.
	if rep.UrgencyLevel != 3 {
		t.Errorf("UrgencyLevel = %d, want 3", rep.UrgencyLevel)
	}
}

func TestCreateEnrichmentFailureIsAbsorbed(t *testing.T) {
	ai := &mockEnricher{err: errors.New("connection refused")}
	repo := newMockRepo()
	svc := newTestService(repo, ai)

	rep, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v, enrichment failure must not fail creation", err)
	}
	if rep.HasAIAnalysis() {
		t.Error("failed enrichment attached an analysis")
	}
	if rep.Status != StatusPending {
		t.Errorf("Status = %q, want %q", rep.Status, StatusPending)
	}
	if _, ok := repo.reports[rep.ID]; !ok {
		t.Error("report not persisted after enrichment failure")
	}
}

func TestCreateFetchRoundTrip(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fetched, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(fetched.Symptoms) != len(created.Symptoms) {
		t.Errorf("symptom count changed: %d vs %d", len(fetched.Symptoms), len(created.Symptoms))
	}
	if fetched.UrgencyLevel != created.UrgencyLevel {
		t.Errorf("UrgencyLevel changed: %d vs %d", fetched.UrgencyLevel, created.UrgencyLevel)
	}
	if fetched.Recommendation != created.Recommendation {
		t.Errorf("Recommendation changed: %q vs %q", fetched.Recommendation, created.Recommendation)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	rep, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), rep.ID, StatusInReview); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if repo.reports[rep.ID].Status != StatusInReview {
		t.Errorf("Status = %q, want %q", repo.reports[rep.ID].Status, StatusInReview)
	}

	if err := svc.UpdateStatus(context.Background(), rep.ID, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("UpdateStatus(invalid) error = %v, want %v", err, ErrInvalidStatus)
	}
	if err := svc.UpdateStatus(context.Background(), uuid.New(), StatusClosed); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	rep, _ := svc.Create(context.Background(), validInput())

	if err := svc.Delete(context.Background(), rep.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), rep.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestListByPatient(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	mine := validInput()
	other := validInput()
	if _, err := svc.Create(context.Background(), mine); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.ListByPatient(context.Background(), mine.PatientID)
	if err != nil {
		t.Fatalf("ListByPatient() error = %v", err)
	}
	if len(got) != 1 || got[0].PatientID != mine.PatientID {
		t.Errorf("ListByPatient() returned %d reports for the wrong patient", len(got))
	}
}

func TestListByStatusRejectsUnknown(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	if _, err := svc.ListByStatus(context.Background(), "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ListByStatus(bogus) error = %v, want %v", err, ErrInvalidStatus)
	}
}

func TestStatistics(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	// Urgent report: difficulty breathing severe scores 5.
	urgentIn := validInput()
	urgentIn.Symptoms = []SymptomEntry{
		{Name: "Difficulty breathing", Severity: SeveritySevere, DurationDays: 10},
		{Name: "Chest pain", Severity: SeveritySevere, DurationDays: 8},
	}
	lat, lng := 40.4168, -3.7038
	urgentIn.Location = &Location{Latitude: &lat, Longitude: &lng, Address: "Madrid"}
	urgent, err := svc.Create(ctx, urgentIn)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !urgent.IsUrgent() {
		t.Fatalf("setup: expected an urgent report, got level %d", urgent.UrgencyLevel)
	}

	mild, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.UpdateStatus(ctx, mild.ID, StatusReviewed); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.UrgentCount != 1 {
		t.Errorf("UrgentCount = %d, want 1", stats.UrgentCount)
	}
	if stats.Pending != 1 || stats.Reviewed != 1 {
		t.Errorf("status counts = pending %d, reviewed %d, want 1/1", stats.Pending, stats.Reviewed)
	}
	if stats.WithLocation != 1 {
		t.Errorf("WithLocation = %d, want 1", stats.WithLocation)
	}
	if stats.AverageSymptomCount != 2 {
		t.Errorf("AverageSymptomCount = %v, want 2", stats.AverageSymptomCount)
	}
	if len(stats.TopSymptoms) != 4 {
		t.Errorf("TopSymptoms has %d entries, want 4", len(stats.TopSymptoms))
	}
	if len(stats.TopLocations) != 1 || stats.TopLocations[0].Address != "Madrid" {
		t.Errorf("TopLocations = %+v, want Madrid", stats.TopLocations)
	}
}

func TestStatisticsEmptyStore(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.Total != 0 || stats.AverageSymptomCount != 0 {
		t.Errorf("empty store statistics = %+v, want zeros", stats)
	}
}
