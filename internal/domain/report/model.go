package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity of a single reported symptom.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// ParseSeverity maps free-form severity input to the closed enum. Unknown or
// empty values map to the zero severity, which contributes no score bonus.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mild":
		return SeverityMild
	case "moderate":
		return SeverityModerate
	case "severe":
		return SeveritySevere
	default:
		return ""
	}
}

// Status is the lifecycle stage of a symptom report. Transitions are
// forward-only in normal operation (pending → in_review → reviewed → closed)
// but any authorized actor may set the status directly; the store enforces
// membership in the closed set only.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusReviewed Status = "reviewed"
	StatusClosed   Status = "closed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusReviewed, StatusClosed:
		return true
	}
	return false
}

// UrgencyClass is the external AI service's urgency classification.
type UrgencyClass string

const (
	UrgencyLow      UrgencyClass = "low"
	UrgencyMedium   UrgencyClass = "medium"
	UrgencyHigh     UrgencyClass = "high"
	UrgencyCritical UrgencyClass = "critical"
)

// ParseUrgencyClass maps the service's urgency string to the enum,
// case-insensitively, defaulting to low on unrecognized values.
func ParseUrgencyClass(s string) UrgencyClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return UrgencyCritical
	case "high":
		return UrgencyHigh
	case "medium":
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// SymptomEntry is one reported symptom with its severity and duration.
type SymptomEntry struct {
	Name         string   `json:"name"`
	Severity     Severity `json:"severity"`
	DurationDays int      `json:"duration_days"`
	Note         string   `json:"note,omitempty"`
}

// Location is an optional reporter-supplied geographic location.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

func (l *Location) HasCoordinates() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// PossibleDiagnosis is one candidate condition suggested by the AI service.
type PossibleDiagnosis struct {
	Condition       string   `json:"condition"`
	Probability     float64  `json:"probability"`
	Recommendations []string `json:"recommendations,omitempty"`
	Severity        string   `json:"severity,omitempty"`
}

// AIAnalysis is the optional best-effort enrichment attached to a report.
type AIAnalysis struct {
	AnalysisID             string              `json:"analysis_id"`
	PossibleDiagnoses      []PossibleDiagnosis `json:"possible_diagnoses"`
	Urgency                UrgencyClass        `json:"urgency"`
	Confidence             float64             `json:"confidence"`
	Timestamp              time.Time           `json:"timestamp"`
	GeneralRecommendations []string            `json:"general_recommendations,omitempty"`
}

// RequiresImmediateAttention reports whether the AI classification calls for
// immediate care.
func (a *AIAnalysis) RequiresImmediateAttention() bool {
	return a != nil && (a.Urgency == UrgencyHigh || a.Urgency == UrgencyCritical)
}

// SymptomReport is a user-submitted health report. UrgencyLevel and
// Recommendation are computed once at creation from the symptom list and are
// immutable unless the report is recomputed.
type SymptomReport struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	PatientID       uuid.UUID      `db:"patient_id" json:"patient_id"`
	PatientName     string         `db:"patient_name" json:"patient_name"`
	Age             int            `db:"age" json:"age"`
	Gender          string         `db:"gender" json:"gender,omitempty"`
	Symptoms        []SymptomEntry `db:"symptoms" json:"symptoms"`
	AdditionalNotes string         `db:"additional_notes" json:"additional_notes,omitempty"`
	ContactPhone    string         `db:"contact_phone" json:"contact_phone,omitempty"`
	ContactEmail    string         `db:"contact_email" json:"contact_email,omitempty"`
	Location        *Location      `db:"location" json:"location,omitempty"`
	UrgencyLevel    int            `db:"urgency_level" json:"urgency_level"`
	Recommendation  string         `db:"recommendation" json:"recommendation"`
	AIAnalysis      *AIAnalysis    `db:"ai_analysis" json:"ai_analysis,omitempty"`
	Status          Status         `db:"status" json:"status"`
	ReportedAt      time.Time      `db:"reported_at" json:"reported_at"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// UrgentThreshold is the urgency level at or above which a report is urgent.
const UrgentThreshold = 4

func (r *SymptomReport) IsUrgent() bool {
	return r.UrgencyLevel >= UrgentThreshold
}

func (r *SymptomReport) HasLocation() bool {
	return r.Location.HasCoordinates()
}

func (r *SymptomReport) HasAIAnalysis() bool {
	return r.AIAnalysis != nil
}

func (r *SymptomReport) SymptomsCount() int {
	return len(r.Symptoms)
}
