// Package aiclient is a typed HTTP client for the external RespiCare AI
// analysis service. Every call carries a bounded deadline; callers treat any
// failure (timeout, transport error, non-2xx, malformed body) as "no result"
// rather than a hard error, so AI availability is never a precondition for
// core functionality.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const apiRoot = "/api/v1"

type Client struct {
	baseURL       string
	httpClient    *http.Client
	callTimeout   time.Duration
	healthTimeout time.Duration
}

// New creates a client for the AI service at baseURL. callTimeout bounds
// analysis/prediction/chat calls; healthTimeout bounds availability probes.
func New(baseURL string, callTimeout, healthTimeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{},
		callTimeout:   callTimeout,
		healthTimeout: healthTimeout,
	}
}

// ---------------------------------------------------------------------------
// Request/response shapes (wire format of the analysis service)
// ---------------------------------------------------------------------------

type SymptomPayload struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

type LocationPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type AnalysisRequest struct {
	PatientName     string           `json:"patient_name"`
	Age             int              `json:"age"`
	Gender          string           `json:"gender"`
	Symptoms        []SymptomPayload `json:"symptoms"`
	AdditionalNotes string           `json:"additional_notes"`
	Location        *LocationPayload `json:"location,omitempty"`
}

type Diagnosis struct {
	Condition       string   `json:"condition"`
	Probability     float64  `json:"probability"`
	Recommendations []string `json:"recommendations"`
	Severity        string   `json:"severity"`
}

type AnalysisResponse struct {
	AnalysisID             string      `json:"analysis_id"`
	PossibleDiagnoses      []Diagnosis `json:"possible_diagnoses"`
	Urgency                string      `json:"urgency"`
	Confidence             float64     `json:"confidence"`
	Timestamp              string      `json:"timestamp"`
	GeneralRecommendations []string    `json:"general_recommendations"`
}

type PredictionRequest struct {
	Symptoms []string `json:"symptoms"`
	Age      int      `json:"age"`
	Gender   string   `json:"gender"`
}

type PredictionAlternative struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

type PredictionResponse struct {
	Disease           string                  `json:"disease"`
	Confidence        float64                 `json:"confidence"`
	Alternatives      []PredictionAlternative `json:"alternatives"`
	DecisionFactors   []string                `json:"decision_factors"`
	FeatureImportance map[string]float64      `json:"feature_importance"`
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	UserID              string     `json:"user_id"`
	Message             string     `json:"message"`
	ConversationHistory []ChatTurn `json:"conversation_history"`
}

type ChatResponse struct {
	Response                 string            `json:"response"`
	ConversationID           string            `json:"conversation_id"`
	SuggestedActions         []string          `json:"suggested_actions"`
	RequiresMedicalAttention bool              `json:"requires_medical_attention"`
	Analysis                 *AnalysisResponse `json:"analysis,omitempty"`
}

type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Components map[string]interface{} `json:"components"`
	Timestamp  time.Time              `json:"timestamp"`
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// Analyze submits a symptom set for analysis.
func (c *Client) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResponse, error) {
	var resp AnalysisResponse
	if err := c.post(ctx, apiRoot+"/analyze", req, &resp, c.callTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Predict requests an ML disease prediction for a symptom list.
func (c *Client) Predict(ctx context.Context, req *PredictionRequest) (*PredictionResponse, error) {
	var resp PredictionResponse
	if err := c.post(ctx, apiRoot+"/ml/predict", req, &resp, c.callTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessChat sends one chatbot turn with conversation history.
func (c *Client) ProcessChat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.post(ctx, apiRoot+"/chat/process", req, &resp, c.callTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health fetches the detailed health status of the AI service.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, apiRoot+"/health/detailed", &resp, c.healthTimeout); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsAvailable probes the liveness endpoint. It returns false on any failure
// instead of propagating an error.
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiRoot+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
