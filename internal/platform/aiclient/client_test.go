package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnalyze_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyze" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(AnalysisResponse{
			AnalysisID: "a1",
			PossibleDiagnoses: []Diagnosis{
				{Condition: "Bronquitis aguda", Probability: 72.5, Severity: "moderate"},
			},
			Urgency:    "medium",
			Confidence: 81.0,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, time.Second)
	resp, err := c.Analyze(context.Background(), &AnalysisRequest{PatientName: "María García", Age: 35})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AnalysisID != "a1" {
		t.Errorf("expected analysis id a1, got %s", resp.AnalysisID)
	}
	if len(resp.PossibleDiagnoses) != 1 || resp.PossibleDiagnoses[0].Condition != "Bronquitis aguda" {
		t.Errorf("unexpected diagnoses: %+v", resp.PossibleDiagnoses)
	}
}

func TestAnalyze_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, time.Second)
	if _, err := c.Analyze(context.Background(), &AnalysisRequest{}); err == nil {
		t.Error("expected error for 503 response")
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 20*time.Millisecond, time.Second)
	if _, err := c.Analyze(context.Background(), &AnalysisRequest{}); err == nil {
		t.Error("expected timeout error")
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, time.Second)
	if _, err := c.Analyze(context.Background(), &AnalysisRequest{}); err == nil {
		t.Error("expected decode error")
	}
}

func TestProcessChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/process" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Response:                 "Please describe your cough.",
			ConversationID:           "c1",
			RequiresMedicalAttention: false,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, time.Second)
	resp, err := c.ProcessChat(context.Background(), &ChatRequest{UserID: "u1", Message: "I have a cough"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response == "" {
		t.Error("expected non-empty reply")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, time.Second)
	if !c.IsAvailable(context.Background()) {
		t.Error("expected available")
	}
}

func TestIsAvailable_DownService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // connection refused

	c := New(srv.URL, time.Second, 50*time.Millisecond)
	if c.IsAvailable(context.Background()) {
		t.Error("expected unavailable for refused connection")
	}
}
