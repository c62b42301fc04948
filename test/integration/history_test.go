package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/respicare/respicare/internal/domain/history"
)

func newTestHistory(patientID uuid.UUID, patientName string, doctorID uuid.UUID, doctorName, diagnosis string) *history.MedicalHistory {
	now := time.Now().UTC()
	return &history.MedicalHistory{
		ID:          uuid.New(),
		PatientID:   patientID,
		PatientName: patientName,
		DoctorID:    doctorID,
		DoctorName:  doctorName,
		VisitDate:   now,
		Diagnosis:   diagnosis,
		Symptoms:    []string{"cough", "fatigue"},
		Treatment:   "rest and fluids",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMedicalHistoryCRUD(t *testing.T) {
	ctx := context.Background()
	patient := createTestUser(t, ctx, "History Patient", "patient")
	doctor := createTestUser(t, ctx, "History Doctor", "doctor")
	repo := history.NewRepoPG(globalDB.Pool)

	followUp := time.Now().UTC().Add(14 * 24 * time.Hour)
	created := newTestHistory(patient.ID, patient.Name, doctor.ID, doctor.Name, "Acute bronchitis")
	created.FollowUpDate = &followUp

	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("create history: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if got.Diagnosis != "Acute bronchitis" {
		t.Fatalf("diagnosis = %q", got.Diagnosis)
	}
	if len(got.Symptoms) != 2 || got.Symptoms[0] != "cough" {
		t.Fatalf("symptoms did not survive the round trip: %v", got.Symptoms)
	}
	if got.FollowUpDate == nil || !got.NeedsFollowUp(time.Now().UTC()) {
		t.Fatal("expected a pending follow-up")
	}

	got.Treatment = "antibiotics"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update history: %v", err)
	}
	updated, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if updated.Treatment != "antibiotics" {
		t.Fatalf("treatment = %q", updated.Treatment)
	}

	records, total, err := repo.ListByPatient(ctx, patient.ID, 10, 0)
	if err != nil {
		t.Fatalf("list by patient: %v", err)
	}
	if total != 1 || len(records) != 1 || records[0].ID != created.ID {
		t.Fatalf("expected exactly the created record, got %d (total %d)", len(records), total)
	}

	ok, err := repo.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete history: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to match a row")
	}
}

func TestMedicalHistorySearch(t *testing.T) {
	ctx := context.Background()
	patient := createTestUser(t, ctx, "Zoila Quintana", "patient")
	doctor := createTestUser(t, ctx, "Search Doctor", "doctor")
	repo := history.NewRepoPG(globalDB.Pool)

	asthma := newTestHistory(patient.ID, patient.Name, doctor.ID, doctor.Name, "Allergic asthma")
	asthma.Description = "wheezing on exertion, responds to salbutamol"
	sinusitis := newTestHistory(patient.ID, patient.Name, doctor.ID, doctor.Name, "Chronic sinusitis")
	for _, m := range []*history.MedicalHistory{asthma, sinusitis} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("create history: %v", err)
		}
	}

	t.Run("MatchesDiagnosis", func(t *testing.T) {
		records, total, err := repo.Search(ctx, "asthma", 10, 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if total < 1 {
			t.Fatal("expected at least one match")
		}
		found := false
		for _, m := range records {
			if m.ID == asthma.ID {
				found = true
			}
			if m.ID == sinusitis.ID {
				t.Fatal("sinusitis record matched an asthma query")
			}
		}
		if !found {
			t.Fatal("asthma record not returned")
		}
	})

	t.Run("MatchesPatientName", func(t *testing.T) {
		records, _, err := repo.Search(ctx, "Quintana", 10, 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(records) < 2 {
			t.Fatalf("expected both records for the patient name, got %d", len(records))
		}
	})

	t.Run("MatchesDescription", func(t *testing.T) {
		records, _, err := repo.Search(ctx, "salbutamol", 10, 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(records) != 1 || records[0].ID != asthma.ID {
			t.Fatalf("expected only the asthma record, got %d", len(records))
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		records, total, err := repo.Search(ctx, "appendectomy", 10, 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if total != 0 || len(records) != 0 {
			t.Fatalf("expected no matches, got %d", len(records))
		}
	})
}
