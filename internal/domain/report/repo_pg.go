package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/respicare/respicare/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, patient_id, patient_name, age, gender, symptoms, additional_notes,
	contact_phone, contact_email, location, urgency_level, recommendation, ai_analysis,
	status, reported_at, created_at, updated_at`

func (r *repoPG) scanReport(row pgx.Row) (*SymptomReport, error) {
	var (
		rep        SymptomReport
		symptoms   []byte
		location   []byte
		aiAnalysis []byte
	)
	err := row.Scan(&rep.ID, &rep.PatientID, &rep.PatientName, &rep.Age, &rep.Gender,
		&symptoms, &rep.AdditionalNotes, &rep.ContactPhone, &rep.ContactEmail,
		&location, &rep.UrgencyLevel, &rep.Recommendation, &aiAnalysis,
		&rep.Status, &rep.ReportedAt, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(symptoms, &rep.Symptoms); err != nil {
		return nil, fmt.Errorf("unmarshal symptoms: %w", err)
	}
	if location != nil {
		rep.Location = &Location{}
		if err := json.Unmarshal(location, rep.Location); err != nil {
			return nil, fmt.Errorf("unmarshal location: %w", err)
		}
	}
	if aiAnalysis != nil {
		rep.AIAnalysis = &AIAnalysis{}
		if err := json.Unmarshal(aiAnalysis, rep.AIAnalysis); err != nil {
			return nil, fmt.Errorf("unmarshal ai analysis: %w", err)
		}
	}
	return &rep, nil
}

func marshalOptional(v interface{}, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *repoPG) Create(ctx context.Context, rep *SymptomReport) error {
	symptoms, err := json.Marshal(rep.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}
	location, err := marshalOptional(rep.Location, rep.Location == nil)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	aiAnalysis, err := marshalOptional(rep.AIAnalysis, rep.AIAnalysis == nil)
	if err != nil {
		return fmt.Errorf("marshal ai analysis: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO symptom_reports (id, patient_id, patient_name, age, gender, symptoms,
			additional_notes, contact_phone, contact_email, location, urgency_level,
			recommendation, ai_analysis, status, reported_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		rep.ID, rep.PatientID, rep.PatientName, rep.Age, rep.Gender, symptoms,
		rep.AdditionalNotes, rep.ContactPhone, rep.ContactEmail, location, rep.UrgencyLevel,
		rep.Recommendation, aiAnalysis, rep.Status, rep.ReportedAt, rep.CreatedAt, rep.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SymptomReport, error) {
	return r.scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM symptom_reports WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rep *SymptomReport) error {
	symptoms, err := json.Marshal(rep.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}
	location, err := marshalOptional(rep.Location, rep.Location == nil)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	aiAnalysis, err := marshalOptional(rep.AIAnalysis, rep.AIAnalysis == nil)
	if err != nil {
		return fmt.Errorf("marshal ai analysis: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE symptom_reports SET patient_name=$2, age=$3, gender=$4, symptoms=$5,
			additional_notes=$6, contact_phone=$7, contact_email=$8, location=$9,
			urgency_level=$10, recommendation=$11, ai_analysis=$12, status=$13,
			updated_at=NOW()
		WHERE id = $1`,
		rep.ID, rep.PatientName, rep.Age, rep.Gender, symptoms,
		rep.AdditionalNotes, rep.ContactPhone, rep.ContactEmail, location,
		rep.UrgencyLevel, rep.Recommendation, aiAnalysis, rep.Status)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM symptom_reports WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) queryReports(ctx context.Context, query string, args ...interface{}) ([]*SymptomReport, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SymptomReport
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit int) ([]*SymptomReport, error) {
	query := `SELECT ` + reportCols + ` FROM symptom_reports ORDER BY reported_at DESC`
	if limit > 0 {
		return r.queryReports(ctx, query+` LIMIT $1`, limit)
	}
	return r.queryReports(ctx, query)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*SymptomReport, error) {
	return r.queryReports(ctx,
		`SELECT `+reportCols+` FROM symptom_reports WHERE patient_id = $1 ORDER BY reported_at DESC`,
		patientID)
}

func (r *repoPG) ListByStatus(ctx context.Context, status Status) ([]*SymptomReport, error) {
	return r.queryReports(ctx,
		`SELECT `+reportCols+` FROM symptom_reports WHERE status = $1 ORDER BY reported_at DESC`,
		status)
}

func (r *repoPG) ListByDateRange(ctx context.Context, from, to time.Time) ([]*SymptomReport, error) {
	return r.queryReports(ctx,
		`SELECT `+reportCols+` FROM symptom_reports
		 WHERE reported_at >= $1 AND reported_at <= $2 ORDER BY reported_at DESC`,
		from, to)
}

func (r *repoPG) ListUrgent(ctx context.Context, limit int) ([]*SymptomReport, error) {
	query := `SELECT ` + reportCols + ` FROM symptom_reports
		WHERE urgency_level >= $1 ORDER BY reported_at DESC`
	if limit > 0 {
		return r.queryReports(ctx, query+` LIMIT $2`, UrgentThreshold, limit)
	}
	return r.queryReports(ctx, query, UrgentThreshold)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE symptom_reports SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
