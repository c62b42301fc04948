package history

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

const historyCols = `id, patient_id, patient_name, doctor_id, doctor_name, visit_date, diagnosis,
	description, symptoms, treatment, prescription, notes, follow_up_date, created_at, updated_at`

func scanHistory(row pgx.Row) (*MedicalHistory, error) {
	var (
		m        MedicalHistory
		symptoms []byte
	)
	err := row.Scan(&m.ID, &m.PatientID, &m.PatientName, &m.DoctorID, &m.DoctorName,
		&m.VisitDate, &m.Diagnosis, &m.Description, &symptoms, &m.Treatment,
		&m.Prescription, &m.Notes, &m.FollowUpDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(symptoms, &m.Symptoms); err != nil {
		return nil, fmt.Errorf("unmarshal symptoms: %w", err)
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *MedicalHistory) error {
	symptoms, err := json.Marshal(m.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_histories (id, patient_id, patient_name, doctor_id, doctor_name,
			visit_date, diagnosis, description, symptoms, treatment, prescription, notes,
			follow_up_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		m.ID, m.PatientID, m.PatientName, m.DoctorID, m.DoctorName, m.VisitDate,
		m.Diagnosis, m.Description, symptoms, m.Treatment, m.Prescription, m.Notes,
		m.FollowUpDate, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalHistory, error) {
	return scanHistory(r.conn(ctx).QueryRow(ctx,
		`SELECT `+historyCols+` FROM medical_histories WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, m *MedicalHistory) error {
	symptoms, err := json.Marshal(m.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE medical_histories SET patient_name=$2, doctor_name=$3, visit_date=$4,
			diagnosis=$5, description=$6, symptoms=$7, treatment=$8, prescription=$9,
			notes=$10, follow_up_date=$11, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.PatientName, m.DoctorName, m.VisitDate, m.Diagnosis, m.Description,
		symptoms, m.Treatment, m.Prescription, m.Notes, m.FollowUpDate)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_histories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*MedicalHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MedicalHistory
	for rows.Next() {
		m, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error) {
	items, err := r.query(ctx,
		`SELECT `+historyCols+` FROM medical_histories
		 WHERE patient_id = $1 ORDER BY visit_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_histories WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error) {
	items, err := r.query(ctx,
		`SELECT `+historyCols+` FROM medical_histories
		 WHERE doctor_id = $1 ORDER BY visit_date DESC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_histories WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByDateRange(ctx context.Context, from, to time.Time) ([]*MedicalHistory, error) {
	return r.query(ctx,
		`SELECT `+historyCols+` FROM medical_histories
		 WHERE visit_date >= $1 AND visit_date <= $2 ORDER BY visit_date DESC`,
		from, to)
}

// searchVector mirrors the expression behind the GIN index on
// medical_histories.
const searchVector = `to_tsvector('simple', diagnosis || ' ' || patient_name || ' ' || description)`

func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*MedicalHistory, int, error) {
	items, err := r.query(ctx,
		`SELECT `+historyCols+` FROM medical_histories
		 WHERE `+searchVector+` @@ plainto_tsquery('simple', $1)
		 ORDER BY visit_date DESC LIMIT $2 OFFSET $3`,
		query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_histories
		 WHERE `+searchVector+` @@ plainto_tsquery('simple', $1)`,
		query).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
