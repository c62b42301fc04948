package appointment

import (
	"context"
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

const apptCols = `id, patient_id, patient_name, doctor_id, doctor_name, scheduled_at,
	duration_minutes, reason, notes, status, cancelled_at, cancellation_reason,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName,
		&a.ScheduledAt, &a.DurationMinutes, &a.Reason, &a.Notes, &a.Status,
		&a.CancelledAt, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, patient_name, doctor_id, doctor_name,
			scheduled_at, duration_minutes, reason, notes, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.PatientID, a.PatientName, a.DoctorID, a.DoctorName, a.ScheduledAt,
		a.DurationMinutes, a.Reason, a.Notes, a.Status, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET patient_name=$2, doctor_name=$3, scheduled_at=$4,
			duration_minutes=$5, reason=$6, notes=$7, status=$8, cancelled_at=$9,
			cancellation_reason=$10, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientName, a.DoctorName, a.ScheduledAt, a.DurationMinutes,
		a.Reason, a.Notes, a.Status, a.CancelledAt, a.CancellationReason)
	return err
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	items, err := r.query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE patient_id = $1 ORDER BY scheduled_at ASC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	items, err := r.query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE doctor_id = $1 ORDER BY scheduled_at ASC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ListByDoctorWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return r.query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE doctor_id = $1
		   AND status NOT IN ($2, $3)
		   AND scheduled_at < $5
		   AND scheduled_at + (duration_minutes || ' minutes')::interval > $4
		 ORDER BY scheduled_at ASC`,
		doctorID, StatusCancelled, StatusNoShow, from, to)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
