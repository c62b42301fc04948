package chat

import (
	"context"
	"encoding/json"
	"fmt"

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

const convCols = `id, user_id, user_name, title, messages, status, last_activity, created_at, updated_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var (
		c        Conversation
		messages []byte
	)
	err := row.Scan(&c.ID, &c.UserID, &c.UserName, &c.Title, &messages, &c.Status,
		&c.LastActivity, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(messages, &c.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Conversation) error {
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO chat_conversations (id, user_id, user_name, title, messages, status,
			last_activity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ID, c.UserID, c.UserName, c.Title, messages, c.Status,
		c.LastActivity, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return scanConversation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+convCols+` FROM chat_conversations WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Conversation) error {
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE chat_conversations SET title=$2, messages=$3, status=$4,
			last_activity=$5, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Title, messages, c.Status, c.LastActivity)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM chat_conversations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Conversation, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	items, err := r.query(ctx,
		`SELECT `+convCols+` FROM chat_conversations
		 WHERE user_id = $1 ORDER BY last_activity DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_conversations WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Conversation, int, error) {
	pattern := "%" + query + "%"
	items, err := r.query(ctx,
		`SELECT `+convCols+` FROM chat_conversations
		 WHERE title ILIKE $1 OR user_name ILIKE $1
		 ORDER BY last_activity DESC LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_conversations WHERE title ILIKE $1 OR user_name ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(AVG(jsonb_array_length(messages)), 0)
		FROM chat_conversations`,
		StatusActive, StatusClosed,
	).Scan(&s.Total, &s.Active, &s.Closed, &s.AverageMessages)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
