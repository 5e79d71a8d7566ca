package store

import (
	"context"
	"database/sql"
	"time"
)

type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// MessageRow is one transcript entry. Role is "user" or "model".
type MessageRow struct {
	ID        string
	ChatID    int64
	Role      string
	Body      string
	CreatedAt time.Time
}

func (r *MessageRepo) Append(ctx context.Context, id string, chatID int64, role, body string) error {
	const q = `insert into messages (id, chat_id, role, body) values ($1,$2,$3,$4)`
	_, err := r.DB.ExecContext(ctx, q, id, chatID, role, body)
	return err
}

// History returns the most recent limit entries, oldest first.
func (r *MessageRepo) History(ctx context.Context, chatID int64, limit int) ([]MessageRow, error) {
	const q = `
select id, chat_id, role, body, created_at
from (
  select id, chat_id, role, body, created_at
  from messages
  where chat_id = $1
  order by created_at desc
  limit $2
) t
order by created_at asc`
	rows, err := r.DB.QueryContext(ctx, q, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) DeleteForChat(ctx context.Context, chatID int64) error {
	_, err := r.DB.ExecContext(ctx, `delete from messages where chat_id=$1`, chatID)
	return err
}
