package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"split-bot/api/internal/bill"
)

var ErrNotFound = sql.ErrNoRows

type BillRepo struct{ DB *sql.DB }

func NewBillRepo(db *sql.DB) *BillRepo { return &BillRepo{DB: db} }

// BillRow carries the stored bill plus the audit columns.
type BillRow struct {
	ChatID    int64
	Bill      bill.Bill
	Engine    string
	Model     string
	ImageHash string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Find returns the active bill for a chat, or ErrNotFound.
func (r *BillRepo) Find(ctx context.Context, chatID int64) (*BillRow, error) {
	const q = `
select chat_id, bill_json,
       coalesce(engine,'') as engine,
       coalesce(model,'') as model,
       coalesce(image_hash,'') as image_hash,
       created_at, updated_at
from bills
where chat_id = $1`
	row := r.DB.QueryRowContext(ctx, q, chatID)

	var (
		br BillRow
		js []byte
	)
	if err := row.Scan(&br.ChatID, &js, &br.Engine, &br.Model, &br.ImageHash, &br.CreatedAt, &br.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(js, &br.Bill); err != nil {
		// broken payload behaves like no stored bill
		return nil, ErrNotFound
	}
	return &br, nil
}

// Upsert stores the bill for a chat, replacing any previous one. Each chat
// holds at most one splitting session at a time.
func (r *BillRepo) Upsert(ctx context.Context, chatID int64, b bill.Bill, engine, model, imageHash string) error {
	js, err := json.Marshal(b)
	if err != nil {
		return err
	}
	const q = `
insert into bills (chat_id, bill_json, engine, model, image_hash)
values ($1,$2,$3,$4,$5)
on conflict (chat_id) do update
set bill_json = excluded.bill_json,
    engine = excluded.engine,
    model = excluded.model,
    image_hash = excluded.image_hash,
    updated_at = now()`
	_, err = r.DB.ExecContext(ctx, q, chatID, js, engine, model, imageHash)
	return err
}

// UpdateItems rewrites only the stored bill payload after a merge pass.
func (r *BillRepo) UpdateItems(ctx context.Context, chatID int64, b bill.Bill) error {
	js, err := json.Marshal(b)
	if err != nil {
		return err
	}
	const q = `update bills set bill_json=$2, updated_at=now() where chat_id=$1`
	res, err := r.DB.ExecContext(ctx, q, chatID, js)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BillRepo) Delete(ctx context.Context, chatID int64) error {
	_, err := r.DB.ExecContext(ctx, `delete from bills where chat_id=$1`, chatID)
	return err
}

// PurgeOlderThan removes stale sessions so the table does not grow forever.
func (r *BillRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from bills where updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
