package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"split-bot/api/internal/store"
)

// Manager hands out one Session per chat and restores bills from storage
// after a restart. Repos may be nil for the storage-less API binary and for
// tests.
type Manager struct {
	bills *store.BillRepo
	msgs  *store.MessageRepo
	m     sync.Map // chatID -> *Session
}

func NewManager(bills *store.BillRepo, msgs *store.MessageRepo) *Manager {
	return &Manager{bills: bills, msgs: msgs}
}

func (m *Manager) Get(ctx context.Context, chatID int64) *Session {
	if v, ok := m.m.Load(chatID); ok {
		return v.(*Session)
	}

	s := &Session{ChatID: chatID, bills: m.bills, msgs: m.msgs}
	if m.bills != nil {
		row, err := m.bills.Find(ctx, chatID)
		switch {
		case err == nil:
			b := row.Bill
			s.bill = &b
			slog.Debug("bill restored", "chat_id", chatID, "items", len(b.Items))
		case errors.Is(err, store.ErrNotFound):
			// fresh chat
		default:
			slog.Warn("bill restore failed", "chat_id", chatID, "error", err)
		}
	}

	actual, _ := m.m.LoadOrStore(chatID, s)
	return actual.(*Session)
}

// Reset drops both the in-memory session and its stored state, including the
// stored bill of a chat that was never touched since the last restart.
func (m *Manager) Reset(ctx context.Context, chatID int64) {
	m.Get(ctx, chatID).Reset(ctx)
	m.m.Delete(chatID)
}
