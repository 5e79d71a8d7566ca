// Package session owns the per-chat splitting state: the bill, the
// conversation transcript, and the one-request-in-flight discipline. All
// external-service failures are absorbed here so a chat never ends up in a
// half-updated state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/bill"
	"split-bot/api/internal/metrics"
	"split-bot/api/internal/store"
	"split-bot/api/internal/util"
)

// FallbackReply is shown verbatim when the interpreter fails; the bill is
// left untouched and the conversation continues.
const FallbackReply = "Sorry, I had trouble understanding that request. Could you try again?"

var (
	// ErrBusy means a previous extraction or interpretation is still in
	// flight for this chat. The caller asks the user to wait.
	ErrBusy = errors.New("previous request still in flight")

	// ErrNoBill means no receipt has been loaded yet.
	ErrNoBill = errors.New("no bill loaded")
)

// Message is one transcript entry, kept for display and audit.
type Message struct {
	ID        string
	Role      string // "user" | "model"
	Text      string
	Timestamp time.Time
}

// Session is the single source of truth for one chat's bill. Mutation goes
// through UploadReceipt, SendMessage and Reset only; Summary is a pure
// recomputation on every call.
type Session struct {
	ChatID int64

	mu       sync.Mutex
	busy     bool
	bill     *bill.Bill
	messages []Message

	bills *store.BillRepo    // nil when running without a database
	msgs  *store.MessageRepo // nil when running without a database
}

func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bill != nil
}

// Bill returns a snapshot of the current bill.
func (s *Session) Bill() (bill.Bill, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bill == nil {
		return bill.Bill{}, false
	}
	return *s.bill, true
}

func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// UploadReceipt extracts a structured bill from the photo and makes it the
// chat's active bill. On extraction failure no state changes: the chat stays
// in the upload state and the user may retry.
func (s *Session) UploadReceipt(ctx context.Context, eng ai.Engine, image []byte, mime, defaultCurrency string) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	start := time.Now()
	b, err := eng.ExtractReceipt(ctx, image, mime)
	metrics.ObserveEngine(eng.Name(), "extract", start, err)
	if err != nil {
		return "", fmt.Errorf("receipt extraction: %w", err)
	}
	NormalizeBill(&b, defaultCurrency)

	greeting := fmt.Sprintf(
		`I've extracted %d items from your receipt. Who had what? You can say things like "John had the steak" or "Sarah and Mike shared the appetizers".`,
		len(b.Items))

	s.mu.Lock()
	s.bill = &b
	s.messages = nil
	s.mu.Unlock()

	if s.bills != nil {
		if err := s.bills.Upsert(ctx, s.ChatID, b, eng.Name(), eng.GetModel(), util.SHA256Hex(image)); err != nil {
			slog.Warn("bill upsert failed", "chat_id", s.ChatID, "error", err)
		}
	}
	s.record(ctx, "model", greeting)

	return greeting, nil
}

// SendMessage runs one utterance through the interpreter and merges the
// returned modifications into the bill. Interpreter failures are never fatal:
// they produce FallbackReply and zero modifications.
func (s *Session) SendMessage(ctx context.Context, eng ai.Engine, text string) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	s.mu.Lock()
	if s.bill == nil {
		s.mu.Unlock()
		return "", ErrNoBill
	}
	items := bill.Apply(s.bill.Items, nil) // deep copy for the engine's view
	s.mu.Unlock()

	s.record(ctx, "user", text)

	start := time.Now()
	res, err := eng.InterpretCommand(ctx, items, text)
	metrics.ObserveEngine(eng.Name(), "interpret", start, err)
	if err != nil {
		slog.Warn("interpretation failed", "chat_id", s.ChatID, "engine", eng.Name(), "error", err)
		res = ai.ChatResult{Reply: FallbackReply}
	}

	if len(res.Modifications) > 0 {
		s.mu.Lock()
		s.bill.Items = bill.Apply(s.bill.Items, res.Modifications)
		updated := *s.bill
		s.mu.Unlock()

		if s.bills != nil {
			if err := s.bills.UpdateItems(ctx, s.ChatID, updated); err != nil {
				slog.Warn("bill update failed", "chat_id", s.ChatID, "error", err)
			}
		}
	}

	s.record(ctx, "model", res.Reply)
	return res.Reply, nil
}

// Summary recomputes the allocation from scratch; nothing is cached across
// mutations.
func (s *Session) Summary() (bill.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bill == nil {
		return bill.Summary{}, ErrNoBill
	}
	return bill.Summarize(s.bill.Items, s.bill.Tax, s.bill.Tip), nil
}

// Reset discards the bill and the transcript, returning the chat to the
// unloaded state.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.bill = nil
	s.messages = nil
	s.mu.Unlock()

	if s.bills != nil {
		if err := s.bills.Delete(ctx, s.ChatID); err != nil {
			slog.Warn("bill delete failed", "chat_id", s.ChatID, "error", err)
		}
	}
	if s.msgs != nil {
		if err := s.msgs.DeleteForChat(ctx, s.ChatID); err != nil {
			slog.Warn("transcript delete failed", "chat_id", s.ChatID, "error", err)
		}
	}
}

// record appends a transcript entry in memory and, best effort, in storage.
func (s *Session) record(ctx context.Context, role, text string) {
	m := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()

	if s.msgs != nil {
		if err := s.msgs.Append(ctx, m.ID, s.ChatID, role, text); err != nil {
			slog.Warn("transcript append failed", "chat_id", s.ChatID, "error", err)
		}
	}
}

// NormalizeBill makes an extraction result safe to own: every item starts
// unassigned, every item has a unique id, and the currency label is present.
// The HTTP surface shares it so both consumers hand out identical bills.
func NormalizeBill(b *bill.Bill, defaultCurrency string) {
	seen := make(map[string]bool, len(b.Items))
	for i := range b.Items {
		it := &b.Items[i]
		it.AssignedTo = []string{} // marshals as [], not null
		if it.ID == "" || seen[it.ID] {
			it.ID = uuid.NewString()
		}
		seen[it.ID] = true
	}
	if b.Currency == "" {
		b.Currency = defaultCurrency
	}
}
