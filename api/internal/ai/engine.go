package ai

import (
	"context"
	"errors"
	"sync"

	"split-bot/api/internal/bill"
)

// ReceiptExtractor turns a receipt photo into a structured bill. The returned
// bill's items carry no assignments; the caller initializes those.
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, image []byte, mime string) (bill.Bill, error)
}

// CommandInterpreter turns one free-text utterance into a conversational reply
// plus a batch of complete-replacement assignment modifications. A chatty,
// non-actionable utterance legitimately yields zero modifications.
type CommandInterpreter interface {
	InterpretCommand(ctx context.Context, items []bill.Item, message string) (ChatResult, error)
}

type Engine interface {
	Name() string
	GetModel() string
	ReceiptExtractor
	CommandInterpreter
}

// ChatResult is the interpreter's response. Reply is displayed verbatim.
type ChatResult struct {
	Reply         string              `json:"reply"`
	Modifications []bill.Modification `json:"modifications"`
}

type Engines struct {
	Gemini Engine
	OpenAI Engine
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	switch llmName {
	case "gemini", "":
		if e.Gemini == nil {
			return nil, errors.New("gemini engine is not configured")
		}
		return e.Gemini, nil
	case "gpt", "openai":
		if e.OpenAI == nil {
			return nil, errors.New("openai engine is not configured")
		}
		return e.OpenAI, nil
	default:
		return nil, errors.New("unknown llm_name; use 'gemini' or 'gpt'")
	}
}

// Manager tracks the engine chosen per chat, falling back to a default.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
