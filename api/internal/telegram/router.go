package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/session"
	"split-bot/api/internal/store"
	"split-bot/api/internal/util"
)

type Router struct {
	Bot        *tgbotapi.BotAPI
	EngManager *ai.Manager
	Sessions   *session.Manager
	Messages   *store.MessageRepo

	// DefaultCurrency labels bills whose extraction found none.
	DefaultCurrency string
}

func (r *Router) HandleUpdate(upd tgbotapi.Update, engines Engines) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		if strings.HasPrefix(upd.Message.Text, "/engine") {
			r.handleEngineCommand(cid, upd.Message.Text, engines)
			return
		}
		r.handleCommand(upd)
		return
	}

	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
		return
	}

	if text := strings.TrimSpace(upd.Message.Text); text != "" {
		r.handleText(cid, text)
	}
}

func (r *Router) handleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	ctx := context.Background()

	switch upd.Message.Command() {
	case "start", "help":
		r.send(cid, "Send me a photo of your receipt and I'll read the items off it.\n"+
			"Then tell me who had what: \"Tom had the burger\", \"Sarah and Mike shared the pizza\".\n"+
			"Commands: /summary, /total, /history, /reset, /engine, /health")
	case "health":
		r.send(cid, "✅ OK")
	case "summary", "total":
		s := r.Sessions.Get(ctx, cid)
		sum, err := s.Summary()
		if err != nil {
			r.send(cid, "No receipt loaded yet. Send me a photo first.")
			return
		}
		b, _ := s.Bill()
		r.send(cid, FormatSummary(sum, b.Currency))
	case "history":
		r.sendHistory(ctx, cid)
	case "reset":
		r.Sessions.Reset(ctx, cid)
		r.send(cid, "Started over. Send me a new receipt photo when you're ready.")
	default:
		r.send(cid, "Unknown command")
	}
}

// handleText feeds one utterance through the interpreter and relays the reply.
func (r *Router) handleText(cid int64, text string) {
	ctx := context.Background()
	s := r.Sessions.Get(ctx, cid)

	reply, err := s.SendMessage(ctx, r.pickEngine(cid), text)
	switch {
	case errors.Is(err, session.ErrNoBill):
		r.send(cid, "Send me a photo of the receipt first, then tell me who had what.")
		return
	case errors.Is(err, session.ErrBusy):
		r.send(cid, "Still working on the previous request — one moment.")
		return
	case err != nil:
		r.SendError(cid, err)
		return
	}
	r.send(cid, reply)
}

func (r *Router) sendHistory(ctx context.Context, cid int64) {
	s := r.Sessions.Get(ctx, cid)
	msgs := s.History()

	// after a restart the in-memory transcript is empty; fall back to storage
	if len(msgs) == 0 && r.Messages != nil {
		rows, err := r.Messages.History(ctx, cid, historyLimit)
		if err == nil {
			for _, m := range rows {
				msgs = append(msgs, session.Message{Role: m.Role, Text: m.Body, Timestamp: m.CreatedAt})
			}
		}
	}
	if len(msgs) == 0 {
		r.send(cid, "Nothing here yet.")
		return
	}

	var b strings.Builder
	for _, m := range msgs {
		if m.Role == "user" {
			b.WriteString("🗣 ")
		} else {
			b.WriteString("🤖 ")
		}
		b.WriteString(util.Truncate(m.Text, 200))
		b.WriteString("\n")
	}
	r.send(cid, strings.TrimSpace(b.String()))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, "Something went wrong: "+err.Error())
}
