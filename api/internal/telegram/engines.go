package telegram

import (
	"strings"

	"split-bot/api/internal/ai"
)

type Engines struct {
	Gemini ai.Engine
	OpenAI ai.Engine
}

func (r *Router) pickEngine(chatID int64) ai.Engine {
	return r.EngManager.Get(chatID)
}

// handleEngineCommand switches the chat's LLM engine:
//
//	/engine gemini [model]
//	/engine gpt [model]
func (r *Router) handleEngineCommand(chatID int64, cmd string, engines Engines) {
	args := strings.Fields(strings.TrimSpace(strings.TrimPrefix(cmd, "/engine")))
	if len(args) == 0 {
		cur := r.EngManager.Get(chatID)
		r.send(chatID, "Current engine: "+cur.Name()+" ("+cur.GetModel()+")\nUsage:\n/engine gemini [model]\n/engine gpt [model]")
		return
	}
	name := strings.ToLower(args[0])
	var modelArg string
	if len(args) > 1 {
		modelArg = strings.TrimSpace(args[1])
	}

	type modelSetter interface{ SetModel(string) }

	var eng ai.Engine
	switch name {
	case "gemini":
		eng = engines.Gemini
	case "gpt", "openai":
		eng = engines.OpenAI
	default:
		r.send(chatID, "Unknown engine. Available: gemini | gpt")
		return
	}
	if eng == nil {
		r.send(chatID, "❌ "+name+" is not configured.")
		return
	}
	if modelArg != "" {
		if ms, ok := any(eng).(modelSetter); ok {
			ms.SetModel(modelArg)
		}
	}
	r.EngManager.Set(chatID, eng)
	r.send(chatID, "✅ Engine: "+eng.Name()+" ("+eng.GetModel()+").")
}
