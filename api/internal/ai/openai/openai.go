package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/bill"
	"split-bot/api/internal/util"
)

type Engine struct {
	APIKey string
	Model  string
	httpc  *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey: key,
		Model:  model,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) SetModel(model string) {
	if m := strings.TrimSpace(model); m != "" {
		e.Model = m
	}
}

const extractSystem = `You analyze a PHOTO of a restaurant receipt.
Extract all line items with their printed line-total price and quantity,
plus the total tax and total tip if visible (0 when absent).
Generate a unique id for each item. Convert all prices to numbers.
Return only JSON of the shape:
{"items":[{"id":string,"name":string,"price":number,"quantity":number}],"tax":number,"tip":number,"currency":string}
Any text outside the JSON is an error.`

func (e *Engine) ExtractReceipt(ctx context.Context, image []byte, mime string) (bill.Bill, error) {
	if e.APIKey == "" {
		return bill.Bill{}, fmt.Errorf("OPENAI_API_KEY is empty")
	}
	if mime == "" {
		mime = util.SniffMimeHTTP(image)
	}
	b64 := base64.StdEncoding.EncodeToString(image)
	dataURL := util.MakeDataURL(mime, b64)

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": extractSystem},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": "Extract this receipt. JSON only."},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
		},
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
	}

	out, err := e.complete(ctx, body, "extract")
	if err != nil {
		return bill.Bill{}, err
	}
	var b bill.Bill
	if err := json.Unmarshal([]byte(out), &b); err != nil {
		return bill.Bill{}, fmt.Errorf("openai extract: bad JSON: %w", err)
	}
	return b, nil
}

const interpretSystem = `You are a helpful bill splitting assistant.
Interpret the user's message to assign receipt items to people.
Return only JSON: {"reply":string,"modifications":[{"itemId":string,"assignees":[string]}]}.
The assignees array must be the complete new list of people for that item,
not a delta: "Add Sarah to the salad" with current ["Mike"] returns ["Mike","Sarah"],
"Tom didn't have the soda" removes Tom from the current list.
Match items fuzzily by name ("fries" matches "French Fries").
General chat ("Hi", "Thanks") returns empty modifications.`

func (e *Engine) InterpretCommand(ctx context.Context, items []bill.Item, message string) (ai.ChatResult, error) {
	if e.APIKey == "" {
		return ai.ChatResult{}, fmt.Errorf("OPENAI_API_KEY is empty")
	}
	stateJSON, _ := json.Marshal(ai.ReduceItems(items))

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": interpretSystem},
			map[string]any{
				"role":    "user",
				"content": fmt.Sprintf("Current Receipt Items State:\n%s\n\nUser Message: %q", stateJSON, message),
			},
		},
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
	}

	out, err := e.complete(ctx, body, "interpret")
	if err != nil {
		return ai.ChatResult{}, err
	}
	var r ai.ChatResult
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		return ai.ChatResult{}, fmt.Errorf("openai interpret: bad JSON: %w", err)
	}
	return r, nil
}

// complete posts one chat-completions request and returns the first choice's
// content with code fences stripped.
func (e *Engine) complete(ctx context.Context, body map[string]any, stage string) (string, error) {
	payload, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai %s %d: %s", stage, resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai %s: empty response", stage)
	}
	return util.StripCodeFences(strings.TrimSpace(raw.Choices[0].Message.Content)), nil
}
