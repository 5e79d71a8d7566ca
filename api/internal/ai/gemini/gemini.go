package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/bill"
	"split-bot/api/internal/util"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// SetModel lets the chat switch the default model at runtime.
func (e *Engine) SetModel(model string) {
	if m := strings.TrimSpace(model); m != "" {
		e.Model = m
	}
}

// --------------------------- EXTRACT ---------------------------

var receiptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":       {Type: genai.TypeString},
					"name":     {Type: genai.TypeString},
					"price":    {Type: genai.TypeNumber},
					"quantity": {Type: genai.TypeNumber},
				},
				Required: []string{"id", "name", "price", "quantity"},
			},
		},
		"tax":      {Type: genai.TypeNumber},
		"tip":      {Type: genai.TypeNumber},
		"currency": {Type: genai.TypeString},
	},
	Required: []string{"items", "tax", "tip"},
}

const extractPrompt = `Analyze this receipt image. Extract all line items, their prices, and quantities.
Also extract the total tax and total tip amount if visible (or suggest 0 if not found).
Return a valid JSON object strictly matching the schema provided.
Generate a unique ID for each item.
Convert all prices to numbers. Price is the line total as printed, not a per-unit price.`

// ExtractReceipt sends the receipt photo to Gemini and decodes the structured
// bill. Assignments are left empty for the caller to initialize.
func (e *Engine) ExtractReceipt(ctx context.Context, image []byte, mime string) (bill.Bill, error) {
	if e.APIKey == "" {
		return bill.Bill{}, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return bill.Bill{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return bill.Bill{}, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   receiptSchema,
	}

	if mime == "" {
		mime = util.SniffMimeHTTP(image)
	}
	parts := []genai.Part{
		genai.Text(extractPrompt),
		&genai.Blob{MIMEType: mime, Data: image},
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return bill.Bill{}, fmt.Errorf("gemini extract: empty response")
		}
		txt = util.StripCodeFences(strings.TrimSpace(txt))

		var out bill.Bill
		if err := json.Unmarshal([]byte(txt), &out); err != nil {
			return bill.Bill{}, fmt.Errorf("gemini extract: bad JSON: %w", err)
		}
		return out, nil
	}
	return bill.Bill{}, lastErr
}

// --------------------------- INTERPRET ---------------------------

var chatSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"modifications": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"itemId": {Type: genai.TypeString},
					"assignees": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
				Required: []string{"itemId", "assignees"},
			},
		},
		"reply": {Type: genai.TypeString},
	},
	Required: []string{"modifications", "reply"},
}

const interpretSystem = `You are a helpful bill splitting assistant.

Instructions:
1. Interpret the user's message to assign items to people.
2. Return a JSON object with a 'reply' (conversational confirmation) and 'modifications'.
3. 'modifications' is an array of objects containing 'itemId' and 'assignees'.
4. The 'assignees' array in the modification must be the *complete new list* of people for that item.
5. If the user says "Tom and Jerry shared the burger", and the burger ID is "123", return assignees: ["Tom", "Jerry"].
6. If the user says "Add Sarah to the salad", and the salad currently has ["Mike"], return assignees: ["Mike", "Sarah"].
7. If the user says "Actually, Tom didn't have the soda", remove Tom from the list.
8. Match items fuzzily by name if needed (e.g. "fries" matches "French Fries").
9. If the message is just general chat (e.g. "Hi", "Thanks"), return empty modifications.`

// InterpretCommand asks Gemini to translate one utterance into assignment
// modifications against the current item state.
func (e *Engine) InterpretCommand(ctx context.Context, items []bill.Item, message string) (ai.ChatResult, error) {
	if e.APIKey == "" {
		return ai.ChatResult{}, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return ai.ChatResult{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return ai.ChatResult{}, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   chatSchema,
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(interpretSystem)},
	}

	stateJSON, _ := json.MarshalIndent(ai.ReduceItems(items), "", "  ")
	user := fmt.Sprintf("Current Receipt Items State:\n%s\n\nUser Message: %q", stateJSON, message)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, genai.Text(user))
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return ai.ChatResult{}, fmt.Errorf("gemini interpret: empty response")
		}
		txt = util.StripCodeFences(strings.TrimSpace(txt))

		var out ai.ChatResult
		if err := json.Unmarshal([]byte(txt), &out); err != nil {
			return ai.ChatResult{}, fmt.Errorf("gemini interpret: bad JSON: %w", err)
		}
		return out, nil
	}
	return ai.ChatResult{}, lastErr
}

// --------------------------- helpers ---------------------------

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
