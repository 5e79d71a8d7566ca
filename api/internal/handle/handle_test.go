package handle

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"split-bot/api/internal/ai"
	"split-bot/api/internal/bill"
	"split-bot/api/internal/session"
)

type fakeEngine struct {
	extract   func(ctx context.Context, image []byte, mime string) (bill.Bill, error)
	interpret func(ctx context.Context, items []bill.Item, message string) (ai.ChatResult, error)
}

func (f *fakeEngine) Name() string     { return "gemini" }
func (f *fakeEngine) GetModel() string { return "fake" }

func (f *fakeEngine) ExtractReceipt(ctx context.Context, image []byte, mime string) (bill.Bill, error) {
	return f.extract(ctx, image, mime)
}

func (f *fakeEngine) InterpretCommand(ctx context.Context, items []bill.Item, message string) (ai.ChatResult, error) {
	return f.interpret(ctx, items, message)
}

func newHandle(eng ai.Engine) *Handle {
	return New(&ai.Engines{Gemini: eng}, "$")
}

func TestSummaryHandler(t *testing.T) {
	h := newHandle(&fakeEngine{})

	body := `{"items":[
		{"id":"1","name":"Burger","price":10,"quantity":1,"assignedTo":["Tom"]},
		{"id":"2","name":"Soda","price":2,"quantity":1,"assignedTo":[]}
	],"tax":1,"tip":2}`
	req := httptest.NewRequest(http.MethodPost, "/v1/bill/summary", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Summary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var s bill.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if math.Abs(s.TotalBill-15) > 1e-6 || math.Abs(s.UnassignedTotal-2) > 1e-6 {
		t.Errorf("totals = %v/%v, want 15/2", s.TotalBill, s.UnassignedTotal)
	}
	if len(s.PerPerson) != 1 || math.Abs(s.PerPerson[0].Total-13) > 1e-6 {
		t.Errorf("per-person = %+v, want Tom owing 13", s.PerPerson)
	}
}

func TestSummaryHandlerRejectsGet(t *testing.T) {
	h := newHandle(&fakeEngine{})
	w := httptest.NewRecorder()
	h.Summary(w, httptest.NewRequest(http.MethodGet, "/v1/bill/summary", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestMessageHandlerMergesModifications(t *testing.T) {
	h := newHandle(&fakeEngine{
		interpret: func(_ context.Context, items []bill.Item, _ string) (ai.ChatResult, error) {
			return ai.ChatResult{
				Reply:         "Done.",
				Modifications: []bill.Modification{{ItemID: "1", Assignees: []string{"Tom"}}},
			}, nil
		},
	})

	body := `{"llm_name":"gemini","message":"Tom had the burger","items":[{"id":"1","name":"Burger","price":10,"quantity":1,"assignedTo":[]}]}`
	w := httptest.NewRecorder()
	h.Message(w, httptest.NewRequest(http.MethodPost, "/v1/bill/message", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if res.Reply != "Done." {
		t.Errorf("reply = %q", res.Reply)
	}
	if len(res.Items) != 1 || len(res.Items[0].AssignedTo) != 1 || res.Items[0].AssignedTo[0] != "Tom" {
		t.Errorf("merged items = %+v", res.Items)
	}
}

func TestMessageHandlerFallsBackOnEngineError(t *testing.T) {
	h := newHandle(&fakeEngine{
		interpret: func(context.Context, []bill.Item, string) (ai.ChatResult, error) {
			return ai.ChatResult{}, errors.New("vendor down")
		},
	})

	body := `{"llm_name":"gemini","message":"hello","items":[{"id":"1","name":"Burger","price":10,"quantity":1,"assignedTo":["Tom"]}]}`
	w := httptest.NewRecorder()
	h.Message(w, httptest.NewRequest(http.MethodPost, "/v1/bill/message", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("interpreter failure must not fail the request, status = %d", w.Code)
	}
	var res MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if res.Reply != session.FallbackReply {
		t.Errorf("reply = %q, want the fixed fallback", res.Reply)
	}
	if len(res.Modifications) != 0 {
		t.Errorf("modifications = %+v, want none", res.Modifications)
	}
	if len(res.Items[0].AssignedTo) != 1 || res.Items[0].AssignedTo[0] != "Tom" {
		t.Errorf("items changed on failure: %+v", res.Items)
	}
}

func TestExtractHandler(t *testing.T) {
	h := newHandle(&fakeEngine{
		extract: func(_ context.Context, image []byte, mime string) (bill.Bill, error) {
			if string(image) != "hi" {
				t.Errorf("engine got image %q", image)
			}
			return bill.Bill{
				Items: []bill.Item{{ID: "", Name: "Burger", Price: 10, Quantity: 1}},
				Tax:   1, Tip: 2,
			}, nil
		},
	})

	body := `{"llm_name":"gemini","image_b64":"aGk=","mime":"image/jpeg"}`
	w := httptest.NewRecorder()
	h.Extract(w, httptest.NewRequest(http.MethodPost, "/v1/bill/extract", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var b bill.Bill
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if b.Currency != "$" {
		t.Errorf("currency = %q, want default", b.Currency)
	}
	if b.Items[0].ID == "" {
		t.Error("missing item id not filled in")
	}
	if len(b.Items[0].AssignedTo) != 0 {
		t.Errorf("assignments not initialized empty: %v", b.Items[0].AssignedTo)
	}
}

func TestExtractHandlerBadImage(t *testing.T) {
	h := newHandle(&fakeEngine{})
	body := `{"llm_name":"gemini","image_b64":"%%%"}`
	w := httptest.NewRecorder()
	h.Extract(w, httptest.NewRequest(http.MethodPost, "/v1/bill/extract", strings.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExtractHandlerEngineFailure(t *testing.T) {
	h := newHandle(&fakeEngine{
		extract: func(context.Context, []byte, string) (bill.Bill, error) {
			return bill.Bill{}, errors.New("unreadable")
		},
	})
	body := `{"llm_name":"gemini","image_b64":"aGk="}`
	w := httptest.NewRecorder()
	h.Extract(w, httptest.NewRequest(http.MethodPost, "/v1/bill/extract", strings.NewReader(body)))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 and no partial data", w.Code)
	}
}
