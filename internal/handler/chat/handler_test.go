package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	engine "github.com/zhouzirui/collectwise/backend/internal/negotiation"
	chatservice "github.com/zhouzirui/collectwise/backend/internal/service/chat"
	"github.com/zhouzirui/collectwise/backend/internal/validation"
)

func setupRouter() (*chi.Mux, *chatservice.Service) {
	e := engine.New(nil, nil)
	chatSvc := chatservice.NewService(e, nil)
	handler := New(chatSvc, e, validation.MustNew())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		var err error
		payload, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter()

	resp := doJSON(t, r, http.MethodPost, "/session", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var body SessionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Session.ID == "" || len(body.Messages) != 1 || body.Messages[0].Role != "assistant" {
		t.Fatalf("unexpected session payload: %+v", body)
	}
}

func TestSubmitMessageFlow(t *testing.T) {
	r, svc := setupRouter()
	session, _, _ := svc.CreateSession(t.Context())
	path := "/sessions/" + session.ID + "/messages"

	resp := doJSON(t, r, http.MethodPost, path, map[string]string{"message": "I can't afford that much right now."})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var first TurnResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(first.Replies) != 1 || first.Ended || first.State.CurrentOffer == nil {
		t.Fatalf("unexpected first turn: %+v", first)
	}

	resp = doJSON(t, r, http.MethodPost, path, map[string]string{"message": "yes, I agree"})
	var second TurnResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !second.Ended || second.PaymentLink == "" {
		t.Fatalf("expected agreement with payment link, got %+v", second)
	}

	resp = doJSON(t, r, http.MethodGet, "/sessions/"+session.ID, nil)
	var got SessionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PaymentLink != second.PaymentLink || len(got.Messages) != len(second.State.Turns) {
		t.Fatalf("session not updated: %+v", got)
	}
}

func TestSubmitMessageErrors(t *testing.T) {
	r, svc := setupRouter()
	session, _, _ := svc.CreateSession(t.Context())

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{"unknown session", "/sessions/missing/messages", map[string]string{"message": "hi"}, http.StatusNotFound},
		{"empty message", "/sessions/" + session.ID + "/messages", map[string]string{"message": ""}, http.StatusBadRequest},
		{"blank message", "/sessions/" + session.ID + "/messages", map[string]string{"message": "   "}, http.StatusBadRequest},
		{"malformed body", "/sessions/" + session.ID + "/messages", `{"message":`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, r, http.MethodPost, tc.path, tc.body)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestResetSession(t *testing.T) {
	r, svc := setupRouter()
	session, _, _ := svc.CreateSession(t.Context())
	if _, err := svc.SubmitMessage(t.Context(), session.ID, "I don't owe this money"); err != nil {
		t.Fatalf("SubmitMessage err: %v", err)
	}

	resp := doJSON(t, r, http.MethodDelete, "/sessions/"+session.ID, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body TurnResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State.ConversationEnded || len(body.State.Turns) != 1 {
		t.Fatalf("session not reset: %+v", body.State)
	}

	if resp := doJSON(t, r, http.MethodDelete, "/sessions/missing", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestNegotiateIsStateless(t *testing.T) {
	r, _ := setupRouter()

	state := negotiation.State{Turns: []negotiation.Turn{
		{Role: "assistant", Content: "You owe $2400."},
		negotiation.UserTurn("I can't afford that much right now."),
	}}
	resp := doJSON(t, r, http.MethodPost, "/negotiate", state)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body TurnResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID != "" || len(body.Replies) != 1 || body.State.NegotiationAttempts != 1 {
		t.Fatalf("unexpected negotiate payload: %+v", body)
	}
	if body.State.Turns[0].Role != negotiation.RoleSystem {
		t.Fatalf("assistant role not normalised: %+v", body.State.Turns[0])
	}

	resp = doJSON(t, r, http.MethodPost, "/negotiate", `{"turns": [{"role": "bot", "content": "hi"}]}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", resp.Code)
	}
}
