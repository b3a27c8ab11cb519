package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/collectwise/backend/internal/model/persona"
	"github.com/zhouzirui/collectwise/backend/internal/negotiation"
	chatService "github.com/zhouzirui/collectwise/backend/internal/service/chat"
)

func newTestRouter() http.Handler {
	e := negotiation.New(nil, nil)
	return NewRouter(Dependencies{
		Personas:       persona.NewMemoryStore(persona.Seed()),
		Chat:           chatService.NewService(e, nil),
		Engine:         e,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
}

func TestRouterServesAPI(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/personas", http.StatusOK},
		{http.MethodPost, "/api/session", http.StatusCreated},
		{http.MethodGet, "/api/sessions/missing", http.StatusNotFound},
		{http.MethodGet, "/api/history/missing", http.StatusOK},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, resp.Code)
		}
	}
}

func TestRouterErrorsCarryRequestID(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var body struct {
		Error     string `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "session not found" || body.RequestID == "" {
		t.Fatalf("unexpected error body: %+v", body)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatal("expected CORS header for configured origin")
	}
}

func TestRouterNegotiateEndpoint(t *testing.T) {
	r := newTestRouter()

	body := `{"turns":[{"role":"system","content":"You owe $2400."},{"role":"user","content":"I don't owe this money"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/negotiate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got struct {
		Ended bool `json:"ended"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Ended {
		t.Fatal("expected no-debt claim to end the conversation")
	}
}
