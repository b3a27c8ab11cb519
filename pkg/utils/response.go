package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorBody is the JSON error envelope of every endpoint.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应，附带 chi 生成的请求 ID
func RespondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := ErrorBody{Error: message}
	if r != nil {
		body.RequestID = middleware.GetReqID(r.Context())
	}
	RespondJSON(w, status, body)
}

// DecodeLimit caps request bodies read by handlers.
const DecodeLimit = 1 << 20
