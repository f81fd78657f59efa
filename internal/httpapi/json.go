package httpapi

import (
	"encoding/json"
	"net/http"
)

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// envelope is the standard success payload: {status, data, message}.
type envelope struct {
	Status  bool   `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ok writes a success envelope.
func ok(w http.ResponseWriter, status int, data any, message string) {
	toJSON(w, status, envelope{Status: true, Data: data, Message: message})
}
