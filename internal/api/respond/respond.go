// Package respond writes the platform's JSON response envelope.
// Every endpoint answers {"success": bool, "message": string, "data": ...}.
package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape shared by all endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success envelope with the given payload.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope. Callers pick the status from the error
// taxonomy; messages must stay generic for 5xx responses.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
