// Package httpx holds the JSON response helpers and middleware shared by the HTTP servers.
package httpx

import (
	"encoding/json"
	"net/http"
)

const MsgInternal = "Internal server error"

// ErrorBody is the error envelope of every JSON endpoint.
type ErrorBody struct {
	Success *bool               `json:"success,omitempty"`
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// WriteFailure is WriteError with an explicit "success": false, used by the login and refresh endpoints.
func WriteFailure(w http.ResponseWriter, status int, msg string) {
	f := false
	WriteJSON(w, status, ErrorBody{Success: &f, Error: msg})
}

func WriteInternal(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, MsgInternal)
}

// DecodeJSON reads a JSON body of at most 1 MiB into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
