package api

import (
	"encoding/json"
	"net/http"
)

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Details     any    `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorWith(w, status, APIError{Code: code, Message: message})
}

func WriteErrorWith(w http.ResponseWriter, status int, e APIError) {
	WriteJSON(w, status, ErrorEnvelope{Error: e})
}

// WriteRedirect answers with 402 and the page the embedded app must send the merchant to.
// The frontend performs the top-level redirect; the API cannot leave the iframe itself.
func WriteRedirect(w http.ResponseWriter, code, message, redirectURL string) {
	WriteErrorWith(w, http.StatusPaymentRequired, APIError{Code: code, Message: message, RedirectURL: redirectURL})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
