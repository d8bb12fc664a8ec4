// Package httpx provides the JSON response envelope shared by every endpoint.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every response: code 0 on success, 500 on failure.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// Failure is the envelope code of every error response.
const Failure = 500

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope carrying data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Code: 0, Msg: "", Data: data})
}

// Success sends a success envelope with a localized message and no data.
func Success(w http.ResponseWriter, r *http.Request, key string) {
	JSON(w, http.StatusOK, Envelope{Code: 0, Msg: Localize(r, key), Data: nil})
}

// Fail sends a failure envelope with a localized message.
func Fail(w http.ResponseWriter, r *http.Request, status int, key string) {
	JSON(w, status, Envelope{Code: Failure, Msg: Localize(r, key), Data: nil})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
