// Package httputil holds the JSON response helpers and the single error
// boundary every handler funnels failures through.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayush/estatehub/backend/internal/apperr"
)

const genericMessage = "internal server error"

// ErrorEnvelope is the body written for every failed request.
type ErrorEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

// MessageResponse is the body for operations that only report an outcome.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {success:true, message} with the given status.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Success: true, Message: msg})
}

// WriteError translates err into the error envelope. Errors without a kind
// are reported as a generic 500 so internal details never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)

	msg := genericMessage
	if kind != apperr.Internal {
		msg = messageOf(err)
	}

	WriteJSON(w, status, ErrorEnvelope{
		Success:    false,
		StatusCode: status,
		Error:      msg,
	})
}

func messageOf(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
