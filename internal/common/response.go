package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the structured error payload used by operational endpoints.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// MessageBody is the flat error shape the checkout client understands.
type MessageBody struct {
	ErrorMessage string `json:"errorMessage"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the structured error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// JSONMessage renders {"errorMessage": message} with the given status.
func JSONMessage(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{ErrorMessage: message})
}
