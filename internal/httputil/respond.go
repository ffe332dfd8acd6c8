// Package httputil renders the uniform response envelopes.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
)

// Envelope is the uniform wrapper around every successful response body.
type Envelope struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Errors     []string    `json:"errors"`
}

// ErrorDetail is the machine-readable error block of an error envelope.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details"`
	Timestamp string                 `json:"timestamp"`
}

// ErrorEnvelope is the uniform wrapper around every error response body.
type ErrorEnvelope struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode"`
	Error      ErrorDetail `json:"error"`
	RequestID  string      `json:"requestId"`
}

// WriteSuccess renders a success envelope with the given status code.
func WriteSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Status:     "success",
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

// WriteError renders an error envelope. Internal causes are never exposed;
// only the ServiceError's code, message and details reach the caller.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	se := errors.GetServiceError(err)
	if se == nil {
		se = errors.Internal("An unexpected error occurred", err)
	}
	WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

// WriteErrorResponse renders an error envelope from its raw parts.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	requestID := logging.GetRequestID(r.Context())
	if requestID == "" {
		requestID = r.Header.Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = logging.NewRequestID()
	}
	if details == nil {
		details = map[string]interface{}{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Status:     "error",
		StatusCode: status,
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		RequestID: requestID,
	})
}

// Unauthorized is a shorthand for token failures at the middleware edge.
func Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	WriteErrorResponse(w, r, http.StatusUnauthorized, string(errors.CodeUnauthorized), message, nil)
}
