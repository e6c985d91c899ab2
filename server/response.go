package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-account-service/auth"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	maxBodyBytes = 1 << 20

	msgInternal    = "internal server error"
	msgUnavailable = "service temporarily unavailable, please retry"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Status string `json:"status"`
	Code   int    `json:"code"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(envelope{Status: "success", Code: code, Data: data}); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(envelope{Status: "error", Code: code, Error: message}); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err == io.EOF {
			return &auth.RequestError{Field: "body", Reason: "is required"}
		}
		return &auth.RequestError{Field: "body", Reason: "must be valid JSON"}
	}
	return nil
}

// operation selects how ambiguous error kinds map to a status.
type operation int

const (
	opAccount   operation = iota // sign-up and sign-in
	opFederated                  // Google sign-up and sign-in
	opRefresh                    // refresh and sign-out
	opGuard                      // access token check
)

// errorStatus maps an error kind to a status and a client-safe message.
// Internal error text never reaches the client.
func errorStatus(err error, op operation) (int, string) {
	switch {
	case errors.Is(err, errors.ErrTransientStore):
		return http.StatusServiceUnavailable, msgUnavailable
	case errors.Is(err, errors.ErrInvalidRequest):
		var reqErr *auth.RequestError
		if errors.As(err, &reqErr) {
			return http.StatusBadRequest, reqErr.Error()
		}
		return http.StatusBadRequest, errors.ErrInvalidRequest.Error()
	case errors.Is(err, errors.ErrDuplicateIdentity):
		return http.StatusConflict, errors.ErrDuplicateIdentity.Error()
	case errors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized, errors.ErrInvalidCredentials.Error()
	case errors.Is(err, errors.ErrNotFound):
		if op == opFederated {
			return http.StatusNotFound, "user not found, please sign up"
		}
		return http.StatusUnauthorized, "session not found"
	case errors.Is(err, errors.ErrTokenExpired):
		if op == opRefresh {
			return http.StatusForbidden, errors.ErrTokenExpired.Error()
		}
		return http.StatusUnauthorized, errors.ErrTokenExpired.Error()
	case errors.Is(err, errors.ErrInvalidToken):
		if op == opRefresh {
			return http.StatusForbidden, errors.ErrInvalidToken.Error()
		}
		return http.StatusUnauthorized, errors.ErrInvalidToken.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error, op operation) {
	code, message := errorStatus(err, op)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg("request failed")
	}
	writeError(w, code, message)
}
