package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/booking"
)

const KindRateLimited = "rate_limited"

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind string) int {
	switch kind {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindConflict:
		return http.StatusConflict
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case booking.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return booking.KindValidation
	case http.StatusConflict:
		return booking.KindConflict
	case http.StatusNotFound:
		return booking.KindNotFound
	case http.StatusForbidden:
		return booking.KindForbidden
	case http.StatusUnauthorized:
		return booking.KindUnauthenticated
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return booking.KindStoreUnavailable
	default:
		return booking.KindInternal
	}
}

// WriteError renders err as a JSON error body. Engine errors map by kind,
// FieldError and HandlerError carry their own status, and anything else is an
// internal error whose detail is logged but not returned.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())
	resp := ErrorResponse{Error: err.Error(), Kind: booking.KindOf(err)}

	var handlerErr HandlerError
	var fieldErr FieldError
	var validationErr *booking.ValidationError
	switch {
	case errors.As(err, &handlerErr):
		resp.Kind = kindForStatus(handlerErr.Status)
		resp.Error = handlerErr.Message
	case errors.As(err, &fieldErr):
		resp.Kind = booking.KindValidation
		resp.Field = fieldErr.Field
	case errors.As(err, &validationErr):
		resp.Error = validationErr.Error()
		resp.Field = validationErr.Field
	}

	status := StatusForKind(resp.Kind)
	if handlerErr.Status != 0 {
		status = handlerErr.Status
	}
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
		if handlerErr.Status == 0 {
			resp.Error = "internal server error"
			if resp.Kind == booking.KindStoreUnavailable {
				resp.Error = "reservation store unavailable, retry later"
			}
		}
	case status == http.StatusConflict || status == http.StatusForbidden:
		logger.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, resp); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// WriteKind renders an error body for a kind without an underlying error.
func WriteKind(w http.ResponseWriter, r *http.Request, kind, message string) {
	if err := WriteJSON(w, StatusForKind(kind), ErrorResponse{Error: message, Kind: kind}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write error response")
	}
}
