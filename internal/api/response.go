package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/logging"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

type Success struct {
	Data interface{} `json:"data"`
}

type Error struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Success{Data: data})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Error{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestIDFrom(ctx),
		},
	})
}

// writeErr maps an error from the service onto a status and code; anything unexpected is logged and hidden
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		WriteError(ctx, w, http.StatusBadRequest, "VALIDATION_ERROR", "the request is invalid", verr.Fields)
	case errors.Is(err, store.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	case errors.Is(err, store.ErrConflict):
		WriteError(ctx, w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, pipeline.ErrInvalidTransition):
		WriteError(ctx, w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(ctx, w, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
	case errors.Is(err, auth.ErrNoSession):
		WriteError(ctx, w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error(), nil)
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, service.ErrForbidden):
		WriteError(ctx, w, http.StatusForbidden, "FORBIDDEN", "you are not allowed to do that", nil)
	case errors.Is(err, service.ErrVerificationFailed):
		WriteError(ctx, w, http.StatusUnauthorized, "VERIFICATION_FAILED", err.Error(), nil)
	case errors.Is(err, service.ErrRateLimited):
		WriteError(ctx, w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error(), nil)
	case errors.Is(err, service.ErrUnavailable):
		WriteError(ctx, w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		WriteError(ctx, w, http.StatusServiceUnavailable, "CANCELED", "request canceled", nil)
	default:
		logging.FromContext(ctx).WithError(err).Error("request failed")
		WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

// Unauthorized is the auth middleware's response when it turns a request away
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	writeErr(w, r, err)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	WriteError(r.Context(), w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(r.Context(), w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
}
