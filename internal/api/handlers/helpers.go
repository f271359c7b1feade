package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cargo-logistics-service/internal/api/dto"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// WriteError is writeError for middleware outside this package.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeError(w, r, status, msg)
}

// fail maps a service error onto the HTTP status that describes it.
// Anything unexpected is logged and reported as a bare 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, r, http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, r, http.StatusConflict, "the record is referenced by other records or already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrAccountInactive):
		writeError(w, r, http.StatusForbidden, "account is not active")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, r, http.StatusUnprocessableEntity, unwrapMessage(err))
	case errors.Is(err, domain.ErrOTPInvalid):
		writeError(w, r, http.StatusBadRequest, "invalid or expired code")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		zap.L().Error("request failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// unwrapMessage keeps the outermost context of an invalid state error,
// which names the record and its status.
func unwrapMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+domain.ErrInvalidState.Error()); i > 0 {
		msg = msg[:i]
	}
	return msg
}

// decode reads exactly one JSON object with no unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.NewValidationError(key, "must be a whole number")
	}
	return n, nil
}

func queryDate(r *http.Request, key string) (*time.Time, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(s)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

// queryRange reads from/to as an inclusive date range and returns the
// exclusive upper bound used by list filters.
func queryRange(r *http.Request) (from, until *time.Time, err error) {
	if from, err = queryDate(r, "from"); err != nil {
		return nil, nil, err
	}
	to, err := queryDate(r, "to")
	if err != nil {
		return nil, nil, err
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		until = &next
	}
	return from, until, nil
}

func listParams(r *http.Request) (domain.ListParams, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return domain.ListParams{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return domain.ListParams{}, err
	}
	q := r.URL.Query()
	return domain.ListParams{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
		Status: q.Get("status"),
	}.Normalize(), nil
}

type principalKey struct{}

// WithPrincipal attaches the authenticated caller to ctx.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller attached by the auth middleware, or nil.
func PrincipalFrom(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalKey{}).(*domain.Principal)
	return p
}
