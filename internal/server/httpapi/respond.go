package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nozoku/nozoku-server/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the service layer's sentinel errors onto HTTP statuses.
// Unknown errors become 500 with a generic body so internals do not leak.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrInvalidParticipants),
		errors.Is(err, common.ErrEmptyMessage),
		errors.Is(err, common.ErrMissingDocument),
		errors.Is(err, common.ErrInvalidAmount):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrNotParticipant),
		errors.Is(err, common.ErrMessagingRestricted),
		errors.Is(err, common.ErrNotVerified),
		errors.Is(err, common.ErrNotEligible):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, common.ErrAlreadySubscribed):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrInsufficientBalance):
		status, msg = http.StatusPaymentRequired, err.Error()
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON parses the request body into v, limiting its size.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}
