package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/usecase"
	"github.com/secmon-lab/hazop/pkg/utils/errutil"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

// Error codes returned in the "error" field of an error response
const (
	CodeValidationFailed   = "validation_failed"
	CodeIllegalTransition  = "illegal_transition"
	CodeSequenceMismatch   = "sequence_mismatch"
	CodeConflict           = "conflict"
	CodeOtpExpired         = "otp_expired"
	CodeOtpInvalid         = "otp_invalid"
	CodeOtpAlreadyConsumed = "otp_already_consumed"
	CodeNotReady           = "not_ready"
	CodeNotFound           = "not_found"
	CodeUnauthenticated    = "unauthenticated"
	CodeUnavailable        = "unavailable"
	CodeInternal           = "internal"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// errorMapping is checked in order; the first sentinel in the chain wins
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{model.ErrValidationFailed, http.StatusBadRequest, CodeValidationFailed},
	{types.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed},
	{model.ErrSequenceMismatch, http.StatusConflict, CodeSequenceMismatch},
	{model.ErrOtpAlreadyConsumed, http.StatusUnauthorized, CodeOtpAlreadyConsumed},
	{model.ErrOtpExpired, http.StatusUnauthorized, CodeOtpExpired},
	{model.ErrOtpInvalid, http.StatusUnauthorized, CodeOtpInvalid},
	{usecase.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated},
	{model.ErrIllegalTransition, http.StatusConflict, CodeIllegalTransition},
	{model.ErrConflict, http.StatusConflict, CodeConflict},
	{model.ErrNotReady, http.StatusPreconditionFailed, CodeNotReady},
	{model.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{usecase.ErrNoDirectory, http.StatusServiceUnavailable, CodeUnavailable},
}

func classify(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// writeError maps a use case error to its status code and JSON body.
// 5xx errors go through errutil.Handle; the rest are logged as warnings.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, code := classify(err)

	resp := errorResponse{Error: code, Message: err.Error()}
	if status >= http.StatusInternalServerError {
		_ = errutil.Handle(ctx, err, "HTTP request failed")
		resp.Message = http.StatusText(status)
	} else {
		logging.From(ctx).Warn("request rejected",
			"status", status,
			"code", code,
			"error", err.Error(),
		)
	}

	resp.Field = errorString(err, model.FieldKey)
	resp.From = errorString(err, model.FromKey)
	resp.To = errorString(err, model.ToKey)

	writeJSON(w, r, status, resp)
}

func errorString(err error, key string) string {
	v, ok := model.ErrorValue(err, key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
