package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fastprodman/gamewallet/internal/services/ledger"
	"github.com/fastprodman/gamewallet/internal/signature"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a domain error onto an HTTP status and a stable error code.
func statusFor(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, signature.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{"unauthorized", "invalid signature or api key"}
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusPreconditionFailed, errorResponse{"insufficient_balance", "insufficient balance"}
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return http.StatusNotFound, errorResponse{"transaction_not_found", "transaction not found"}
	case errors.Is(err, ledger.ErrInvalidRequest):
		return http.StatusBadRequest, errorResponse{"invalid_request", err.Error()}
	case errors.Is(err, ledger.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorResponse{"service_unavailable", "service temporarily unavailable"}
	default:
		return http.StatusInternalServerError, errorResponse{"internal_error", "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	slog.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err)

	writeJSON(w, status, body)
}
