package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cosmichub/api/internal/platform/httpx"
	"github.com/cosmichub/api/internal/repositories"
	"github.com/cosmichub/api/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondServiceError translates service and repository failures into the
// canonical JSON error envelope.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validation *services.GameValidationError
	switch {
	case err == nil:
		return
	case errors.As(err, &validation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", validation.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"missing": validation.Missing}))
		return
	case errors.Is(err, services.ErrNotConnected):
		httpx.WriteError(ctx, w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	case errors.Is(err, services.ErrDeleteNotConfirmed):
		httpx.WriteError(ctx, w, httpx.NewError("delete_not_confirmed", "delete requires the confirmation phrase", http.StatusBadRequest))
		return
	case errors.Is(err, services.ErrUnknownPage):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_page", "unknown page id", http.StatusNotFound))
		return
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
			return
		case repoErr.IsConflict():
			httpx.WriteError(ctx, w, httpx.NewError("conflict", "resource conflict", http.StatusConflict))
			return
		case repoErr.IsUnavailable():
			httpx.WriteError(ctx, w, httpx.NewError("backend_unavailable", "backend temporarily unavailable", http.StatusServiceUnavailable))
			return
		}
	}

	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func trimmedQuery(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
