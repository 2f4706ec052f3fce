package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/otitou/wap-backend-go/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// The header is already written; nothing left to do but log.
		_ = err
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps the core's error taxonomy (spec §7) onto HTTP status
// codes. Anything that is not an *apperr.Error is an unexpected fault.
func writeError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
		return
	}

	var ae *apperr.Error
	apperr.As(err, &ae)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusBadRequest
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.Validation:
		status = http.StatusUnprocessableEntity
	case apperr.InsufficientFunds:
		status = http.StatusBadRequest
	case apperr.DependencyUnavailable:
		status = http.StatusBadGateway
	case apperr.Transient:
		status = http.StatusServiceUnavailable
	}

	body := map[string]any{"detail": ae.Message}
	if len(ae.Detail) > 0 {
		for k, v := range ae.Detail {
			body[k] = v
		}
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return apperr.Validationf("invalid request body: %v", err)
	}
	return nil
}

// actingUID resolves the caller per spec §6: a bearer token is out of
// scope here, so the acting uid comes from the request body (when the
// endpoint's schema carries one) or, failing that, the uid query
// parameter.
func actingUID(r *http.Request, bodyUID string) string {
	if bodyUID != "" {
		return bodyUID
	}
	return r.URL.Query().Get("uid")
}
