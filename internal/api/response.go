package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps an inventory error to its HTTP status. Anything that is not
// an inventory error is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *inventory.Error
	if !errors.As(err, &ie) {
		slog.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch ie.Kind {
	case inventory.KindNotFound:
		status = http.StatusNotFound
	case inventory.KindConflict, inventory.KindInsufficientQuantity,
		inventory.KindTerminalState, inventory.KindInvalidTransition:
		status = http.StatusConflict
	case inventory.KindValidation, inventory.KindMissingReturnDate, inventory.KindInvalidTransactionType:
		status = http.StatusBadRequest
	}
	jsonResponse(w, status, map[string]string{"error": ie.Error(), "kind": string(ie.Kind)})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional integer query parameter, returning def when it
// is missing or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// isStaff reports whether the caller can see and act on other users' records.
func isStaff(r *http.Request) bool {
	c := GetClaims(r.Context())
	return c != nil && model.RoleAtLeast(c.Role, model.RoleStaff)
}
