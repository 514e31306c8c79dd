package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platebook/platebook-go/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}

func dataResponse(v any) map[string]any {
	return map[string]any{"success": true, "data": v}
}

// writeValidationError writes the field-keyed 400 response for a
// *service.ValidationError and reports whether err was one.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  verr.Fields,
		})
		return true
	}
	return false
}

// decodeBody decodes a JSON request body capped at 1MB, writing the error
// response itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err.Error() == "http: request body too large" {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}
