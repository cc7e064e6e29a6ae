// Package handler implements the HTTP API.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeSuccess wraps a payload with the success message the pages toast.
// Mutations all answer in the same {success}/{error} shape.
func writeSuccess(w http.ResponseWriter, status int, msg string, data any) {
	body := map[string]any{"success": msg}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, status, body)
}
