// Package handler contains HTTP handlers grouped by resource.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dealdesk/dealdesk/internal/api/jsonapi"
	"github.com/dealdesk/dealdesk/internal/store"
)

// decodeJSON decodes the request body into dst, rendering a 400 on failure.
// Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonapi.RenderError(w, http.StatusBadRequest, "invalid_body", "Bad Request", "request body must be valid JSON")
		return false
	}
	return true
}

// renderStoreError maps store errors onto JSON:API responses.
func renderStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonapi.RenderError(w, http.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, store.ErrEmailTaken):
		jsonapi.RenderError(w, http.StatusConflict, "email_taken", "Conflict", err.Error())
	default:
		jsonapi.RenderError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", err.Error())
	}
}

// resources wraps a slice of entities as JSON:API resource objects.
func resources[T any](typ string, items []T, id func(T) string) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, jsonapi.ResourceObject{Type: typ, ID: id(it), Attributes: it})
	}
	return out
}
