package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-mixinsform/pkg/controls"
	"github.com/goliatone/go-mixinsform/pkg/editable"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/render"
)

const maxBodyBytes = 1 << 20

type failureJSON struct {
	Ref   mixins.SchemaRef `json:"ref"`
	Error string           `json:"error"`
}

type errorJSON struct {
	Error      string              `json:"error"`
	Code       string              `json:"code"`
	Fields     map[string][]string `json:"fields,omitempty"`
	FormErrors []string            `json:"formErrors,omitempty"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("server: encode response", "error", err)
	}
}

// writeError writes a structured JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorJSON{Error: message, Code: code})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("server: decode body: %w", err)
	}
	return nil
}

// formParam resolves the {schemaID} path parameter, writing a 404 when the
// form is not loaded.
func (s *Server) formParam(w http.ResponseWriter, r *http.Request) (*formState, bool) {
	id := chi.URLParam(r, "schemaID")
	state, err := s.form(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "form not loaded: "+id)
		return nil, false
	}
	return state, true
}

// sessionErrorToHTTP maps session and control errors to HTTP responses.
func (s *Server) sessionErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controls.ErrInvalidInput):
		s.writeError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error())
	case errors.Is(err, controls.ErrDisabled):
		s.writeError(w, http.StatusForbidden, "READ_ONLY", err.Error())
	case errors.Is(err, render.ErrNotAList):
		s.writeError(w, http.StatusBadRequest, "NOT_A_LIST", err.Error())
	case errors.Is(err, editable.ErrUnknownPath):
		s.writeError(w, http.StatusBadRequest, "UNKNOWN_PATH", err.Error())
	default:
		s.logger.Error("server: internal error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// normalizeJSONValue turns json.Number into int64 or float64 so controls see
// the same scalar types as values decoded from persisted documents.
func normalizeJSONValue(v any) any {
	switch typed := v.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return n
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = normalizeJSONValue(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = normalizeJSONValue(value)
		}
		return out
	default:
		return v
	}
}
