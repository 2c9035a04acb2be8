package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/HendryAvila/taskchat/internal/agent"
	"github.com/HendryAvila/taskchat/internal/store"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, detail string) {
	s.jsonResponse(w, status, errorBody{Detail: detail})
}

// fail maps err onto a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		s.errorResponse(w, http.StatusBadRequest, detail(err, store.ErrValidation))
	case errors.Is(err, store.ErrNotFound):
		s.errorResponse(w, http.StatusNotFound, upperFirst(err.Error()))
	case errors.Is(err, agent.ErrConfiguration), errors.Is(err, agent.ErrAgentInvocation):
		s.logger.Error("chat failed", "error", err, "path", r.URL.Path)
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("request failed", "error", err, "path", r.URL.Path)
		s.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

// detail drops the sentinel suffix from a wrapped domain error.
func detail(err, sentinel error) string {
	return upperFirst(strings.TrimSuffix(err.Error(), ": "+sentinel.Error()))
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// pathID parses a positive integer path parameter.
func pathID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", store.ErrValidation)
	}
	return nil
}
