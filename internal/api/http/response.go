package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
)

// Body is the standard API response envelope.
type Body struct {
	Success   bool              `json:"success"`
	Data      interface{}       `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Conflicts []domain.Conflict `json:"conflicts,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// OK sends a 200 JSON response with data.
func OK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Fail sends an error envelope with the given status.
func Fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Body{Success: false, Error: msg})
}

// Error maps a service error onto a status code and envelope.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *domain.VenueConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, Body{Success: false, Error: err.Error(), Conflicts: conflict.Conflicts})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Fail(w, status, "internal server error")
		return
	}
	Fail(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidHierarchy),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrVenueUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVenueConflict),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrVenueInUse),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
