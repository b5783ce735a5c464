package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidInterval    = errors.New("end time must be after start time")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrInvalidDecision    = errors.New("invalid decision")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrVenueConflict      = errors.New("venue is already booked for the requested time")
	ErrVenueInUse         = errors.New("venue has active bookings")
	ErrVenueUnavailable   = errors.New("venue is not available for booking")
	ErrCapacityExceeded   = errors.New("participants exceed venue capacity")
	ErrDuplicateName      = errors.New("name already in use")
	ErrInvalidCredentials = errors.New("invalid organization name or secret")
	ErrInvalidHierarchy   = errors.New("invalid organization hierarchy")
	ErrInvalidInput       = errors.New("invalid input")

	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrVenueNotFound        = fmt.Errorf("venue %w", ErrNotFound)
	ErrOrganizationNotFound = fmt.Errorf("organization %w", ErrNotFound)
	ErrBookingNotFound      = fmt.Errorf("booking %w", ErrNotFound)
)

// Conflict describes an active booking that overlaps a requested slot.
type Conflict struct {
	EventID   string        `json:"event_id"`
	EventName string        `json:"event_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    BookingStatus `json:"status"`
}

// VenueConflictError carries the clashing bookings so callers can offer
// alternatives. It matches ErrVenueConflict with errors.Is.
type VenueConflictError struct {
	Conflicts []Conflict
}

func (e *VenueConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return ErrVenueConflict.Error()
	}
	names := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		names = append(names, fmt.Sprintf("%s (%s - %s)", c.EventName, c.StartTime.Format(time.RFC3339), c.EndTime.Format(time.RFC3339)))
	}
	return fmt.Sprintf("%s: %s", ErrVenueConflict.Error(), strings.Join(names, ", "))
}

func (e *VenueConflictError) Is(target error) bool {
	return target == ErrVenueConflict
}
