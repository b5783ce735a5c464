package service

import (
	"context"
	"errors"
	"fmt"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

type bookingManager struct {
	detector *conflictDetector
}

// NewBookingManager resolves the names of clashing events through store.
func NewBookingManager(store repository.Store) BookingManager {
	return &bookingManager{detector: newConflictDetector(store, nil)}
}

// CreateTemporary books the event's venue and interval. The caller is expected
// to have locked the venue and checked for conflicts in the same transaction.
func (m *bookingManager) CreateTemporary(ctx context.Context, tx repository.Store, event *domain.Event) (*domain.VenueBooking, error) {
	b := &domain.VenueBooking{
		VenueID:   event.VenueID,
		EventID:   event.ID,
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		Status:    domain.BookingStatusTemporary,
	}
	if err := tx.Bookings().Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking for event %s: %w", event.ID, err)
	}
	logger.Info("Temporary booking created", "eventID", event.ID, "venueID", b.VenueID, "bookingID", b.ID)
	return b, nil
}

func (m *bookingManager) Confirm(ctx context.Context, tx repository.Store, eventID string) error {
	b, err := tx.Bookings().GetByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		return nil
	case domain.BookingStatusCancelled:
		return fmt.Errorf("%w: cannot confirm cancelled booking of event %s", domain.ErrInvalidTransition, eventID)
	}
	b.Status = domain.BookingStatusConfirmed
	if err := tx.Bookings().Update(ctx, b); err != nil {
		return fmt.Errorf("failed to confirm booking of event %s: %w", eventID, err)
	}
	logger.Info("Booking confirmed", "eventID", eventID, "bookingID", b.ID)
	return nil
}

func (m *bookingManager) Cancel(ctx context.Context, tx repository.Store, eventID string) error {
	b, err := tx.Bookings().GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("No booking to cancel", "eventID", eventID)
			return nil
		}
		return err
	}
	if b.Status == domain.BookingStatusCancelled {
		return nil
	}
	b.Status = domain.BookingStatusCancelled
	if err := tx.Bookings().Update(ctx, b); err != nil {
		return fmt.Errorf("failed to cancel booking of event %s: %w", eventID, err)
	}
	logger.Info("Booking cancelled", "eventID", eventID, "bookingID", b.ID)
	return nil
}

// Retarget moves the event's booking to venueID and window and makes it
// temporary again. It fails with a *domain.VenueConflictError when the new slot
// clashes with another active booking.
func (m *bookingManager) Retarget(ctx context.Context, tx repository.Store, eventID, venueID string, window domain.Interval) (*domain.VenueBooking, error) {
	conflicts, err := m.detector.in(tx).conflicts(ctx, venueID, window, eventID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &domain.VenueConflictError{Conflicts: conflicts}
	}

	b, err := tx.Bookings().GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	b.VenueID = venueID
	b.StartTime = window.Start
	b.EndTime = window.End
	b.Status = domain.BookingStatusTemporary
	if err := tx.Bookings().Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to retarget booking of event %s: %w", eventID, err)
	}
	logger.Info("Booking retargeted", "eventID", eventID, "venueID", venueID,
		"start", window.Start, "end", window.End)
	return b, nil
}
