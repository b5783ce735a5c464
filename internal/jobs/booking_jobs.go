package jobs

import (
	"context"
	"errors"
	"fmt"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

// BookingOverlap is a pair of active bookings on one venue that share time.
type BookingOverlap struct {
	VenueID string
	First   domain.VenueBooking
	Second  domain.VenueBooking
}

// FindBookingConflicts reports active bookings that overlap on the same venue.
// They can only exist if a race slipped past the per-venue exclusion.
func (jr *JobRunner) FindBookingConflicts() {
	jr.runWithRecovery("FindBookingConflicts", func() {
		overlaps, err := jr.findBookingConflicts(context.Background())
		if err != nil {
			logger.Error("Failed to scan bookings for conflicts", "error", err)
			return
		}
		for _, o := range overlaps {
			logger.Warn("Overlapping active bookings",
				"venueID", o.VenueID,
				"firstEventID", o.First.EventID,
				"secondEventID", o.Second.EventID,
				"firstStart", o.First.StartTime, "firstEnd", o.First.EndTime,
				"secondStart", o.Second.StartTime, "secondEnd", o.Second.EndTime,
			)
		}
		logger.Info("Booking conflict scan finished", "overlaps", len(overlaps))
	})
}

func (jr *JobRunner) findBookingConflicts(ctx context.Context) ([]BookingOverlap, error) {
	active, err := jr.store.Bookings().ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return findOverlaps(active), nil
}

// findOverlaps expects bookings grouped by venue and sorted by start time.
func findOverlaps(bookings []domain.VenueBooking) []BookingOverlap {
	var out []BookingOverlap
	for i := 0; i < len(bookings); i++ {
		for j := i + 1; j < len(bookings) && bookings[j].VenueID == bookings[i].VenueID; j++ {
			if !bookings[j].StartTime.Before(bookings[i].EndTime) {
				// Sorted by start: nothing later can reach back into i.
				break
			}
			if bookings[i].Interval().Overlaps(bookings[j].Interval()) {
				out = append(out, BookingOverlap{VenueID: bookings[i].VenueID, First: bookings[i], Second: bookings[j]})
			}
		}
	}
	return out
}

// SyncBookingStatuses repairs active bookings whose status no longer matches
// their event: rejected or cancelled events lose the booking, approved events
// get it confirmed.
func (jr *JobRunner) SyncBookingStatuses() {
	jr.runWithRecovery("SyncBookingStatuses", func() {
		repaired, err := jr.syncBookingStatuses(context.Background())
		if err != nil {
			logger.Error("Failed to sync booking statuses", "error", err, "repaired", repaired)
			return
		}
		logger.Info("Booking status sync finished", "repaired", repaired)
	})
}

func (jr *JobRunner) syncBookingStatuses(ctx context.Context) (int, error) {
	active, err := jr.store.Bookings().ListActive(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, b := range active {
		fixed, err := jr.syncBooking(ctx, b)
		if err != nil {
			logger.Error("Failed to sync booking", "bookingID", b.ID, "eventID", b.EventID, "error", err)
			continue
		}
		if fixed {
			repaired++
		}
	}
	return repaired, nil
}

func (jr *JobRunner) syncBooking(ctx context.Context, b domain.VenueBooking) (bool, error) {
	fixed := false
	err := jr.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, b.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Booking references a missing event", "bookingID", b.ID, "eventID", b.EventID)
				return nil
			}
			return err
		}

		current, err := tx.Bookings().GetByEventID(ctx, event.ID)
		if err != nil {
			return err
		}
		expected := domain.ExpectedBookingStatus(event.Status)
		if current.Status == expected {
			return nil
		}

		logger.Warn("Booking status out of sync with event",
			"eventID", event.ID, "eventStatus", event.Status,
			"bookingStatus", current.Status, "expected", expected)

		switch expected {
		case domain.BookingStatusCancelled:
			err = jr.bookings.Cancel(ctx, tx, event.ID)
		case domain.BookingStatusConfirmed:
			err = jr.bookings.Confirm(ctx, tx, event.ID)
		default:
			err = fmt.Errorf("booking of event %s is %s while the event is %s", event.ID, current.Status, event.Status)
		}
		if err != nil {
			return err
		}
		fixed = true
		return nil
	})
	return fixed, err
}
