package service

import (
	"context"
	"fmt"
	"time"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

type conflictDetector struct {
	store repository.Store
	// names resolves event names outside any transaction so that reporting a
	// clash never locks the clashing event.
	names repository.EventRepository
	loc   *time.Location
}

// NewConflictDetector answers overlap questions against store. Whole-day
// availability queries are interpreted in loc.
func NewConflictDetector(store repository.Store, loc *time.Location) ConflictDetector {
	return newConflictDetector(store, loc)
}

func newConflictDetector(store repository.Store, loc *time.Location) *conflictDetector {
	if loc == nil {
		loc = time.UTC
	}
	return &conflictDetector{store: store, names: store.Events(), loc: loc}
}

// in returns a detector reading bookings through tx.
func (d *conflictDetector) in(tx repository.Store) *conflictDetector {
	return &conflictDetector{store: tx, names: d.names, loc: d.loc}
}

func (d *conflictDetector) HasConflict(ctx context.Context, venueID string, start, end time.Time, excludeEventID string) (bool, error) {
	window, err := domain.NewInterval(start, end)
	if err != nil {
		return false, err
	}
	overlapping, err := d.overlapping(ctx, venueID, window, excludeEventID)
	if err != nil {
		return false, err
	}
	return len(overlapping) > 0, nil
}

func (d *conflictDetector) ListConflicts(ctx context.Context, venueID string, start, end time.Time, excludeEventID string) ([]domain.Conflict, error) {
	window, err := domain.NewInterval(start, end)
	if err != nil {
		return nil, err
	}
	return d.conflicts(ctx, venueID, window, excludeEventID)
}

func (d *conflictDetector) CheckAvailability(ctx context.Context, venueID string, q AvailabilityQuery) (*Availability, error) {
	var window domain.Interval
	if q.Date != nil {
		window = domain.DayInterval(*q.Date, d.loc)
	} else {
		w, err := domain.NewInterval(q.Start, q.End)
		if err != nil {
			return nil, err
		}
		window = w
	}

	if _, err := d.store.Venues().GetByID(ctx, venueID); err != nil {
		return nil, err
	}

	conflicts, err := d.conflicts(ctx, venueID, window, q.ExcludeEventID)
	if err != nil {
		return nil, err
	}
	return &Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

func (d *conflictDetector) conflicts(ctx context.Context, venueID string, window domain.Interval, excludeEventID string) ([]domain.Conflict, error) {
	overlapping, err := d.overlapping(ctx, venueID, window, excludeEventID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.Conflict, 0, len(overlapping))
	for _, b := range overlapping {
		c := domain.Conflict{
			EventID:   b.EventID,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Status:    b.Status,
		}
		ev, err := d.names.GetByID(ctx, b.EventID)
		if err != nil {
			logger.Warn("Could not resolve name of conflicting event", "eventID", b.EventID, "error", err)
		} else {
			c.EventName = ev.Name
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, nil
}

// overlapping returns the active bookings of the venue that share an instant
// with window, ignoring the booking of excludeEventID.
func (d *conflictDetector) overlapping(ctx context.Context, venueID string, window domain.Interval, excludeEventID string) ([]domain.VenueBooking, error) {
	candidates, err := d.store.Bookings().ListActiveInWindow(ctx, venueID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for venue %s: %w", venueID, err)
	}

	var out []domain.VenueBooking
	for _, b := range candidates {
		if !b.Status.IsActive() {
			continue
		}
		if excludeEventID != "" && b.EventID == excludeEventID {
			continue
		}
		if window.Overlaps(b.Interval()) {
			out = append(out, b)
		}
	}
	return out, nil
}
