package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/service"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)

		assert.Equal(t, domain.EventStatusPending, e.Status)
		assert.Equal(t, []string{f.dept.ID, f.board.ID}, chainIDs(e.ApprovalChain))
		assert.Equal(t, domain.BookingStatusTemporary, f.booking(t, e.ID).Status)

		require.Len(t, f.notifier.got, 1)
		assert.Equal(t, domain.NotificationEventSubmitted, f.notifier.got[0].Kind)
		assert.Len(t, f.notifier.got[0].Recipients, 2)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)
		start, end := slot(15, 10, 13)

		_, err := f.events.CreateEvent(ctx, f.club.ID, service.CreateEventInput{VenueID: f.hall.ID, StartTime: start, EndTime: end})
		assert.ErrorIs(t, err, domain.ErrMissingFields)

		_, err = f.events.CreateEvent(ctx, f.club.ID, service.CreateEventInput{Name: "x", VenueID: f.hall.ID, StartTime: end, EndTime: start})
		assert.ErrorIs(t, err, domain.ErrInvalidInterval)

		_, err = f.events.CreateEvent(ctx, f.club.ID, service.CreateEventInput{Name: "x", VenueID: "nope", StartTime: start, EndTime: end})
		assert.ErrorIs(t, err, domain.ErrVenueNotFound)

		_, err = f.events.CreateEvent(ctx, f.club.ID, service.CreateEventInput{Name: "x", VenueID: f.hall.ID, StartTime: start, EndTime: end, Participants: 500})
		assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

		_, err = f.events.CreateEvent(ctx, f.club.ID, service.CreateEventInput{Name: "x", VenueID: f.hall.ID, StartTime: start, EndTime: end, BudgetCents: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.events.CreateEvent(ctx, f.root.ID, service.CreateEventInput{Name: "x", VenueID: f.hall.ID, StartTime: start, EndTime: end})
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		events, err := f.store.Events().ListByVenue(ctx, f.hall.ID)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Empty(t, f.notifier.got)
	})

	t.Run("Overlap with a confirmed booking is refused", func(t *testing.T) {
		f := newFixture(t)
		first := f.create(t, f.club, "Spring Fair", 15, 10, 13)
		_, err := f.events.ReviewEvent(ctx, first.ID, f.board.ID, "approved", "")
		require.NoError(t, err)
		require.Equal(t, domain.BookingStatusConfirmed, f.booking(t, first.ID).Status)

		start, end := slot(15, 11, 14)
		_, err = f.events.CreateEvent(ctx, f.dept.ID, service.CreateEventInput{Name: "Recital", VenueID: f.hall.ID, StartTime: start, EndTime: end})
		require.ErrorIs(t, err, domain.ErrVenueConflict)

		var vce *domain.VenueConflictError
		require.True(t, errors.As(err, &vce))
		require.Len(t, vce.Conflicts, 1)
		assert.Equal(t, "Spring Fair", vce.Conflicts[0].EventName)
		wantStart, wantEnd := slot(15, 10, 13)
		assert.True(t, vce.Conflicts[0].StartTime.Equal(wantStart))
		assert.True(t, vce.Conflicts[0].EndTime.Equal(wantEnd))

		events, err := f.store.Events().ListByVenue(ctx, f.hall.ID)
		require.NoError(t, err)
		assert.Len(t, events, 1)
		bookings, err := f.store.Bookings().ListByVenue(ctx, f.hall.ID)
		require.NoError(t, err)
		assert.Len(t, bookings, 1)
	})

	t.Run("Touching intervals do not clash", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, f.club, "Morning", 15, 10, 13)
		f.create(t, f.club, "Afternoon", 15, 13, 16)
	})

	t.Run("Cancelled booking with the exact interval does not clash", func(t *testing.T) {
		f := newFixture(t)
		first := f.create(t, f.club, "Spring Fair", 15, 10, 13)
		_, err := f.events.CancelEvent(ctx, first.ID, f.club.ID)
		require.NoError(t, err)

		f.create(t, f.dept, "Replacement", 15, 10, 13)
	})

	t.Run("Concurrent overlapping requests admit exactly one", func(t *testing.T) {
		f := newFixture(t)
		start, end := slot(20, 9, 12)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				offset := time.Duration(i) * 10 * time.Minute
				_, err := f.events.CreateEvent(ctx, f.club.ID, service.CreateEventInput{
					Name: "Race", VenueID: f.hall.ID, StartTime: start.Add(offset), EndTime: end.Add(offset),
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domain.ErrVenueConflict):
					conflicts++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 7, conflicts)
	})
}

func TestEventService_ReviewEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Needs modification from level 1 resets the approval below", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)

		e, err := f.events.ReviewEvent(ctx, e.ID, f.dept.ID, "approved", "fine by us")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusPending, e.Status)
		assert.Equal(t, domain.ApprovalStatusApproved, e.ApprovalChain[0].Status)

		e, err = f.events.ReviewEvent(ctx, e.ID, f.board.ID, "needs_modification", "shorter please")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusNeedsModification, e.Status)
		assert.Equal(t, domain.ApprovalStatusPending, e.ApprovalChain[0].Status)
		assert.Equal(t, domain.ApprovalStatusNeedsModification, e.ApprovalChain[1].Status)
		assert.Equal(t, domain.BookingStatusTemporary, f.booking(t, e.ID).Status)

		stored, err := f.store.Events().GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.ApprovalChain, stored.ApprovalChain)
		require.Len(t, stored.ModificationHistory, 1)
		assert.Equal(t, f.board.ID, stored.ModificationHistory[0].RequestedBy)
	})

	t.Run("Level-1 approval confirms the booking", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)

		e, err := f.events.ReviewEvent(ctx, e.ID, f.board.ID, "approved", "")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusApproved, e.Status)
		assert.Equal(t, domain.BookingStatusConfirmed, f.booking(t, e.ID).Status)
		assert.Equal(t, domain.NotificationEventReviewed, f.notifier.kinds()[1])
		assert.Equal(t, f.club.ID, f.notifier.got[1].Recipients[0].ID)
	})

	t.Run("Reject is idempotent", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)

		e, err := f.events.ReviewEvent(ctx, e.ID, f.dept.ID, "rejected", "no")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusRejected, e.Status)
		assert.Equal(t, domain.BookingStatusCancelled, f.booking(t, e.ID).Status)

		e, err = f.events.ReviewEvent(ctx, e.ID, f.dept.ID, "rejected", "still no")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusRejected, e.Status)
		assert.Len(t, f.notifier.got, 2, "a no-op review sends nothing")
	})

	t.Run("Override by an unlisted level-1 organization", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)

		e, err := f.events.ReviewEvent(ctx, e.ID, f.council.ID, "approved", "")
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusApproved, e.Status)
		assert.Equal(t, f.council.ID, e.ApprovalChain[len(e.ApprovalChain)-1].OrganizationID)
	})

	t.Run("Refusals leave the event untouched", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)
		other := f.create(t, f.dept, "Other", 16, 10, 13)

		_, err := f.events.ReviewEvent(ctx, e.ID, f.club.ID, "approved", "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		_, err = f.events.ReviewEvent(ctx, other.ID, f.club.ID, "approved", "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		_, err = f.events.ReviewEvent(ctx, e.ID, "ghost", "approved", "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		_, err = f.events.ReviewEvent(ctx, e.ID, f.dept.ID, "maybe", "")
		assert.ErrorIs(t, err, domain.ErrInvalidDecision)

		_, err = f.events.ReviewEvent(ctx, "missing", f.dept.ID, "approved", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		stored, err := f.store.Events().GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.ApprovalChain, stored.ApprovalChain)
		assert.Equal(t, domain.EventStatusPending, stored.Status)
	})
}

func TestEventService_CancelEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, f.club, "Spring Fair", 15, 10, 13)
	_, err := f.events.ReviewEvent(ctx, e.ID, f.board.ID, "approved", "")
	require.NoError(t, err)

	_, err = f.events.CancelEvent(ctx, e.ID, f.dept.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	cancelled, err := f.events.CancelEvent(ctx, e.ID, f.club.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.BookingStatusCancelled, f.booking(t, e.ID).Status)

	start, end := slot(15, 10, 13)
	availability, err := f.venues.CheckAvailability(ctx, f.hall.ID, service.AvailabilityQuery{Start: start, End: end})
	require.NoError(t, err)
	assert.True(t, availability.Available)
	assert.Empty(t, availability.Conflicts)

	again, err := f.events.CancelEvent(ctx, e.ID, f.club.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusCancelled, again.Status)
	assert.Equal(t, domain.NotificationEventCancelled, f.notifier.kinds()[2])
	assert.Len(t, f.notifier.got, 3)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()

	needsModification := func(t *testing.T, f *fixture) *domain.Event {
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)
		e, err := f.events.ReviewEvent(ctx, e.ID, f.board.ID, "needs_modification", "move it")
		require.NoError(t, err)
		return e
	}

	t.Run("Resubmit moves the booking and reopens the chain", func(t *testing.T) {
		f := newFixture(t)
		e := needsModification(t, f)
		start, end := slot(16, 9, 11)

		updated, err := f.events.UpdateEvent(ctx, e.ID, f.club.ID, service.EventPatch{StartTime: &start, EndTime: &end}, true)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusPending, updated.Status)
		for _, step := range updated.ApprovalChain {
			assert.Equal(t, domain.ApprovalStatusPending, step.Status)
		}
		assert.Len(t, updated.ModificationHistory, 2)

		b := f.booking(t, e.ID)
		assert.Equal(t, domain.BookingStatusTemporary, b.Status)
		assert.True(t, b.StartTime.Equal(start))
		assert.True(t, b.EndTime.Equal(end))
		assert.Equal(t, domain.NotificationEventResubmitted, f.notifier.kinds()[len(f.notifier.got)-1])

		oldStart, oldEnd := slot(15, 10, 13)
		availability, err := f.detector.CheckAvailability(ctx, f.hall.ID, service.AvailabilityQuery{Start: oldStart, End: oldEnd})
		require.NoError(t, err)
		assert.True(t, availability.Available, "old slot was released")
	})

	t.Run("Conflicting edit commits nothing", func(t *testing.T) {
		f := newFixture(t)
		e := needsModification(t, f)
		f.create(t, f.dept, "Blocker", 16, 9, 12)
		start, end := slot(16, 10, 11)
		name := "Renamed"

		_, err := f.events.UpdateEvent(ctx, e.ID, f.club.ID, service.EventPatch{Name: &name, StartTime: &start, EndTime: &end}, true)
		var vce *domain.VenueConflictError
		require.True(t, errors.As(err, &vce))
		assert.Equal(t, "Blocker", vce.Conflicts[0].EventName)

		stored, err := f.store.Events().GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spring Fair", stored.Name)
		assert.Equal(t, domain.EventStatusNeedsModification, stored.Status)
		assert.Len(t, stored.ModificationHistory, 1)
		oldStart, _ := slot(15, 10, 13)
		assert.True(t, f.booking(t, e.ID).StartTime.Equal(oldStart))
	})

	t.Run("Own booking is not a conflict", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)
		start, end := slot(15, 11, 14)

		updated, err := f.events.UpdateEvent(ctx, e.ID, f.club.ID, service.EventPatch{StartTime: &start, EndTime: &end}, false)
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusPending, updated.Status)
		assert.True(t, f.booking(t, e.ID).EndTime.Equal(end))
	})

	t.Run("Refusals", func(t *testing.T) {
		f := newFixture(t)
		e := f.create(t, f.club, "Spring Fair", 15, 10, 13)
		name := "x"

		_, err := f.events.UpdateEvent(ctx, e.ID, f.dept.ID, service.EventPatch{Name: &name}, false)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)

		start, end := slot(15, 13, 10)
		_, err = f.events.UpdateEvent(ctx, e.ID, f.club.ID, service.EventPatch{StartTime: &start, EndTime: &end}, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInterval)

		_, err = f.events.ReviewEvent(ctx, e.ID, f.board.ID, "approved", "")
		require.NoError(t, err)
		_, err = f.events.UpdateEvent(ctx, e.ID, f.club.ID, service.EventPatch{Name: &name}, false)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestEventService_Listings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, f.club, "Spring Fair", 15, 10, 13)

	mine, err := f.events.ListEventsByCreator(ctx, f.club.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	queue, err := f.events.ListEventsForReviewer(ctx, f.dept.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, e.ID, queue[0].ID)

	bookings, err := f.events.ListVenueBookings(ctx, f.hall.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = f.events.ListVenueBookings(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
