package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository"
	"venue-approval-backend/internal/service"
)

func TestConflictDetector(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fair := f.create(t, f.club, "Spring Fair", 15, 10, 13)

	t.Run("HasConflict", func(t *testing.T) {
		start, end := slot(15, 12, 14)
		clash, err := f.detector.HasConflict(ctx, f.hall.ID, start, end, "")
		require.NoError(t, err)
		assert.True(t, clash)

		clash, err = f.detector.HasConflict(ctx, f.hall.ID, start, end, fair.ID)
		require.NoError(t, err)
		assert.False(t, clash, "own booking is excluded")

		start, end = slot(15, 13, 14)
		clash, err = f.detector.HasConflict(ctx, f.hall.ID, start, end, "")
		require.NoError(t, err)
		assert.False(t, clash)

		_, err = f.detector.HasConflict(ctx, f.hall.ID, end, start, "")
		assert.ErrorIs(t, err, domain.ErrInvalidInterval)
	})

	t.Run("ListConflicts", func(t *testing.T) {
		start, end := slot(15, 9, 17)
		conflicts, err := f.detector.ListConflicts(ctx, f.hall.ID, start, end, "")
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, fair.ID, conflicts[0].EventID)
		assert.Equal(t, "Spring Fair", conflicts[0].EventName)
		assert.Equal(t, domain.BookingStatusTemporary, conflicts[0].Status)
	})

	t.Run("Availability by date", func(t *testing.T) {
		day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
		a, err := f.detector.CheckAvailability(ctx, f.hall.ID, service.AvailabilityQuery{Date: &day})
		require.NoError(t, err)
		assert.False(t, a.Available)
		assert.Len(t, a.Conflicts, 1)

		next := day.AddDate(0, 0, 1)
		a, err = f.detector.CheckAvailability(ctx, f.hall.ID, service.AvailabilityQuery{Date: &next})
		require.NoError(t, err)
		assert.True(t, a.Available)
		assert.NotNil(t, a.Conflicts)

		a, err = f.detector.CheckAvailability(ctx, f.hall.ID, service.AvailabilityQuery{Date: &day, ExcludeEventID: fair.ID})
		require.NoError(t, err)
		assert.True(t, a.Available)
	})

	t.Run("Availability by date in another zone", func(t *testing.T) {
		loc, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)
		day := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
		a, err := service.NewConflictDetector(f.store, loc).CheckAvailability(ctx, f.hall.ID, service.AvailabilityQuery{Date: &day})
		require.NoError(t, err)
		assert.True(t, a.Available, "10:00-13:00 UTC on the 15th is the evening of the 15th in Tokyo")
	})

	t.Run("Unknown venue", func(t *testing.T) {
		start, end := slot(15, 9, 17)
		_, err := f.detector.CheckAvailability(ctx, "missing", service.AvailabilityQuery{Start: start, End: end})
		assert.ErrorIs(t, err, domain.ErrVenueNotFound)
	})
}

func TestBookingManager(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bookings := service.NewBookingManager(f.store)
	fair := f.create(t, f.club, "Spring Fair", 15, 10, 13)
	other := f.create(t, f.club, "Other", 15, 14, 16)

	inTx := func(fn func(tx repository.Store) error) error {
		return f.store.InTx(ctx, fn)
	}

	t.Run("Confirm is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			require.NoError(t, inTx(func(tx repository.Store) error { return bookings.Confirm(ctx, tx, fair.ID) }))
		}
		assert.Equal(t, domain.BookingStatusConfirmed, f.booking(t, fair.ID).Status)
	})

	t.Run("Retarget into a clash is refused", func(t *testing.T) {
		window := domain.Interval{Start: fair.StartTime, End: fair.EndTime}
		err := inTx(func(tx repository.Store) error {
			_, err := bookings.Retarget(ctx, tx, other.ID, f.hall.ID, window)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrVenueConflict)
		assert.Equal(t, domain.BookingStatusTemporary, f.booking(t, other.ID).Status)
	})

	t.Run("Retarget resets to temporary", func(t *testing.T) {
		start, end := slot(15, 8, 10)
		err := inTx(func(tx repository.Store) error {
			b, err := bookings.Retarget(ctx, tx, fair.ID, f.hall.ID, domain.Interval{Start: start, End: end})
			if err == nil {
				assert.Equal(t, domain.BookingStatusTemporary, b.Status)
			}
			return err
		})
		require.NoError(t, err)
		assert.True(t, f.booking(t, fair.ID).StartTime.Equal(start))
	})

	t.Run("Cancel is idempotent and final", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			require.NoError(t, inTx(func(tx repository.Store) error { return bookings.Cancel(ctx, tx, fair.ID) }))
		}
		assert.Equal(t, domain.BookingStatusCancelled, f.booking(t, fair.ID).Status)

		err := inTx(func(tx repository.Store) error { return bookings.Confirm(ctx, tx, fair.ID) })
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		assert.NoError(t, inTx(func(tx repository.Store) error { return bookings.Cancel(ctx, tx, "no-booking") }))
	})
}
