package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository/memory"
	"venue-approval-backend/internal/service"
)

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// fixture is a small hierarchy on the in-memory store:
//
//	root (0) -> board (1) -> dept (2) -> club (3)
//	         -> council (1)
type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	events   service.EventService
	venues   service.VenueService
	detector service.ConflictDetector

	root, board, council, dept, club *domain.Organization
	hall                             *domain.Venue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	mk := func(name string, parent *domain.Organization) *domain.Organization {
		o := &domain.Organization{Name: name, Email: name + "@example.org"}
		o.PlaceUnder(parent)
		require.NoError(t, store.Organizations().Create(ctx, o))
		return o
	}
	f := &fixture{store: store, notifier: &recordingNotifier{}}
	f.root = mk("root", nil)
	f.board = mk("board", f.root)
	f.council = mk("council", f.root)
	f.dept = mk("dept", f.board)
	f.club = mk("club", f.dept)

	f.hall = &domain.Venue{Name: "Main Hall", Capacity: 100, IsAvailable: true}
	require.NoError(t, store.Venues().Create(ctx, f.hall))

	f.detector = service.NewConflictDetector(store, time.UTC)
	f.events = service.NewEventService(store, service.NewHierarchyResolver(store.Organizations()), service.NewBookingManager(store), f.notifier)
	f.venues = service.NewVenueService(store, f.detector)
	return f
}

func slot(day, startHour, endHour int) (time.Time, time.Time) {
	return time.Date(2025, 3, day, startHour, 0, 0, 0, time.UTC), time.Date(2025, 3, day, endHour, 0, 0, 0, time.UTC)
}

func (f *fixture) create(t *testing.T, creator *domain.Organization, name string, day, startHour, endHour int) *domain.Event {
	t.Helper()
	start, end := slot(day, startHour, endHour)
	e, err := f.events.CreateEvent(context.Background(), creator.ID, service.CreateEventInput{
		Name: name, VenueID: f.hall.ID, StartTime: start, EndTime: end, Participants: 20,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) booking(t *testing.T, eventID string) *domain.VenueBooking {
	t.Helper()
	b, err := f.store.Bookings().GetByEventID(context.Background(), eventID)
	require.NoError(t, err)
	return b
}
