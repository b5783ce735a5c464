package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"venue-approval-backend/internal/domain"
)

type bookingRepository struct {
	s *Store
}

// Create enforces the same guarantees as the PostgreSQL schema: one booking
// per event and no two active bookings overlapping on a venue.
func (r *bookingRepository) Create(ctx context.Context, b *domain.VenueBooking) error {
	return r.s.write(func(st *state) error {
		for _, existing := range st.bookings {
			if existing.EventID == b.EventID {
				return domain.ErrDuplicateName
			}
		}
		if err := checkExclusion(st, b); err != nil {
			return err
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		b.CreatedOn, b.UpdatedOn = now, now
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepository) GetByEventID(ctx context.Context, eventID string) (*domain.VenueBooking, error) {
	var out *domain.VenueBooking
	err := r.s.read(func(st *state) error {
		for _, b := range st.bookings {
			if b.EventID == eventID {
				c := b
				out = &c
				return nil
			}
		}
		return domain.ErrBookingNotFound
	})
	return out, err
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.VenueBooking) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.bookings[b.ID]; !ok {
			return domain.ErrBookingNotFound
		}
		if err := checkExclusion(st, b); err != nil {
			return err
		}
		b.UpdatedOn = time.Now().UTC()
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepository) ListActiveInWindow(ctx context.Context, venueID string, window domain.Interval) ([]domain.VenueBooking, error) {
	return r.filter(func(b domain.VenueBooking) bool {
		return b.VenueID == venueID && b.Status.IsActive() &&
			b.StartTime.Before(window.End) && b.EndTime.After(window.Start)
	})
}

func (r *bookingRepository) ListByVenue(ctx context.Context, venueID string) ([]domain.VenueBooking, error) {
	return r.filter(func(b domain.VenueBooking) bool { return b.VenueID == venueID })
}

func (r *bookingRepository) ListActive(ctx context.Context) ([]domain.VenueBooking, error) {
	return r.filter(func(b domain.VenueBooking) bool { return b.Status.IsActive() })
}

func (r *bookingRepository) CountActiveByVenue(ctx context.Context, venueID string) (int, error) {
	bookings, err := r.filter(func(b domain.VenueBooking) bool { return b.VenueID == venueID && b.Status.IsActive() })
	return len(bookings), err
}

func (r *bookingRepository) filter(keep func(domain.VenueBooking) bool) ([]domain.VenueBooking, error) {
	var out []domain.VenueBooking
	err := r.s.read(func(st *state) error {
		for _, b := range st.bookings {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].VenueID != out[j].VenueID {
			return out[i].VenueID < out[j].VenueID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, err
}

func checkExclusion(st *state, b *domain.VenueBooking) error {
	if !b.Status.IsActive() {
		return nil
	}
	for id, existing := range st.bookings {
		if id == b.ID || existing.VenueID != b.VenueID || !existing.Status.IsActive() {
			continue
		}
		if b.Interval().Overlaps(existing.Interval()) {
			return &domain.VenueConflictError{}
		}
	}
	return nil
}
