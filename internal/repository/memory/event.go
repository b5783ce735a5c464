package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"venue-approval-backend/internal/domain"
)

type eventRepository struct {
	s *Store
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	return r.s.write(func(st *state) error {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		e.CreatedOn, e.UpdatedOn = now, now
		st.events[e.ID] = e.Clone()
		return nil
	})
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var out *domain.Event
	err := r.s.read(func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return domain.ErrEventNotFound
		}
		out = e.Clone()
		return nil
	})
	return out, err
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.events[e.ID]; !ok {
			return domain.ErrEventNotFound
		}
		e.UpdatedOn = time.Now().UTC()
		st.events[e.ID] = e.Clone()
		return nil
	})
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	events, err := r.filter(func(e *domain.Event) bool { return e.CreatorID == creatorID })
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.After(events[j].StartTime) })
	return events, err
}

func (r *eventRepository) ListByVenue(ctx context.Context, venueID string) ([]domain.Event, error) {
	return r.filter(func(e *domain.Event) bool { return e.VenueID == venueID })
}

func (r *eventRepository) ListAwaitingReview(ctx context.Context, orgID string) ([]domain.Event, error) {
	return r.filter(func(e *domain.Event) bool {
		if e.Status != domain.EventStatusPending && e.Status != domain.EventStatusNeedsModification {
			return false
		}
		for _, step := range e.ApprovalChain {
			if step.OrganizationID == orgID && step.Status == domain.ApprovalStatusPending {
				return true
			}
		}
		return false
	})
}

func (r *eventRepository) filter(keep func(*domain.Event) bool) ([]domain.Event, error) {
	var out []domain.Event
	err := r.s.read(func(st *state) error {
		for _, e := range st.events {
			if keep(e) {
				out = append(out, *e.Clone())
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, err
}
