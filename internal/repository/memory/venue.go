package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"venue-approval-backend/internal/domain"
)

type venueRepository struct {
	s *Store
}

func (r *venueRepository) Create(ctx context.Context, v *domain.Venue) error {
	return r.s.write(func(st *state) error {
		for _, existing := range st.venues {
			if existing.Name == v.Name {
				return domain.ErrDuplicateName
			}
		}
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		v.CreatedOn, v.UpdatedOn = now, now
		st.venues[v.ID] = copyVenue(*v)
		return nil
	})
}

func (r *venueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	var out *domain.Venue
	err := r.s.read(func(st *state) error {
		v, ok := st.venues[id]
		if !ok {
			return domain.ErrVenueNotFound
		}
		c := copyVenue(v)
		out = &c
		return nil
	})
	return out, err
}

func (r *venueRepository) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	var out *domain.Venue
	err := r.s.read(func(st *state) error {
		for _, v := range st.venues {
			if v.Name == name {
				c := copyVenue(v)
				out = &c
				return nil
			}
		}
		return domain.ErrVenueNotFound
	})
	return out, err
}

func (r *venueRepository) List(ctx context.Context) ([]domain.Venue, error) {
	var out []domain.Venue
	err := r.s.read(func(st *state) error {
		for _, v := range st.venues {
			out = append(out, copyVenue(v))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *venueRepository) Update(ctx context.Context, v *domain.Venue) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.venues[v.ID]; !ok {
			return domain.ErrVenueNotFound
		}
		for id, existing := range st.venues {
			if id != v.ID && existing.Name == v.Name {
				return domain.ErrDuplicateName
			}
		}
		v.UpdatedOn = time.Now().UTC()
		st.venues[v.ID] = copyVenue(*v)
		return nil
	})
}

func (r *venueRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.venues[id]; !ok {
			return domain.ErrVenueNotFound
		}
		delete(st.venues, id)
		return nil
	})
}
