package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"venue-approval-backend/internal/domain"
)

type organizationRepository struct {
	s *Store
}

func (r *organizationRepository) Create(ctx context.Context, o *domain.Organization) error {
	return r.s.write(func(st *state) error {
		for _, existing := range st.orgs {
			if existing.Name == o.Name {
				return domain.ErrDuplicateName
			}
		}
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		o.CreatedOn, o.UpdatedOn = now, now
		st.orgs[o.ID] = copyOrganization(*o)
		return nil
	})
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	var out *domain.Organization
	err := r.s.read(func(st *state) error {
		o, ok := st.orgs[id]
		if !ok {
			return domain.ErrOrganizationNotFound
		}
		c := copyOrganization(o)
		out = &c
		return nil
	})
	return out, err
}

func (r *organizationRepository) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	orgs, err := r.filter(func(o domain.Organization) bool { return o.Name == name })
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, domain.ErrOrganizationNotFound
	}
	return &orgs[0], nil
}

func (r *organizationRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Organization, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.filter(func(o domain.Organization) bool { return want[o.ID] })
}

func (r *organizationRepository) ListByLevel(ctx context.Context, level int) ([]domain.Organization, error) {
	return r.filter(func(o domain.Organization) bool { return o.Level == level })
}

func (r *organizationRepository) ListChildren(ctx context.Context, parentID string) ([]domain.Organization, error) {
	return r.filter(func(o domain.Organization) bool { return o.ParentID != nil && *o.ParentID == parentID })
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	return r.filter(func(domain.Organization) bool { return true })
}

func (r *organizationRepository) Update(ctx context.Context, o *domain.Organization) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.orgs[o.ID]; !ok {
			return domain.ErrOrganizationNotFound
		}
		for id, existing := range st.orgs {
			if id != o.ID && existing.Name == o.Name {
				return domain.ErrDuplicateName
			}
		}
		o.UpdatedOn = time.Now().UTC()
		st.orgs[o.ID] = copyOrganization(*o)
		return nil
	})
}

func (r *organizationRepository) filter(keep func(domain.Organization) bool) ([]domain.Organization, error) {
	var out []domain.Organization
	err := r.s.read(func(st *state) error {
		for _, o := range st.orgs {
			if keep(o) {
				out = append(out, copyOrganization(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}
