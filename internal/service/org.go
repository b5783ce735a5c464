package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

type organizationService struct {
	store repository.Store
}

func NewOrganizationService(store repository.Store) OrganizationService {
	return &organizationService{store: store}
}

func (s *organizationService) RegisterOrganization(ctx context.Context, in RegisterOrganizationInput) (*domain.Organization, error) {
	logger.EnterMethod("organizationService.RegisterOrganization", "name", in.Name)

	name := strings.TrimSpace(in.Name)
	if name == "" || in.Secret == "" {
		err := fmt.Errorf("%w: name and secret are required", domain.ErrMissingFields)
		logger.ExitMethodWithError("organizationService.RegisterOrganization", err)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	org := &domain.Organization{
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Organizations().GetByName(ctx, name); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateName, name)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		var parent *domain.Organization
		if in.ParentID != nil && *in.ParentID != "" {
			p, err := tx.Organizations().GetByID(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			parent = p
		}
		org.PlaceUnder(parent)
		return tx.Organizations().Create(ctx, org)
	})
	if err != nil {
		logger.ExitMethodWithError("organizationService.RegisterOrganization", err)
		return nil, err
	}

	logger.Info("Organization registered", "orgID", org.ID, "level", org.Level, "venueManager", org.IsVenueManager)
	logger.ExitMethod("organizationService.RegisterOrganization", "orgID", org.ID)
	return org, nil
}

// ReassignParent moves orgID under newParentID (nil makes it a root) and
// recomputes the level of the whole subtree. Only root organizations may
// restructure the hierarchy.
func (s *organizationService) ReassignParent(ctx context.Context, actorID, orgID string, newParentID *string) (*domain.Organization, error) {
	logger.EnterMethod("organizationService.ReassignParent", "actorID", actorID, "orgID", orgID)

	var result *domain.Organization
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		orgs := tx.Organizations()

		actor, err := orgs.GetByID(ctx, actorID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: unknown organization %s", domain.ErrNotAuthorized, actorID)
			}
			return err
		}
		if !actor.IsRoot() {
			return fmt.Errorf("%w: only root organizations can change the hierarchy", domain.ErrNotAuthorized)
		}

		org, err := orgs.GetByID(ctx, orgID)
		if err != nil {
			return err
		}

		var parent *domain.Organization
		if newParentID != nil && *newParentID != "" {
			if parent, err = orgs.GetByID(ctx, *newParentID); err != nil {
				return err
			}
			if err := ensureNotDescendant(ctx, orgs, parent, org.ID); err != nil {
				return err
			}
		}

		org.PlaceUnder(parent)
		if err := orgs.Update(ctx, org); err != nil {
			return err
		}
		if err := relevelSubtree(ctx, orgs, org); err != nil {
			return err
		}
		result = org
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("organizationService.ReassignParent", err)
		return nil, err
	}

	logger.Info("Organization moved", "orgID", result.ID, "level", result.Level)
	logger.ExitMethod("organizationService.ReassignParent", "orgID", result.ID)
	return result, nil
}

func (s *organizationService) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return s.store.Organizations().GetByID(ctx, id)
}

func (s *organizationService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.store.Organizations().List(ctx)
}

// ensureNotDescendant walks up from candidate and fails if it meets orgID.
func ensureNotDescendant(ctx context.Context, orgs repository.OrganizationRepository, candidate *domain.Organization, orgID string) error {
	seen := map[string]bool{}
	cur := candidate
	for cur != nil {
		if cur.ID == orgID {
			return fmt.Errorf("%w: %s cannot be placed under its own descendant", domain.ErrInvalidHierarchy, orgID)
		}
		if seen[cur.ID] || cur.ParentID == nil {
			return nil
		}
		seen[cur.ID] = true
		next, err := orgs.GetByID(ctx, *cur.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		cur = next
	}
	return nil
}

func relevelSubtree(ctx context.Context, orgs repository.OrganizationRepository, root *domain.Organization) error {
	queue := []*domain.Organization{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children, err := orgs.ListChildren(ctx, parent.ID)
		if err != nil {
			return err
		}
		for i := range children {
			child := &children[i]
			child.PlaceUnder(parent)
			if err := orgs.Update(ctx, child); err != nil {
				return err
			}
			queue = append(queue, child)
		}
	}
	return nil
}
