package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

type venueService struct {
	store    repository.Store
	detector ConflictDetector
}

func NewVenueService(store repository.Store, detector ConflictDetector) VenueService {
	return &venueService{store: store, detector: detector}
}

func (s *venueService) CreateVenue(ctx context.Context, actorID string, venue *domain.Venue) error {
	if err := s.requireManager(ctx, actorID); err != nil {
		return err
	}
	venue.Name = strings.TrimSpace(venue.Name)
	if err := validateVenue(venue); err != nil {
		return err
	}
	if venue.Features == nil {
		venue.Features = []string{}
	}
	if err := s.store.Venues().Create(ctx, venue); err != nil {
		return err
	}
	logger.Info("Venue created", "venueID", venue.ID, "name", venue.Name, "capacity", venue.Capacity)
	return nil
}

func (s *venueService) UpdateVenue(ctx context.Context, actorID, venueID string, patch VenuePatch) (*domain.Venue, error) {
	if err := s.requireManager(ctx, actorID); err != nil {
		return nil, err
	}

	venue, err := s.store.Venues().GetByID(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		venue.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Capacity != nil {
		venue.Capacity = *patch.Capacity
	}
	if patch.Features != nil {
		venue.Features = append([]string{}, (*patch.Features)...)
	}
	if patch.IsAvailable != nil {
		venue.IsAvailable = *patch.IsAvailable
	}
	if err := validateVenue(venue); err != nil {
		return nil, err
	}

	if err := s.store.Venues().Update(ctx, venue); err != nil {
		return nil, err
	}
	logger.Info("Venue updated", "venueID", venue.ID)
	return venue, nil
}

// DeleteVenue refuses while any temporary or confirmed booking references the venue.
func (s *venueService) DeleteVenue(ctx context.Context, actorID, venueID string) error {
	if err := s.requireManager(ctx, actorID); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.LockVenues(ctx, venueID); err != nil {
			return err
		}
		active, err := tx.Bookings().CountActiveByVenue(ctx, venueID)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d active bookings", domain.ErrVenueInUse, active)
		}
		return tx.Venues().Delete(ctx, venueID)
	})
	if err != nil {
		return err
	}
	logger.Info("Venue deleted", "venueID", venueID)
	return nil
}

func (s *venueService) GetVenue(ctx context.Context, venueID string) (*domain.Venue, error) {
	return s.store.Venues().GetByID(ctx, venueID)
}

func (s *venueService) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	return s.store.Venues().List(ctx)
}

func (s *venueService) CheckAvailability(ctx context.Context, venueID string, q AvailabilityQuery) (*Availability, error) {
	return s.detector.CheckAvailability(ctx, venueID, q)
}

func (s *venueService) requireManager(ctx context.Context, actorID string) error {
	actor, err := s.store.Organizations().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown organization %s", domain.ErrNotAuthorized, actorID)
		}
		return err
	}
	if !actor.IsVenueManager {
		return fmt.Errorf("%w: %s does not manage venues", domain.ErrNotAuthorized, actor.Name)
	}
	return nil
}

func validateVenue(v *domain.Venue) error {
	if v.Name == "" {
		return fmt.Errorf("%w: name", domain.ErrMissingFields)
	}
	if v.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
	}
	return nil
}
