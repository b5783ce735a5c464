package repository

import (
	"context"

	"venue-approval-backend/internal/domain"
)

// Lookups return a domain.ErrNotFound-wrapping error when the record is missing.

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetByName(ctx context.Context, name string) (*domain.Organization, error)
	// ListByIDs returns the organizations that exist; missing ids are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Organization, error)
	ListByLevel(ctx context.Context, level int) ([]domain.Organization, error)
	ListChildren(ctx context.Context, parentID string) ([]domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}

type VenueRepository interface {
	Create(ctx context.Context, venue *domain.Venue) error
	GetByID(ctx context.Context, id string) (*domain.Venue, error)
	GetByName(ctx context.Context, name string) (*domain.Venue, error)
	List(ctx context.Context) ([]domain.Venue, error)
	Update(ctx context.Context, venue *domain.Venue) error
	Delete(ctx context.Context, id string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	// GetByID locks the event row when called inside a transaction.
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error)
	ListByVenue(ctx context.Context, venueID string) ([]domain.Event, error)
	// ListAwaitingReview returns open events with a pending chain slot for orgID.
	ListAwaitingReview(ctx context.Context, orgID string) ([]domain.Event, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.VenueBooking) error
	GetByEventID(ctx context.Context, eventID string) (*domain.VenueBooking, error)
	Update(ctx context.Context, booking *domain.VenueBooking) error
	// ListActiveInWindow returns temporary and confirmed bookings of the venue
	// that may overlap window.
	ListActiveInWindow(ctx context.Context, venueID string, window domain.Interval) ([]domain.VenueBooking, error)
	ListByVenue(ctx context.Context, venueID string) ([]domain.VenueBooking, error)
	ListActive(ctx context.Context) ([]domain.VenueBooking, error)
	CountActiveByVenue(ctx context.Context, venueID string) (int, error)
}

// Store groups the record stores and the transaction boundary shared by them.
type Store interface {
	Organizations() OrganizationRepository
	Venues() VenueRepository
	Events() EventRepository
	Bookings() BookingRepository

	// InTx runs fn in one transaction. The Store passed to fn is bound to it;
	// nothing fn writes is visible to others unless fn returns nil.
	InTx(ctx context.Context, fn func(tx Store) error) error
	// LockVenues serialises the enclosing transaction against every other
	// transaction that locks any of the same venues. It must be called inside InTx.
	LockVenues(ctx context.Context, venueIDs ...string) error
	Ping(ctx context.Context) error
}
