package service

import (
	"context"
	"time"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository"
)

// HierarchyResolver builds approval chains from the organization tree.
type HierarchyResolver interface {
	BuildApprovalChain(ctx context.Context, org *domain.Organization) ([]domain.ApprovalStep, error)
}

type ConflictDetector interface {
	HasConflict(ctx context.Context, venueID string, start, end time.Time, excludeEventID string) (bool, error)
	ListConflicts(ctx context.Context, venueID string, start, end time.Time, excludeEventID string) ([]domain.Conflict, error)
	CheckAvailability(ctx context.Context, venueID string, q AvailabilityQuery) (*Availability, error)
}

// BookingManager keeps an event's venue booking in step with the event. Every
// method works on the transaction-bound store it is given.
type BookingManager interface {
	CreateTemporary(ctx context.Context, tx repository.Store, event *domain.Event) (*domain.VenueBooking, error)
	Confirm(ctx context.Context, tx repository.Store, eventID string) error
	Cancel(ctx context.Context, tx repository.Store, eventID string) error
	Retarget(ctx context.Context, tx repository.Store, eventID, venueID string, window domain.Interval) (*domain.VenueBooking, error)
}

type EventService interface {
	CreateEvent(ctx context.Context, creatorID string, in CreateEventInput) (*domain.Event, error)
	ReviewEvent(ctx context.Context, eventID, reviewerID, decision, comments string) (*domain.Event, error)
	CancelEvent(ctx context.Context, eventID, requesterID string) (*domain.Event, error)
	UpdateEvent(ctx context.Context, eventID, requesterID string, patch EventPatch, resetStatus bool) (*domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)
	ListEventsByCreator(ctx context.Context, creatorID string) ([]domain.Event, error)
	ListEventsForReviewer(ctx context.Context, reviewerID string) ([]domain.Event, error)
	ListVenueBookings(ctx context.Context, venueID string) ([]domain.VenueBooking, error)
}

type OrganizationService interface {
	RegisterOrganization(ctx context.Context, in RegisterOrganizationInput) (*domain.Organization, error)
	ReassignParent(ctx context.Context, actorID, orgID string, newParentID *string) (*domain.Organization, error)
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
}

type VenueService interface {
	CreateVenue(ctx context.Context, actorID string, venue *domain.Venue) error
	UpdateVenue(ctx context.Context, actorID, venueID string, patch VenuePatch) (*domain.Venue, error)
	DeleteVenue(ctx context.Context, actorID, venueID string) error
	GetVenue(ctx context.Context, venueID string) (*domain.Venue, error)
	ListVenues(ctx context.Context) ([]domain.Venue, error)
	CheckAvailability(ctx context.Context, venueID string, q AvailabilityQuery) (*Availability, error)
}

type AuthService interface {
	Login(ctx context.Context, name, secret string) (string, *domain.Organization, error)
}

// Notifier delivers notifications about committed event changes.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type CreateEventInput struct {
	Name               string
	VenueID            string
	StartTime          time.Time
	EndTime            time.Time
	BudgetCents        int64
	Description        string
	Participants       int
	RequestedResources []string
}

// EventPatch holds the fields a creator may change; nil means unchanged.
type EventPatch struct {
	Name               *string
	VenueID            *string
	StartTime          *time.Time
	EndTime            *time.Time
	BudgetCents        *int64
	Description        *string
	Participants       *int
	RequestedResources *[]string
}

type RegisterOrganizationInput struct {
	Name     string
	Email    string
	Secret   string
	ParentID *string
}

type VenuePatch struct {
	Name        *string
	Capacity    *int
	Features    *[]string
	IsAvailable *bool
}

// AvailabilityQuery selects either a whole calendar day (Date) or an explicit
// [Start, End) window.
type AvailabilityQuery struct {
	Date           *time.Time
	Start          time.Time
	End            time.Time
	ExcludeEventID string
}

type Availability struct {
	Available bool              `json:"available"`
	Conflicts []domain.Conflict `json:"conflicts"`
}
