// Package memory is an in-process implementation of repository.Store used for
// local development and tests. Transactions are serialised: a transaction works
// on a private copy of the state which replaces the shared state on success.
package memory

import (
	"context"
	"errors"
	"sync"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository"
)

type state struct {
	orgs     map[string]domain.Organization
	venues   map[string]domain.Venue
	events   map[string]*domain.Event
	bookings map[string]domain.VenueBooking
}

func newState() *state {
	return &state{
		orgs:     make(map[string]domain.Organization),
		venues:   make(map[string]domain.Venue),
		events:   make(map[string]*domain.Event),
		bookings: make(map[string]domain.VenueBooking),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.orgs {
		c.orgs[k] = copyOrganization(v)
	}
	for k, v := range s.venues {
		c.venues[k] = copyVenue(v)
	}
	for k, v := range s.events {
		c.events[k] = v.Clone()
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	return c
}

type Store struct {
	// writeMu serialises writers, including whole transactions.
	writeMu sync.Mutex
	mu      sync.RWMutex
	st      *state
	inTx    bool
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Organizations() repository.OrganizationRepository { return &organizationRepository{s: s} }
func (s *Store) Venues() repository.VenueRepository               { return &venueRepository{s: s} }
func (s *Store) Events() repository.EventRepository               { return &eventRepository{s: s} }
func (s *Store) Bookings() repository.BookingRepository           { return &bookingRepository{s: s} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	working := s.st.clone()
	s.mu.RUnlock()

	tx := &Store{st: working, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = tx.st
	s.mu.Unlock()
	return nil
}

func (s *Store) LockVenues(ctx context.Context, venueIDs ...string) error {
	if !s.inTx {
		return errors.New("LockVenues must be called inside a transaction")
	}
	return s.read(func(st *state) error {
		for _, id := range venueIDs {
			if _, ok := st.venues[id]; !ok {
				return domain.ErrVenueNotFound
			}
		}
		return nil
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func copyOrganization(o domain.Organization) domain.Organization {
	if o.ParentID != nil {
		pid := *o.ParentID
		o.ParentID = &pid
	}
	return o
}

func copyVenue(v domain.Venue) domain.Venue {
	v.Features = append([]string(nil), v.Features...)
	return v
}
