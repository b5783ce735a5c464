package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

//go:embed schema.sql
var schema string

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

type Store struct {
	db   *sql.DB
	q    DBTX
	inTx bool

	orgs     repository.OrganizationRepository
	venues   repository.VenueRepository
	events   repository.EventRepository
	bookings repository.BookingRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, db, false)
}

func newStore(db *sql.DB, q DBTX, inTx bool) *Store {
	return &Store{
		db:       db,
		q:        q,
		inTx:     inTx,
		orgs:     &organizationRepository{db: q},
		venues:   &venueRepository{db: q},
		events:   &eventRepository{db: q, forUpdate: inTx},
		bookings: &bookingRepository{db: q},
	}
}

func (s *Store) Organizations() repository.OrganizationRepository { return s.orgs }
func (s *Store) Venues() repository.VenueRepository               { return s.venues }
func (s *Store) Events() repository.EventRepository               { return s.events }
func (s *Store) Bookings() repository.BookingRepository           { return s.bookings }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	logger.DatabaseCall("InTx", "BEGIN")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newStore(s.db, tx, true)); err != nil {
		logger.DatabaseResult("InTx", 0, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("InTx", 0, err)
		return mapError(fmt.Errorf("commit transaction: %w", err), nil)
	}
	logger.DatabaseResult("InTx", 0, nil)
	return nil
}

// LockVenues takes row locks on the venues in id order so that two callers
// locking overlapping sets cannot deadlock.
func (s *Store) LockVenues(ctx context.Context, venueIDs ...string) error {
	if !s.inTx {
		return errors.New("LockVenues must be called inside a transaction")
	}
	ids := uniqueSorted(venueIDs)
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT id FROM venues WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	logger.DatabaseCall("LockVenues", query, "venue_ids", ids)
	rows, err := s.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	logger.DatabaseResult("LockVenues", int64(locked), nil)
	if locked != len(ids) {
		return domain.ErrVenueNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateName, pqErr.Constraint)
		case pqExclusionViolation:
			return &domain.VenueConflictError{}
		}
	}
	return err
}
