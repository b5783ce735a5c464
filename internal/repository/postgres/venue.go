package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository"
)

const venueColumns = `id, name, capacity, features, is_available, created_on, updated_on`

type venueRepository struct {
	db DBTX
}

func NewVenueRepository(db DBTX) repository.VenueRepository {
	return &venueRepository{db: db}
}

func (r *venueRepository) Create(ctx context.Context, v *domain.Venue) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedOn, v.UpdatedOn = now, now

	query := `INSERT INTO venues (` + venueColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.Name, v.Capacity, pq.Array(v.Features), v.IsAvailable, v.CreatedOn, v.UpdatedOn)
	return mapError(err, nil)
}

func (r *venueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`
	v, err := scanVenue(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrVenueNotFound)
	}
	return v, nil
}

func (r *venueRepository) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE name = $1`
	v, err := scanVenue(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, mapError(err, domain.ErrVenueNotFound)
	}
	return v, nil
}

func (r *venueRepository) List(ctx context.Context) ([]domain.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

func (r *venueRepository) Update(ctx context.Context, v *domain.Venue) error {
	v.UpdatedOn = time.Now().UTC()
	query := `UPDATE venues SET name=$1, capacity=$2, features=$3, is_available=$4, updated_on=$5 WHERE id=$6`
	res, err := r.db.ExecContext(ctx, query, v.Name, v.Capacity, pq.Array(v.Features), v.IsAvailable, v.UpdatedOn, v.ID)
	if err != nil {
		return mapError(err, nil)
	}
	return expectAffected(res, domain.ErrVenueNotFound)
}

func (r *venueRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, domain.ErrVenueNotFound)
}

func scanVenue(row rowScanner) (*domain.Venue, error) {
	v := &domain.Venue{}
	if err := row.Scan(&v.ID, &v.Name, &v.Capacity, pq.Array(&v.Features), &v.IsAvailable, &v.CreatedOn, &v.UpdatedOn); err != nil {
		return nil, err
	}
	return v, nil
}
