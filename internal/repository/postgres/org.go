package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

const orgColumns = `id, name, email, password_hash, parent_id, level, is_venue_manager, created_on, updated_on`

type organizationRepository struct {
	db DBTX
}

func NewOrganizationRepository(db DBTX) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, o *domain.Organization) error {
	logger.EnterMethod("organizationRepository.Create", "name", o.Name, "level", o.Level)

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedOn, o.UpdatedOn = now, now

	query := `INSERT INTO organizations (` + orgColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, o.ID, o.Name, o.Email, o.PasswordHash, o.ParentID, o.Level, o.IsVenueManager, o.CreatedOn, o.UpdatedOn)
	if err != nil {
		logger.ExitMethodWithError("organizationRepository.Create", err, "name", o.Name)
		return mapError(err, nil)
	}

	logger.ExitMethod("organizationRepository.Create", "orgID", o.ID)
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrOrganizationNotFound)
	}
	return o, nil
}

func (r *organizationRepository) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE name = $1`
	o, err := scanOrganization(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, mapError(err, domain.ErrOrganizationNotFound)
	}
	return o, nil
}

func (r *organizationRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = ANY($1)`
	return r.list(ctx, query, pq.Array(ids))
}

func (r *organizationRepository) ListByLevel(ctx context.Context, level int) ([]domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE level = $1 ORDER BY name`
	return r.list(ctx, query, level)
}

func (r *organizationRepository) ListChildren(ctx context.Context, parentID string) ([]domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE parent_id = $1 ORDER BY name`
	return r.list(ctx, query, parentID)
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations ORDER BY level, name`
	return r.list(ctx, query)
}

func (r *organizationRepository) Update(ctx context.Context, o *domain.Organization) error {
	o.UpdatedOn = time.Now().UTC()
	query := `UPDATE organizations SET name=$1, email=$2, password_hash=$3, parent_id=$4, level=$5, is_venue_manager=$6, updated_on=$7 WHERE id=$8`
	res, err := r.db.ExecContext(ctx, query, o.Name, o.Email, o.PasswordHash, o.ParentID, o.Level, o.IsVenueManager, o.UpdatedOn, o.ID)
	if err != nil {
		return mapError(err, nil)
	}
	return expectAffected(res, domain.ErrOrganizationNotFound)
}

func (r *organizationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Organization, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *o)
	}
	return orgs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*domain.Organization, error) {
	o := &domain.Organization{}
	var parentID sql.NullString
	err := row.Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &parentID, &o.Level, &o.IsVenueManager, &o.CreatedOn, &o.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		o.ParentID = &parentID.String
	}
	return o, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
