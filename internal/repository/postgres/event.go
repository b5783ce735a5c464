package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

const eventColumns = `id, name, creator_id, venue_id, start_time, end_time, budget_cents, description, participants,
	requested_resources, status, approval_chain, modification_history, created_on, updated_on`

type eventRepository struct {
	db        DBTX
	forUpdate bool
}

func NewEventRepository(db DBTX) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	logger.EnterMethod("eventRepository.Create", "name", e.Name, "venueID", e.VenueID)

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedOn, e.UpdatedOn = now, now

	chain, history, err := marshalEventDocs(e)
	if err != nil {
		return err
	}

	query := `INSERT INTO events (` + eventColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.CreatorID, e.VenueID, e.StartTime, e.EndTime, e.BudgetCents, e.Description, e.Participants,
		pq.Array(e.RequestedResources), e.Status, chain, history, e.CreatedOn, e.UpdatedOn,
	)
	if err != nil {
		logger.ExitMethodWithError("eventRepository.Create", err, "name", e.Name)
		return mapError(err, nil)
	}

	logger.ExitMethod("eventRepository.Create", "eventID", e.ID)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrEventNotFound)
	}
	return e, nil
}

// Update rewrites the whole event row, chain and history included, in one statement.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	e.UpdatedOn = time.Now().UTC()
	chain, history, err := marshalEventDocs(e)
	if err != nil {
		return err
	}

	query := `UPDATE events SET name=$1, venue_id=$2, start_time=$3, end_time=$4, budget_cents=$5, description=$6,
	          participants=$7, requested_resources=$8, status=$9, approval_chain=$10, modification_history=$11, updated_on=$12
	          WHERE id=$13`
	res, err := r.db.ExecContext(ctx, query,
		e.Name, e.VenueID, e.StartTime, e.EndTime, e.BudgetCents, e.Description,
		e.Participants, pq.Array(e.RequestedResources), e.Status, chain, history, e.UpdatedOn, e.ID,
	)
	if err != nil {
		return mapError(err, nil)
	}
	return expectAffected(res, domain.ErrEventNotFound)
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE creator_id = $1 ORDER BY start_time DESC`
	return r.list(ctx, query, creatorID)
}

func (r *eventRepository) ListByVenue(ctx context.Context, venueID string) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE venue_id = $1 ORDER BY start_time`
	return r.list(ctx, query, venueID)
}

func (r *eventRepository) ListAwaitingReview(ctx context.Context, orgID string) ([]domain.Event, error) {
	slot, err := json.Marshal([]domain.ApprovalStep{{OrganizationID: orgID, Status: domain.ApprovalStatusPending}})
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + eventColumns + ` FROM events
	          WHERE status IN ('pending', 'needs_modification') AND approval_chain @> $1::jsonb
	          ORDER BY start_time`
	return r.list(ctx, query, string(slot))
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func marshalEventDocs(e *domain.Event) (string, string, error) {
	chain := e.ApprovalChain
	if chain == nil {
		chain = []domain.ApprovalStep{}
	}
	history := e.ModificationHistory
	if history == nil {
		history = []domain.ModificationRequest{}
	}
	chainJSON, err := json.Marshal(chain)
	if err != nil {
		return "", "", fmt.Errorf("marshal approval chain: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return "", "", fmt.Errorf("marshal modification history: %w", err)
	}
	return string(chainJSON), string(historyJSON), nil
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var chain, history []byte
	err := row.Scan(
		&e.ID, &e.Name, &e.CreatorID, &e.VenueID, &e.StartTime, &e.EndTime, &e.BudgetCents, &e.Description, &e.Participants,
		pq.Array(&e.RequestedResources), &e.Status, &chain, &history, &e.CreatedOn, &e.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	if len(chain) > 0 {
		if err := json.Unmarshal(chain, &e.ApprovalChain); err != nil {
			return nil, fmt.Errorf("decode approval chain of event %s: %w", e.ID, err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &e.ModificationHistory); err != nil {
			return nil, fmt.Errorf("decode modification history of event %s: %w", e.ID, err)
		}
	}
	return e, nil
}
