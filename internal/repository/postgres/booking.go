package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository"
)

const bookingColumns = `id, venue_id, event_id, start_time, end_time, status, created_on, updated_on`

type bookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.VenueBooking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedOn, b.UpdatedOn = now, now

	query := `INSERT INTO venue_bookings (` + bookingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.VenueID, b.EventID, b.StartTime, b.EndTime, b.Status, b.CreatedOn, b.UpdatedOn)
	return mapError(err, nil)
}

func (r *bookingRepository) GetByEventID(ctx context.Context, eventID string) (*domain.VenueBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM venue_bookings WHERE event_id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		return nil, mapError(err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.VenueBooking) error {
	b.UpdatedOn = time.Now().UTC()
	query := `UPDATE venue_bookings SET venue_id=$1, start_time=$2, end_time=$3, status=$4, updated_on=$5 WHERE id=$6`
	res, err := r.db.ExecContext(ctx, query, b.VenueID, b.StartTime, b.EndTime, b.Status, b.UpdatedOn, b.ID)
	if err != nil {
		return mapError(err, nil)
	}
	return expectAffected(res, domain.ErrBookingNotFound)
}

func (r *bookingRepository) ListActiveInWindow(ctx context.Context, venueID string, window domain.Interval) ([]domain.VenueBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM venue_bookings
	          WHERE venue_id = $1 AND status = ANY($2) AND start_time < $3 AND end_time > $4
	          ORDER BY start_time`
	return r.list(ctx, query, venueID, pq.Array(activeStatuses()), window.End, window.Start)
}

func (r *bookingRepository) ListByVenue(ctx context.Context, venueID string) ([]domain.VenueBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM venue_bookings WHERE venue_id = $1 ORDER BY start_time`
	return r.list(ctx, query, venueID)
}

func (r *bookingRepository) ListActive(ctx context.Context) ([]domain.VenueBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM venue_bookings WHERE status = ANY($1) ORDER BY venue_id, start_time`
	return r.list(ctx, query, pq.Array(activeStatuses()))
}

func (r *bookingRepository) CountActiveByVenue(ctx context.Context, venueID string) (int, error) {
	var count int
	query := `SELECT count(*) FROM venue_bookings WHERE venue_id = $1 AND status = ANY($2)`
	err := r.db.QueryRowContext(ctx, query, venueID, pq.Array(activeStatuses())).Scan(&count)
	return count, err
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.VenueBooking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.VenueBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func activeStatuses() []string {
	out := make([]string, len(domain.ActiveBookingStatuses))
	for i, s := range domain.ActiveBookingStatuses {
		out[i] = string(s)
	}
	return out
}

func scanBooking(row rowScanner) (*domain.VenueBooking, error) {
	b := &domain.VenueBooking{}
	if err := row.Scan(&b.ID, &b.VenueID, &b.EventID, &b.StartTime, &b.EndTime, &b.Status, &b.CreatedOn, &b.UpdatedOn); err != nil {
		return nil, err
	}
	return b, nil
}
