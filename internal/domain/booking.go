package domain

import "time"

type BookingStatus string

const (
	BookingStatusTemporary BookingStatus = "temporary"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ActiveBookingStatuses are the statuses that take part in conflict detection.
var ActiveBookingStatuses = []BookingStatus{BookingStatusTemporary, BookingStatusConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusTemporary, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusTemporary || s == BookingStatusConfirmed
}

type VenueBooking struct {
	ID        string        `json:"id"`
	VenueID   string        `json:"venue_id"`
	EventID   string        `json:"event_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    BookingStatus `json:"status"`
	CreatedOn time.Time     `json:"created_on"`
	UpdatedOn time.Time     `json:"updated_on"`
}

func (b *VenueBooking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// ExpectedBookingStatus is the booking status implied by an event status.
func ExpectedBookingStatus(s EventStatus) BookingStatus {
	switch s {
	case EventStatusApproved:
		return BookingStatusConfirmed
	case EventStatusRejected, EventStatusCancelled:
		return BookingStatusCancelled
	default:
		return BookingStatusTemporary
	}
}
