package domain

type NotificationKind string

const (
	NotificationEventSubmitted   NotificationKind = "event_submitted"
	NotificationEventReviewed    NotificationKind = "event_reviewed"
	NotificationEventCancelled   NotificationKind = "event_cancelled"
	NotificationEventResubmitted NotificationKind = "event_resubmitted"
)

// Notification is produced after an event change has been committed.
type Notification struct {
	Kind       NotificationKind
	Event      *Event
	Actor      *Organization
	Decision   Decision
	Comments   string
	Recipients []Organization
}
