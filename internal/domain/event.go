package domain

import (
	"fmt"
	"time"
)

type EventStatus string

const (
	EventStatusPending           EventStatus = "pending"
	EventStatusApproved          EventStatus = "approved"
	EventStatusRejected          EventStatus = "rejected"
	EventStatusNeedsModification EventStatus = "needs_modification"
	EventStatusCancelled         EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusRejected, EventStatusNeedsModification, EventStatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the event still holds an active booking.
func (s EventStatus) IsOpen() bool {
	return s != EventStatusRejected && s != EventStatusCancelled
}

// ApprovalStatus is the state of a single approval chain entry.
type ApprovalStatus string

const (
	ApprovalStatusPending           ApprovalStatus = "pending"
	ApprovalStatusApproved          ApprovalStatus = "approved"
	ApprovalStatusRejected          ApprovalStatus = "rejected"
	ApprovalStatusNeedsModification ApprovalStatus = "needs_modification"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusNeedsModification:
		return true
	}
	return false
}

// Decision is the outcome a reviewer submits.
type Decision string

const (
	DecisionApproved          Decision = "approved"
	DecisionRejected          Decision = "rejected"
	DecisionNeedsModification Decision = "needs_modification"
)

// ParseDecision accepts exactly the three review outcomes.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionApproved, DecisionRejected, DecisionNeedsModification:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

func (d Decision) ApprovalStatus() ApprovalStatus {
	return ApprovalStatus(d)
}

type ApprovalStep struct {
	OrganizationID string         `json:"organization_id"`
	Status         ApprovalStatus `json:"status"`
	Comments       string         `json:"comments,omitempty"`
	Timestamp      *time.Time     `json:"timestamp,omitempty"`
}

type ModificationRequest struct {
	RequestedBy string    `json:"requested_by"`
	Comments    string    `json:"comments"`
	Timestamp   time.Time `json:"timestamp"`
}

type Event struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	CreatorID           string                `json:"creator_id"`
	VenueID             string                `json:"venue_id"`
	StartTime           time.Time             `json:"start_time"`
	EndTime             time.Time             `json:"end_time"`
	BudgetCents         int64                 `json:"budget_cents"`
	Description         string                `json:"description"`
	Participants        int                   `json:"participants"`
	RequestedResources  []string              `json:"requested_resources"`
	Status              EventStatus           `json:"status"`
	ApprovalChain       []ApprovalStep        `json:"approval_chain"`
	ModificationHistory []ModificationRequest `json:"modification_history"`
	CreatedOn           time.Time             `json:"created_on"`
	UpdatedOn           time.Time             `json:"updated_on"`
}

func (e *Event) Interval() Interval {
	return Interval{Start: e.StartTime, End: e.EndTime}
}

// SlotOf returns the index of the organization's first chain entry, or -1.
func (e *Event) SlotOf(orgID string) int {
	for i, step := range e.ApprovalChain {
		if step.OrganizationID == orgID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so that state transitions can be computed without
// touching the caller's value until they are committed.
func (e *Event) Clone() *Event {
	c := *e
	c.RequestedResources = append([]string(nil), e.RequestedResources...)
	c.ApprovalChain = make([]ApprovalStep, len(e.ApprovalChain))
	for i, step := range e.ApprovalChain {
		c.ApprovalChain[i] = step
		if step.Timestamp != nil {
			ts := *step.Timestamp
			c.ApprovalChain[i].Timestamp = &ts
		}
	}
	c.ModificationHistory = append([]ModificationRequest(nil), e.ModificationHistory...)
	return &c
}
