package service

import (
	"fmt"
	"time"

	"venue-approval-backend/internal/domain"
)

type bookingAction int

const (
	bookingUnchanged bookingAction = iota
	bookingConfirm
	bookingCancel
)

// reviewOutcome describes what applyReview did to the event.
type reviewOutcome struct {
	changed bool
	booking bookingAction
	// vanished lists chain organizations skipped by the cascade reset because
	// they no longer exist.
	vanished []string
}

// applyReview records reviewer's decision on event in place. chainOrgs must
// hold every organization of the chain that still exists; it is read, never
// queried, so the whole transition is computed before anything is persisted.
func applyReview(event *domain.Event, reviewer *domain.Organization, decision domain.Decision, comments string, chainOrgs map[string]domain.Organization, now time.Time) (reviewOutcome, error) {
	slot := event.SlotOf(reviewer.ID)
	if slot < 0 && !reviewer.CanOverride() {
		return reviewOutcome{}, fmt.Errorf("%w: %s is not an approver of event %s", domain.ErrNotAuthorized, reviewer.Name, event.ID)
	}

	switch event.Status {
	case domain.EventStatusCancelled:
		return reviewOutcome{}, fmt.Errorf("%w: event %s is cancelled", domain.ErrInvalidTransition, event.ID)
	case domain.EventStatusRejected:
		if decision == domain.DecisionRejected {
			return reviewOutcome{}, nil
		}
		return reviewOutcome{}, fmt.Errorf("%w: event %s is rejected", domain.ErrInvalidTransition, event.ID)
	case domain.EventStatusApproved:
		if decision == domain.DecisionApproved {
			return reviewOutcome{}, nil
		}
		return reviewOutcome{}, fmt.Errorf("%w: event %s is already approved", domain.ErrInvalidTransition, event.ID)
	}

	if slot < 0 {
		event.ApprovalChain = append(event.ApprovalChain, domain.ApprovalStep{OrganizationID: reviewer.ID})
		slot = len(event.ApprovalChain) - 1
	}

	ts := now
	event.ApprovalChain[slot].Status = decision.ApprovalStatus()
	event.ApprovalChain[slot].Comments = comments
	event.ApprovalChain[slot].Timestamp = &ts

	out := reviewOutcome{changed: true}
	switch decision {
	case domain.DecisionRejected:
		event.Status = domain.EventStatusRejected
		out.booking = bookingCancel

	case domain.DecisionNeedsModification:
		event.Status = domain.EventStatusNeedsModification
		event.ModificationHistory = append(event.ModificationHistory, domain.ModificationRequest{
			RequestedBy: reviewer.ID,
			Comments:    comments,
			Timestamp:   now,
		})
		out.vanished = cascadeReset(event, slot, reviewer, chainOrgs, now)

	case domain.DecisionApproved:
		if reviewer.Level == domain.FinalApproverLevel || allApproved(event.ApprovalChain) {
			event.Status = domain.EventStatusApproved
			out.booking = bookingConfirm
		} else if event.Status != domain.EventStatusNeedsModification {
			event.Status = domain.EventStatusPending
		}
	}
	return out, nil
}

// cascadeReset sends every other entry whose organization sits below reviewer
// back to pending.
func cascadeReset(event *domain.Event, slot int, reviewer *domain.Organization, chainOrgs map[string]domain.Organization, now time.Time) []string {
	var vanished []string
	note := fmt.Sprintf("Approval reset after %s requested modifications", reviewer.Name)
	for i := range event.ApprovalChain {
		if i == slot {
			continue
		}
		step := &event.ApprovalChain[i]
		org, ok := chainOrgs[step.OrganizationID]
		if !ok {
			vanished = append(vanished, step.OrganizationID)
			continue
		}
		if org.Level <= reviewer.Level {
			continue
		}
		ts := now
		step.Status = domain.ApprovalStatusPending
		step.Comments = note
		step.Timestamp = &ts
	}
	return vanished
}

func allApproved(chain []domain.ApprovalStep) bool {
	if len(chain) == 0 {
		return false
	}
	for _, step := range chain {
		if step.Status != domain.ApprovalStatusApproved {
			return false
		}
	}
	return true
}

// resubmit returns an event in needs_modification to pending on behalf of its
// creator, reopening the slots that asked for changes.
func resubmit(event *domain.Event, creatorID string, now time.Time) {
	event.Status = domain.EventStatusPending
	event.ModificationHistory = append(event.ModificationHistory, domain.ModificationRequest{
		RequestedBy: creatorID,
		Comments:    "Resubmitted after modifications",
		Timestamp:   now,
	})
	for i := range event.ApprovalChain {
		if event.ApprovalChain[i].Status == domain.ApprovalStatusNeedsModification {
			event.ApprovalChain[i].Status = domain.ApprovalStatusPending
		}
	}
}
