package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

type eventService struct {
	store    repository.Store
	resolver HierarchyResolver
	bookings BookingManager
	detector *conflictDetector
	notifier Notifier
	now      func() time.Time
}

func NewEventService(
	store repository.Store,
	resolver HierarchyResolver,
	bookings BookingManager,
	notifier Notifier,
) EventService {
	return &eventService{
		store:    store,
		resolver: resolver,
		bookings: bookings,
		detector: newConflictDetector(store, nil),
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *eventService) CreateEvent(ctx context.Context, creatorID string, in CreateEventInput) (*domain.Event, error) {
	logger.EnterMethod("eventService.CreateEvent", "creatorID", creatorID, "venueID", in.VenueID, "name", in.Name)

	if err := validateCreateInput(creatorID, in); err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}
	window, err := domain.NewInterval(in.StartTime, in.EndTime)
	if err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}

	creator, err := s.store.Organizations().GetByID(ctx, creatorID)
	if err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}
	if creator.IsRoot() {
		err := fmt.Errorf("%w: root organizations cannot create events", domain.ErrNotAuthorized)
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}

	venue, err := s.store.Venues().GetByID(ctx, in.VenueID)
	if err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}
	if err := checkVenueFits(venue, in.Participants); err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}

	chain, err := s.resolver.BuildApprovalChain(ctx, creator)
	if err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}

	event := &domain.Event{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(in.Name),
		CreatorID:           creator.ID,
		VenueID:             venue.ID,
		StartTime:           window.Start,
		EndTime:             window.End,
		BudgetCents:         in.BudgetCents,
		Description:         in.Description,
		Participants:        in.Participants,
		RequestedResources:  append([]string{}, in.RequestedResources...),
		Status:              domain.EventStatusPending,
		ApprovalChain:       chain,
		ModificationHistory: []domain.ModificationRequest{},
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.LockVenues(ctx, venue.ID); err != nil {
			return err
		}
		conflicts, err := s.detector.in(tx).conflicts(ctx, venue.ID, window, "")
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &domain.VenueConflictError{Conflicts: conflicts}
		}
		if err := tx.Events().Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		_, err = s.bookings.CreateTemporary(ctx, tx, event)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("eventService.CreateEvent", err)
		return nil, err
	}

	logger.WithEvent(event.ID).Info("Event created", "creatorID", creator.ID, "venueID", venue.ID, "approvers", len(chain))
	s.notify(ctx, domain.NotificationEventSubmitted, event, creator, "", "", s.chainRecipients(ctx, event))

	logger.ExitMethod("eventService.CreateEvent", "eventID", event.ID)
	return event, nil
}

func (s *eventService) ReviewEvent(ctx context.Context, eventID, reviewerID, decisionStr, comments string) (*domain.Event, error) {
	logger.EnterMethod("eventService.ReviewEvent", "eventID", eventID, "reviewerID", reviewerID, "decision", decisionStr)

	reviewer, err := s.store.Organizations().GetByID(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: unknown reviewer %s", domain.ErrNotAuthorized, reviewerID)
		}
		logger.ExitMethodWithError("eventService.ReviewEvent", err)
		return nil, err
	}

	var (
		result   *domain.Event
		decision domain.Decision
		outcome  reviewOutcome
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if decision, err = domain.ParseDecision(decisionStr); err != nil {
			return err
		}

		chainOrgs, err := s.loadChainOrgs(ctx, tx, event, reviewer.ID)
		if err != nil {
			return err
		}

		outcome, err = applyReview(event, reviewer, decision, comments, chainOrgs, s.now())
		if err != nil {
			return err
		}
		result = event
		if !outcome.changed {
			return nil
		}

		if err := tx.Events().Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		switch outcome.booking {
		case bookingConfirm:
			return s.bookings.Confirm(ctx, tx, event.ID)
		case bookingCancel:
			return s.bookings.Cancel(ctx, tx, event.ID)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("eventService.ReviewEvent", err)
		return nil, err
	}

	for _, orgID := range outcome.vanished {
		logger.Warn("Approval chain organization no longer exists, skipped during reset",
			"eventID", eventID, "organizationID", orgID)
	}

	if outcome.changed {
		logger.WithEvent(eventID).Info("Event reviewed", "reviewerID", reviewer.ID,
			"decision", decision, "status", result.Status)
		s.notify(ctx, domain.NotificationEventReviewed, result, reviewer, decision, comments, s.creatorRecipient(ctx, result))
	}

	logger.ExitMethod("eventService.ReviewEvent", "eventID", eventID, "status", result.Status)
	return result, nil
}

func (s *eventService) CancelEvent(ctx context.Context, eventID, requesterID string) (*domain.Event, error) {
	logger.EnterMethod("eventService.CancelEvent", "eventID", eventID, "requesterID", requesterID)

	var (
		result  *domain.Event
		changed bool
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event.CreatorID != requesterID {
			return fmt.Errorf("%w: only the creator can cancel event %s", domain.ErrNotAuthorized, eventID)
		}
		result = event
		if event.Status == domain.EventStatusCancelled {
			return nil
		}

		event.Status = domain.EventStatusCancelled
		if err := tx.Events().Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		changed = true
		return s.bookings.Cancel(ctx, tx, event.ID)
	})
	if err != nil {
		logger.ExitMethodWithError("eventService.CancelEvent", err)
		return nil, err
	}

	if changed {
		logger.WithEvent(eventID).Info("Event cancelled")
		creator, _ := s.store.Organizations().GetByID(ctx, requesterID)
		s.notify(ctx, domain.NotificationEventCancelled, result, creator, "", "", s.chainRecipients(ctx, result))
	}

	logger.ExitMethod("eventService.CancelEvent", "eventID", eventID)
	return result, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, requesterID string, patch EventPatch, resetStatus bool) (*domain.Event, error) {
	logger.EnterMethod("eventService.UpdateEvent", "eventID", eventID, "requesterID", requesterID, "resetStatus", resetStatus)

	var (
		result      *domain.Event
		resubmitted bool
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.Events().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event.CreatorID != requesterID {
			return fmt.Errorf("%w: only the creator can edit event %s", domain.ErrNotAuthorized, eventID)
		}
		if event.Status != domain.EventStatusPending && event.Status != domain.EventStatusNeedsModification {
			return fmt.Errorf("%w: event %s is %s", domain.ErrInvalidTransition, eventID, event.Status)
		}

		oldVenueID, oldWindow := event.VenueID, event.Interval()
		if err := applyPatch(event, patch); err != nil {
			return err
		}
		window, err := domain.NewInterval(event.StartTime, event.EndTime)
		if err != nil {
			return err
		}

		venue, err := tx.Venues().GetByID(ctx, event.VenueID)
		if err != nil {
			return err
		}
		slotChanged := event.VenueID != oldVenueID || !window.Equal(oldWindow)
		if slotChanged || patch.Participants != nil {
			if err := checkVenueFits(venue, event.Participants); err != nil {
				return err
			}
		}

		if resetStatus && event.Status == domain.EventStatusNeedsModification {
			resubmit(event, requesterID, s.now())
			resubmitted = true
		}

		if slotChanged || resubmitted {
			if err := tx.LockVenues(ctx, oldVenueID, event.VenueID); err != nil {
				return err
			}
			if _, err := s.bookings.Retarget(ctx, tx, event.ID, event.VenueID, window); err != nil {
				return err
			}
		}

		if err := tx.Events().Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		result = event
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("eventService.UpdateEvent", err)
		return nil, err
	}

	logger.WithEvent(eventID).Info("Event updated", "status", result.Status, "resubmitted", resubmitted)
	if resubmitted {
		creator, _ := s.store.Organizations().GetByID(ctx, requesterID)
		s.notify(ctx, domain.NotificationEventResubmitted, result, creator, "", "", s.chainRecipients(ctx, result))
	}

	logger.ExitMethod("eventService.UpdateEvent", "eventID", eventID)
	return result, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.store.Events().GetByID(ctx, eventID)
}

func (s *eventService) ListEventsByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	return s.store.Events().ListByCreator(ctx, creatorID)
}

func (s *eventService) ListEventsForReviewer(ctx context.Context, reviewerID string) ([]domain.Event, error) {
	return s.store.Events().ListAwaitingReview(ctx, reviewerID)
}

func (s *eventService) ListVenueBookings(ctx context.Context, venueID string) ([]domain.VenueBooking, error) {
	if _, err := s.store.Venues().GetByID(ctx, venueID); err != nil {
		return nil, err
	}
	return s.store.Bookings().ListByVenue(ctx, venueID)
}

// loadChainOrgs fetches, in one batch, the organizations of every chain entry
// other than the reviewer's.
func (s *eventService) loadChainOrgs(ctx context.Context, tx repository.Store, event *domain.Event, reviewerID string) (map[string]domain.Organization, error) {
	ids := make([]string, 0, len(event.ApprovalChain))
	for _, step := range event.ApprovalChain {
		if step.OrganizationID != reviewerID {
			ids = append(ids, step.OrganizationID)
		}
	}
	out := make(map[string]domain.Organization, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	orgs, err := tx.Organizations().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval chain organizations: %w", err)
	}
	for _, o := range orgs {
		out[o.ID] = o
	}
	return out, nil
}

func (s *eventService) chainRecipients(ctx context.Context, event *domain.Event) []domain.Organization {
	ids := make([]string, 0, len(event.ApprovalChain))
	for _, step := range event.ApprovalChain {
		ids = append(ids, step.OrganizationID)
	}
	if len(ids) == 0 {
		return nil
	}
	orgs, err := s.store.Organizations().ListByIDs(ctx, ids)
	if err != nil {
		logger.Warn("Failed to resolve notification recipients", "eventID", event.ID, "error", err)
		return nil
	}
	return orgs
}

func (s *eventService) creatorRecipient(ctx context.Context, event *domain.Event) []domain.Organization {
	creator, err := s.store.Organizations().GetByID(ctx, event.CreatorID)
	if err != nil {
		logger.Warn("Failed to resolve event creator for notification", "eventID", event.ID, "error", err)
		return nil
	}
	return []domain.Organization{*creator}
}

func (s *eventService) notify(ctx context.Context, kind domain.NotificationKind, event *domain.Event, actor *domain.Organization, decision domain.Decision, comments string, recipients []domain.Organization) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	n := domain.Notification{
		Kind:       kind,
		Event:      event.Clone(),
		Actor:      actor,
		Decision:   decision,
		Comments:   comments,
		Recipients: recipients,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Error("Failed to deliver notification", "kind", kind, "eventID", event.ID, "error", err)
	}
}

func validateCreateInput(creatorID string, in CreateEventInput) error {
	var missing []string
	if creatorID == "" {
		missing = append(missing, "creator")
	}
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.VenueID == "" {
		missing = append(missing, "venueId")
	}
	if in.StartTime.IsZero() {
		missing = append(missing, "startTime")
	}
	if in.EndTime.IsZero() {
		missing = append(missing, "endTime")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
	}
	return validateAmounts(in.Participants, in.BudgetCents)
}

func validateAmounts(participants int, budgetCents int64) error {
	if participants < 0 {
		return fmt.Errorf("%w: participants must not be negative", domain.ErrInvalidInput)
	}
	if budgetCents < 0 {
		return fmt.Errorf("%w: budget must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func checkVenueFits(venue *domain.Venue, participants int) error {
	if !venue.IsAvailable {
		return fmt.Errorf("%w: %s", domain.ErrVenueUnavailable, venue.Name)
	}
	if venue.Capacity > 0 && participants > venue.Capacity {
		return fmt.Errorf("%w: %d participants, %s holds %d", domain.ErrCapacityExceeded, participants, venue.Name, venue.Capacity)
	}
	return nil
}

func applyPatch(event *domain.Event, patch EventPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: name", domain.ErrMissingFields)
		}
		event.Name = name
	}
	if patch.VenueID != nil {
		if *patch.VenueID == "" {
			return fmt.Errorf("%w: venueId", domain.ErrMissingFields)
		}
		event.VenueID = *patch.VenueID
	}
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	if patch.BudgetCents != nil {
		event.BudgetCents = *patch.BudgetCents
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Participants != nil {
		event.Participants = *patch.Participants
	}
	if patch.RequestedResources != nil {
		event.RequestedResources = append([]string{}, (*patch.RequestedResources)...)
	}
	return validateAmounts(event.Participants, event.BudgetCents)
}
