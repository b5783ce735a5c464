package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/service"
)

type createEventRequest struct {
	Name               string    `json:"name"`
	VenueID            string    `json:"venueId"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	BudgetCents        int64     `json:"budgetCents"`
	Description        string    `json:"description"`
	Participants       int       `json:"participants"`
	RequestedResources []string  `json:"requestedResources"`
}

type updateEventRequest struct {
	Name               *string    `json:"name"`
	VenueID            *string    `json:"venueId"`
	StartTime          *time.Time `json:"startTime"`
	EndTime            *time.Time `json:"endTime"`
	BudgetCents        *int64     `json:"budgetCents"`
	Description        *string    `json:"description"`
	Participants       *int       `json:"participants"`
	RequestedResources *[]string  `json:"requestedResources"`
	ResetStatus        bool       `json:"resetStatus"`
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	event, err := h.events.CreateEvent(r.Context(), requester(r), service.CreateEventInput{
		Name:               req.Name,
		VenueID:            req.VenueID,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		BudgetCents:        req.BudgetCents,
		Description:        req.Description,
		Participants:       req.Participants,
		RequestedResources: req.RequestedResources,
	})
	if err != nil {
		Error(w, r, err)
		return
	}
	Created(w, event)
}

// ListEvents serves ?creator=me (default) and ?reviewer=me.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		events []domain.Event
		err    error
	)
	if r.URL.Query().Get("reviewer") == "me" {
		events, err = h.events.ListEventsForReviewer(r.Context(), requester(r))
	} else {
		events, err = h.events.ListEventsByCreator(r.Context(), requester(r))
	}
	if err != nil {
		Error(w, r, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	OK(w, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	patch := service.EventPatch{
		Name:               req.Name,
		VenueID:            req.VenueID,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		BudgetCents:        req.BudgetCents,
		Description:        req.Description,
		Participants:       req.Participants,
		RequestedResources: req.RequestedResources,
	}
	event, err := h.events.UpdateEvent(r.Context(), mux.Vars(r)["id"], requester(r), patch, req.ResetStatus)
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, event)
}

func (h *Handler) ReviewEvent(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	event, err := h.events.ReviewEvent(r.Context(), mux.Vars(r)["id"], requester(r), req.Decision, req.Comments)
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, event)
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.CancelEvent(r.Context(), mux.Vars(r)["id"], requester(r))
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, event)
}
