package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/service"
)

type venueRequest struct {
	Name        string   `json:"name"`
	Capacity    int      `json:"capacity"`
	Features    []string `json:"features"`
	IsAvailable *bool    `json:"isAvailable"`
}

type venuePatchRequest struct {
	Name        *string   `json:"name"`
	Capacity    *int      `json:"capacity"`
	Features    *[]string `json:"features"`
	IsAvailable *bool     `json:"isAvailable"`
}

func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.venues.ListVenues(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, venues)
}

func (h *Handler) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req venueRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	venue := &domain.Venue{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Features:    req.Features,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.venues.CreateVenue(r.Context(), requester(r), venue); err != nil {
		Error(w, r, err)
		return
	}
	Created(w, venue)
}

func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	venue, err := h.venues.GetVenue(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, venue)
}

func (h *Handler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	var req venuePatchRequest
	if err := decode(r, &req); err != nil {
		Error(w, r, err)
		return
	}
	venue, err := h.venues.UpdateVenue(r.Context(), requester(r), mux.Vars(r)["id"], service.VenuePatch{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Features:    req.Features,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, venue)
}

func (h *Handler) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	if err := h.venues.DeleteVenue(r.Context(), requester(r), mux.Vars(r)["id"]); err != nil {
		Error(w, r, err)
		return
	}
	NoContent(w)
}

// CheckAvailability accepts either ?date=YYYY-MM-DD or ?start=&end= in RFC 3339,
// plus an optional excludeEventId.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q, err := parseAvailabilityQuery(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	availability, err := h.venues.CheckAvailability(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, availability)
}

func (h *Handler) ListVenueBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.events.ListVenueBookings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		Error(w, r, err)
		return
	}
	OK(w, bookings)
}

func parseAvailabilityQuery(r *http.Request) (service.AvailabilityQuery, error) {
	values := r.URL.Query()
	q := service.AvailabilityQuery{ExcludeEventID: values.Get("excludeEventId")}

	if date := values.Get("date"); date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return q, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		q.Date = &d
		return q, nil
	}

	start, end := values.Get("start"), values.Get("end")
	if start == "" || end == "" {
		return q, fmt.Errorf("%w: date or start and end", domain.ErrMissingFields)
	}
	var err error
	if q.Start, err = time.Parse(time.RFC3339, start); err != nil {
		return q, fmt.Errorf("%w: start must be RFC 3339", domain.ErrInvalidInput)
	}
	if q.End, err = time.Parse(time.RFC3339, end); err != nil {
		return q, fmt.Errorf("%w: end must be RFC 3339", domain.ErrInvalidInput)
	}
	return q, nil
}
