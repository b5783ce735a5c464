package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"venue-approval-backend/internal/security"
	"venue-approval-backend/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the JSON API over the services.
type Handler struct {
	auth   service.AuthService
	orgs   service.OrganizationService
	venues service.VenueService
	events service.EventService
	health Pinger
}

func NewHandler(
	auth service.AuthService,
	orgs service.OrganizationService,
	venues service.VenueService,
	events service.EventService,
	health Pinger,
) *Handler {
	return &Handler{
		auth:   auth,
		orgs:   orgs,
		venues: venues,
		events: events,
		health: health,
	}
}

// NewRouter registers every API route on a new router.
func NewRouter(h *Handler, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tm))

	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	api.HandleFunc("/organizations", h.RegisterOrganization).Methods(http.MethodPost)
	api.HandleFunc("/organizations", h.ListOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}", h.GetOrganization).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/parent", h.ReassignParent).Methods(http.MethodPut)

	api.HandleFunc("/venues", h.ListVenues).Methods(http.MethodGet)
	api.HandleFunc("/venues", h.CreateVenue).Methods(http.MethodPost)
	api.HandleFunc("/venues/{id}", h.GetVenue).Methods(http.MethodGet)
	api.HandleFunc("/venues/{id}", h.UpdateVenue).Methods(http.MethodPut)
	api.HandleFunc("/venues/{id}", h.DeleteVenue).Methods(http.MethodDelete)
	api.HandleFunc("/venues/{id}/availability", h.CheckAvailability).Methods(http.MethodGet)
	api.HandleFunc("/venues/{id}/bookings", h.ListVenueBookings).Methods(http.MethodGet)

	api.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
	api.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", h.GetEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", h.UpdateEvent).Methods(http.MethodPatch)
	api.HandleFunc("/events/{id}/review", h.ReviewEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}/cancel", h.CancelEvent).Methods(http.MethodPost)

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		Fail(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	OK(w, map[string]string{"status": "ok"})
}

// requester returns the authenticated organization id.
func requester(r *http.Request) string {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.OrganizationID
}
