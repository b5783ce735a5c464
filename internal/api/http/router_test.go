package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "venue-approval-backend/internal/api/http"
	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/repository/memory"
	"venue-approval-backend/internal/security"
	"venue-approval-backend/internal/service"
)

type envelope struct {
	Success   bool              `json:"success"`
	Data      json.RawMessage   `json:"data"`
	Error     string            `json:"error"`
	Conflicts []domain.Conflict `json:"conflicts"`
}

type api struct {
	t      *testing.T
	server *httptest.Server
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newAPI(t *testing.T, health apihttp.Pinger) *api {
	t.Helper()
	store := memory.NewStore()
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", 0)
	detector := service.NewConflictDetector(store, nil)
	events := service.NewEventService(store, service.NewHierarchyResolver(store.Organizations()), service.NewBookingManager(store), service.NewLogNotifier())
	if health == nil {
		health = store
	}
	h := apihttp.NewHandler(
		service.NewAuthService(store.Organizations(), tokens),
		service.NewOrganizationService(store),
		service.NewVenueService(store, detector),
		events,
		health,
	)
	srv := httptest.NewServer(apihttp.NewRouter(h, tokens))
	t.Cleanup(srv.Close)
	return &api{t: t, server: srv}
}

func (a *api) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func (a *api) register(name string, parentID *string) domain.Organization {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/organizations", "", map[string]interface{}{
		"name": name, "secret": name + "-secret", "parentId": parentID,
	})
	require.Equal(a.t, http.StatusCreated, status, env.Error)
	var org domain.Organization
	require.NoError(a.t, json.Unmarshal(env.Data, &org))
	return org
}

func (a *api) login(name string) string {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"name": name, "secret": name + "-secret"})
	require.Equal(a.t, http.StatusOK, status, env.Error)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out.Token
}

func TestRouter_ApprovalFlow(t *testing.T) {
	a := newAPI(t, nil)
	root := a.register("root", nil)
	board := a.register("board", &root.ID)
	dept := a.register("dept", &board.ID)
	club := a.register("club", &dept.ID)
	assert.Equal(t, 3, club.Level)

	rootToken, boardToken, deptToken, clubToken := a.login("root"), a.login("board"), a.login("dept"), a.login("club")

	status, env := a.do(http.MethodPost, "/api/v1/venues", boardToken, map[string]interface{}{"name": "Hall", "capacity": 80})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = a.do(http.MethodPost, "/api/v1/venues", rootToken, map[string]interface{}{"name": "Hall", "capacity": 80, "features": []string{"stage"}})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var venue domain.Venue
	require.NoError(t, json.Unmarshal(env.Data, &venue))
	assert.True(t, venue.IsAvailable)

	status, env = a.do(http.MethodPost, "/api/v1/events", clubToken, map[string]interface{}{
		"name": "Spring Fair", "venueId": venue.ID,
		"startTime": "2025-03-15T10:00:00Z", "endTime": "2025-03-15T13:00:00Z", "participants": 40,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, domain.EventStatusPending, event.Status)

	status, env = a.do(http.MethodGet, "/api/v1/events?reviewer=me", deptToken, nil)
	require.Equal(t, http.StatusOK, status)
	var queue []domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &queue))
	require.Len(t, queue, 1)

	status, env = a.do(http.MethodPost, "/api/v1/events/"+event.ID+"/review", boardToken, map[string]string{"decision": "approved"})
	require.Equal(t, http.StatusOK, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, domain.EventStatusApproved, event.Status)

	status, env = a.do(http.MethodPost, "/api/v1/events", deptToken, map[string]interface{}{
		"name": "Recital", "venueId": venue.ID,
		"startTime": "2025-03-15T11:00:00Z", "endTime": "2025-03-15T14:00:00Z",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	require.Len(t, env.Conflicts, 1)
	assert.Equal(t, "Spring Fair", env.Conflicts[0].EventName)

	status, env = a.do(http.MethodGet, "/api/v1/venues/"+venue.ID+"/availability?date=2025-03-15", deptToken, nil)
	require.Equal(t, http.StatusOK, status)
	var availability service.Availability
	require.NoError(t, json.Unmarshal(env.Data, &availability))
	assert.False(t, availability.Available)

	status, _ = a.do(http.MethodPost, "/api/v1/events/"+event.ID+"/cancel", deptToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(http.MethodPost, "/api/v1/events/"+event.ID+"/cancel", clubToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(http.MethodGet, "/api/v1/venues/"+venue.ID+"/availability?start=2025-03-15T10:00:00Z&end=2025-03-15T13:00:00Z", deptToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &availability))
	assert.True(t, availability.Available)

	status, env = a.do(http.MethodGet, "/api/v1/venues/"+venue.ID+"/bookings", rootToken, nil)
	require.Equal(t, http.StatusOK, status)
	var bookings []domain.VenueBooking
	require.NoError(t, json.Unmarshal(env.Data, &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, domain.BookingStatusCancelled, bookings[0].Status)

	status, _ = a.do(http.MethodDelete, "/api/v1/venues/"+venue.ID, rootToken, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestRouter_ModificationRoundTrip(t *testing.T) {
	a := newAPI(t, nil)
	root := a.register("root", nil)
	board := a.register("board", &root.ID)
	a.register("dept", &board.ID)
	rootToken, boardToken, deptToken := a.login("root"), a.login("board"), a.login("dept")

	_, env := a.do(http.MethodPost, "/api/v1/venues", rootToken, map[string]interface{}{"name": "Hall", "capacity": 80})
	var venue domain.Venue
	require.NoError(t, json.Unmarshal(env.Data, &venue))

	_, env = a.do(http.MethodPost, "/api/v1/events", deptToken, map[string]interface{}{
		"name": "Talk", "venueId": venue.ID, "startTime": "2025-03-15T10:00:00Z", "endTime": "2025-03-15T11:00:00Z",
	})
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))

	status, env := a.do(http.MethodPost, "/api/v1/events/"+event.ID+"/review", boardToken, map[string]string{"decision": "needs_modification", "comments": "later please"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = a.do(http.MethodPatch, "/api/v1/events/"+event.ID, deptToken, map[string]interface{}{
		"startTime": "2025-03-15T15:00:00Z", "endTime": "2025-03-15T16:00:00Z", "resetStatus": true,
	})
	require.Equal(t, http.StatusOK, status, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, domain.EventStatusPending, event.Status)
	assert.Len(t, event.ModificationHistory, 2)

	status, _ = a.do(http.MethodPost, "/api/v1/events/"+event.ID+"/review", boardToken, map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_Errors(t *testing.T) {
	a := newAPI(t, nil)
	a.register("root", nil)
	token := a.login("root")

	t.Run("Missing token", func(t *testing.T) {
		status, env := a.do(http.MethodGet, "/api/v1/events", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.False(t, env.Success)
	})

	t.Run("Bad token", func(t *testing.T) {
		status, _ := a.do(http.MethodGet, "/api/v1/events", "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		status, _ := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"name": "root", "secret": "nope"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Duplicate organization", func(t *testing.T) {
		status, _ := a.do(http.MethodPost, "/api/v1/organizations", "", map[string]string{"name": "root", "secret": "x"})
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("Unknown event", func(t *testing.T) {
		status, _ := a.do(http.MethodGet, "/api/v1/events/missing", token, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Unknown field", func(t *testing.T) {
		status, env := a.do(http.MethodPost, "/api/v1/events", token, `{"name":"x","colour":"red"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, env.Error, "invalid input")
	})

	t.Run("Bad availability query", func(t *testing.T) {
		status, _ := a.do(http.MethodGet, "/api/v1/venues/v1/availability?date=15-03-2025", token, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		status, _ = a.do(http.MethodGet, "/api/v1/venues/v1/availability", token, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Root cannot create events", func(t *testing.T) {
		status, _ := a.do(http.MethodPost, "/api/v1/events", token, map[string]interface{}{
			"name": "x", "venueId": "v", "startTime": "2025-03-15T10:00:00Z", "endTime": "2025-03-15T11:00:00Z",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestRouter_Health(t *testing.T) {
	status, env := newAPI(t, nil).do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	down := newAPI(t, pingFunc(func(ctx context.Context) error { return errors.New("down") }))
	status, _ = down.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
