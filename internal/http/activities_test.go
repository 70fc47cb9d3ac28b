package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

type activitiesResponse struct {
	Data  []entities.Activity `json:"data"`
	Total int64               `json:"total"`
}

type notificationsResponse struct {
	Notifications []entities.Notification `json:"notifications"`
	Count         int                     `json:"count"`
}

func TestActivitiesController_CheckoutAndReturn(t *testing.T) {
	s := setupTestServer(t, config.AuthModeNone)
	book := s.book(t, "Dune", 2)
	alice := s.user(t, "alice", entities.UserRoleMember)
	bob := s.user(t, "bob", entities.UserRoleMember)
	carol := s.user(t, "carol", entities.UserRoleMember)

	availability := func() string {
		w := s.request(t, http.MethodGet, fmt.Sprintf("/api/books/%d/availability", book.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	w := s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": alice.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[entities.Activity](t, w)
	assert.Equal(t, entities.ActivityKindCheckout, first.Kind)
	assert.Equal(t, entities.ActivityStatusOpen, first.Status)

	w = s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": bob.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, availability(), `"available_copies":0`)

	w = s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": carol.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_copies_available", decode[ErrorResponse](t, w).Code)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/activities/%d/return", first.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	returned := decode[entities.Activity](t, w)
	assert.Equal(t, entities.ActivityStatusClosed, returned.Status)
	assert.NotNil(t, returned.ClosedAt)
	assert.Contains(t, availability(), `"available_copies":1`)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/activities/%d/return", first.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "activity_not_open", decode[ErrorResponse](t, w).Code)

	w = s.request(t, http.MethodGet, "/api/submissions/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode[notificationsResponse](t, w)
	require.Equal(t, 1, notes.Count)
	assert.Equal(t, entities.NotificationBookReturned, notes.Notifications[0].Type)
}

func TestActivitiesController_Errors(t *testing.T) {
	s := setupTestServer(t, config.AuthModeNone)
	book := s.book(t, "Dune", 1)
	alice := s.user(t, "alice", entities.UserRoleMember)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"checkout unknown book", "/api/activities/checkout", gin.H{"book_id": 999, "user_id": alice.ID}, http.StatusNotFound},
		{"checkout unknown user", "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": 999}, http.StatusNotFound},
		{"checkout without book", "/api/activities/checkout", gin.H{"user_id": alice.ID}, http.StatusBadRequest},
		{"anonymous checkout without user", "/api/activities/checkout", gin.H{"book_id": book.ID}, http.StatusBadRequest},
		{"return unknown activity", "/api/activities/999/return", nil, http.StatusNotFound},
		{"reserve unknown book", "/api/activities/reserve", gin.H{"book_id": 999, "user_id": alice.ID}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.request(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestActivitiesController_ReservationDoesNotConsumeCopies(t *testing.T) {
	s := setupTestServer(t, config.AuthModeNone)
	book := s.book(t, "Dune", 1)
	alice := s.user(t, "alice", entities.UserRoleMember)

	w := s.request(t, http.MethodPost, "/api/activities/reserve", gin.H{"book_id": book.ID, "user_id": alice.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	reservation := decode[entities.Activity](t, w)
	assert.Equal(t, entities.ActivityKindReservation, reservation.Kind)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/books/%d/availability", book.ID), nil)
	assert.Contains(t, w.Body.String(), `"available_copies":1`)

	// A reservation cannot be returned, only closed
	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/activities/%d/return", reservation.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/activities/%d/close", reservation.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.ActivityStatusClosed, decode[entities.Activity](t, w).Status)
}

func TestActivitiesController_ListActivities(t *testing.T) {
	s := setupTestServer(t, config.AuthModeNone)
	book := s.book(t, "Dune", 3)
	alice := s.user(t, "alice", entities.UserRoleMember)
	bob := s.user(t, "bob", entities.UserRoleMember)

	for _, id := range []uint{alice.ID, alice.ID, bob.ID} {
		w := s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": id})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := s.request(t, http.MethodPost, "/api/activities/reserve", gin.H{"book_id": book.ID, "user_id": bob.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.request(t, http.MethodGet, "/api/activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), decode[activitiesResponse](t, w).Total)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/activities?user_id=%d", alice.ID), nil)
	assert.Equal(t, int64(2), decode[activitiesResponse](t, w).Total)

	w = s.request(t, http.MethodGet, "/api/activities?kind=reservation", nil)
	assert.Equal(t, int64(1), decode[activitiesResponse](t, w).Total)

	w = s.request(t, http.MethodGet, "/api/activities?kind=checkout&limit=1", nil)
	resp := decode[activitiesResponse](t, w)
	assert.Equal(t, int64(3), resp.Total)
	assert.Len(t, resp.Data, 1)

	w = s.request(t, http.MethodGet, "/api/activities?kind=borrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.request(t, http.MethodGet, "/api/activities?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivitiesController_CheckoutLimit(t *testing.T) {
	s := setupTestServer(t, config.AuthModeNone)
	book := s.book(t, "Dune", 3)
	alice := s.user(t, "alice", entities.UserRoleMember)

	w := s.request(t, http.MethodPut, "/api/settings/"+entities.SettingKeyMaxCheckouts, gin.H{"value": "1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": alice.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": alice.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "checkout_limit", decode[ErrorResponse](t, w).Code)
}

func TestActivitiesController_MembersActForThemselves(t *testing.T) {
	s := setupTestServer(t, config.AuthModeLocal)
	book := s.book(t, "Dune", 2)
	alice := s.user(t, "alice", entities.UserRoleMember)
	s.user(t, "bob", entities.UserRoleMember)
	aliceCookie := s.login(t, "alice")
	bobCookie := s.login(t, "bob")

	w := s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// user_id defaults to the caller
	w = s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID}, aliceCookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	checkout := decode[entities.Activity](t, w)
	assert.Equal(t, alice.ID, checkout.UserID)

	w = s.request(t, http.MethodPost, "/api/activities/checkout", gin.H{"book_id": book.ID, "user_id": alice.ID}, bobCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/activities/%d", checkout.ID), nil, bobCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/activities/%d/return", checkout.ID), nil, bobCookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Listing is scoped to the caller whatever the filter says
	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/activities?user_id=%d", alice.ID), nil, bobCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[activitiesResponse](t, w).Total)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/activities/%d/return", checkout.ID), nil, aliceCookie)
	assert.Equal(t, http.StatusOK, w.Code)
}
