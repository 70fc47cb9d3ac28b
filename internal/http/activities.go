package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database/activities"
	"github.com/mrlokans/librarian/internal/entities"
)

// Lifecycle drives checkouts, returns and reservations.
type Lifecycle interface {
	Checkout(ctx context.Context, bookID, userID uint) (*entities.Activity, error)
	ReturnBook(ctx context.Context, activityID uint) (*entities.Activity, error)
	Reserve(ctx context.Context, bookID, userID uint) (*entities.Activity, error)
	CloseReservation(ctx context.Context, activityID uint) (*entities.Activity, error)
	Get(ctx context.Context, id uint) (*entities.Activity, error)
	List(ctx context.Context, filter activities.Filter) ([]entities.Activity, int64, error)
}

// ActivitiesController exposes the activity lifecycle. Members only see
// and act on their own activities; administrators act for anyone.
type ActivitiesController struct {
	lifecycle Lifecycle
}

func NewActivitiesController(lifecycle Lifecycle) *ActivitiesController {
	return &ActivitiesController{lifecycle: lifecycle}
}

type activityRequest struct {
	BookID uint `json:"book_id" binding:"required"`
	UserID uint `json:"user_id"`
}

// resolveUser picks the user an activity is recorded for.
func resolveUser(c *gin.Context, requested uint) (uint, bool) {
	caller := auth.GetUserID(c)
	if auth.IsAdmin(c) {
		if requested != 0 {
			return requested, true
		}
		if caller != auth.DefaultUserID {
			return caller, true
		}
		respondBadRequest(c, "user_id is required")
		return 0, false
	}

	if requested != 0 && requested != caller {
		respondForbidden(c, "members can only act for themselves")
		return 0, false
	}
	return caller, true
}

func (controller *ActivitiesController) ListActivities(c *gin.Context) {
	bookID, ok := parseOptionalQueryID(c, "book_id")
	if !ok {
		return
	}
	userID, ok := parseOptionalQueryID(c, "user_id")
	if !ok {
		return
	}
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	filter := activities.Filter{
		BookID: bookID,
		UserID: userID,
		Kind:   entities.ActivityKind(c.Query("kind")),
		Status: entities.ActivityStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		respondBadRequest(c, "invalid kind")
		return
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		respondBadRequest(c, "invalid status")
		return
	}
	if !auth.IsAdmin(c) {
		filter.UserID = auth.GetUserID(c)
	}

	list, total, err := controller.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "list activities")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: list, Total: total, Limit: limit, Offset: offset})
}

func (controller *ActivitiesController) GetActivity(c *gin.Context) {
	activity, ok := controller.ownedActivity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (controller *ActivitiesController) Checkout(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}
	userID, ok := resolveUser(c, req.UserID)
	if !ok {
		return
	}

	activity, err := controller.lifecycle.Checkout(c.Request.Context(), req.BookID, userID)
	if err != nil {
		respondServiceError(c, err, "book or user")
		return
	}
	c.JSON(http.StatusCreated, activity)
}

func (controller *ActivitiesController) Reserve(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}
	userID, ok := resolveUser(c, req.UserID)
	if !ok {
		return
	}

	activity, err := controller.lifecycle.Reserve(c.Request.Context(), req.BookID, userID)
	if err != nil {
		respondServiceError(c, err, "book or user")
		return
	}
	c.JSON(http.StatusCreated, activity)
}

func (controller *ActivitiesController) ReturnBook(c *gin.Context) {
	activity, ok := controller.ownedActivity(c)
	if !ok {
		return
	}

	returned, err := controller.lifecycle.ReturnBook(c.Request.Context(), activity.ID)
	if err != nil {
		respondServiceError(c, err, "activity")
		return
	}
	c.JSON(http.StatusOK, returned)
}

func (controller *ActivitiesController) CloseReservation(c *gin.Context) {
	activity, ok := controller.ownedActivity(c)
	if !ok {
		return
	}

	closed, err := controller.lifecycle.CloseReservation(c.Request.Context(), activity.ID)
	if err != nil {
		respondServiceError(c, err, "activity")
		return
	}
	c.JSON(http.StatusOK, closed)
}

// ownedActivity loads the :id activity and checks the caller may see it.
// Another member's activity is reported as missing.
func (controller *ActivitiesController) ownedActivity(c *gin.Context) (*entities.Activity, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	activity, err := controller.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "activity")
		return nil, false
	}
	if !canAccess(c, activity.UserID) {
		respondNotFound(c, "activity")
		return nil, false
	}
	return activity, true
}
