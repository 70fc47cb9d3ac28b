package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database/ratings"
	"github.com/mrlokans/librarian/internal/entities"
)

// FeedbackService handles ratings and contact submissions.
type FeedbackService interface {
	SubmitRating(ctx context.Context, stars int, message, user, email string) (*entities.Rating, error)
	ReplyToRating(ctx context.Context, id uint, reply string) (*entities.Rating, error)
	GetRating(ctx context.Context, id uint) (*entities.Rating, error)
	ListRatings(ctx context.Context, limit, offset int) ([]entities.Rating, error)
	RatingSummary(ctx context.Context) (ratings.Summary, error)
	SubmitContact(ctx context.Context, name, email, message string) (*entities.ContactSubmission, error)
	ListContacts(ctx context.Context, limit, offset int) ([]entities.ContactSubmission, error)
}

// NotificationReader lists notifications and tracks their read state.
type NotificationReader interface {
	List(ctx context.Context, unreadOnly bool) ([]entities.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context) (int64, error)
	UnreadCount(ctx context.Context) (int64, error)
}

// SubmissionArchiver keeps a raw copy of accepted public submissions.
type SubmissionArchiver interface {
	SaveJSON(kind string, data any) (string, error)
}

// SubmissionsController serves the feedback store: ratings, contact
// messages and the notifications derived from them and from the lifecycle.
type SubmissionsController struct {
	feedback      FeedbackService
	notifications NotificationReader
	archiver      SubmissionArchiver // optional
}

func NewSubmissionsController(feedback FeedbackService, notifications NotificationReader, archiver SubmissionArchiver) *SubmissionsController {
	return &SubmissionsController{
		feedback:      feedback,
		notifications: notifications,
		archiver:      archiver,
	}
}

// archive failures are logged and never fail the request.
func (sc *SubmissionsController) archive(kind string, data any) {
	if sc.archiver == nil {
		return
	}
	if _, err := sc.archiver.SaveJSON(kind, data); err != nil {
		log.Printf("[HTTP] Failed to archive %s submission: %v", kind, err)
	}
}

type ratingRequest struct {
	Stars   int    `json:"stars" binding:"required"`
	Message string `json:"message"`
	User    string `json:"user"`
	Email   string `json:"email"`
}

type replyRequest struct {
	Reply string `json:"reply" binding:"required"`
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// --- Ratings ---

func (sc *SubmissionsController) SubmitRating(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "stars is required")
		return
	}
	if req.User == "" {
		req.User = auth.GetUsername(c)
	}

	rating, err := sc.feedback.SubmitRating(c.Request.Context(), req.Stars, req.Message, req.User, req.Email)
	if err != nil {
		respondServiceError(c, err, "rating")
		return
	}
	sc.archive("ratings", req)
	c.JSON(http.StatusCreated, rating)
}

func (sc *SubmissionsController) ListRatings(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	list, err := sc.feedback.ListRatings(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list ratings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": list, "count": len(list)})
}

func (sc *SubmissionsController) GetRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rating, err := sc.feedback.GetRating(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "rating")
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (sc *SubmissionsController) RatingSummary(c *gin.Context) {
	summary, err := sc.feedback.RatingSummary(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "rating summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (sc *SubmissionsController) ReplyToRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "reply is required")
		return
	}

	rating, err := sc.feedback.ReplyToRating(c.Request.Context(), id, req.Reply)
	if err != nil {
		respondServiceError(c, err, "rating")
		return
	}
	c.JSON(http.StatusOK, rating)
}

// --- Contact ---

func (sc *SubmissionsController) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and message are required")
		return
	}

	submission, err := sc.feedback.SubmitContact(c.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		respondServiceError(c, err, "contact submission")
		return
	}
	sc.archive("contact", req)
	c.JSON(http.StatusCreated, submission)
}

func (sc *SubmissionsController) ListContacts(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	list, err := sc.feedback.ListContacts(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": list, "count": len(list)})
}

// --- Notifications ---

func (sc *SubmissionsController) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	list, err := sc.notifications.List(c.Request.Context(), unreadOnly)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "count": len(list)})
}

func (sc *SubmissionsController) UnreadCount(c *gin.Context) {
	count, err := sc.notifications.UnreadCount(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (sc *SubmissionsController) MarkNotificationRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := sc.notifications.MarkRead(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_read": true})
}

func (sc *SubmissionsController) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := sc.notifications.MarkAllRead(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
