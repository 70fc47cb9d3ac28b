package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/settings"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/feedback"
	"github.com/mrlokans/librarian/internal/ledger"
	"github.com/mrlokans/librarian/internal/lifecycle"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// ListResponse wraps a page of items with the total match count.
type ListResponse struct {
	Data   any   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondConflict sends a 409 Conflict response for a rejected state change.
func respondConflict(c *gin.Context, message, code string) {
	c.JSON(http.StatusConflict, ErrorResponse{Error: message, Code: code})
}

func respondForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("[HTTP] Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// conflictCodes maps domain errors that reject a state change to their
// machine-readable code.
var conflictCodes = []struct {
	err  error
	code string
}{
	{lifecycle.ErrNoCopiesAvailable, "no_copies_available"},
	{ledger.ErrInsufficientCopies, "no_copies_available"},
	{lifecycle.ErrActivityNotOpen, "activity_not_open"},
	{lifecycle.ErrCheckoutLimit, "checkout_limit"},
	{books.ErrBookInUse, "book_in_use"},
	{books.ErrCopiesBelowLoans, "copies_below_loans"},
	{users.ErrUserInUse, "user_in_use"},
	{users.ErrUserExists, "user_exists"},
}

var validationErrors = []error{
	books.ErrInvalidBook,
	users.ErrInvalidUser,
	settings.ErrEmptyKey,
	feedback.ErrInvalidRating,
	feedback.ErrMissingField,
	auth.ErrUsernameInvalid,
	auth.ErrEmailInvalid,
	auth.ErrInvalidRole,
	auth.ErrPasswordTooShort,
	auth.ErrPasswordTooLong,
}

// respondServiceError translates a service or store error into the matching
// HTTP response.
func respondServiceError(c *gin.Context, err error, resource string) {
	if errors.Is(err, database.ErrNotFound) {
		respondNotFound(c, resource)
		return
	}
	for _, conflict := range conflictCodes {
		if errors.Is(err, conflict.err) {
			respondConflict(c, conflict.err.Error(), conflict.code)
			return
		}
	}
	for _, validation := range validationErrors {
		if errors.Is(err, validation) {
			respondBadRequest(c, validation.Error())
			return
		}
	}
	respondInternalError(c, err, resource)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalQueryID reads an optional ID filter. A missing parameter
// yields 0.
func parseOptionalQueryID(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads limit and offset, clamping limit to maxPageSize.
func parsePagination(c *gin.Context) (limit, offset int, ok bool) {
	limit, offset = defaultPageSize, 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondBadRequest(c, "invalid limit")
			return 0, 0, false
		}
		limit = min(v, maxPageSize)
	}
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondBadRequest(c, "invalid offset")
			return 0, 0, false
		}
		offset = v
	}
	return limit, offset, true
}
