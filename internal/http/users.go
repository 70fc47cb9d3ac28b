package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/entities"
)

// UserStore provides user record operations.
type UserStore interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	GetAllUsers(ctx context.Context) ([]entities.User, error)
	UpdateUser(ctx context.Context, id uint, update users.Update) (*entities.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

// AccountService creates users that can log in and changes passwords.
type AccountService interface {
	CreateUser(ctx context.Context, username, email, password string, role entities.UserRole) (*entities.User, error)
	SetPassword(ctx context.Context, userID uint, password string) error
}

type UsersController struct {
	store    UserStore
	accounts AccountService
}

func NewUsersController(store UserStore, accounts AccountService) *UsersController {
	return &UsersController{
		store:    store,
		accounts: accounts,
	}
}

type createUserRequest struct {
	Username string            `json:"username" binding:"required"`
	Email    string            `json:"email" binding:"required"`
	Name     string            `json:"name"`
	Password string            `json:"password"`
	Role     entities.UserRole `json:"role"`
}

type updateUserRequest struct {
	Email    *string            `json:"email"`
	Name     *string            `json:"name"`
	Role     *entities.UserRole `json:"role"`
	Password *string            `json:"password"`
}

// canAccess reports whether the caller may read or edit the given user.
func canAccess(c *gin.Context, userID uint) bool {
	return auth.IsAdmin(c) || auth.GetUserID(c) == userID
}

func (controller *UsersController) GetAllUsers(c *gin.Context) {
	list, err := controller.store.GetAllUsers(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

func (controller *UsersController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !canAccess(c, id) {
		respondForbidden(c, "insufficient permissions")
		return
	}

	user, err := controller.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser adds a borrower. Users created without a password cannot log in.
func (controller *UsersController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and email are required")
		return
	}
	if req.Role == "" {
		req.Role = entities.UserRoleMember
	}
	if !req.Role.IsValid() {
		respondBadRequest(c, auth.ErrInvalidRole.Error())
		return
	}

	ctx := c.Request.Context()
	var (
		user *entities.User
		err  error
	)
	if req.Password != "" {
		user, err = controller.accounts.CreateUser(ctx, req.Username, req.Email, req.Password, req.Role)
	} else {
		user = &entities.User{
			Username: strings.TrimSpace(req.Username),
			Email:    strings.TrimSpace(req.Email),
			Role:     req.Role,
		}
		err = controller.store.CreateUser(ctx, user)
	}
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user, err = controller.store.UpdateUser(ctx, user.ID, users.Update{Name: &name})
		if err != nil {
			respondServiceError(c, err, "user")
			return
		}
	}
	c.JSON(http.StatusCreated, user)
}

func (controller *UsersController) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if !canAccess(c, id) {
		respondForbidden(c, "insufficient permissions")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid user update")
		return
	}
	if req.Role != nil {
		if !auth.IsAdmin(c) {
			respondForbidden(c, "only administrators can change roles")
			return
		}
		if !req.Role.IsValid() {
			respondBadRequest(c, auth.ErrInvalidRole.Error())
			return
		}
	}

	ctx := c.Request.Context()
	if req.Password != nil {
		if err := controller.accounts.SetPassword(ctx, id, *req.Password); err != nil {
			respondServiceError(c, err, "user")
			return
		}
	}

	user, err := controller.store.UpdateUser(ctx, id, users.Update{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		respondServiceError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (controller *UsersController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.DeleteUser(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "user")
		return
	}
	c.Status(http.StatusNoContent)
}
