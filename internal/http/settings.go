package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

// SettingStore provides key/value settings access.
type SettingStore interface {
	GetAllSettings(ctx context.Context) ([]entities.Setting, error)
	GetSetting(ctx context.Context, key string) (*entities.Setting, error)
	SetSetting(ctx context.Context, key, value string) (*entities.Setting, error)
	DeleteSetting(ctx context.Context, key string) error
}

type SettingsController struct {
	store SettingStore
}

func NewSettingsController(store SettingStore) *SettingsController {
	return &SettingsController{store: store}
}

type setSettingRequest struct {
	Value *string `json:"value" binding:"required"`
}

func (sc *SettingsController) GetAllSettings(c *gin.Context) {
	list, err := sc.store.GetAllSettings(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}

func (sc *SettingsController) GetSetting(c *gin.Context) {
	setting, err := sc.store.GetSetting(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (sc *SettingsController) SetSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "value is required")
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if key == entities.SettingKeyMaxCheckouts {
		if n, err := strconv.Atoi(strings.TrimSpace(*req.Value)); err != nil || n < 0 {
			respondBadRequest(c, key+" must be a non-negative integer")
			return
		}
	}

	setting, err := sc.store.SetSetting(c.Request.Context(), key, *req.Value)
	if err != nil {
		respondServiceError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (sc *SettingsController) DeleteSetting(c *gin.Context) {
	if err := sc.store.DeleteSetting(c.Request.Context(), c.Param("key")); err != nil {
		respondServiceError(c, err, "setting")
		return
	}
	c.Status(http.StatusNoContent)
}
