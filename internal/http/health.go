package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Pinger is satisfied by *database.Database.
type Pinger interface {
	Ping() error
}

// SettingGetter reads a single setting.
type SettingGetter interface {
	GetSetting(ctx context.Context, key string) (*entities.Setting, error)
}

type HealthController struct {
	stores      map[string]Pinger
	settings    SettingGetter
	libraryName string
	version     string
}

// NewHealthController checks each named store on /api/health. The library
// name setting, when present, overrides libraryName in the welcome message.
func NewHealthController(stores map[string]Pinger, settings SettingGetter, libraryName, version string) *HealthController {
	return &HealthController{
		stores:      stores,
		settings:    settings,
		libraryName: libraryName,
		version:     version,
	}
}

func (h *HealthController) Welcome(c *gin.Context) {
	name := h.libraryName
	if h.settings != nil {
		setting, err := h.settings.GetSetting(c.Request.Context(), entities.SettingKeyLibraryName)
		switch {
		case err == nil && setting.Value != "":
			name = setting.Value
		case err != nil && !errors.Is(err, database.ErrNotFound):
			respondInternalError(c, err, "welcome")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Welcome to the %s!", name)})
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	for name, store := range h.stores {
		if store == nil {
			checks[name] = "not configured"
			continue
		}
		if err := store.Ping(); err != nil {
			checks[name] = "error: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[name] = "ok"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
