package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/settings"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/feedback"
	"github.com/mrlokans/librarian/internal/lifecycle"
	"github.com/mrlokans/librarian/internal/notify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	books    *books.Repository
	users    *users.Repository
	accounts *auth.Service
	emitter  *notify.Emitter
	archive  *recordingArchiver
}

type recordingArchiver struct {
	kinds []string
	fail  bool
}

func (a *recordingArchiver) SaveJSON(kind string, data any) (string, error) {
	if a.fail {
		return "", errors.New("disk full")
	}
	a.kinds = append(a.kinds, kind)
	return kind + "/record.json", nil
}

func setupTestServer(t *testing.T, mode config.AuthMode) *testServer {
	t.Helper()
	dir := t.TempDir()

	catalog, err := database.Open(filepath.Join(dir, "library.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(catalog.DB, database.CatalogSchema))
	t.Cleanup(func() { catalog.Close() })

	feedbackDB, err := database.Open(filepath.Join(dir, "submissions.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(feedbackDB.DB, database.FeedbackSchema))
	t.Cleanup(func() { feedbackDB.Close() })

	authCfg := config.Auth{
		Mode:            mode,
		SessionLifetime: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}

	emitter := notify.NewEmitter(catalog.DB, feedbackDB.DB)
	manager := lifecycle.NewManager(catalog.DB, emitter)
	bookRepo := books.NewRepository(catalog.DB)
	userRepo := users.NewRepository(catalog.DB)
	accounts := auth.NewService(userRepo, authCfg)
	archive := &recordingArchiver{}

	routerCfg := RouterConfig{
		AuthConfig:    authCfg,
		AuthService:   accounts,
		Stores:        map[string]Pinger{"catalog": catalog, "feedback": feedbackDB},
		Books:         bookRepo,
		Availability:  manager,
		Users:         userRepo,
		Accounts:      accounts,
		Settings:      settings.NewRepository(catalog.DB),
		Lifecycle:     manager,
		Feedback:      feedback.NewService(feedbackDB.DB, emitter),
		Notifications: emitter,
		Archiver:      archive,
		LibraryName:   config.DefaultLibraryName,
		Version:       "test",
	}

	if mode == config.AuthModeLocal {
		sqlDB, err := catalog.DB.DB()
		require.NoError(t, err)
		sm, err := auth.NewSessionManager(sqlDB, authCfg)
		require.NoError(t, err)
		t.Cleanup(sm.Close)

		routerCfg.SessionManager = sm
		routerCfg.AuthMiddleware = auth.NewMiddleware(accounts, sm, authCfg)
	}

	return &testServer{
		router:   NewRouter(routerCfg),
		books:    bookRepo,
		users:    userRepo,
		accounts: accounts,
		emitter:  emitter,
		archive:  archive,
	}
}

func (s *testServer) request(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) book(t *testing.T, title string, copies int) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title, Author: "Frank Herbert", TotalCopies: copies}
	require.NoError(t, s.books.CreateBook(context.Background(), book))
	return book
}

func (s *testServer) user(t *testing.T, name string, role entities.UserRole) *entities.User {
	t.Helper()
	user, err := s.accounts.CreateUser(context.Background(), name, name+"@example.com", "password12345", role)
	require.NoError(t, err)
	return user
}

// login returns the session cookie for the user.
func (s *testServer) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	w := s.request(t, http.MethodPost, "/api/auth/login", gin.H{"username": username, "password": "password12345"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := http.Response{Header: w.Header()}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "library_session" {
			return cookie
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}
