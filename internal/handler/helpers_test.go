package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"cinematch/backend/internal/cache"
	"cinematch/backend/internal/database"
	"cinematch/backend/internal/hub"
	"cinematch/backend/internal/media"
	"cinematch/backend/internal/models"
	"cinematch/backend/internal/movieapi"
	"cinematch/backend/internal/service"
	"cinematch/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

type stubLookup struct{}

func (stubLookup) Lookup(context.Context, string, int) (*movieapi.OMDbMovie, error) {
	return &movieapi.OMDbMovie{Title: "Heat", Plot: "A heist.", Rated: "R", Poster: "N/A", Response: "True"}, nil
}

type stubSearcher struct{}

func (stubSearcher) SearchTitle(_ context.Context, title string) ([]movieapi.SearchResult, error) {
	return []movieapi.SearchResult{{Title: title, Year: 1995}}, nil
}

func (stubSearcher) Country() string { return "ca" }

type stubPosters struct{}

func (stubPosters) Download(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("no network in tests")
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	users  *service.UserService
	hub    *hub.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := media.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	events := hub.NewHub()
	noCache := cache.New(nil)
	users := service.NewUserService(db, store)
	if err := users.SeedRoles(context.Background()); err != nil {
		t.Fatalf("SeedRoles() error = %v", err)
	}
	authService := service.NewAuthService(users, jwt.NewIssuer("test-secret", time.Hour), noCache)
	friends := service.NewFriendService(db, events)
	favorites := service.NewFavoriteService(db, events)
	movies := service.NewMovieService(db, store, stubLookup{}, stubSearcher{}, stubPosters{}, noCache)

	router := gin.New()
	RegisterRoutes(router, authService, Handlers{
		Users:     NewUserHandler(users, authService),
		Relations: NewRelationHandler(friends),
		Movies:    NewMovieHandler(movies, favorites),
		Images:    NewImageHandler(users, movies),
		Events:    NewEventHandler(events),
	})

	return &testServer{router: router, db: db, users: users, hub: events}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signUp registers username through the API and logs in, returning the token and user id.
func (s *testServer) signUp(t *testing.T, username string) (string, uint) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/actions/register", "", RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     username + "@x.com",
		Password:  "secret-pass",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}
	var user PrivateUserResponse
	decode(t, w, &user)
	return s.login(t, username), user.ID
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/actions/login", "", LoginInput{Username: username, Password: "secret-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", username, w.Code, w.Body.String())
	}
	var tok TokenResponse
	decode(t, w, &tok)
	return tok.Token
}

// signUpAdmin registers username, grants ROLE_ADMIN and returns a token carrying it.
func (s *testServer) signUpAdmin(t *testing.T, username string) (string, uint) {
	t.Helper()
	_, id := s.signUp(t, username)
	if _, err := s.users.AddRole(context.Background(), id, models.RoleAdmin); err != nil {
		t.Fatalf("AddRole() error = %v", err)
	}
	return s.login(t, username), id
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}
