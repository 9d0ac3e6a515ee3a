package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/database"
	"cinematch/backend/internal/media"
	"cinematch/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

func newTestStore(t *testing.T) *media.LocalStore {
	t.Helper()
	store, err := media.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return store
}

func newTestUserService(t *testing.T, db *gorm.DB) *UserService {
	t.Helper()
	svc := NewUserService(db, newTestStore(t))
	if err := svc.SeedRoles(context.Background()); err != nil {
		t.Fatalf("SeedRoles() error = %v", err)
	}
	return svc
}

func mustRegister(t *testing.T, svc *UserService, username string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Email:     username + "@x.com",
		Password:  "secret-pass",
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return user
}

func mustCreateMovies(t *testing.T, db *gorm.DB, n int) []models.Movie {
	t.Helper()
	movies := make([]models.Movie, n)
	for i := range movies {
		movies[i] = models.Movie{Title: fmt.Sprintf("Movie %d", i+1), Year: 2000 + i}
	}
	if err := db.Create(&movies).Error; err != nil {
		t.Fatalf("create movies: %v", err)
	}
	return movies
}

func movieIDs(movies []models.Movie) []uint {
	ids := make([]uint, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s (%v), want %s", got, err, kind)
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
