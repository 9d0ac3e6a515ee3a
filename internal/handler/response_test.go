package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinematch/backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperr.NotFound("user not found"), http.StatusNotFound, "user not found"},
		{"conflict", apperr.Conflict("already friends"), http.StatusConflict, "already friends"},
		{"invalid argument", apperr.InvalidArgument("bad ids"), http.StatusBadRequest, "bad ids"},
		{"invalid credentials", apperr.InvalidCredentials("invalid credentials"), http.StatusBadRequest, "invalid credentials"},
		{"unauthorized", apperr.Unauthorized("token revoked"), http.StatusUnauthorized, "token revoked"},
		{"forbidden", apperr.Forbidden("not the recipient"), http.StatusForbidden, "not the recipient"},
		{"unavailable", apperr.Unavailable("provider down"), http.StatusServiceUnavailable, "provider down"},
		{"wrapped", fmt.Errorf("accept: %w", apperr.Conflict("duplicate")), http.StatusConflict, "duplicate"},
		{"internal", apperr.Wrap(apperr.KindInternal, errors.New("pq: boom"), "failed"), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)

			wantStatus(t, w, tt.status)
			var body ErrorResponse
			decode(t, w, &body)
			if body.Error != tt.message {
				t.Errorf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, defaultPageSize},
		{"page=3&limit=25", 3, 25},
		{"page=0&limit=-1", 1, defaultPageSize},
		{"page=x&limit=y", 1, defaultPageSize},
		{"limit=1000", 1, maxPageSize},
		{"page=99999999999999", maxPage, defaultPageSize},
		{"page=9223372036854775807&limit=100", maxPage, maxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			page, limit := parsePagination(c)
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("parsePagination() = (%d, %d), want (%d, %d)", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}
