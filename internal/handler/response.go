package handler

import (
	"net/http"
	"strconv"
	"sync"
	"unicode/utf8"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/auth"
	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse is returned by actions without a body of their own.
type MessageResponse struct {
	Message string `json:"message" example:"OK"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindConflict:           http.StatusConflict,
	apperr.KindInvalidArgument:    http.StatusBadRequest,
	apperr.KindInvalidCredentials: http.StatusBadRequest,
	apperr.KindUnauthorized:       http.StatusUnauthorized,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindUnavailable:        http.StatusServiceUnavailable,
}

// respondError writes err with the status of its kind. Internal details are logged, never returned.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status, ok := statusByKind[apperr.KindOf(err)]
	if !ok {
		logging.Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	if status == http.StatusServiceUnavailable {
		logging.Warn().Err(err).Str("path", c.FullPath()).Msg("upstream unavailable")
	}
	c.JSON(status, ErrorResponse{Error: apperr.Message(err, http.StatusText(status))})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// parseIDParam reads a positive numeric path parameter, answering 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// callerID returns the authenticated user. Routes using it sit behind AuthMiddleware.
func callerID(c *gin.Context) uint {
	id, _ := auth.CurrentUserID(c)
	return id
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request DTOs.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			n := utf8.RuneCountInString(fl.Field().String())
			return n >= models.MinUsernameLen && n <= models.MaxUsernameLen
		})
	})
}
