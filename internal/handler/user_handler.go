package handler

import (
	"net/http"
	"time"

	"cinematch/backend/internal/auth"
	"cinematch/backend/internal/models"
	"cinematch/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	FirstName string `json:"first_name" binding:"required,max=16" example:"Alice"`
	LastName  string `json:"last_name" binding:"required,max=16" example:"Smith"`
	Username  string `json:"username" binding:"required,username" example:"alice01"`
	Email     string `json:"email" binding:"required,email" example:"alice@x.com"`
	Password  string `json:"password" binding:"required,min=8" example:"password123?"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Username string `json:"username" binding:"required" example:"alice01"`
	Password string `json:"password" binding:"required" example:"password123?"`
}

// UpdateProfileInput holds the editable profile fields.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=16" example:"Alicia"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=16" example:"Smith"`
}

// TokenResponse carries an access token.
type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID        uint   `json:"id" example:"1"`
	Username  string `json:"username" example:"alice01"`
	FirstName string `json:"first_name" example:"Alice"`
	LastName  string `json:"last_name" example:"Smith"`
	HasAvatar bool   `json:"has_avatar"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	PublicUserResponse
	Email     string    `json:"email" example:"alice@x.com"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// endregion

// UserHandler serves accounts, sessions and profiles.
type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

func NewUserHandler(users *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: authService}
}

// region --- Auth Handlers ---

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new user with ROLE_USER. Usernames are unique ignoring case.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /actions/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, buildPrivateUserResponse(*user))
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input or credentials"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /actions/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	token, err := h.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the current token until it expires.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /actions/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// AddRole godoc
// @Summary      Grant a role
// @Description  Grants a role to a user. Admin only. Roles travel in the access token,
// @Description  so the grant takes effect from the user's next login.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int     true  "User ID"
// @Param        role  path      string  true  "Role name" Enums(ROLE_USER, ROLE_ADMIN)
// @Success      200   {object}  PrivateUserResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /actions/users/{id}/roles/{role} [post]
func (h *UserHandler) AddRole(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.AddRole(c.Request.Context(), userID, c.Param("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(*user))
}

// endregion

// region --- User Handlers ---

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/user [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(*user))
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /entities/user [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), callerID(c), service.ProfileUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(*user))
}

// SearchUsers godoc
// @Summary      Search for users
// @Description  Lists users other than the caller, optionally filtered by username, with pagination.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /entities/users [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.users.ListExcept(c.Request.Context(), callerID(c), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(
		mapSlice(result.Items, buildPublicUserResponse), result.Total, result.Page, result.Limit))
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user by their ID.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/user/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPublicUserResponse(*user))
}

// endregion

// region --- Helpers ---

func buildPublicUserResponse(user models.User) PublicUserResponse {
	return PublicUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		HasAvatar: user.AvatarID != nil,
	}
}

func buildPrivateUserResponse(user models.User) PrivateUserResponse {
	roles := user.RoleNames()
	return PrivateUserResponse{
		PublicUserResponse: buildPublicUserResponse(user),
		Email:              user.Email,
		Roles:              roles,
		CreatedAt:          user.CreatedAt,
	}
}

// endregion
