package handler

import (
	"net/http"
	"time"

	"cinematch/backend/internal/models"
	"cinematch/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// FriendRequestResponse is a friend request with the other party's public profile.
type FriendRequestResponse struct {
	ID          uint                       `json:"id" example:"7"`
	RequesterID uint                       `json:"requester_id" example:"1"`
	RecipientID uint                       `json:"recipient_id" example:"2"`
	Status      models.FriendRequestStatus `json:"status" example:"PENDING"`
	CreatedAt   time.Time                  `json:"created_at"`
	Requester   *PublicUserResponse        `json:"requester,omitempty"`
	Recipient   *PublicUserResponse        `json:"recipient,omitempty"`
}

// RelationHandler serves friend requests and friendships.
type RelationHandler struct {
	friends *service.FriendService
}

func NewRelationHandler(friends *service.FriendService) *RelationHandler {
	return &RelationHandler{friends: friends}
}

// region --- Friend Requests ---

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user. A second request to the same user is rejected while the first exists.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        recipient_id  path      int  true  "Recipient user ID"
// @Success      201  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID or request to yourself"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Recipient not found"
// @Failure      409  {object}  ErrorResponse "Request exists or users are already friends"
// @Router       /entities/users/friend-requests/{recipient_id} [post]
func (h *RelationHandler) SendRequest(c *gin.Context) {
	recipientID, ok := parseIDParam(c, "recipient_id")
	if !ok {
		return
	}

	request, err := h.friends.SendRequest(c.Request.Context(), callerID(c), recipientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildFriendRequestResponse(*request))
}

// CancelRequest godoc
// @Summary      Cancel a sent friend request
// @Tags         friendship
// @Security     BearerAuth
// @Param        recipient_id  path  int  true  "Recipient user ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/users/friend-requests/{recipient_id} [delete]
func (h *RelationHandler) CancelRequest(c *gin.Context) {
	recipientID, ok := parseIDParam(c, "recipient_id")
	if !ok {
		return
	}

	if err := h.friends.CancelRequest(c.Request.Context(), callerID(c), recipientID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetIncomingRequests godoc
// @Summary      List received friend requests
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   FriendRequestResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /entities/friend-requests [get]
func (h *RelationHandler) GetIncomingRequests(c *gin.Context) {
	requests, err := h.friends.IncomingRequests(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(requests, buildFriendRequestResponse))
}

// GetOutgoingRequests godoc
// @Summary      List sent friend requests
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   FriendRequestResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /entities/friend-requests/sent [get]
func (h *RelationHandler) GetOutgoingRequests(c *gin.Context) {
	requests, err := h.friends.OutgoingRequests(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(requests, buildFriendRequestResponse))
}

// AcceptRequest godoc
// @Summary      Accept a friend request
// @Description  Creates the friendship and removes the request. A missing or non-pending request is reported as not applied.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  path      int  true  "Friend request ID"
// @Success      200  {object}  service.Outcome
// @Failure      403  {object}  ErrorResponse "Caller is not the recipient"
// @Router       /entities/friend-requests/{request_id} [put]
func (h *RelationHandler) AcceptRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "request_id")
	if !ok {
		return
	}

	out, err := h.friends.AcceptRequest(c.Request.Context(), callerID(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DenyRequest godoc
// @Summary      Deny a friend request
// @Tags         friendship
// @Security     BearerAuth
// @Param        request_id  path  int  true  "Friend request ID"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/friend-requests/{request_id} [delete]
func (h *RelationHandler) DenyRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "request_id")
	if !ok {
		return
	}

	if err := h.friends.DenyRequest(c.Request.Context(), callerID(c), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// endregion

// region --- Friends ---

// GetFriends godoc
// @Summary      List friends
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /entities/friends [get]
func (h *RelationHandler) GetFriends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(friends, buildPublicUserResponse))
}

// GetFriend godoc
// @Summary      Get a friend's profile
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        friend_user_id  path      int  true  "Friend user ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/friends/{friend_user_id} [get]
func (h *RelationHandler) GetFriend(c *gin.Context) {
	friendID, ok := parseIDParam(c, "friend_user_id")
	if !ok {
		return
	}

	friend, err := h.friends.FriendProfile(c.Request.Context(), callerID(c), friendID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPublicUserResponse(*friend))
}

// RemoveFriend godoc
// @Summary      Remove a friend
// @Description  Deletes both directions of the friendship. When the friendship is incomplete nothing is deleted and the outcome explains why.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        friend_user_id  path  int  true  "Friend user ID"
// @Success      204
// @Success      200  {object}  service.Outcome "Not applied"
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/friends/{friend_user_id} [delete]
func (h *RelationHandler) RemoveFriend(c *gin.Context) {
	friendID, ok := parseIDParam(c, "friend_user_id")
	if !ok {
		return
	}

	out, err := h.friends.RemoveFriend(c.Request.Context(), callerID(c), friendID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !out.Applied {
		c.JSON(http.StatusOK, out)
		return
	}
	c.Status(http.StatusNoContent)
}

// endregion

func buildFriendRequestResponse(r models.FriendRequest) FriendRequestResponse {
	resp := FriendRequestResponse{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		RecipientID: r.RecipientID,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
	if r.Requester.ID != 0 {
		requester := buildPublicUserResponse(r.Requester)
		resp.Requester = &requester
	}
	if r.Recipient.ID != 0 {
		recipient := buildPublicUserResponse(r.Recipient)
		resp.Recipient = &recipient
	}
	return resp
}
