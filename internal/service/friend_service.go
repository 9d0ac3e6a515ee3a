package service

import (
	"context"
	"errors"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/hub"
	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/models"

	"gorm.io/gorm"
)

// FriendService manages friend requests and friendships.
type FriendService struct {
	db  *gorm.DB
	hub *hub.Hub
}

// NewFriendService creates a FriendService. h may be nil.
func NewFriendService(db *gorm.DB, h *hub.Hub) *FriendService {
	return &FriendService{db: db, hub: h}
}

// region --- Friend Requests ---

// SendRequest creates a PENDING request from requesterID to recipientID.
// A second request for the same ordered pair is rejected by the pair's unique index.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, recipientID uint) (*models.FriendRequest, error) {
	if requesterID == recipientID {
		return nil, apperr.InvalidArgument("cannot send a friend request to yourself")
	}

	db := s.db.WithContext(ctx)

	var requester, recipient models.User
	if err := db.First(&requester, requesterID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	if err := db.First(&recipient, recipientID).Error; err != nil {
		return nil, notFoundOr(err, "recipient")
	}

	var friends int64
	if err := db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_user_id = ?", requesterID, recipientID).
		Count(&friends).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check friendship")
	}
	if friends > 0 {
		return nil, apperr.Conflict("users are already friends")
	}

	var reverse int64
	if err := db.Model(&models.FriendRequest{}).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", recipientID, requesterID, models.RequestPending).
		Count(&reverse).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check pending requests")
	}
	if reverse > 0 {
		return nil, apperr.Conflict("this user has already sent you a friend request")
	}

	request := models.FriendRequest{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.RequestPending,
	}
	if err := db.Create(&request).Error; err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("friend request already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create friend request")
	}
	request.Requester = requester
	request.Recipient = recipient

	logging.Info().Uint("requester_id", requesterID).Uint("recipient_id", recipientID).
		Uint("request_id", request.ID).Msg("friend request sent")
	s.hub.Publish(recipientID, hub.Event{
		Type:    hub.FriendRequestReceived,
		Payload: map[string]interface{}{"request_id": request.ID, "requester_id": requesterID, "username": requester.Username},
	})

	return &request, nil
}

// CancelRequest deletes the request the caller sent to recipientID.
func (s *FriendService) CancelRequest(ctx context.Context, callerID, recipientID uint) error {
	result := s.db.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ?", callerID, recipientID).
		Delete(&models.FriendRequest{})
	if result.Error != nil {
		return apperr.Wrap(apperr.KindInternal, result.Error, "failed to cancel friend request")
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("friend request not found")
	}
	return nil
}

// AcceptRequest turns a pending request into a pair of friendship rows and deletes the request.
// An absent or non-pending request is a no-op. Only the recipient may accept.
func (s *FriendService) AcceptRequest(ctx context.Context, callerID, requestID uint) (out Outcome, err error) {
	defer func() { recordOutcome("accept_request", out, err) }()

	var request models.FriendRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out = noOp("friend request not found")
				return nil
			}
			return err
		}
		if request.RecipientID != callerID {
			return apperr.Forbidden("only the recipient can accept a friend request")
		}
		if request.Status != models.RequestPending {
			out = noOp("friend request is not pending")
			return nil
		}

		// The status guard keeps a concurrent deny from being undone.
		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestPending).
			Update("status", models.RequestAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out = noOp("friend request is not pending")
			return nil
		}
		request.Status = models.RequestAccepted

		friendships := []models.Friendship{
			{UserID: request.RequesterID, FriendUserID: request.RecipientID, Status: models.FriendshipAccepted},
			{UserID: request.RecipientID, FriendUserID: request.RequesterID, Status: models.FriendshipAccepted},
		}
		if err := tx.Create(&friendships).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("users are already friends")
			}
			return err
		}

		if err := tx.Delete(&request).Error; err != nil {
			return err
		}
		out = applied()
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return Outcome{}, err
		}
		return Outcome{}, apperr.Wrap(apperr.KindInternal, err, "failed to accept friend request")
	}

	if !out.Applied {
		logging.Warn().Uint("request_id", requestID).Str("reason", out.Reason).Msg("accept friend request skipped")
		return out, nil
	}

	logging.Info().Uint("request_id", requestID).Uint("requester_id", request.RequesterID).
		Uint("recipient_id", request.RecipientID).Msg("friend request accepted")
	s.hub.Publish(request.RequesterID, hub.Event{
		Type:    hub.FriendRequestAccepted,
		Payload: map[string]uint{"request_id": requestID, "friend_user_id": request.RecipientID},
	})
	return out, nil
}

// DenyRequest deletes a request regardless of its status. Only the recipient may deny.
func (s *FriendService) DenyRequest(ctx context.Context, callerID, requestID uint) error {
	db := s.db.WithContext(ctx)

	var request models.FriendRequest
	if err := db.First(&request, requestID).Error; err != nil {
		return notFoundOr(err, "friend request")
	}
	if request.RecipientID != callerID {
		return apperr.Forbidden("only the recipient can deny a friend request")
	}

	if err := db.Delete(&request).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to deny friend request")
	}
	logging.Info().Uint("request_id", requestID).Msg("friend request denied")
	return nil
}

// IncomingRequests returns every request addressed to the caller, whatever its status.
func (s *FriendService) IncomingRequests(ctx context.Context, callerID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.WithContext(ctx).
		Preload("Requester").
		Where("recipient_id = ?", callerID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch friend requests")
	}
	return requests, nil
}

// OutgoingRequests returns the requests the caller has sent.
func (s *FriendService) OutgoingRequests(ctx context.Context, callerID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Where("requester_id = ?", callerID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch sent friend requests")
	}
	return requests, nil
}

// endregion

// region --- Friendships ---

// Friends returns the users the caller is friends with.
func (s *FriendService) Friends(ctx context.Context, callerID uint) ([]models.User, error) {
	var friendships []models.Friendship
	err := s.db.WithContext(ctx).
		Preload("FriendUser").
		Where("user_id = ?", callerID).
		Find(&friendships).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch friends")
	}

	friends := make([]models.User, 0, len(friendships))
	for _, f := range friendships {
		if f.FriendUser.ID == 0 {
			continue
		}
		friends = append(friends, f.FriendUser)
	}
	return friends, nil
}

// FriendProfile returns friendUserID's record if they are the caller's friend.
func (s *FriendService) FriendProfile(ctx context.Context, callerID, friendUserID uint) (*models.User, error) {
	var friendship models.Friendship
	err := s.db.WithContext(ctx).
		Preload("FriendUser").
		Where("user_id = ? AND friend_user_id = ?", callerID, friendUserID).
		First(&friendship).Error
	if err != nil {
		return nil, notFoundOr(err, "friend")
	}
	return &friendship.FriendUser, nil
}

// RemoveFriend deletes both friendship rows between the caller and friendUserID.
// When either direction is missing neither row is touched and the result is a no-op.
func (s *FriendService) RemoveFriend(ctx context.Context, callerID, friendUserID uint) (out Outcome, err error) {
	defer func() { recordOutcome("remove_friend", out, err) }()

	db := s.db.WithContext(ctx)

	var caller, friend models.User
	if err := db.First(&caller, callerID).Error; err != nil {
		return Outcome{}, notFoundOr(err, "user")
	}
	if err := db.First(&friend, friendUserID).Error; err != nil {
		return Outcome{}, notFoundOr(err, "friend user")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var forward, backward models.Friendship
		errForward := tx.Where("user_id = ? AND friend_user_id = ?", callerID, friendUserID).First(&forward).Error
		errBackward := tx.Where("user_id = ? AND friend_user_id = ?", friendUserID, callerID).First(&backward).Error
		for _, e := range []error{errForward, errBackward} {
			if e != nil && !errors.Is(e, gorm.ErrRecordNotFound) {
				return e
			}
		}
		if errForward != nil || errBackward != nil {
			out = noOp("friendship is incomplete or absent")
			return nil
		}

		if err := tx.Delete(&models.Friendship{}, []uint{forward.ID, backward.ID}).Error; err != nil {
			return err
		}
		out = applied()
		return nil
	})
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.KindInternal, err, "failed to remove friend")
	}

	if !out.Applied {
		logging.Warn().Uint("user_id", callerID).Uint("friend_user_id", friendUserID).
			Str("reason", out.Reason).Msg("remove friend skipped")
		return out, nil
	}

	logging.Info().Uint("user_id", callerID).Uint("friend_user_id", friendUserID).Msg("friendship removed")
	s.hub.Publish(friendUserID, hub.Event{
		Type:    hub.FriendshipRemoved,
		Payload: map[string]uint{"friend_user_id": callerID},
	})
	return out, nil
}

// endregion
