package service

import (
	"context"
	"testing"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/hub"
	"cinematch/backend/internal/models"

	"gorm.io/gorm"
)

func TestFriendRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	friends := NewFriendService(db, hub.NewHub())

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")

	request, err := friends.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if request.Status != models.RequestPending {
		t.Errorf("Status = %s, want PENDING", request.Status)
	}

	// The pair's unique index rejects a repeat while the first request exists.
	_, err = friends.SendRequest(ctx, alice.ID, bob.ID)
	wantKind(t, err, apperr.KindConflict)
	if n := countRows(t, db, &models.FriendRequest{}, "requester_id = ?", alice.ID); n != 1 {
		t.Fatalf("friend requests = %d, want 1", n)
	}

	incoming, err := friends.IncomingRequests(ctx, bob.ID)
	if err != nil {
		t.Fatalf("IncomingRequests() error = %v", err)
	}
	if len(incoming) != 1 || incoming[0].Requester.Username != "alice01" {
		t.Fatalf("IncomingRequests() = %+v, want one request from alice01", incoming)
	}

	out, err := friends.AcceptRequest(ctx, bob.ID, request.ID)
	if err != nil {
		t.Fatalf("AcceptRequest() error = %v", err)
	}
	if !out.Applied {
		t.Fatalf("AcceptRequest() = %+v, want applied", out)
	}

	if n := countRows(t, db, &models.FriendRequest{}, "1 = 1"); n != 0 {
		t.Errorf("friend requests after accept = %d, want 0", n)
	}
	if n := countRows(t, db, &models.Friendship{}, "user_id = ? AND friend_user_id = ? AND status = ?", alice.ID, bob.ID, models.FriendshipAccepted); n != 1 {
		t.Errorf("alice->bob friendships = %d, want 1", n)
	}
	if n := countRows(t, db, &models.Friendship{}, "user_id = ? AND friend_user_id = ? AND status = ?", bob.ID, alice.ID, models.FriendshipAccepted); n != 1 {
		t.Errorf("bob->alice friendships = %d, want 1", n)
	}
	if n := countRows(t, db, &models.Friendship{}, "1 = 1"); n != 2 {
		t.Errorf("friendships = %d, want 2", n)
	}

	for _, tc := range []struct {
		user   *models.User
		friend string
	}{{alice, "bob0001"}, {bob, "alice01"}} {
		list, err := friends.Friends(ctx, tc.user.ID)
		if err != nil {
			t.Fatalf("Friends() error = %v", err)
		}
		if len(list) != 1 || list[0].Username != tc.friend {
			t.Errorf("Friends(%s) = %v, want [%s]", tc.user.Username, list, tc.friend)
		}
	}

	profile, err := friends.FriendProfile(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("FriendProfile() error = %v", err)
	}
	if profile.ID != bob.ID {
		t.Errorf("FriendProfile().ID = %d, want %d", profile.ID, bob.ID)
	}
}

func TestSendRequestRejects(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	friends := NewFriendService(db, nil)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")
	carol := mustRegister(t, users, "carol01")

	if err := db.Create(&[]models.Friendship{
		{UserID: alice.ID, FriendUserID: carol.ID, Status: models.FriendshipAccepted},
		{UserID: carol.ID, FriendUserID: alice.ID, Status: models.FriendshipAccepted},
	}).Error; err != nil {
		t.Fatalf("seed friendship: %v", err)
	}
	if _, err := friends.SendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("SendRequest(bob, alice) error = %v", err)
	}

	tests := []struct {
		name      string
		requester uint
		recipient uint
		want      apperr.Kind
	}{
		{"self", alice.ID, alice.ID, apperr.KindInvalidArgument},
		{"unknown recipient", alice.ID, 9999, apperr.KindNotFound},
		{"already friends", alice.ID, carol.ID, apperr.KindConflict},
		{"reverse request pending", alice.ID, bob.ID, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := friends.SendRequest(ctx, tt.requester, tt.recipient)
			wantKind(t, err, tt.want)
		})
	}
}

func TestDenyAndCancelLeaveNothing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	friends := NewFriendService(db, nil)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")

	request, err := friends.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	wantKind(t, friends.DenyRequest(ctx, alice.ID, request.ID), apperr.KindForbidden)
	if err := friends.DenyRequest(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("DenyRequest() error = %v", err)
	}
	wantKind(t, friends.DenyRequest(ctx, bob.ID, request.ID), apperr.KindNotFound)

	if _, err := friends.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() after deny error = %v", err)
	}
	if err := friends.CancelRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("CancelRequest() error = %v", err)
	}
	wantKind(t, friends.CancelRequest(ctx, alice.ID, bob.ID), apperr.KindNotFound)

	if n := countRows(t, db, &models.FriendRequest{}, "1 = 1"); n != 0 {
		t.Errorf("friend requests = %d, want 0", n)
	}
	if n := countRows(t, db, &models.Friendship{}, "1 = 1"); n != 0 {
		t.Errorf("friendships = %d, want 0", n)
	}
}

func TestAcceptRequestNoOps(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	friends := NewFriendService(db, nil)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")

	out, err := friends.AcceptRequest(ctx, bob.ID, 4242)
	if err != nil {
		t.Fatalf("AcceptRequest(missing) error = %v", err)
	}
	if out.Applied || out.Reason == "" {
		t.Errorf("AcceptRequest(missing) = %+v, want no-op with reason", out)
	}

	stale := models.FriendRequest{RequesterID: alice.ID, RecipientID: bob.ID, Status: models.RequestRejected}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}

	wantKind(t, func() error { _, err := friends.AcceptRequest(ctx, alice.ID, stale.ID); return err }(), apperr.KindForbidden)

	out, err = friends.AcceptRequest(ctx, bob.ID, stale.ID)
	if err != nil {
		t.Fatalf("AcceptRequest(rejected) error = %v", err)
	}
	if out.Applied {
		t.Error("AcceptRequest(rejected) applied, want no-op")
	}
	if n := countRows(t, db, &models.Friendship{}, "1 = 1"); n != 0 {
		t.Errorf("friendships = %d, want 0", n)
	}
	if n := countRows(t, db, &models.FriendRequest{}, "id = ?", stale.ID); n != 1 {
		t.Errorf("stale request rows = %d, want 1", n)
	}
}

func TestAcceptRequestRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	friends := NewFriendService(db, nil)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")

	request, err := friends.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	// A stray directional row makes the second friendship insert collide.
	if err := db.Create(&models.Friendship{UserID: bob.ID, FriendUserID: alice.ID, Status: models.FriendshipAccepted}).Error; err != nil {
		t.Fatalf("seed friendship: %v", err)
	}

	if _, err := friends.AcceptRequest(ctx, bob.ID, request.ID); err == nil {
		t.Fatal("AcceptRequest() error = nil, want failure")
	}

	var stored models.FriendRequest
	if err := db.First(&stored, request.ID).Error; err != nil {
		t.Fatalf("request was deleted despite failure: %v", err)
	}
	if stored.Status != models.RequestPending {
		t.Errorf("Status = %s, want PENDING after rollback", stored.Status)
	}
	if n := countRows(t, db, &models.Friendship{}, "user_id = ?", alice.ID); n != 0 {
		t.Errorf("alice friendships = %d, want 0 after rollback", n)
	}
}

func TestAcceptRequestLosesToConcurrentDeny(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	friends := NewFriendService(db, nil)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")

	request, err := friends.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	// Deletes the request between the accept's read and its status update, as a deny would.
	denied := false
	err = db.Callback().Update().Before("gorm:update").Register("test:deny_first", func(tx *gorm.DB) {
		if denied || tx.Statement.Table != "friend_requests" {
			return
		}
		denied = true
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM friend_requests WHERE id = ?", request.ID).Error; err != nil {
			t.Errorf("deny request: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	out, err := friends.AcceptRequest(ctx, bob.ID, request.ID)
	if err != nil {
		t.Fatalf("AcceptRequest() error = %v", err)
	}
	if !denied {
		t.Fatal("status update never ran")
	}
	if out.Applied {
		t.Error("AcceptRequest() applied after a deny, want no-op")
	}
	if n := countRows(t, db, &models.FriendRequest{}, "1 = 1"); n != 0 {
		t.Errorf("friend requests = %d, want 0 (denied request must not be recreated)", n)
	}
	if n := countRows(t, db, &models.Friendship{}, "1 = 1"); n != 0 {
		t.Errorf("friendships = %d, want 0", n)
	}
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	h := hub.NewHub()
	friends := NewFriendService(db, h)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")
	carol := mustRegister(t, users, "carol01")

	if err := db.Create(&[]models.Friendship{
		{UserID: alice.ID, FriendUserID: bob.ID, Status: models.FriendshipAccepted},
		{UserID: bob.ID, FriendUserID: alice.ID, Status: models.FriendshipAccepted},
		{UserID: alice.ID, FriendUserID: carol.ID, Status: models.FriendshipAccepted},
	}).Error; err != nil {
		t.Fatalf("seed friendships: %v", err)
	}

	stream := h.Subscribe(bob.ID)
	defer h.Unsubscribe(bob.ID, stream)

	out, err := friends.RemoveFriend(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("RemoveFriend() error = %v", err)
	}
	if !out.Applied {
		t.Fatalf("RemoveFriend() = %+v, want applied", out)
	}
	if n := countRows(t, db, &models.Friendship{}, "(user_id = ? AND friend_user_id = ?) OR (user_id = ? AND friend_user_id = ?)", alice.ID, bob.ID, bob.ID, alice.ID); n != 0 {
		t.Errorf("alice/bob friendships = %d, want 0", n)
	}
	select {
	case <-stream:
	default:
		t.Error("bob did not receive a friendship.removed event")
	}

	// Only alice->carol exists, so nothing is deleted.
	out, err = friends.RemoveFriend(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("RemoveFriend(partial) error = %v", err)
	}
	if out.Applied {
		t.Error("RemoveFriend(partial) applied, want no-op")
	}
	if n := countRows(t, db, &models.Friendship{}, "user_id = ? AND friend_user_id = ?", alice.ID, carol.ID); n != 1 {
		t.Errorf("alice->carol rows = %d, want 1", n)
	}

	_, err = friends.RemoveFriend(ctx, alice.ID, 9999)
	wantKind(t, err, apperr.KindNotFound)
}

func TestSendRequestPublishesEvent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	h := hub.NewHub()
	friends := NewFriendService(db, h)

	alice := mustRegister(t, users, "alice01")
	bob := mustRegister(t, users, "bob0001")

	bobStream := h.Subscribe(bob.ID)
	aliceStream := h.Subscribe(alice.ID)

	request, err := friends.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	select {
	case <-bobStream:
	default:
		t.Fatal("bob did not receive friend_request.received")
	}

	if _, err := friends.AcceptRequest(ctx, bob.ID, request.ID); err != nil {
		t.Fatalf("AcceptRequest() error = %v", err)
	}
	select {
	case <-aliceStream:
	default:
		t.Fatal("alice did not receive friend_request.accepted")
	}
}
