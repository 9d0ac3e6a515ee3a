package handler

import (
	"fmt"
	"net/http"
	"testing"

	"cinematch/backend/internal/service"
)

func TestFriendshipFlow(t *testing.T) {
	srv := newTestServer(t)
	aliceToken, aliceID := srv.signUp(t, "alice01")
	bobToken, bobID := srv.signUp(t, "bob0001")

	sendPath := fmt.Sprintf("/api/entities/users/friend-requests/%d", bobID)

	w := srv.do(t, http.MethodPost, sendPath, aliceToken, nil)
	wantStatus(t, w, http.StatusCreated)
	var sent FriendRequestResponse
	decode(t, w, &sent)
	if sent.RequesterID != aliceID || sent.RecipientID != bobID || sent.Status != "PENDING" {
		t.Fatalf("unexpected request %+v", sent)
	}

	w = srv.do(t, http.MethodPost, sendPath, aliceToken, nil)
	wantStatus(t, w, http.StatusConflict)

	w = srv.do(t, http.MethodGet, "/api/entities/friend-requests", bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	var incoming []FriendRequestResponse
	decode(t, w, &incoming)
	if len(incoming) != 1 || incoming[0].ID != sent.ID {
		t.Fatalf("incoming = %+v, want request %d", incoming, sent.ID)
	}

	w = srv.do(t, http.MethodGet, "/api/entities/friend-requests/sent", aliceToken, nil)
	wantStatus(t, w, http.StatusOK)
	var outgoing []FriendRequestResponse
	decode(t, w, &outgoing)
	if len(outgoing) != 1 {
		t.Fatalf("outgoing = %+v, want one request", outgoing)
	}

	acceptPath := fmt.Sprintf("/api/entities/friend-requests/%d", sent.ID)

	// Only the recipient may answer.
	w = srv.do(t, http.MethodPut, acceptPath, aliceToken, nil)
	wantStatus(t, w, http.StatusForbidden)

	w = srv.do(t, http.MethodPut, acceptPath, bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	var out service.Outcome
	decode(t, w, &out)
	if !out.Applied {
		t.Fatalf("accept outcome = %+v, want applied", out)
	}

	w = srv.do(t, http.MethodPut, acceptPath, bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	out = service.Outcome{}
	decode(t, w, &out)
	if out.Applied {
		t.Error("second accept should be a no-op")
	}

	for _, tc := range []struct {
		token  string
		friend uint
	}{{aliceToken, bobID}, {bobToken, aliceID}} {
		w = srv.do(t, http.MethodGet, "/api/entities/friends", tc.token, nil)
		wantStatus(t, w, http.StatusOK)
		var friends []PublicUserResponse
		decode(t, w, &friends)
		if len(friends) != 1 || friends[0].ID != tc.friend {
			t.Fatalf("friends = %+v, want [%d]", friends, tc.friend)
		}
	}

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/entities/friends/%d", bobID), aliceToken, nil)
	wantStatus(t, w, http.StatusOK)

	w = srv.do(t, http.MethodPost, sendPath, aliceToken, nil)
	wantStatus(t, w, http.StatusConflict)

	friendPath := fmt.Sprintf("/api/entities/friends/%d", bobID)
	w = srv.do(t, http.MethodDelete, friendPath, aliceToken, nil)
	wantStatus(t, w, http.StatusNoContent)

	w = srv.do(t, http.MethodDelete, friendPath, aliceToken, nil)
	wantStatus(t, w, http.StatusOK)
	out = service.Outcome{}
	decode(t, w, &out)
	if out.Applied || out.Reason == "" {
		t.Errorf("remove outcome = %+v, want a no-op with a reason", out)
	}

	w = srv.do(t, http.MethodGet, "/api/entities/friends", bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	var friends []PublicUserResponse
	decode(t, w, &friends)
	if len(friends) != 0 {
		t.Errorf("friends after removal = %+v, want none", friends)
	}
}

func TestFriendRequestErrors(t *testing.T) {
	srv := newTestServer(t)
	aliceToken, aliceID := srv.signUp(t, "alice01")
	bobToken, bobID := srv.signUp(t, "bob0001")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodPost, fmt.Sprintf("/api/entities/users/friend-requests/%d", bobID), "", http.StatusUnauthorized},
		{"bad token", http.MethodPost, fmt.Sprintf("/api/entities/users/friend-requests/%d", bobID), "garbage", http.StatusUnauthorized},
		{"self", http.MethodPost, fmt.Sprintf("/api/entities/users/friend-requests/%d", aliceID), aliceToken, http.StatusBadRequest},
		{"unknown recipient", http.MethodPost, "/api/entities/users/friend-requests/9999", aliceToken, http.StatusNotFound},
		{"bad id", http.MethodPost, "/api/entities/users/friend-requests/abc", aliceToken, http.StatusBadRequest},
		{"cancel missing", http.MethodDelete, fmt.Sprintf("/api/entities/users/friend-requests/%d", bobID), aliceToken, http.StatusNotFound},
		{"deny missing", http.MethodDelete, "/api/entities/friend-requests/9999", bobToken, http.StatusNotFound},
		{"accept missing", http.MethodPut, "/api/entities/friend-requests/9999", bobToken, http.StatusOK},
		{"friend profile of stranger", http.MethodGet, fmt.Sprintf("/api/entities/friends/%d", bobID), aliceToken, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, tt.method, tt.path, tt.token, nil)
			wantStatus(t, w, tt.want)
		})
	}
}

func TestCancelAndDenyRequest(t *testing.T) {
	srv := newTestServer(t)
	aliceToken, _ := srv.signUp(t, "alice01")
	bobToken, bobID := srv.signUp(t, "bob0001")
	sendPath := fmt.Sprintf("/api/entities/users/friend-requests/%d", bobID)

	wantStatus(t, srv.do(t, http.MethodPost, sendPath, aliceToken, nil), http.StatusCreated)
	wantStatus(t, srv.do(t, http.MethodDelete, sendPath, aliceToken, nil), http.StatusNoContent)

	w := srv.do(t, http.MethodPost, sendPath, aliceToken, nil)
	wantStatus(t, w, http.StatusCreated)
	var sent FriendRequestResponse
	decode(t, w, &sent)

	denyPath := fmt.Sprintf("/api/entities/friend-requests/%d", sent.ID)
	wantStatus(t, srv.do(t, http.MethodDelete, denyPath, aliceToken, nil), http.StatusForbidden)
	wantStatus(t, srv.do(t, http.MethodDelete, denyPath, bobToken, nil), http.StatusNoContent)

	w = srv.do(t, http.MethodGet, "/api/entities/friend-requests", bobToken, nil)
	wantStatus(t, w, http.StatusOK)
	var incoming []FriendRequestResponse
	decode(t, w, &incoming)
	if len(incoming) != 0 {
		t.Errorf("incoming after deny = %+v, want none", incoming)
	}
}
