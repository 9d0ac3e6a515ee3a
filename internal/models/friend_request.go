package models

import "time"

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	// RequestPending is the only state a request row normally persists in.
	RequestPending FriendRequestStatus = "PENDING"

	// RequestAccepted is transient: the row is deleted once both friendship rows exist.
	RequestAccepted FriendRequestStatus = "ACCEPTED"

	RequestRejected FriendRequestStatus = "REJECTED"
)

// FriendRequest is a request from Requester to Recipient.
// At most one row may exist per ordered (requester, recipient) pair, whatever its status.
type FriendRequest struct {
	ID          uint                `gorm:"primaryKey"`
	RequesterID uint                `gorm:"not null;uniqueIndex:idx_friend_requests_pair"`
	RecipientID uint                `gorm:"not null;uniqueIndex:idx_friend_requests_pair"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Recipient User `gorm:"foreignKey:RecipientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
