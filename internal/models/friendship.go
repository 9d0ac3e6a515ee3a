package models

import "time"

// FriendshipStatus is the state of a friendship row. Only accepted friendships are stored.
type FriendshipStatus string

const FriendshipAccepted FriendshipStatus = "ACCEPTED"

// Friendship is one direction of a friendship. A friendship between A and B is always the
// pair of rows (A,B) and (B,A); they are created and deleted in the same transaction.
type Friendship struct {
	ID           uint             `gorm:"primaryKey"`
	UserID       uint             `gorm:"not null;uniqueIndex:idx_friendships_pair"`
	FriendUserID uint             `gorm:"not null;uniqueIndex:idx_friendships_pair"`
	Status       FriendshipStatus `gorm:"type:varchar(20);not null;default:'ACCEPTED'"`
	CreatedAt    time.Time

	User       User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FriendUser User `gorm:"foreignKey:FriendUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
