package models

import "time"

// SharedFavoriteMovies records the three movies two users agreed on.
// The pair is unordered: rows are written with User1ID < User2ID and the unique
// index rejects a second record for the same pair.
type SharedFavoriteMovies struct {
	ID        uint `gorm:"primaryKey"`
	User1ID   uint `gorm:"not null;uniqueIndex:idx_shared_favorites_pair"`
	User2ID   uint `gorm:"not null;uniqueIndex:idx_shared_favorites_pair"`
	CreatedAt time.Time

	User1  User    `gorm:"foreignKey:User1ID;references:ID;constraint:OnDelete:CASCADE;"`
	User2  User    `gorm:"foreignKey:User2ID;references:ID;constraint:OnDelete:CASCADE;"`
	Movies []Movie `gorm:"many2many:shared_favorite_movie_items;"`
}

func (SharedFavoriteMovies) TableName() string {
	return "shared_favorite_movies"
}

// CanonicalPair orders two user ids so that the smaller comes first.
func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}
