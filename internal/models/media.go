package models

import "time"

// DefaultAvatarFilename names the shared avatar served to users without one.
const DefaultAvatarFilename = "default_avatar.png"

// Avatar is the metadata of a user's avatar blob.
type Avatar struct {
	ID        uint   `gorm:"primaryKey"`
	Filename  string `gorm:"size:255;not null;index"`
	Path      string `gorm:"size:512;not null"`
	Size      int64
	CreatedAt time.Time
}

// MoviePoster is the metadata of a movie's poster blob.
type MoviePoster struct {
	ID        uint   `gorm:"primaryKey"`
	Filename  string `gorm:"size:255;not null"`
	Path      string `gorm:"size:512;not null"`
	Size      int64
	CreatedAt time.Time
}
