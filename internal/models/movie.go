package models

import (
	"time"

	"gorm.io/datatypes"
)

// StreamingOption is one place a movie can be watched in the configured country.
type StreamingOption struct {
	Service       string `json:"service"`
	StreamingType string `json:"streamingType"`
	Link          string `json:"link"`
}

// Movie is a catalog entry populated by admins from the external movie providers.
type Movie struct {
	ID            uint   `gorm:"primaryKey"`
	Title         string `gorm:"size:255;not null;index"`
	Year          int
	Description   string `gorm:"type:text"`
	Rated         string `gorm:"size:20"`
	StreamingInfo datatypes.JSONSlice[StreamingOption]
	CreatedAt     time.Time
	UpdatedAt     time.Time

	PosterID *uint
	Poster   *MoviePoster `gorm:"foreignKey:PosterID"`
}
