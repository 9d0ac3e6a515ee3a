package service

import "gorm.io/gorm"

// Listing bounds. MaxPage keeps (page-1)*limit far from int overflow.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPage         = 10000
)

// Page is one page of a listing plus the total number of matching rows.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// paginate counts and fetches one page of the rows selected by db.
func paginate[T any](db *gorm.DB, page, limit int) (*Page[T], error) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case limit < 1:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}

	results := []T{}
	offset := (page - 1) * limit
	if err := db.Offset(offset).Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}

	return &Page[T]{Items: results, Total: total, Page: page, Limit: limit}, nil
}
