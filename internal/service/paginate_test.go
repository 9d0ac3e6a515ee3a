package service

import (
	"testing"

	"cinematch/backend/internal/models"
)

func TestPaginateBounds(t *testing.T) {
	db := newTestDB(t)
	mustCreateMovies(t, db, 3)

	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
		wantItems int
	}{
		{"first page", 1, 2, 1, 2, 2},
		{"last page", 2, 2, 2, 2, 1},
		{"zero values", 0, 0, 1, DefaultPageSize, 3},
		{"oversized limit", 1, 5000, 1, MaxPageSize, 3},
		{"huge page", int(^uint(0) >> 1), 100, MaxPage, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paginate[models.Movie](db.Order("id"), tt.page, tt.limit)
			if err != nil {
				t.Fatalf("paginate() error = %v", err)
			}
			if got.Page != tt.wantPage || got.Limit != tt.wantLimit {
				t.Errorf("page, limit = %d, %d, want %d, %d", got.Page, got.Limit, tt.wantPage, tt.wantLimit)
			}
			if len(got.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(got.Items), tt.wantItems)
			}
			if got.Total != 3 {
				t.Errorf("total = %d, want 3", got.Total)
			}
		})
	}
}
