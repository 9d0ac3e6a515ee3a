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

// SharedMovieCount is the exact number of movies two users share.
const SharedMovieCount = 3

// FavoriteService manages per-user favorites and favorites shared between two users.
type FavoriteService struct {
	db  *gorm.DB
	hub *hub.Hub
}

// NewFavoriteService creates a FavoriteService. h may be nil.
func NewFavoriteService(db *gorm.DB, h *hub.Hub) *FavoriteService {
	return &FavoriteService{db: db, hub: h}
}

// findMovies resolves ids, silently omitting unknown ones. Callers compare counts.
func findMovies(db *gorm.DB, ids []uint) ([]models.Movie, error) {
	var movies []models.Movie
	if len(ids) == 0 {
		return movies, nil
	}
	if err := db.Where("id IN ?", ids).Find(&movies).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load movies")
	}
	return movies, nil
}

func pairQuery(db *gorm.DB, a, b uint) *gorm.DB {
	return db.Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a)
}

// region --- Shared Favorites ---

// Share records exactly three movies for the unordered pair (callerID, otherUserID).
// A pair that already has a record is always rejected and the record is left as is.
func (s *FavoriteService) Share(ctx context.Context, callerID, otherUserID uint, movieIDs []uint) (*models.SharedFavoriteMovies, error) {
	if callerID == otherUserID {
		return nil, apperr.InvalidArgument("cannot share movies with yourself")
	}

	db := s.db.WithContext(ctx)

	var users int64
	if err := db.Model(&models.User{}).Where("id IN ?", []uint{callerID, otherUserID}).Count(&users).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load users")
	}
	if users != 2 {
		return nil, apperr.NotFound("users not found")
	}

	var existing int64
	if err := pairQuery(db.Model(&models.SharedFavoriteMovies{}), callerID, otherUserID).Count(&existing).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check shared movies")
	}
	if existing > 0 {
		return nil, apperr.Conflict("movies already shared between these users")
	}

	ids := uniqueIDs(movieIDs)
	if len(ids) != SharedMovieCount {
		return nil, apperr.InvalidArgument("exactly three movie IDs should be provided")
	}

	movies, err := findMovies(db, ids)
	if err != nil {
		return nil, err
	}
	if len(movies) != SharedMovieCount {
		return nil, apperr.InvalidArgument("exactly three valid movie IDs should be provided")
	}

	user1, user2 := models.CanonicalPair(callerID, otherUserID)
	record := models.SharedFavoriteMovies{User1ID: user1, User2ID: user2, Movies: movies}
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User1", "User2", "Movies.*").Create(&record).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("movies already shared between these users")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to share movies")
	}

	logging.Info().Uint("user_id", callerID).Uint("other_user_id", otherUserID).Msg("favorite movies shared")
	s.hub.Publish(otherUserID, hub.Event{
		Type:    hub.FavoritesShared,
		Payload: map[string]interface{}{"user_id": callerID, "movie_ids": ids},
	})
	return &record, nil
}

// Shared returns the movies shared between the pair, in either order. No record means no movies.
func (s *FavoriteService) Shared(ctx context.Context, callerID, otherUserID uint) ([]models.Movie, error) {
	var record models.SharedFavoriteMovies
	err := pairQuery(s.db.WithContext(ctx).Preload("Movies"), callerID, otherUserID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Movie{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch shared movies")
	}
	return record.Movies, nil
}

// endregion

// region --- User Favorites ---

// SetFavorites replaces the caller's favorite set with movieIDs.
func (s *FavoriteService) SetFavorites(ctx context.Context, callerID uint, movieIDs []uint) error {
	if len(movieIDs) == 0 {
		return apperr.InvalidArgument("at least one movie ID should be provided")
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, callerID).Error; err != nil {
		return notFoundOr(err, "user")
	}

	ids := uniqueIDs(movieIDs)
	movies, err := findMovies(db, ids)
	if err != nil {
		return err
	}
	if len(movies) != len(ids) {
		return apperr.InvalidArgument("invalid movie IDs provided")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&user).Omit("FavoriteMovies.*").Association("FavoriteMovies").Replace(movies)
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to update favorite movies")
	}
	return nil
}

// Favorites returns the caller's favorite movies.
func (s *FavoriteService) Favorites(ctx context.Context, callerID uint) ([]models.Movie, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, callerID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}

	movies := []models.Movie{}
	if err := db.Model(&user).Association("FavoriteMovies").Find(&movies); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to fetch favorite movies")
	}
	return movies, nil
}

// endregion
