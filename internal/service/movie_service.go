package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/cache"
	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/media"
	"cinematch/backend/internal/metrics"
	"cinematch/backend/internal/models"
	"cinematch/backend/internal/movieapi"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const searchCacheTTL = 10 * time.Minute

// MovieLookup fetches movie details by title and year.
type MovieLookup interface {
	Lookup(ctx context.Context, title string, year int) (*movieapi.OMDbMovie, error)
}

// TitleSearcher finds titles on streaming services.
type TitleSearcher interface {
	SearchTitle(ctx context.Context, title string) ([]movieapi.SearchResult, error)
	Country() string
}

// PosterFetcher downloads poster images.
type PosterFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// CreateMovieInput is what an admin submits to add a movie.
type CreateMovieInput struct {
	Title         string
	Year          int
	StreamingInfo []models.StreamingOption
}

// MovieService manages the movie catalog.
type MovieService struct {
	db       *gorm.DB
	store    media.Store
	lookup   MovieLookup
	searcher TitleSearcher
	posters  PosterFetcher
	cache    *cache.Cache
}

func NewMovieService(db *gorm.DB, store media.Store, lookup MovieLookup, searcher TitleSearcher, posters PosterFetcher, c *cache.Cache) *MovieService {
	return &MovieService{
		db:       db,
		store:    store,
		lookup:   lookup,
		searcher: searcher,
		posters:  posters,
		cache:    c,
	}
}

func providerError(err error, provider string) error {
	if errors.Is(err, movieapi.ErrUnavailable) {
		return apperr.Unavailable("%s is temporarily unavailable", provider)
	}
	return apperr.Wrap(apperr.KindUnavailable, err, provider+" request failed")
}

// region --- Catalog ---

// List returns a page of movies ordered by title.
func (s *MovieService) List(ctx context.Context, page, limit int) (*Page[models.Movie], error) {
	result, err := paginate[models.Movie](s.db.WithContext(ctx).Order("title"), page, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list movies")
	}
	return result, nil
}

// Get returns one movie.
func (s *MovieService) Get(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	if err := s.db.WithContext(ctx).First(&movie, id).Error; err != nil {
		return nil, notFoundOr(err, "movie")
	}
	return &movie, nil
}

// Search looks title up on the streaming provider. Results are cached for ten minutes.
func (s *MovieService) Search(ctx context.Context, title string) ([]movieapi.SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidArgument("title is required")
	}

	key := "movies:search:" + s.searcher.Country() + ":" + strings.ToLower(title)
	var results []movieapi.SearchResult
	hit, err := s.cache.GetJSON(ctx, key, &results)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("search cache read failed")
	}
	if s.cache.Enabled() {
		metrics.RecordSearchCache(hit)
	}
	if hit {
		return results, nil
	}

	start := time.Now()
	results, err = s.searcher.SearchTitle(ctx, title)
	metrics.RecordProviderCall("streaming", time.Since(start), err)
	if err != nil {
		return nil, providerError(err, "streaming search")
	}

	if err := s.cache.SetJSON(ctx, key, results, searchCacheTTL); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("search cache write failed")
	}
	return results, nil
}

// Create adds a movie, filling description, rating and poster from OMDb.
// A title OMDb does not know is created without those details.
func (s *MovieService) Create(ctx context.Context, in CreateMovieInput) (*models.Movie, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.InvalidArgument("title is required")
	}

	movie := models.Movie{
		Title:         in.Title,
		Year:          in.Year,
		StreamingInfo: datatypes.NewJSONSlice(in.StreamingInfo),
	}
	if movie.StreamingInfo == nil {
		movie.StreamingInfo = datatypes.NewJSONSlice([]models.StreamingOption{})
	}

	start := time.Now()
	details, err := s.lookup.Lookup(ctx, in.Title, in.Year)
	metrics.RecordProviderCall("omdb", time.Since(start), err)
	switch {
	case errors.Is(err, movieapi.ErrNotFound):
		logging.Warn().Str("title", in.Title).Int("year", in.Year).Msg("movie not found on OMDb, creating without details")
	case err != nil:
		return nil, providerError(err, "movie lookup")
	case details != nil:
		movie.Description = details.Plot
		movie.Rated = details.Rated
	}

	var posterObj *media.Object
	if details != nil && details.HasPoster() {
		posterObj = s.fetchPoster(ctx, details.Poster)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if posterObj != nil {
			poster := models.MoviePoster{Filename: posterObj.Filename, Path: posterObj.Path, Size: posterObj.Size}
			if err := tx.Create(&poster).Error; err != nil {
				return err
			}
			movie.PosterID = &poster.ID
		}
		return tx.Omit("Poster").Create(&movie).Error
	})
	if err != nil {
		if posterObj != nil {
			_ = s.store.Delete(ctx, posterObj.Path)
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create movie")
	}

	logging.Info().Uint("movie_id", movie.ID).Str("title", movie.Title).Msg("movie created")
	return &movie, nil
}

// fetchPoster downloads and stores a poster. Failures are logged and yield nil.
func (s *MovieService) fetchPoster(ctx context.Context, url string) *media.Object {
	start := time.Now()
	data, err := s.posters.Download(ctx, url)
	metrics.RecordProviderCall("poster", time.Since(start), err)
	if err != nil {
		logging.Warn().Err(err).Str("url", url).Msg("poster download failed")
		return nil
	}

	name := path.Base(url)
	if name == "" || name == "/" || name == "." {
		name = "poster.jpg"
	}
	obj, err := s.store.Save(ctx, media.PosterDir, name, bytes.NewReader(data))
	if err != nil {
		logging.Warn().Err(err).Msg("failed to store downloaded poster")
		return nil
	}
	return &obj
}

// Delete removes a movie with its poster row and blob. Movies in a shared-favorites
// record cannot be deleted.
func (s *MovieService) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)

	var movie models.Movie
	if err := db.Preload("Poster").First(&movie, id).Error; err != nil {
		return notFoundOr(err, "movie")
	}

	var shared int64
	if err := db.Table("shared_favorite_movie_items").Where("movie_id = ?", id).Count(&shared).Error; err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to check shared favorites")
	}
	if shared > 0 {
		return apperr.Conflict("movie is part of shared favorites")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_favorite_movies WHERE movie_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&movie).Error; err != nil {
			return err
		}
		if movie.Poster != nil {
			return tx.Delete(movie.Poster).Error
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to delete movie")
	}

	if movie.Poster != nil {
		if err := s.store.Delete(ctx, movie.Poster.Path); err != nil {
			logging.Warn().Err(err).Str("path", movie.Poster.Path).Msg("failed to delete poster blob")
		}
	}
	logging.Info().Uint("movie_id", id).Msg("movie deleted")
	return nil
}

// endregion

// region --- Posters ---

// UploadPoster replaces a movie's poster.
func (s *MovieService) UploadPoster(ctx context.Context, movieID uint, filename string, r io.Reader) (*models.MoviePoster, error) {
	var movie models.Movie
	if err := s.db.WithContext(ctx).Preload("Poster").First(&movie, movieID).Error; err != nil {
		return nil, notFoundOr(err, "movie")
	}

	obj, err := s.store.Save(ctx, media.PosterDir, filepath.Base(filename), r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to store poster")
	}

	previous := movie.Poster
	poster := models.MoviePoster{Filename: obj.Filename, Path: obj.Path, Size: obj.Size}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poster).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Movie{}).Where("id = ?", movieID).Update("poster_id", poster.ID).Error; err != nil {
			return err
		}
		if previous != nil {
			return tx.Delete(previous).Error
		}
		return nil
	})
	if err != nil {
		_ = s.store.Delete(ctx, obj.Path)
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to save poster")
	}

	if previous != nil {
		if err := s.store.Delete(ctx, previous.Path); err != nil {
			logging.Warn().Err(err).Str("path", previous.Path).Msg("failed to delete previous poster blob")
		}
	}
	return &poster, nil
}

// PosterBytes returns the poster image of a movie.
func (s *MovieService) PosterBytes(ctx context.Context, movieID uint) ([]byte, string, error) {
	var movie models.Movie
	if err := s.db.WithContext(ctx).Preload("Poster").First(&movie, movieID).Error; err != nil {
		return nil, "", notFoundOr(err, "movie")
	}
	if movie.Poster == nil {
		return nil, "", apperr.NotFound("poster not found")
	}

	data, err := s.store.Read(ctx, movie.Poster.Path)
	if errors.Is(err, media.ErrNotFound) {
		return nil, "", apperr.NotFound("poster not found")
	}
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, err, "failed to read poster")
	}
	return data, movie.Poster.Filename, nil
}

// endregion
