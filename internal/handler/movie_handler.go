package handler

import (
	"net/http"

	"cinematch/backend/internal/models"
	"cinematch/backend/internal/movieapi"
	"cinematch/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// MovieResponse is a catalog entry.
type MovieResponse struct {
	ID            uint                     `json:"id" example:"1"`
	Title         string                   `json:"title" example:"Heat"`
	Year          int                      `json:"year" example:"1995"`
	Description   string                   `json:"description"`
	Rated         string                   `json:"rated" example:"R"`
	StreamingInfo []models.StreamingOption `json:"streamingInfo"`
	HasPoster     bool                     `json:"has_poster"`
}

// SearchMovieInput is the body of a provider search.
type SearchMovieInput struct {
	Title string `json:"title" binding:"required" example:"Heat"`
}

// AddMovieInput is the body of a catalog addition.
type AddMovieInput struct {
	Title         string                   `json:"title" binding:"required,max=255" example:"Heat"`
	Year          int                      `json:"year" binding:"omitempty,min=1870,max=2200" example:"1995"`
	StreamingInfo []models.StreamingOption `json:"streamingInfo"`
}

// MovieIDsInput lists movie ids.
type MovieIDsInput struct {
	MovieIDs []uint `json:"movie_ids" binding:"required" example:"1,2,3"`
}

// endregion

// MovieHandler serves the movie catalog and favorites.
type MovieHandler struct {
	movies    *service.MovieService
	favorites *service.FavoriteService
}

func NewMovieHandler(movies *service.MovieService, favorites *service.FavoriteService) *MovieHandler {
	return &MovieHandler{movies: movies, favorites: favorites}
}

// region --- Catalog Handlers ---

// ListMovies godoc
// @Summary      List movies
// @Tags         movies
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[MovieResponse]
// @Router       /entities/movies [get]
func (h *MovieHandler) ListMovies(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.movies.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(
		mapSlice(result.Items, buildMovieResponse), result.Total, result.Page, result.Limit))
}

// GetMovie godoc
// @Summary      Get a movie
// @Tags         movies
// @Produce      json
// @Security     BearerAuth
// @Param        movie_id  path      int  true  "Movie ID"
// @Success      200  {object}  MovieResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /entities/movies/{movie_id} [get]
func (h *MovieHandler) GetMovie(c *gin.Context) {
	movieID, ok := parseIDParam(c, "movie_id")
	if !ok {
		return
	}

	movie, err := h.movies.Get(c.Request.Context(), movieID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildMovieResponse(*movie))
}

// DeleteMovie godoc
// @Summary      Delete a movie
// @Description  Deletes a movie with its poster. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Param        movie_id  path  int  true  "Movie ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Movie is part of shared favorites"
// @Router       /entities/movies/{movie_id} [delete]
func (h *MovieHandler) DeleteMovie(c *gin.Context) {
	movieID, ok := parseIDParam(c, "movie_id")
	if !ok {
		return
	}

	if err := h.movies.Delete(c.Request.Context(), movieID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchMovies godoc
// @Summary      Search the streaming provider
// @Description  Returns at most five movies matching the title, with where to stream them. Admin only.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SearchMovieInput true "Title"
// @Success      200  {array}   movieapi.SearchResult
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /actions/movie/search [post]
func (h *MovieHandler) SearchMovies(c *gin.Context) {
	var input SearchMovieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	results, err := h.movies.Search(c.Request.Context(), input.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []movieapi.SearchResult{}
	}
	c.JSON(http.StatusOK, results)
}

// AddMovie godoc
// @Summary      Add a movie
// @Description  Adds a movie to the catalog, filling its description, rating and poster from OMDb. Admin only.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AddMovieInput true "Movie"
// @Success      201  {object}  MovieResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /actions/movie/add [post]
func (h *MovieHandler) AddMovie(c *gin.Context) {
	var input AddMovieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	movie, err := h.movies.Create(c.Request.Context(), service.CreateMovieInput{
		Title:         input.Title,
		Year:          input.Year,
		StreamingInfo: input.StreamingInfo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildMovieResponse(*movie))
}

// endregion

// region --- Favorites Handlers ---

// SetFavorites godoc
// @Summary      Replace favorite movies
// @Description  Replaces the caller's favorite movies with the given set.
// @Tags         favorites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body MovieIDsInput true "Movie IDs"
// @Success      200  {array}   MovieResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /entities/user/favorite-movies [post]
func (h *MovieHandler) SetFavorites(c *gin.Context) {
	var input MovieIDsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.favorites.SetFavorites(ctx, callerID(c), input.MovieIDs); err != nil {
		respondError(c, err)
		return
	}
	movies, err := h.favorites.Favorites(ctx, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(movies, buildMovieResponse))
}

// GetFavorites godoc
// @Summary      List favorite movies
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   MovieResponse
// @Router       /entities/user/favorite-movies [get]
func (h *MovieHandler) GetFavorites(c *gin.Context) {
	movies, err := h.favorites.Favorites(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(movies, buildMovieResponse))
}

// ShareMovies godoc
// @Summary      Share three movies with a user
// @Description  Records exactly three movies for the caller and the user. A pair can share only once.
// @Tags         favorites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path  int            true  "Other user ID"
// @Param        input    body  MovieIDsInput  true  "Three movie IDs"
// @Success      201  {array}   MovieResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Movies already shared"
// @Router       /entities/share-movies/{user_id} [post]
func (h *MovieHandler) ShareMovies(c *gin.Context) {
	otherID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	var input MovieIDsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	record, err := h.favorites.Share(c.Request.Context(), callerID(c), otherID, input.MovieIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapSlice(record.Movies, buildMovieResponse))
}

// GetSharedMovies godoc
// @Summary      Get movies shared with a user
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path  int  true  "Other user ID"
// @Success      200  {array}   MovieResponse
// @Router       /entities/share-movies/{user_id} [get]
func (h *MovieHandler) GetSharedMovies(c *gin.Context) {
	otherID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	movies, err := h.favorites.Shared(c.Request.Context(), callerID(c), otherID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(movies, buildMovieResponse))
}

// endregion

func buildMovieResponse(m models.Movie) MovieResponse {
	info := []models.StreamingOption(m.StreamingInfo)
	if info == nil {
		info = []models.StreamingOption{}
	}
	return MovieResponse{
		ID:            m.ID,
		Title:         m.Title,
		Year:          m.Year,
		Description:   m.Description,
		Rated:         m.Rated,
		StreamingInfo: info,
		HasPoster:     m.PosterID != nil,
	}
}
