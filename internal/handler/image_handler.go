package handler

import (
	"mime/multipart"
	"net/http"

	"cinematch/backend/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	imageFormField = "image"
	maxImageSize   = 5 << 20
)

// ImageUploadResponse describes a stored image.
type ImageUploadResponse struct {
	ID       uint   `json:"id" example:"3"`
	Filename string `json:"filename" example:"3f0c..._me.png"`
	Size     int64  `json:"size" example:"20480"`
}

// ImageHandler serves avatar and poster images.
type ImageHandler struct {
	users  *service.UserService
	movies *service.MovieService
}

func NewImageHandler(users *service.UserService, movies *service.MovieService) *ImageHandler {
	return &ImageHandler{users: users, movies: movies}
}

// openUpload returns the uploaded image part, answering 400 when it is missing or too large.
func openUpload(c *gin.Context) (multipart.File, string, bool) {
	header, err := c.FormFile(imageFormField)
	if err != nil {
		badRequest(c, "An image file is required in the '"+imageFormField+"' field")
		return nil, "", false
	}
	if header.Size > maxImageSize {
		badRequest(c, "Image is too large")
		return nil, "", false
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "Unable to read image")
		return nil, "", false
	}
	return file, header.Filename, true
}

func writeImage(c *gin.Context, data []byte) {
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// region --- Avatars ---

// UploadAvatar godoc
// @Summary      Upload avatar
// @Description  Stores a new avatar for the caller and removes the previous one.
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "Avatar image"
// @Success      201  {object}  ImageUploadResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /images/upload/avatar [post]
func (h *ImageHandler) UploadAvatar(c *gin.Context) {
	file, name, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	avatar, err := h.users.UploadAvatar(c.Request.Context(), callerID(c), name, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ImageUploadResponse{ID: avatar.ID, Filename: avatar.Filename, Size: avatar.Size})
}

// GetMyAvatar godoc
// @Summary      Get own avatar
// @Tags         images
// @Produce      image/png,image/jpeg
// @Security     BearerAuth
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /images/avatar [get]
func (h *ImageHandler) GetMyAvatar(c *gin.Context) {
	h.serveAvatar(c, callerID(c))
}

// GetAvatar godoc
// @Summary      Get a user's avatar
// @Description  Falls back to the default avatar when the user has none.
// @Tags         images
// @Produce      image/png,image/jpeg
// @Security     BearerAuth
// @Param        user_id  path  int  true  "User ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /images/avatar/{user_id} [get]
func (h *ImageHandler) GetAvatar(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	h.serveAvatar(c, userID)
}

func (h *ImageHandler) serveAvatar(c *gin.Context, userID uint) {
	data, _, err := h.users.AvatarBytes(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	writeImage(c, data)
}

// DeleteAvatar godoc
// @Summary      Delete own avatar
// @Tags         images
// @Security     BearerAuth
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /images/avatar [delete]
func (h *ImageHandler) DeleteAvatar(c *gin.Context) {
	if err := h.users.DeleteAvatar(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// endregion

// region --- Posters ---

// UploadPoster godoc
// @Summary      Upload a movie poster
// @Description  Replaces a movie's poster. Admin only.
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        movie_id  path      int   true  "Movie ID"
// @Param        image     formData  file  true  "Poster image"
// @Success      201  {object}  ImageUploadResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /images/upload/movie/{movie_id} [post]
func (h *ImageHandler) UploadPoster(c *gin.Context) {
	movieID, ok := parseIDParam(c, "movie_id")
	if !ok {
		return
	}
	file, name, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	poster, err := h.movies.UploadPoster(c.Request.Context(), movieID, name, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ImageUploadResponse{ID: poster.ID, Filename: poster.Filename, Size: poster.Size})
}

// GetPoster godoc
// @Summary      Get a movie poster
// @Tags         images
// @Produce      image/png,image/jpeg
// @Security     BearerAuth
// @Param        movie_id  path  int  true  "Movie ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /images/movie/{movie_id} [get]
func (h *ImageHandler) GetPoster(c *gin.Context) {
	movieID, ok := parseIDParam(c, "movie_id")
	if !ok {
		return
	}

	data, _, err := h.movies.PosterBytes(c.Request.Context(), movieID)
	if err != nil {
		respondError(c, err)
		return
	}
	writeImage(c, data)
}

// endregion
