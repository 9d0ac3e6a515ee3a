package handler

import (
	"cinematch/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handlers groups the route handlers mounted under /api.
type Handlers struct {
	Users     *UserHandler
	Relations *RelationHandler
	Movies    *MovieHandler
	Images    *ImageHandler
	Events    *EventHandler
}

// RegisterRoutes mounts the API on router. actionLimits run in front of every /actions route.
func RegisterRoutes(router gin.IRouter, authn auth.Authenticator, h Handlers, actionLimits ...gin.HandlerFunc) {
	requireUser := auth.AuthMiddleware(authn)
	requireAdmin := auth.AdminMiddleware()

	api := router.Group("/api")
	api.Use(auth.OptionalAuthMiddleware(authn))
	{
		// Actions
		actions := api.Group("/actions")
		actions.Use(actionLimits...)
		{
			actions.POST("/register", h.Users.Register)
			actions.POST("/login", h.Users.Login)
			actions.POST("/logout", requireUser, h.Users.Logout)

			adminActions := actions.Group("")
			adminActions.Use(requireUser, requireAdmin)
			{
				adminActions.POST("/movie/search", h.Movies.SearchMovies)
				adminActions.POST("/movie/add", h.Movies.AddMovie)
				adminActions.POST("/users/:id/roles/:role", h.Users.AddRole)
			}
		}

		// Entities (protected)
		entities := api.Group("/entities")
		entities.Use(requireUser)
		{
			entities.GET("/user", h.Users.GetMe)
			entities.PUT("/user", h.Users.UpdateMe)
			entities.GET("/users", h.Users.SearchUsers) // Must be before /:id
			entities.GET("/user/:id", h.Users.GetUserByID)

			// Friend requests
			entities.POST("/users/friend-requests/:recipient_id", h.Relations.SendRequest)
			entities.DELETE("/users/friend-requests/:recipient_id", h.Relations.CancelRequest)
			entities.GET("/friend-requests", h.Relations.GetIncomingRequests)
			entities.GET("/friend-requests/sent", h.Relations.GetOutgoingRequests)
			entities.PUT("/friend-requests/:request_id", h.Relations.AcceptRequest)
			entities.DELETE("/friend-requests/:request_id", h.Relations.DenyRequest)

			// Friends
			entities.GET("/friends", h.Relations.GetFriends)
			entities.GET("/friends/:friend_user_id", h.Relations.GetFriend)
			entities.DELETE("/friends/:friend_user_id", h.Relations.RemoveFriend)

			// Movies and favorites
			entities.GET("/movies", h.Movies.ListMovies)
			entities.GET("/movies/:movie_id", h.Movies.GetMovie)
			entities.DELETE("/movies/:movie_id", requireAdmin, h.Movies.DeleteMovie)
			entities.POST("/user/favorite-movies", h.Movies.SetFavorites)
			entities.GET("/user/favorite-movies", h.Movies.GetFavorites)
			entities.POST("/share-movies/:user_id", h.Movies.ShareMovies)
			entities.GET("/share-movies/:user_id", h.Movies.GetSharedMovies)

			entities.GET("/events", h.Events.StreamEvents)
		}

		// Images (protected)
		images := api.Group("/images")
		images.Use(requireUser)
		{
			images.POST("/upload/avatar", h.Images.UploadAvatar)
			images.GET("/avatar", h.Images.GetMyAvatar)
			images.DELETE("/avatar", h.Images.DeleteAvatar)
			images.GET("/avatar/:user_id", h.Images.GetAvatar)
			images.POST("/upload/movie/:movie_id", requireAdmin, h.Images.UploadPoster)
			images.GET("/movie/:movie_id", h.Images.GetPoster)
		}
	}
}
