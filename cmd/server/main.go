package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cinematch/backend/internal/cache"
	"cinematch/backend/internal/config"
	"cinematch/backend/internal/database"
	"cinematch/backend/internal/handler"
	"cinematch/backend/internal/hub"
	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/media"
	"cinematch/backend/internal/middleware"
	"cinematch/backend/internal/movieapi"
	"cinematch/backend/internal/service"
	"cinematch/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Swagger imports
	_ "cinematch/backend/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Cinematch API
// @version         1.0
// @description     Social movie matching: friends, favorites and shared picks.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.AppConfig
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.JWTSecret == "" {
		logging.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	database.Connect(cfg.DatabaseURL)
	defer func() {
		if err := database.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close database")
		}
	}()

	// Redis is optional; without it search results are not cached and logout is client-side only.
	appCache := cache.New(nil)
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logging.Warn().Err(err).Msg("continuing without Redis")
		} else {
			appCache = cache.New(rdb)
			defer rdb.Close()
		}
	}

	store, err := media.NewLocalStore(cfg.MediaRoot)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to prepare media store")
	}

	httpClient := movieapi.NewHTTPClient()
	omdb := movieapi.NewOMDbClient(cfg.OMDbAPIURL, cfg.OMDbAPIKey, httpClient)
	streaming := movieapi.NewStreamingClient(cfg.StreamingAPIURL, cfg.StreamingAPIHost, cfg.StreamingAPIKey, cfg.StreamingCountry, httpClient)
	downloader := movieapi.NewDownloader(httpClient)

	events := hub.NewHub()
	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	userService := service.NewUserService(database.DB, store)
	authService := service.NewAuthService(userService, issuer, appCache)
	friendService := service.NewFriendService(database.DB, events)
	favoriteService := service.NewFavoriteService(database.DB, events)
	movieService := service.NewMovieService(database.DB, store, omdb, streaming, downloader, appCache)

	if err := userService.SeedRoles(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed roles")
	}
	if cfg.SeedDemoUsers {
		if err := userService.SeedDemoUsers(ctx); err != nil {
			logging.Fatal().Err(err).Msg("failed to seed demo users")
		}
	}
	if err := userService.EnsureDefaultAvatar(ctx, cfg.DefaultAvatarPath); err != nil {
		logging.Warn().Err(err).Str("path", cfg.DefaultAvatarPath).Msg("default avatar unavailable")
	}

	handler.RegisterValidators()
	handlers := handler.Handlers{
		Users:     handler.NewUserHandler(userService, authService),
		Relations: handler.NewRelationHandler(friendService),
		Movies:    handler.NewMovieHandler(movieService, favoriteService),
		Images:    handler.NewImageHandler(userService, movieService),
		Events:    handler.NewEventHandler(events),
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.Metrics())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	handler.RegisterRoutes(router, authService, handlers,
		middleware.RateLimit(ctx, cfg.RateLimitPerMinute, cfg.RateLimitBurst))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when ctx is cancelled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server is running")
		logging.Info().Msgf("Swagger UI is available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
