package database

import (
	"fmt"
	"time"

	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) {
	db, err := Open(postgres.Open(dsn))
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logging.Info().Msg("database connection established")

	if err := Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate database")
	}

	logging.Info().Msg("database migrated successfully")
	DB = db
}

// Open opens a gorm handle with the application's logger and error translation.
// Driver errors such as unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gormLogger := logger.New(
		logging.GormWriter{},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Role{},
		&models.Avatar{},
		&models.MoviePoster{},
		&models.Movie{},
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.SharedFavoriteMovies{},
	); err != nil {
		return err
	}

	// Usernames are unique regardless of case. The exact-match index from the
	// struct tag cannot express that, so the expression index is created here.
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))").Error; err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}
	return nil
}

// Close releases the pool behind DB.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
