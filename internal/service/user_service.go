package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/logging"
	"cinematch/backend/internal/media"
	"cinematch/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,4}$`)

// ValidEmail reports whether email has the accepted address shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// ProfileUpdate holds the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

// UserService manages accounts, roles and avatars.
type UserService struct {
	db    *gorm.DB
	store media.Store
}

func NewUserService(db *gorm.DB, store media.Store) *UserService {
	return &UserService{db: db, store: store}
}

// region --- Accounts ---

// Register creates a user with ROLE_USER.
// Email uniqueness is exact; username uniqueness ignores case.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleUser)
}

func (s *UserService) register(ctx context.Context, in RegisterInput, roleNames ...string) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check email")
	}
	if count > 0 {
		return nil, apperr.Conflict("email already exists")
	}
	if err := db.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", in.Username).Count(&count).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check username")
	}
	if count > 0 {
		return nil, apperr.Conflict("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to hash password")
	}

	var roles []models.Role
	if err := db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load roles")
	}
	if len(roles) != len(roleNames) {
		logging.Warn().Strs("roles", roleNames).Msg("some roles are not seeded, registering without them")
	}

	user := models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Roles:        roles,
	}
	if err := db.Omit("Roles.*").Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return nil, apperr.Conflict("username or email already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create user")
	}

	logging.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return &user, nil
}

func validateRegistration(in RegisterInput) error {
	first := utf8.RuneCountInString(in.FirstName)
	last := utf8.RuneCountInString(in.LastName)
	username := utf8.RuneCountInString(in.Username)
	switch {
	case first == 0 || first > models.MaxNameLen:
		return apperr.InvalidArgument("first name must be 1 to %d characters", models.MaxNameLen)
	case last == 0 || last > models.MaxNameLen:
		return apperr.InvalidArgument("last name must be 1 to %d characters", models.MaxNameLen)
	case username < models.MinUsernameLen || username > models.MaxUsernameLen:
		return apperr.InvalidArgument("username must be %d to %d characters", models.MinUsernameLen, models.MaxUsernameLen)
	case !ValidEmail(in.Email):
		return apperr.InvalidArgument("invalid email address")
	case in.Password == "":
		return apperr.InvalidArgument("password is required")
	}
	return nil
}

// GetByID returns a user with roles and avatar.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Roles").Preload("Avatar").First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// GetByUsername looks a user up ignoring case.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Roles").
		Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).
		First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// ListExcept returns a page of users other than the caller, optionally filtered by a username substring.
func (s *UserService) ListExcept(ctx context.Context, callerID uint, query string, page, limit int) (*Page[models.User], error) {
	db := s.db.WithContext(ctx).Where("id <> ?", callerID).Order("username")
	if q := strings.TrimSpace(query); q != "" {
		db = db.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	result, err := paginate[models.User](db, page, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to list users")
	}
	return result, nil
}

// UpdateProfile changes the caller's names.
func (s *UserService) UpdateProfile(ctx context.Context, callerID uint, in ProfileUpdate) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.FirstName != nil {
		if *in.FirstName == "" || utf8.RuneCountInString(*in.FirstName) > models.MaxNameLen {
			return nil, apperr.InvalidArgument("first name must be 1 to %d characters", models.MaxNameLen)
		}
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		if *in.LastName == "" || utf8.RuneCountInString(*in.LastName) > models.MaxNameLen {
			return nil, apperr.InvalidArgument("last name must be 1 to %d characters", models.MaxNameLen)
		}
		updates["last_name"] = *in.LastName
	}

	user, err := s.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", callerID).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to update profile")
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	return user, nil
}

// AddRole grants roleName to userID. Granting a role the user already holds is a no-op.
func (s *UserService) AddRole(ctx context.Context, userID uint, roleName string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, notFoundOr(err, "role")
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasRole(roleName) {
		return user, nil
	}

	if err := db.Model(user).Omit("Roles.*").Association("Roles").Append(&role); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to add role")
	}
	logging.Info().Uint("user_id", userID).Str("role", roleName).Msg("role granted")
	return user, nil
}

// endregion

// region --- Seeding ---

// SeedRoles creates ROLE_USER and ROLE_ADMIN if they are missing.
func (s *UserService) SeedRoles(ctx context.Context) error {
	for _, name := range []string{models.RoleUser, models.RoleAdmin} {
		role := models.Role{Name: name}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&role).Error
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "failed to seed role "+name)
		}
	}
	return nil
}

// DemoPassword is the password of the seeded demo accounts.
const DemoPassword = "password123?"

// SeedDemoUsers creates two regular users and one admin when they do not exist yet.
func (s *UserService) SeedDemoUsers(ctx context.Context) error {
	demo := []struct {
		input RegisterInput
		roles []string
	}{
		{RegisterInput{"Regular", "User", "RegUser1", "user1@email.com", DemoPassword}, []string{models.RoleUser}},
		{RegisterInput{"Regular", "User", "RegUser2", "user2@email.com", DemoPassword}, []string{models.RoleUser}},
		{RegisterInput{"Admin", "User", "Admin1", "admin@email.com", DemoPassword}, []string{models.RoleAdmin, models.RoleUser}},
	}

	for _, d := range demo {
		_, err := s.register(ctx, d.input, d.roles...)
		if apperr.Is(err, apperr.KindConflict) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultAvatar registers the shared default avatar when its file exists.
func (s *UserService) EnsureDefaultAvatar(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn().Str("path", path).Msg("default avatar file not found, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	var avatar models.Avatar
	err = db.Where("filename = ?", models.DefaultAvatarFilename).First(&avatar).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	avatar = models.Avatar{Filename: models.DefaultAvatarFilename, Path: path, Size: info.Size()}
	return db.Create(&avatar).Error
}

// endregion

// region --- Avatars ---

// UploadAvatar stores a new avatar for the caller and removes the previous one.
func (s *UserService) UploadAvatar(ctx context.Context, callerID uint, filename string, r io.Reader) (*models.Avatar, error) {
	user, err := s.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Save(ctx, media.AvatarDir, filepath.Base(filename), r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to store avatar")
	}

	previous := user.Avatar
	avatar := models.Avatar{Filename: obj.Filename, Path: obj.Path, Size: obj.Size}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&avatar).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", callerID).Update("avatar_id", avatar.ID).Error; err != nil {
			return err
		}
		if previous != nil && previous.Filename != models.DefaultAvatarFilename {
			return tx.Delete(previous).Error
		}
		return nil
	})
	if err != nil {
		_ = s.store.Delete(ctx, obj.Path)
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to save avatar")
	}

	if previous != nil && previous.Filename != models.DefaultAvatarFilename {
		if err := s.store.Delete(ctx, previous.Path); err != nil {
			logging.Warn().Err(err).Str("path", previous.Path).Msg("failed to delete previous avatar blob")
		}
	}
	return &avatar, nil
}

// AvatarBytes returns userID's avatar image, or the default avatar when they have none.
func (s *UserService) AvatarBytes(ctx context.Context, userID uint) ([]byte, string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	avatar := user.Avatar
	if avatar == nil {
		var fallback models.Avatar
		if err := s.db.WithContext(ctx).Where("filename = ?", models.DefaultAvatarFilename).First(&fallback).Error; err != nil {
			return nil, "", notFoundOr(err, "avatar")
		}
		avatar = &fallback
	}

	data, err := s.store.Read(ctx, avatar.Path)
	if errors.Is(err, media.ErrNotFound) {
		return nil, "", apperr.NotFound("avatar not found")
	}
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, err, "failed to read avatar")
	}
	return data, avatar.Filename, nil
}

// DeleteAvatar removes the caller's avatar row and then its blob.
func (s *UserService) DeleteAvatar(ctx context.Context, callerID uint) error {
	user, err := s.GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	avatar := user.Avatar
	if avatar == nil || avatar.Filename == models.DefaultAvatarFilename {
		return apperr.NotFound("avatar not found")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", callerID).Update("avatar_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(avatar).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to delete avatar")
	}

	if err := s.store.Delete(ctx, avatar.Path); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to delete avatar file")
	}
	return nil
}

// endregion
