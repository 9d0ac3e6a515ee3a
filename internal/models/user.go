package models

import "gorm.io/gorm"

const (
	MaxNameLen     = 16
	MinUsernameLen = 6
	MaxUsernameLen = 16

	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User represents a user in the system.
// Username uniqueness is case-insensitive, enforced by idx_users_username_lower (see database.Migrate).
type User struct {
	gorm.Model
	FirstName    string `gorm:"size:16;not null"`
	LastName     string `gorm:"size:16;not null"`
	Username     string `gorm:"size:16;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	Roles          []Role  `gorm:"many2many:user_roles;"`
	FavoriteMovies []Movie `gorm:"many2many:user_favorite_movies;"`

	AvatarID *uint
	Avatar   *Avatar `gorm:"foreignKey:AvatarID"`
}

// Role is a name-keyed authorization tag.
type Role struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
}

// HasRole reports whether the user holds the named role. Roles must be preloaded.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the preloaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
