// Package users implements the user store behind the "users" service.
package users

import (
	"time"

	"github.com/marciopocebon/bolt-1/database"
)

// User is a backend account.
type User struct {
	database.BaseModel
	Username       string    `gorm:"uniqueIndex;size:64" json:"username"`
	Password       string    `json:"-"`
	Email          string    `gorm:"size:254" json:"email"`
	Displayname    string    `json:"displayname"`
	Roles          []string  `gorm:"serializer:json" json:"roles"`
	Enabled        bool      `json:"enabled"`
	Lastseen       time.Time `json:"lastseen"`
	LastIP         string    `json:"lastip"`
	FailedLogins   int       `json:"failedlogins"`
	ThrottledUntil time.Time `json:"throttleduntil"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is the override set applied onto the blank-user template when
// seeding accounts. Every field is assigned explicitly so a reader can
// see exactly what a seeded user is made of.
type Profile struct {
	Username    string
	Password    string
	Email       string
	Displayname string
	Roles       []string
	Enabled     bool
}

// FromProfile builds a full user record by applying p onto the blank
// template.
func FromProfile(p Profile) *User {
	u := EmptyUser()
	u.Username = p.Username
	u.Password = p.Password
	u.Email = p.Email
	u.Displayname = p.Displayname
	if len(p.Roles) > 0 {
		u.Roles = append([]string{}, p.Roles...)
	}
	u.Enabled = p.Enabled
	return u
}

// EmptyUser returns the blank-user template: enabled, no roles, every
// identity field left for the caller to fill.
func EmptyUser() *User {
	return &User{
		Roles:   []string{},
		Enabled: true,
	}
}

// Service is the user-store contract consumed by access control and the
// backend. Store implements it; test doubles wrap it.
type Service interface {
	GetUser(identifier string) (*User, error)
	GetUsers() ([]User, error)
	SaveUser(u *User) (*User, error)
	DeleteUser(identifier string) error
	EmptyUser() *User
	IsEnabled(username string) (bool, error)
	Count() (int64, error)
	FlushCache()
}
