package access

import (
	"time"

	"github.com/marciopocebon/bolt-1/database"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/users"
)

// AuthToken is a persisted login token. One row exists per remembered
// session; the token string is what the browser carries in its cookie.
type AuthToken struct {
	database.BaseModel
	Token     string    `gorm:"uniqueIndex;size:128" json:"token"`
	Username  string    `gorm:"index;size:64" json:"username"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"useragent"`
	Validity  time.Time `json:"validity"`
	Lastseen  time.Time `json:"lastseen"`
}

// Expired reports whether the token's validity window has passed. A
// zero Validity never expires.
func (t *AuthToken) Expired() bool {
	return !t.Validity.IsZero() && time.Now().After(t.Validity)
}

// Token pairs a user with its persisted auth token. It is the value
// stored in the session under sessions.AuthKey.
type Token struct {
	User      *users.User
	AuthToken *AuthToken
}

// String returns the raw token string, or "" when no token is attached.
func (t *Token) String() string {
	if t == nil || t.AuthToken == nil {
		return ""
	}
	return t.AuthToken.Token
}

// TokenStore persists auth tokens.
type TokenStore struct {
	db  *database.DB
	log *logger.Logger
}

// NewTokenStore creates a token store on db.
func NewTokenStore(db *database.DB, log *logger.Logger) *TokenStore {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &TokenStore{db: db, log: log.WithComponent("authtokens")}
}

// Get returns the persisted token matching the raw token string.
func (s *TokenStore) Get(token string) (*AuthToken, error) {
	var t AuthToken
	if err := s.db.GormDB.Where("token = ?", token).First(&t).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.InvalidToken()
		}
		return nil, database.FromDatabase(err, "auth token")
	}
	return &t, nil
}

// Save creates or updates a token record.
func (s *TokenStore) Save(t *AuthToken) error {
	if t.Token == "" {
		return apperrors.MissingField("token")
	}
	if err := s.db.GormDB.Save(t).Error; err != nil {
		return database.FromDatabase(err, "auth token")
	}
	return nil
}

// Delete removes the token matching the raw token string. Absent tokens
// are not an error.
func (s *TokenStore) Delete(token string) error {
	if err := s.db.GormDB.Where("token = ?", token).Delete(&AuthToken{}).Error; err != nil {
		return database.FromDatabase(err, "auth token")
	}
	return nil
}

// DeleteForUser removes every token issued to username.
func (s *TokenStore) DeleteForUser(username string) error {
	if err := s.db.GormDB.Where("username = ?", username).Delete(&AuthToken{}).Error; err != nil {
		return database.FromDatabase(err, "auth token")
	}
	return nil
}

// DeleteExpired removes tokens whose validity has passed and returns
// how many were dropped.
func (s *TokenStore) DeleteExpired() (int64, error) {
	res := s.db.GormDB.
		Where("validity != ? AND validity < ?", time.Time{}, time.Now()).
		Delete(&AuthToken{})
	if res.Error != nil {
		return 0, database.FromDatabase(res.Error, "auth token")
	}
	return res.RowsAffected, nil
}

// Count returns the number of persisted tokens.
func (s *TokenStore) Count() (int64, error) {
	var count int64
	if err := s.db.GormDB.Model(&AuthToken{}).Count(&count).Error; err != nil {
		return 0, database.FromDatabase(err, "auth tokens")
	}
	return count, nil
}
