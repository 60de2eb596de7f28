package users

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/marciopocebon/bolt-1/auth/password"
	"github.com/marciopocebon/bolt-1/database"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
)

// Store is the database-backed user store. Reads go through an
// in-memory cache keyed by username; FlushCache drops it so the next
// lookup re-reads from the database.
type Store struct {
	db     *database.DB
	hasher password.Hasher
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[string]*User
}

var _ Service = (*Store)(nil)

// NewStore creates a user store. A nil hasher falls back to bcrypt.
func NewStore(db *database.DB, hasher password.Hasher, log *logger.Logger) *Store {
	if hasher == nil {
		hasher = password.NewBcryptHasher()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Store{
		db:     db,
		hasher: hasher,
		log:    log.WithComponent("users"),
		cache:  make(map[string]*User),
	}
}

// GetUser looks a user up by username, email, or ID. Cached entries are
// returned without touching the database.
func (s *Store) GetUser(identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.InvalidInput("identifier", "must not be empty")
	}

	s.mu.RLock()
	if u, ok := s.cache[identifier]; ok {
		s.mu.RUnlock()
		copied := *u
		return &copied, nil
	}
	s.mu.RUnlock()

	var u User
	query := s.db.GormDB.Where("username = ? OR email = ?", identifier, identifier)
	if id, err := uuid.Parse(identifier); err == nil {
		query = s.db.GormDB.Where("id = ?", id)
	}
	if err := query.First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.NotFound("user", identifier)
		}
		return nil, database.FromDatabase(err, "user")
	}

	s.remember(&u)
	copied := u
	return &copied, nil
}

// GetUsers returns all users and primes the cache with them.
func (s *Store) GetUsers() ([]User, error) {
	var list []User
	if err := s.db.GormDB.Order("username").Find(&list).Error; err != nil {
		return nil, database.FromDatabase(err, "users")
	}
	for i := range list {
		s.remember(&list[i])
	}
	return list, nil
}

// SaveUser persists u. A plain-text password is hashed before writing;
// an already-hashed one is stored as is. Creating a user whose username
// already exists is a no-op that returns the existing record unchanged.
func (s *Store) SaveUser(u *User) (*User, error) {
	if u == nil || strings.TrimSpace(u.Username) == "" {
		return nil, apperrors.MissingField("username")
	}

	if u.Password != "" && !password.IsHash(u.Password) {
		hashed, err := s.hasher.Hash(u.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}

	if u.ID == uuid.Nil {
		existing, err := s.GetUser(u.Username)
		if err == nil {
			return existing, nil
		}
		if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return nil, err
		}
		if err := s.db.GormDB.Create(u).Error; err != nil {
			return nil, database.FromDatabase(err, "user")
		}
	} else {
		if err := s.db.GormDB.Save(u).Error; err != nil {
			return nil, database.FromDatabase(err, "user")
		}
	}

	s.remember(u)
	s.log.Debug("User saved", map[string]interface{}{"username": u.Username})
	copied := *u
	return &copied, nil
}

// DeleteUser removes the user matching identifier and evicts it from
// the cache.
func (s *Store) DeleteUser(identifier string) error {
	u, err := s.GetUser(identifier)
	if err != nil {
		return err
	}
	if err := s.db.GormDB.Delete(&User{}, "id = ?", u.ID).Error; err != nil {
		return database.FromDatabase(err, "user")
	}

	s.mu.Lock()
	delete(s.cache, u.Username)
	delete(s.cache, u.Email)
	delete(s.cache, u.ID.String())
	s.mu.Unlock()
	return nil
}

// EmptyUser returns the blank-user template.
func (s *Store) EmptyUser() *User {
	return EmptyUser()
}

// IsEnabled reports whether the named account is enabled.
func (s *Store) IsEnabled(username string) (bool, error) {
	u, err := s.GetUser(username)
	if err != nil {
		return false, err
	}
	return u.Enabled, nil
}

// Count returns the number of stored users.
func (s *Store) Count() (int64, error) {
	var count int64
	if err := s.db.GormDB.Model(&User{}).Count(&count).Error; err != nil {
		return 0, database.FromDatabase(err, "users")
	}
	return count, nil
}

// FlushCache drops the in-memory user cache.
func (s *Store) FlushCache() {
	s.mu.Lock()
	s.cache = make(map[string]*User)
	s.mu.Unlock()
}

func (s *Store) remember(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *u
	s.cache[u.Username] = &copied
	if u.Email != "" {
		s.cache[u.Email] = &copied
	}
	s.cache[u.ID.String()] = &copied
}
