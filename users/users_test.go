package users

import (
	"testing"

	"github.com/marciopocebon/bolt-1/auth/password"
	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver:       "sqlite",
		Databasename: "bolt",
		Prefix:       "bolt_",
		Path:         ":memory:",
		Wrapper:      config.WrapperStandard,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return NewStore(db, nil, logger.Discard())
}

func adminProfile() Profile {
	return Profile{
		Username:    "admin",
		Password:    "password",
		Email:       "admin@example.com",
		Displayname: "Admin",
		Roles:       []string{"admin"},
		Enabled:     true,
	}
}

func TestSaveUser_CreatesAndHashesPassword(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.SaveUser(FromProfile(adminProfile()))
	if err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	if saved.ID.String() == "" {
		t.Error("saved user has no ID")
	}
	if saved.Password == "password" {
		t.Error("password stored in plain text")
	}
	if !password.IsHash(saved.Password) {
		t.Errorf("stored password %q is not a recognized hash", saved.Password)
	}
}

func TestSaveUser_ExistingUsernameIsNoOp(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SaveUser(FromProfile(adminProfile()))
	if err != nil {
		t.Fatalf("first SaveUser failed: %v", err)
	}

	dup := FromProfile(adminProfile())
	dup.Displayname = "Impostor"
	second, err := s.SaveUser(dup)
	if err != nil {
		t.Fatalf("second SaveUser failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("duplicate save created a new record: %s vs %s", second.ID, first.ID)
	}
	if second.Displayname != "Admin" {
		t.Errorf("Displayname = %q, want existing record unchanged", second.Displayname)
	}

	count, _ := s.Count()
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestSaveUser_KeepsExistingHash(t *testing.T) {
	s := newTestStore(t)

	hashed, err := password.NewBcryptHasher().Hash("secret-value")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	u := EmptyUser()
	u.Username = "editor"
	u.Password = hashed
	saved, err := s.SaveUser(u)
	if err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	if saved.Password != hashed {
		t.Error("already-hashed password was re-hashed on save")
	}
}

func TestSaveUser_RequiresUsername(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SaveUser(EmptyUser()); !apperrors.IsCode(err, apperrors.ErrCodeMissingField) {
		t.Errorf("SaveUser without username error = %v, want MISSING_FIELD", err)
	}
}

func TestGetUser_ByUsernameEmailAndID(t *testing.T) {
	s := newTestStore(t)
	saved, err := s.SaveUser(FromProfile(adminProfile()))
	if err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	for _, identifier := range []string{"admin", "admin@example.com", saved.ID.String()} {
		got, err := s.GetUser(identifier)
		if err != nil {
			t.Fatalf("GetUser(%s) failed: %v", identifier, err)
		}
		if got.Username != "admin" {
			t.Errorf("GetUser(%s).Username = %q, want admin", identifier, got.Username)
		}
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUser("ghost")
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("GetUser error = %v, want NOT_FOUND", err)
	}
}

func TestGetUser_ReadsCacheUntilFlushed(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SaveUser(FromProfile(adminProfile())); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	if err := s.db.GormDB.Model(&User{}).Where("username = ?", "admin").
		Update("displayname", "Renamed").Error; err != nil {
		t.Fatalf("direct update failed: %v", err)
	}

	cached, err := s.GetUser("admin")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if cached.Displayname != "Admin" {
		t.Errorf("cached Displayname = %q, want Admin", cached.Displayname)
	}

	s.FlushCache()
	fresh, err := s.GetUser("admin")
	if err != nil {
		t.Fatalf("GetUser after flush failed: %v", err)
	}
	if fresh.Displayname != "Renamed" {
		t.Errorf("Displayname after flush = %q, want Renamed", fresh.Displayname)
	}
}

func TestGetUsers_PrimesCache(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"alice", "bob"} {
		u := EmptyUser()
		u.Username = name
		if _, err := s.SaveUser(u); err != nil {
			t.Fatalf("SaveUser(%s) failed: %v", name, err)
		}
	}
	s.FlushCache()

	list, err := s.GetUsers()
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("GetUsers returned %d users, want 2", len(list))
	}
	if list[0].Username != "alice" || list[1].Username != "bob" {
		t.Errorf("GetUsers order = [%s %s], want [alice bob]", list[0].Username, list[1].Username)
	}

	s.mu.RLock()
	_, cached := s.cache["alice"]
	s.mu.RUnlock()
	if !cached {
		t.Error("GetUsers did not prime the cache")
	}
}

func TestIsEnabled(t *testing.T) {
	s := newTestStore(t)

	enabled := FromProfile(adminProfile())
	if _, err := s.SaveUser(enabled); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	disabled := EmptyUser()
	disabled.Username = "suspended"
	disabled.Enabled = false
	if _, err := s.SaveUser(disabled); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	if ok, err := s.IsEnabled("admin"); err != nil || !ok {
		t.Errorf("IsEnabled(admin) = %v, %v, want true", ok, err)
	}
	if ok, err := s.IsEnabled("suspended"); err != nil || ok {
		t.Errorf("IsEnabled(suspended) = %v, %v, want false", ok, err)
	}
	if _, err := s.IsEnabled("ghost"); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("IsEnabled(ghost) error = %v, want NOT_FOUND", err)
	}
}

func TestDeleteUser(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SaveUser(FromProfile(adminProfile())); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	if err := s.DeleteUser("admin"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := s.GetUser("admin"); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("GetUser after delete = %v, want NOT_FOUND", err)
	}
	count, _ := s.Count()
	if count != 0 {
		t.Errorf("Count after delete = %d, want 0", count)
	}
}

func TestEmptyUser_Template(t *testing.T) {
	u := EmptyUser()
	if !u.Enabled {
		t.Error("template user should be enabled")
	}
	if len(u.Roles) != 0 {
		t.Errorf("template Roles = %v, want empty", u.Roles)
	}
}

func TestFromProfile_AppliesEveryField(t *testing.T) {
	u := FromProfile(Profile{
		Username:    "chief",
		Password:    "secret-value",
		Email:       "chief@example.com",
		Displayname: "Chief Editor",
		Roles:       []string{"chief-editor"},
		Enabled:     false,
	})
	if u.Username != "chief" || u.Email != "chief@example.com" || u.Displayname != "Chief Editor" {
		t.Errorf("identity fields not applied: %+v", u)
	}
	if u.Enabled {
		t.Error("Enabled override lost")
	}
	if !u.HasRole("chief-editor") {
		t.Error("role not applied")
	}
}

func TestHasRole(t *testing.T) {
	u := FromProfile(adminProfile())
	if !u.HasRole("admin") {
		t.Error("HasRole(admin) = false")
	}
	if u.HasRole("root") {
		t.Error("HasRole(root) = true for admin-only user")
	}
}
