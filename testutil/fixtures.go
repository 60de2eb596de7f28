package testutil

import (
	"context"
	"fmt"

	"github.com/marciopocebon/bolt-1/access"
	"github.com/marciopocebon/bolt-1/app"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/permissions"
	"github.com/marciopocebon/bolt-1/prefill"
	"github.com/marciopocebon/bolt-1/sessions"
	"github.com/marciopocebon/bolt-1/users"
)

// AddDefaultUser returns the admin account, creating it with the fixed
// default credentials when it does not exist yet. An existing account is
// returned as stored, so repeated calls share one user.
func (h *Harness) AddDefaultUser(a *app.Application) *users.User {
	h.tb.Helper()

	u, err := a.Users().GetUser(DefaultUsername)
	if err == nil {
		return u
	}
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		h.tb.Fatalf("look up default user: %v", err)
	}

	saved, err := a.Users().SaveUser(users.FromProfile(users.Profile{
		Username:    DefaultUsername,
		Password:    DefaultPassword,
		Email:       DefaultEmail,
		Displayname: DefaultDisplayname,
		Roles:       []string{permissions.RoleAdmin},
		Enabled:     true,
	}))
	if err != nil {
		h.tb.Fatalf("save default user: %v", err)
	}
	return saved
}

// AddNewUser creates a single-role account from the blank-user template
// and flushes the user cache so later lookups re-read the database.
// The email is derived from the username and the password is the shared
// default.
func (h *Harness) AddNewUser(a *app.Application, username, displayname, role string, enabled bool) *users.User {
	h.tb.Helper()

	saved, err := a.Users().SaveUser(users.FromProfile(users.Profile{
		Username:    username,
		Password:    DefaultPassword,
		Email:       username + "@example.com",
		Displayname: displayname,
		Roles:       []string{role},
		Enabled:     enabled,
	}))
	if err != nil {
		h.tb.Fatalf("save user %s: %v", username, err)
	}
	a.Users().FlushCache()
	return saved
}

// AddSomeContent seeds a browsable baseline: the default user, a single
// news category, and prefilled showcases and pages generated from a
// deterministic source. The source is also installed as the prefill
// service so anything that resolves it sees the same canned text.
func (h *Harness) AddSomeContent() {
	h.tb.Helper()
	a := h.App(true)
	h.AddDefaultUser(a)

	a.Config().Set("taxonomy/categories/options", []string{"news"})

	src := NewStaticSource()
	h.SetService(app.Names.Prefill, src)

	st, err := a.Storage()
	if err != nil {
		h.tb.Fatalf("resolve storage: %v", err)
	}
	gen := prefill.NewGenerator(src, a.Log())
	if _, err := st.Prefill(context.Background(), gen, []string{"showcases", "pages"}); err != nil {
		h.tb.Fatalf("prefill content: %v", err)
	}
}

// SetSessionUser marks u as the logged-in user by seeding the session
// with an authentication token carrying the fixed test token string,
// without running the login flow.
func (h *Harness) SetSessionUser(u *users.User) {
	h.tb.Helper()
	a := h.App(true)
	a.Session().Set(sessions.AuthKey, &access.Token{
		User:      u,
		AuthToken: &access.AuthToken{Token: SessionToken},
	})
}

// StaticSource is a deterministic stand-in for the remote filler text
// service. Every fetch returns a numbered paragraph, so seeded records
// get distinct, stable titles.
type StaticSource struct {
	calls int
}

// NewStaticSource returns a source whose numbering starts at one.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// Fetch returns the next canned paragraph.
func (s *StaticSource) Fetch(context.Context, prefill.Options) (string, error) {
	s.calls++
	return fmt.Sprintf(
		"<h2>Sample content %d</h2><p>Lorem ipsum dolor sit amet, consectetur adipiscing elit. Fixture paragraph number %d.</p>",
		s.calls, s.calls), nil
}

var _ prefill.Source = (*StaticSource)(nil)
