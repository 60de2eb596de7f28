package access

import (
	"time"

	"github.com/marciopocebon/bolt-1/config"
)

// CookieName is the name of the authentication cookie.
const CookieName = "bolt_authtoken"

// CookieOptions describes the authentication cookie. The container
// exposes it under "access_control.cookie.options".
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Lifetime time.Duration
	Secure   bool
	HTTPOnly bool
}

// DefaultCookieOptions returns the stock cookie settings: two weeks of
// validity, HTTP-only, root path.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Name:     CookieName,
		Path:     "/",
		Lifetime: 14 * 24 * time.Hour,
		HTTPOnly: true,
	}
}

// CookieOptionsFromConfig derives cookie settings from the general
// configuration.
func CookieOptionsFromConfig(cfg *config.Config) CookieOptions {
	opts := DefaultCookieOptions()
	if lifetime := cfg.GetInt("general/cookies_lifetime"); lifetime > 0 {
		opts.Lifetime = time.Duration(lifetime) * time.Second
	}
	if domain := cfg.GetString("general/cookies_domain"); domain != "" {
		opts.Domain = domain
	}
	opts.Secure = cfg.GetBool("general/enforce_ssl")
	return opts
}
