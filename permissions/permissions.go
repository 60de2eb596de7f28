// Package permissions implements the role-based permission checker
// behind the "permissions" service. Which roles may do what comes from
// the permissions configuration file.
package permissions

import (
	"strings"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/users"
)

// Role names referenced by the permission configuration.
const (
	RoleRoot        = "root"
	RoleAdmin       = "admin"
	RoleChiefEditor = "chief-editor"
	RoleEditor      = "editor"
	RoleDeveloper   = "developer"
	RoleEveryone    = "everyone"
	RoleAnonymous   = "anonymous"
)

// Service is the permission contract consumed by access control and the
// backend. Checker implements it; test doubles wrap it.
type Service interface {
	IsAllowed(what string, u *users.User, contenttype string) bool
}

// Checker answers permission questions from the permissions config tree.
type Checker struct {
	cfg *config.Config
	log *logger.Logger
}

var _ Service = (*Checker)(nil)

// NewChecker creates a config-backed permission checker.
func NewChecker(cfg *config.Config, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Checker{cfg: cfg, log: log.WithComponent("permissions")}
}

// IsAllowed reports whether u may perform what. The query is either a
// global permission name ("dashboard"), a compound
// "contenttype:<slug>:<permission>" path, or a bare permission name
// combined with a non-empty contenttype argument. Users carrying the
// root role pass every check.
func (c *Checker) IsAllowed(what string, u *users.User, contenttype string) bool {
	if u != nil && u.HasRole(RoleRoot) {
		return true
	}

	what = strings.TrimSpace(what)
	if what == "" {
		return false
	}

	parts := strings.Split(what, ":")
	if parts[0] == "contenttype" && len(parts) >= 2 {
		perm := "view"
		if len(parts) >= 3 && parts[2] != "" {
			perm = parts[2]
		}
		return c.contentTypeAllowed(perm, parts[1], u)
	}
	if contenttype != "" {
		return c.contentTypeAllowed(what, contenttype, u)
	}

	return c.hasAnyRole(u, c.cfg.GetStringSlice("permissions/global/"+what))
}

// contentTypeAllowed checks a contenttype permission, falling back to
// the contenttype-default block when no per-type rule is configured.
func (c *Checker) contentTypeAllowed(perm, contenttype string, u *users.User) bool {
	roles := c.cfg.GetStringSlice("permissions/contenttypes/" + contenttype + "/" + perm)
	if len(roles) == 0 {
		roles = c.cfg.GetStringSlice("permissions/contenttype-default/" + perm)
	}
	return c.hasAnyRole(u, roles)
}

func (c *Checker) hasAnyRole(u *users.User, roles []string) bool {
	for _, role := range roles {
		switch role {
		case RoleAnonymous:
			return true
		case RoleEveryone:
			if u != nil {
				return true
			}
		default:
			if u != nil && u.HasRole(role) {
				return true
			}
		}
	}
	return false
}
