package access

import (
	"net/http"
	"time"

	"github.com/marciopocebon/bolt-1/auth/password"
	"github.com/marciopocebon/bolt-1/dispatcher"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/users"
)

// failedLoginsBeforeThrottle is how many bad attempts an account takes
// before logins are delayed.
const failedLoginsBeforeThrottle = 5

// LoginService is the login-flow contract. Login implements it; test
// doubles wrap it.
type LoginService interface {
	Login(username, pwd string) (bool, error)
}

// LoginDeps are the collaborators the login flow is built from.
type LoginDeps struct {
	Users      users.Service
	Access     Service
	Hasher     password.Hasher
	Dispatcher *dispatcher.Dispatcher
	Requests   RequestSource
	Flash      *logger.FlashLogger
	Log        *logger.Logger
}

// Login authenticates credentials and opens sessions. The container
// exposes it under "access_control.login".
type Login struct {
	deps LoginDeps
	log  *logger.Logger
}

var _ LoginService = (*Login)(nil)

// NewLogin creates the login flow from its container deps.
func NewLogin(deps LoginDeps) *Login {
	log := deps.Log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Login{deps: deps, log: log.WithComponent("login")}
}

// Login authenticates username and pwd. On success a session is started
// and true is returned. Bad credentials, a disabled account, or a
// throttled account return false with the reason flashed; the error
// return is reserved for infrastructure failures.
func (l *Login) Login(username, pwd string) (bool, error) {
	u, err := l.deps.Users.GetUser(username)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			l.log.Info("Failed login attempt", map[string]interface{}{"username": username})
			l.deps.Flash.Error("Username or password not correct. Please check your input.")
			return false, nil
		}
		return false, err
	}

	enabled, err := l.deps.Users.IsEnabled(u.Username)
	if err != nil {
		return false, err
	}
	if !enabled {
		l.deps.Flash.Error("Your account is disabled. Sorry about that.")
		return false, nil
	}

	if u.ThrottledUntil.After(time.Now()) {
		l.deps.Flash.Error("Too many failed login attempts. Please wait before trying again.")
		return false, nil
	}

	if err := l.deps.Hasher.Verify(pwd, u.Password); err != nil {
		u.FailedLogins++
		if u.FailedLogins >= failedLoginsBeforeThrottle {
			u.ThrottledUntil = time.Now().Add(time.Duration(u.FailedLogins) * 15 * time.Second)
		}
		if _, saveErr := l.deps.Users.SaveUser(u); saveErr != nil {
			return false, saveErr
		}
		l.log.Info("Failed login attempt", map[string]interface{}{"username": username})
		l.deps.Flash.Error("Username or password not correct. Please check your input.")
		return false, nil
	}

	u.FailedLogins = 0
	u.ThrottledUntil = time.Time{}
	u.Lastseen = time.Now()
	if req := l.currentRequest(); req != nil {
		u.LastIP = req.RemoteAddr
	}
	if _, err := l.deps.Users.SaveUser(u); err != nil {
		return false, err
	}

	if _, err := l.deps.Access.StartSession(u); err != nil {
		return false, err
	}

	if l.deps.Dispatcher != nil {
		l.deps.Dispatcher.Dispatch(dispatcher.NewEvent(dispatcher.Login, u))
	}
	l.deps.Flash.Success("You've been logged on successfully.")
	l.log.Info("Login", map[string]interface{}{"username": username})
	return true, nil
}

func (l *Login) currentRequest() *http.Request {
	if l.deps.Requests == nil {
		return nil
	}
	return l.deps.Requests.Current()
}
