package app

// ServiceNames defines the container keys the application registers its
// services under. Tests and wiring code address services through these
// rather than raw strings.
type ServiceNames struct {
	// Core values
	Config     string
	Resources  string
	Filesystem string
	SystemLog  string
	FlashLog   string
	Random     string

	// Collaborators
	Dispatcher   string
	Session      string
	RequestStack string
	Exception    string

	// Content and rendering
	Cache       string
	Render      string
	Database    string
	StorageLazy string
	Storage     string
	Prefill     string
	ChangeLog   string

	// Accounts and access control
	Users         string
	Permissions   string
	Access        string
	Login         string
	CookieOptions string
	CSRF          string
}

// Names contains the canonical container keys.
var Names = ServiceNames{
	Config:     "config",
	Resources:  "resources",
	Filesystem: "filesystem",
	SystemLog:  "logger.system",
	FlashLog:   "logger.flash",
	Random:     "randomgenerator",

	Dispatcher:   "dispatcher",
	Session:      "session",
	RequestStack: "request_stack",
	Exception:    "controller.exception",

	Cache:       "cache",
	Render:      "render",
	Database:    "database",
	StorageLazy: "storage.lazy",
	Storage:     "storage",
	Prefill:     "prefill",
	ChangeLog:   "logger.change",

	Users:         "users",
	Permissions:   "permissions",
	Access:        "access_control",
	Login:         "access_control.login",
	CookieOptions: "access_control.cookie.options",
	CSRF:          "form.csrf_provider",
}
