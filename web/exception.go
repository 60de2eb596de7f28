package web

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/marciopocebon/bolt-1/config"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
)

// ExceptionHandler collects reported errors and turns them into client
// responses. It doubles as the reporter the configuration checker uses.
type ExceptionHandler struct {
	mu     sync.Mutex
	log    *logger.Logger
	errors []error
}

var _ config.ExceptionReporter = (*ExceptionHandler)(nil)

// NewExceptionHandler creates the handler.
func NewExceptionHandler(log *logger.Logger) *ExceptionHandler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ExceptionHandler{log: log.WithComponent("exception")}
}

// Report records err and logs it.
func (h *ExceptionHandler) Report(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()

	h.log.Error("Exception reported", map[string]interface{}{
		"error": err.Error(),
	})
}

// Errors returns every reported error in order.
func (h *ExceptionHandler) Errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]error, len(h.errors))
	copy(out, h.errors)
	return out
}

// Last returns the most recently reported error, nil when none.
func (h *ExceptionHandler) Last() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.errors) == 0 {
		return nil
	}
	return h.errors[len(h.errors)-1]
}

// Clear drops all recorded errors.
func (h *ExceptionHandler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = nil
}

// Handle records err and writes the matching error response to the
// client. Unknown error types become a plain internal error.
func (h *ExceptionHandler) Handle(c *gin.Context, err error) {
	h.Report(err)

	if appErr, ok := apperrors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}
