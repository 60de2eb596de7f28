package web

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/observability"
)

// RequestID injects a unique X-Request-Id header into every
// request/response pair.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// AccessLog logs one line per request with method, path, status and
// latency, leveled by status code.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    path,
			"status":  status,
			"latency": latency.String(),
			"client":  c.ClientIP(),
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			log.Error("Request failed", fields)
		case status >= 400:
			log.Warn("Request rejected", fields)
		default:
			log.Debug("Request handled", fields)
		}
	}
}

// TrackRequests pushes each request onto the stack for its lifetime so
// services resolved during handling can see the active request.
func TrackRequests(stack *RequestStack) gin.HandlerFunc {
	return func(c *gin.Context) {
		stack.Push(c.Request)
		defer stack.Pop()
		c.Next()
	}
}

// Observe records request metrics: totals, durations and the active
// request gauge.
func Observe(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.RecordRequestStart(c.Request.Context())
		c.Next()

		metrics.RecordRequestEnd(c.Request.Context(),
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			time.Since(start))
	}
}

// Recovery converts handler panics into reported exceptions and a
// 500 response.
func Recovery(h *ExceptionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = &panicError{value: r}
				}
				h.Handle(c, err)
				c.Abort()
			}
		}()
		c.Next()
	}
}

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
