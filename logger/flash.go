package logger

import (
	"sync"
)

// FlashLevel classifies a flash message.
type FlashLevel string

const (
	FlashInfo    FlashLevel = "info"
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
	FlashDanger  FlashLevel = "danger"
)

// Flash is a single user-facing notice queued for the next rendered page.
type Flash struct {
	Level   FlashLevel
	Message string
}

// FlashLogger queues user-facing notices. Messages accumulate until a
// consumer flushes them, typically when the next page renders. Every
// message is mirrored to the backing logger at debug level.
type FlashLogger struct {
	mu    sync.Mutex
	queue []Flash
	log   *Logger
}

// NewFlash creates a flash logger backed by log. A nil log falls back to
// the global logger.
func NewFlash(log *Logger) *FlashLogger {
	if log == nil {
		log = GetGlobalLogger()
	}
	return &FlashLogger{log: log.WithComponent("flash")}
}

func (f *FlashLogger) add(level FlashLevel, msg string) {
	f.mu.Lock()
	f.queue = append(f.queue, Flash{Level: level, Message: msg})
	f.mu.Unlock()
	f.log.Debug(msg, map[string]interface{}{"level": string(level)})
}

// Info queues an informational notice.
func (f *FlashLogger) Info(msg string) { f.add(FlashInfo, msg) }

// Success queues a success notice.
func (f *FlashLogger) Success(msg string) { f.add(FlashSuccess, msg) }

// Error queues an error notice.
func (f *FlashLogger) Error(msg string) { f.add(FlashError, msg) }

// Danger queues a danger notice.
func (f *FlashLogger) Danger(msg string) { f.add(FlashDanger, msg) }

// Peek returns the queued messages without clearing them.
func (f *FlashLogger) Peek() []Flash {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Flash, len(f.queue))
	copy(out, f.queue)
	return out
}

// Flush returns the queued messages and clears the queue.
func (f *FlashLogger) Flush() []Flash {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

// Has reports whether any queued message carries the given level.
func (f *FlashLogger) Has(level FlashLevel) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range f.queue {
		if fl.Level == level {
			return true
		}
	}
	return false
}
