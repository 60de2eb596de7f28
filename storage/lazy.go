package storage

import (
	"sync"

	"github.com/marciopocebon/bolt-1/database"
)

// Lazy defers opening the database until first use. Services built at
// registration time hold one of these instead of a live connection, so
// wiring the container never forces the schema to exist yet. The
// container exposes it under "storage.lazy".
type Lazy struct {
	mu   sync.Mutex
	open func() (*database.DB, error)
	db   *database.DB
}

// NewLazy creates a lazy handle around open. The first successful DB
// call memoizes the connection; failed attempts are retried on the
// next call.
func NewLazy(open func() (*database.DB, error)) *Lazy {
	return &Lazy{open: open}
}

// NewLazyFromDB wraps an already-open connection.
func NewLazyFromDB(db *database.DB) *Lazy {
	return &Lazy{db: db}
}

// DB returns the connection, opening it on first use.
func (l *Lazy) DB() (*database.DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return l.db, nil
	}
	db, err := l.open()
	if err != nil {
		return nil, err
	}
	l.db = db
	return db, nil
}

// Reset drops the memoized connection so the next DB call reopens.
func (l *Lazy) Reset() {
	l.mu.Lock()
	l.db = nil
	l.mu.Unlock()
}
