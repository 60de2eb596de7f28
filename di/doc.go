// Package di provides the service container the application hangs its
// services on.
//
// Services register under string keys either lazily, with a constructor
// that runs on the first resolve, or as pre-created singleton values. A
// value installed with Set always wins over a lazy registration of the
// same key, which is how tests swap real services for doubles without
// touching the wiring underneath. Resolution is deterministic: a
// constructor error is memoized and returned again until the entry is
// invalidated.
//
// # Registration
//
//	c := di.NewContainer()
//	c.Register("users", func() (*users.Store, error) {
//	    return users.NewStore(db, cache, log)
//	})
//
// # Resolution
//
//	store, err := di.Resolve[*users.Store](c, "users")
package di
