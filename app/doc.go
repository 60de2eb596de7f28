// Package app assembles and runs the application.
//
// It owns the service container, populates it through providers, and
// drives a three-phase lifecycle: construction loads paths and
// configuration, Initialize registers services, Boot mounts routes and
// event listeners. Nothing touches the database until a service that
// needs it is resolved.
//
// # Quick Start
//
//	a, err := app.New(app.WithRoot("/srv/bolt"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Initialize(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Boot(); err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Close()
//
// Services resolve lazily through typed accessors such as Users and
// Render, or by name through Service. SetService replaces any of them,
// which is how tests substitute doubles.
package app
