// Package testutil provides the test harness for application-level
// tests: a managed application lifecycle, database and configuration
// reset, partial service doubles, and fixture seeders.
//
// # Quick Start
//
//	func TestBackend(t *testing.T) {
//	    h := testutil.New(t)
//	    a := h.App(true)
//	    u := h.AddDefaultUser(a)
//	    h.SetSessionUser(u)
//	    // exercise handlers against a; teardown is automatic
//	}
//
// Scripting a collaborator while keeping the rest real:
//
//	h.ExpectRender("index.twig")
//	h.AllowLogin()
//
// # Architecture
//
// Each harness owns at most one application, built on first demand and
// closed at test teardown. Doubles embed the real implementation built
// with the real constructor arguments, so any method a test does not
// script behaves exactly as production would.
//
// # Isolation
//
// The default root is a per-test temp directory primed from
// testdata/root, so parallel tests never share a database or config
// tree. Everything runs sequentially within one test; the harness adds
// no locking of its own.
package testutil
