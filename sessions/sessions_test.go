package sessions

import "testing"

func TestSetAndGet(t *testing.T) {
	s := New()
	s.Set("flash", "saved")

	v, ok := s.Get("flash")
	if !ok || v != "saved" {
		t.Errorf("Get = %v, %v, want saved, true", v, ok)
	}
	if !s.Has("flash") {
		t.Error("Has = false after Set")
	}
}

func TestGet_MissingKey(t *testing.T) {
	s := New()
	if _, ok := s.Get(AuthKey); ok {
		t.Error("Get on empty session reported a value")
	}
}

func TestSet_StartsSession(t *testing.T) {
	s := New()
	if s.IsStarted() {
		t.Error("new session already started")
	}

	s.Set("k", 1)
	if !s.IsStarted() {
		t.Error("Set did not start the session")
	}
	if s.ID() == "" {
		t.Error("started session has empty ID")
	}
}

func TestStart_Idempotent(t *testing.T) {
	s := New()
	s.Start()
	id := s.ID()
	s.Start()
	if s.ID() != id {
		t.Error("second Start rotated the session ID")
	}
}

func TestRemove(t *testing.T) {
	s := New()
	s.Set("k", 1)
	s.Remove("k")
	if s.Has("k") {
		t.Error("value survived Remove")
	}
}

func TestClear_KeepsID(t *testing.T) {
	s := New()
	s.Set("a", 1)
	s.Set("b", 2)
	id := s.ID()

	s.Clear()

	if s.Has("a") || s.Has("b") {
		t.Error("values survived Clear")
	}
	if s.ID() != id {
		t.Error("Clear rotated the session ID")
	}
}

func TestInvalidate_RotatesID(t *testing.T) {
	s := New()
	s.Set("a", 1)
	id := s.ID()

	s.Invalidate()

	if s.Has("a") {
		t.Error("values survived Invalidate")
	}
	if s.ID() == id {
		t.Error("Invalidate kept the old session ID")
	}
}
