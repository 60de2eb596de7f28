package dispatcher

import (
	"sync"
	"testing"

	"github.com/marciopocebon/bolt-1/logger"
)

func TestDispatch_RunsListenersInOrder(t *testing.T) {
	d := New(logger.Discard())

	var order []string
	d.On(PostSave, func(*Event) { order = append(order, "first") })
	d.On(PostSave, func(*Event) { order = append(order, "second") })

	d.Dispatch(NewEvent(PostSave, nil))

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("listener order = %v, want [first second]", order)
	}
}

func TestDispatch_PriorityOrdering(t *testing.T) {
	d := New(logger.Discard())

	var order []string
	d.OnPriority(PreSave, -10, func(*Event) { order = append(order, "late") })
	d.On(PreSave, func(*Event) { order = append(order, "normal") })
	d.OnPriority(PreSave, 10, func(*Event) { order = append(order, "early") })

	d.Dispatch(NewEvent(PreSave, nil))

	want := []string{"early", "normal", "late"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDispatch_ListenerMutatesEvent(t *testing.T) {
	d := New(logger.Discard())

	d.On(PreSave, func(e *Event) { e.Data["title"] = "amended" })

	e := d.Dispatch(NewEvent(PreSave, nil))
	if e.Data["title"] != "amended" {
		t.Errorf("Data[title] = %v, want amended", e.Data["title"])
	}
}

func TestDispatch_StopPropagation(t *testing.T) {
	d := New(logger.Discard())

	var calls int
	d.On(Login, func(e *Event) {
		calls++
		e.StopPropagation()
	})
	d.On(Login, func(*Event) { calls++ })

	e := d.Dispatch(NewEvent(Login, nil))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !e.IsPropagationStopped() {
		t.Error("expected propagation to be stopped")
	}
}

func TestDispatch_NoListeners(t *testing.T) {
	d := New(logger.Discard())
	e := d.Dispatch(NewEvent(PostDelete, "subject"))
	if e.Subject != "subject" {
		t.Errorf("Subject = %v, want subject", e.Subject)
	}
}

func TestOff_RemovesListener(t *testing.T) {
	d := New(logger.Discard())

	var calls int
	id := d.On(PostSave, func(*Event) { calls++ })
	d.On(PostSave, func(*Event) { calls++ })

	d.Off(PostSave, id)
	d.Dispatch(NewEvent(PostSave, nil))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := d.ListenerCount(PostSave); got != 1 {
		t.Errorf("ListenerCount = %d, want 1", got)
	}
}

func TestHasListeners(t *testing.T) {
	d := New(logger.Discard())
	if d.HasListeners(PreDelete) {
		t.Error("HasListeners on empty dispatcher = true")
	}
	d.On(PreDelete, func(*Event) {})
	if !d.HasListeners(PreDelete) {
		t.Error("HasListeners after On = false")
	}
}

func TestDispatch_RecoversPanickingListener(t *testing.T) {
	d := New(logger.Discard())

	var reached bool
	d.On(PostSave, func(*Event) { panic("listener failure") })
	d.On(PostSave, func(*Event) { reached = true })

	d.Dispatch(NewEvent(PostSave, nil))

	if !reached {
		t.Error("listener after panicking one did not run")
	}
}

func TestDispatch_ConcurrentSafe(t *testing.T) {
	d := New(logger.Discard())

	var mu sync.Mutex
	var calls int
	d.On(PostSave, func(*Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(NewEvent(PostSave, nil))
		}()
	}
	wg.Wait()

	if calls != 16 {
		t.Errorf("calls = %d, want 16", calls)
	}
}

func TestNewEvent_AssignsIdentity(t *testing.T) {
	a := NewEvent(PreSave, nil)
	b := NewEvent(PreSave, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event IDs not unique: %q vs %q", a.ID, b.ID)
	}
	if a.Time.IsZero() {
		t.Error("event Time not set")
	}
}
