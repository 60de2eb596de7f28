package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/dispatcher"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
)

func newTestStorage(t *testing.T) (*Storage, *dispatcher.Dispatcher) {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver:       "sqlite",
		Databasename: "bolt",
		Prefix:       "bolt_",
		Path:         ":memory:",
		Wrapper:      config.WrapperStandard,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	disp := dispatcher.New(logger.Discard())
	s := NewStorage(db, config.NewConfig(), disp, logger.Discard())
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return s, disp
}

// scriptedSource returns deterministic records without any remote calls.
type scriptedSource struct {
	calls []string
	fail  error
}

func (s *scriptedSource) Generate(_ context.Context, contenttype string, count int) ([]Record, error) {
	s.calls = append(s.calls, contenttype)
	if s.fail != nil {
		return nil, s.fail
	}
	records := make([]Record, count)
	for i := range records {
		records[i] = Record{
			Title: fmt.Sprintf("%s item %d", contenttype, i+1),
			Body:  "<p>Generated body.</p>",
		}
	}
	return records, nil
}

func TestContentTypes_FromConfig(t *testing.T) {
	s, _ := newTestStorage(t)

	got := s.ContentTypes()
	want := []string{"entries", "pages", "showcases"}
	if len(got) != len(want) {
		t.Fatalf("ContentTypes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ContentTypes = %v, want %v", got, want)
		}
	}
}

func TestSaveContent_DerivesSlugAndStatus(t *testing.T) {
	s, _ := newTestStorage(t)

	saved, err := s.SaveContent("pages", &Record{Title: "Hello, World!"})
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if saved.Slug != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", saved.Slug)
	}
	if saved.Status != StatusDraft {
		t.Errorf("Status = %q, want %q", saved.Status, StatusDraft)
	}
	if saved.ContentType != "pages" {
		t.Errorf("ContentType = %q, want pages", saved.ContentType)
	}
}

func TestSaveContent_UnknownContentType(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.SaveContent("gadgets", &Record{Title: "x"})
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestSaveContent_TablesAreIsolated(t *testing.T) {
	s, _ := newTestStorage(t)

	if _, err := s.SaveContent("pages", &Record{Title: "A page"}); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if _, err := s.SaveContent("showcases", &Record{Title: "A showcase"}); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	pages, _ := s.Count("pages")
	showcases, _ := s.Count("showcases")
	entries, _ := s.Count("entries")
	if pages != 1 || showcases != 1 || entries != 0 {
		t.Errorf("counts = pages %d, showcases %d, entries %d; want 1, 1, 0", pages, showcases, entries)
	}
}

func TestSaveContent_DispatchesSaveEvents(t *testing.T) {
	s, disp := newTestStorage(t)

	var events []string
	disp.On(dispatcher.PreSave, func(e *dispatcher.Event) {
		events = append(events, "pre:"+e.Data["contenttype"].(string))
		// listeners may amend the record before it is written
		e.Subject.(*Record).Title = "Amended"
	})
	disp.On(dispatcher.PostSave, func(e *dispatcher.Event) {
		events = append(events, "post:"+e.Data["contenttype"].(string))
	})

	saved, err := s.SaveContent("pages", &Record{Title: "Original"})
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if saved.Title != "Amended" {
		t.Errorf("Title = %q, want preSave amendment applied", saved.Title)
	}
	if len(events) != 2 || events[0] != "pre:pages" || events[1] != "post:pages" {
		t.Errorf("events = %v, want [pre:pages post:pages]", events)
	}
}

func TestGetContent_FiltersAndLimits(t *testing.T) {
	s, _ := newTestStorage(t)

	for i := 1; i <= 3; i++ {
		r := &Record{Title: fmt.Sprintf("Entry %d", i), Status: StatusPublished}
		if _, err := s.SaveContent("entries", r); err != nil {
			t.Fatalf("SaveContent failed: %v", err)
		}
	}
	if _, err := s.SaveContent("entries", &Record{Title: "Unpublished"}); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	published, err := s.GetContent("entries", Query{Status: StatusPublished})
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if len(published) != 3 {
		t.Errorf("published records = %d, want 3", len(published))
	}

	limited, err := s.GetContent("entries", Query{Limit: 2, OrderBy: "title"})
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited records = %d, want 2", len(limited))
	}
	if limited[0].Title != "Entry 1" {
		t.Errorf("first record = %q, want Entry 1", limited[0].Title)
	}

	all, err := s.GetContent("entries", Query{})
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	for _, r := range all {
		if r.ContentType != "entries" {
			t.Errorf("ContentType = %q, want entries", r.ContentType)
		}
	}
}

func TestGetSingle(t *testing.T) {
	s, _ := newTestStorage(t)

	if _, err := s.SaveContent("pages", &Record{Title: "About Us"}); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	r, err := s.GetSingle("pages", "about-us")
	if err != nil {
		t.Fatalf("GetSingle failed: %v", err)
	}
	if r.Title != "About Us" {
		t.Errorf("Title = %q, want About Us", r.Title)
	}

	if _, err := s.GetSingle("pages", "missing"); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("GetSingle(missing) = %v, want NOT_FOUND", err)
	}
}

func TestDeleteContent_DispatchesDeleteEvents(t *testing.T) {
	s, disp := newTestStorage(t)

	var events []string
	disp.On(dispatcher.PreDelete, func(*dispatcher.Event) { events = append(events, "pre") })
	disp.On(dispatcher.PostDelete, func(*dispatcher.Event) { events = append(events, "post") })

	saved, err := s.SaveContent("pages", &Record{Title: "Doomed"})
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if err := s.DeleteContent("pages", saved.ID); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}

	if count, _ := s.Count("pages"); count != 0 {
		t.Errorf("Count after delete = %d, want 0", count)
	}
	if len(events) != 2 || events[0] != "pre" || events[1] != "post" {
		t.Errorf("events = %v, want [pre post]", events)
	}
}

func TestPrefill_SeedsNamedGroups(t *testing.T) {
	s, _ := newTestStorage(t)

	source := &scriptedSource{}
	created, err := s.Prefill(context.Background(), source, []string{"showcases", "pages"})
	if err != nil {
		t.Fatalf("Prefill failed: %v", err)
	}
	if created != 8 {
		t.Errorf("created = %d, want 8", created)
	}
	if len(source.calls) != 2 || source.calls[0] != "showcases" || source.calls[1] != "pages" {
		t.Errorf("source calls = %v, want [showcases pages]", source.calls)
	}

	records, err := s.GetContent("showcases", Query{})
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("showcase records = %d, want 4", len(records))
	}
	for _, r := range records {
		if r.Status != StatusPublished {
			t.Errorf("prefilled record status = %q, want published", r.Status)
		}
		if r.DatePublish == nil {
			t.Error("prefilled record has no publish date")
		}
	}
}

func TestPrefill_AppliesConfiguredTaxonomy(t *testing.T) {
	s, _ := newTestStorage(t)
	s.cfg.Set("taxonomy/categories/options", []string{"news", "events"})

	if _, err := s.Prefill(context.Background(), &scriptedSource{}, []string{"pages"}); err != nil {
		t.Fatalf("Prefill failed: %v", err)
	}

	records, _ := s.GetContent("pages", Query{})
	for _, r := range records {
		got := r.Taxonomy["categories"]
		if len(got) != 1 || got[0] != "news" {
			t.Errorf("Taxonomy[categories] = %v, want [news]", got)
		}
	}
}

func TestPrefill_SourceFailure(t *testing.T) {
	s, _ := newTestStorage(t)

	source := &scriptedSource{fail: fmt.Errorf("remote unavailable")}
	_, err := s.Prefill(context.Background(), source, []string{"pages"})
	if !apperrors.IsCode(err, apperrors.ErrCodeExternalService) {
		t.Errorf("error = %v, want EXTERNAL_SERVICE_ERROR", err)
	}
}

func TestPrefill_UnknownGroup(t *testing.T) {
	s, _ := newTestStorage(t)
	if _, err := s.Prefill(context.Background(), &scriptedSource{}, []string{"widgets"}); !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World!", "hello-world"},
		{"  Entry 12 ", "entry-12"},
		{"UPPER lower", "upper-lower"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLazy_MemoizesConnection(t *testing.T) {
	opens := 0
	lazy := NewLazy(func() (*database.DB, error) {
		opens++
		return database.Open(config.Database{
			Driver:       "sqlite",
			Databasename: "bolt",
			Prefix:       "bolt_",
			Path:         ":memory:",
			Wrapper:      config.WrapperStandard,
		}, logger.Discard())
	})

	first, err := lazy.DB()
	if err != nil {
		t.Fatalf("DB failed: %v", err)
	}
	second, err := lazy.DB()
	if err != nil {
		t.Fatalf("DB failed: %v", err)
	}
	if first != second {
		t.Error("Lazy.DB returned different connections")
	}
	if opens != 1 {
		t.Errorf("open called %d times, want 1", opens)
	}

	lazy.Reset()
	if _, err := lazy.DB(); err != nil {
		t.Fatalf("DB after Reset failed: %v", err)
	}
	if opens != 2 {
		t.Errorf("open called %d times after Reset, want 2", opens)
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	attempts := 0
	lazy := NewLazy(func() (*database.DB, error) {
		attempts++
		if attempts == 1 {
			return nil, fmt.Errorf("not ready")
		}
		return database.Open(config.Database{
			Driver:       "sqlite",
			Databasename: "bolt",
			Prefix:       "bolt_",
			Path:         ":memory:",
			Wrapper:      config.WrapperStandard,
		}, logger.Discard())
	})

	if _, err := lazy.DB(); err == nil {
		t.Fatal("first DB call should fail")
	}
	if _, err := lazy.DB(); err != nil {
		t.Fatalf("second DB call failed: %v", err)
	}
}
