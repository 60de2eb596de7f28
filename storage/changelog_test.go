package storage

import (
	"testing"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/dispatcher"
	"github.com/marciopocebon/bolt-1/logger"
)

func newTestChangeLog(t *testing.T) (*ChangeLog, *Storage, *dispatcher.Dispatcher) {
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

	if err := db.AutoMigrateTable(db.TableName(LogTable), &ChangeLogEntry{}); err != nil {
		t.Fatalf("migrate log table: %v", err)
	}

	disp := dispatcher.New(logger.Discard())
	s := NewStorage(db, config.NewConfig(), disp, logger.Discard())
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return NewChangeLog(db, logger.Discard()), s, disp
}

func TestChangeLog_RecordsSaves(t *testing.T) {
	cl, s, disp := newTestChangeLog(t)
	disp.On(dispatcher.PostSave, cl.RecordEvent)
	disp.On(dispatcher.PostDelete, cl.RecordEvent)

	saved, err := s.SaveContent("pages", &Record{Title: "About us"})
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	entries, err := cl.Entries(10)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Mutation != "save" || entries[0].ContentType != "pages" {
		t.Errorf("entry = %+v, want save/pages", entries[0])
	}
	if entries[0].RecordID != saved.ID {
		t.Errorf("entry record ID = %s, want %s", entries[0].RecordID, saved.ID)
	}
}

func TestChangeLog_RecordsDeletes(t *testing.T) {
	cl, s, disp := newTestChangeLog(t)
	disp.On(dispatcher.PostDelete, cl.RecordEvent)

	saved, err := s.SaveContent("pages", &Record{Title: "Short lived"})
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if err := s.DeleteContent("pages", saved.ID); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}

	entries, err := cl.Entries(10)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Mutation != "delete" {
		t.Errorf("mutation = %q, want delete", entries[0].Mutation)
	}
}

func TestChangeLog_IgnoresForeignEvents(t *testing.T) {
	cl, _, _ := newTestChangeLog(t)

	cl.RecordEvent(dispatcher.NewEvent(dispatcher.Login, "not-a-record"))
	cl.RecordEvent(dispatcher.NewEvent(dispatcher.PreSave, &Record{Title: "draft"}))

	entries, err := cl.Entries(10)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestChangeLog_EntriesLimit(t *testing.T) {
	cl, s, disp := newTestChangeLog(t)
	disp.On(dispatcher.PostSave, cl.RecordEvent)

	for _, title := range []string{"One", "Two", "Three"} {
		if _, err := s.SaveContent("pages", &Record{Title: title}); err != nil {
			t.Fatalf("SaveContent failed: %v", err)
		}
	}

	entries, err := cl.Entries(2)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected limit of 2 entries, got %d", len(entries))
	}
}
