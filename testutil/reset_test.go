package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/logger"
)

// openWorking opens a fresh handle on the harness's working database,
// bypassing any connection the application may hold on a replaced file.
func openWorking(t *testing.T, h *Harness) *database.DB {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver:       "sqlite",
		Databasename: "bolt",
		Prefix:       "bolt_",
		Path:         h.WorkingDatabase(),
		Wrapper:      config.WrapperStandard,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("open working database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close working database: %v", err)
		}
	})
	return db
}

func TestDatabasePaths(t *testing.T) {
	h := New(t)

	if want := filepath.Join(h.Root(), "app", "database", DatabaseFile); h.WorkingDatabase() != want {
		t.Errorf("WorkingDatabase = %s, want %s", h.WorkingDatabase(), want)
	}
	if want := filepath.Join(h.Root(), "app", "resources", DatabaseFile); h.BaselineDatabase() != want {
		t.Errorf("BaselineDatabase = %s, want %s", h.BaselineDatabase(), want)
	}
}

func TestResetDatabaseRestoresBaseline(t *testing.T) {
	h := New(t)
	a := h.App(true)
	h.AddDefaultUser(a)

	if err := h.ResetDatabase(); err != nil {
		t.Fatalf("ResetDatabase: %v", err)
	}

	db := openWorking(t, h)
	count, err := db.Count(db.TableName("users"))
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("users after reset = %d, want 0", count)
	}
}

func TestResetDatabaseMissingIsNoop(t *testing.T) {
	h := New(t)

	if err := h.ResetDatabase(); err != nil {
		t.Fatalf("ResetDatabase: %v", err)
	}
	if _, err := os.Stat(h.WorkingDatabase()); !os.IsNotExist(err) {
		t.Errorf("expected no working database, stat err = %v", err)
	}
	if _, err := os.Stat(h.BaselineDatabase()); !os.IsNotExist(err) {
		t.Errorf("expected no baseline to be built, stat err = %v", err)
	}
}

func TestResetDatabaseRepeatable(t *testing.T) {
	h := New(t)
	h.App(false)

	for i := 0; i < 2; i++ {
		if err := h.ResetDatabase(); err != nil {
			t.Fatalf("ResetDatabase run %d: %v", i+1, err)
		}
	}
	if _, err := os.Stat(h.WorkingDatabase()); err != nil {
		t.Errorf("expected a working database after reset: %v", err)
	}
}

func TestEnsureDatabaseBuildsBaselineOnce(t *testing.T) {
	h := New(t)

	if err := h.EnsureDatabase(); err != nil {
		t.Fatalf("EnsureDatabase: %v", err)
	}
	first, err := os.Stat(h.BaselineDatabase())
	if err != nil {
		t.Fatalf("stat baseline: %v", err)
	}

	if err := os.Remove(h.WorkingDatabase()); err != nil {
		t.Fatalf("remove working database: %v", err)
	}
	if err := h.EnsureDatabase(); err != nil {
		t.Fatalf("EnsureDatabase again: %v", err)
	}

	second, err := os.Stat(h.BaselineDatabase())
	if err != nil {
		t.Fatalf("stat baseline: %v", err)
	}
	if !second.ModTime().Equal(first.ModTime()) {
		t.Error("expected the cached baseline to be reused, not rebuilt")
	}
	if _, err := os.Stat(h.WorkingDatabase()); err != nil {
		t.Errorf("expected the working database to be reinstalled: %v", err)
	}
}

func TestEnsureDatabaseKeepsExistingWorking(t *testing.T) {
	h := New(t)
	working := h.WorkingDatabase()
	if err := os.MkdirAll(filepath.Dir(working), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(working, []byte("sentinel"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.EnsureDatabase(); err != nil {
		t.Fatalf("EnsureDatabase: %v", err)
	}
	data, err := os.ReadFile(working)
	if err != nil {
		t.Fatalf("read working database: %v", err)
	}
	if string(data) != "sentinel" {
		t.Error("expected an existing working database to be left alone")
	}
}

func TestBaselineCarriesSchemaWithoutRows(t *testing.T) {
	h := New(t)
	if err := h.EnsureDatabase(); err != nil {
		t.Fatalf("EnsureDatabase: %v", err)
	}

	db := openWorking(t, h)
	for _, table := range []string{
		"bolt_users",
		"bolt_auth_tokens",
		"bolt_log_change",
		"bolt_pages",
		"bolt_entries",
		"bolt_showcases",
	} {
		if !db.HasTable(table) {
			t.Errorf("expected table %s in baseline", table)
		}
	}

	count, err := db.Count("bolt_users")
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("baseline users = %d, want 0", count)
	}
}

func TestResetConfigurationRemovesWorkingCopies(t *testing.T) {
	h := New(t)
	dir := filepath.Join(h.Root(), "app", "config")
	if _, err := os.Stat(filepath.Join(dir, "config.yml")); err != nil {
		t.Fatalf("expected a primed config.yml: %v", err)
	}

	if err := h.ResetConfiguration(); err != nil {
		t.Fatalf("ResetConfiguration: %v", err)
	}
	for _, name := range config.Files() {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed, stat err = %v", name, err)
		}
	}

	// Absent files are skipped on repeat runs.
	if err := h.ResetConfiguration(); err != nil {
		t.Fatalf("ResetConfiguration repeat: %v", err)
	}
}
