package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/marciopocebon/bolt-1/resources"
)

type recordingReporter struct {
	reported []error
}

func (r *recordingReporter) Report(err error) {
	r.reported = append(r.reported, err)
}

func checkerFixture(t *testing.T) (*Config, *resources.Resolver, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	paths := resources.New("/srv/bolt", nil)
	if err := fs.MkdirAll(paths.MustPath(resources.AliasConfig), 0o755); err != nil {
		t.Fatal(err)
	}

	c := NewConfig()
	c.Set("general/canonical", "bolt.dev")
	c.Set("general/database", map[string]any{
		"driver":       "sqlite",
		"databasename": "bolt",
		"path":         "/srv/bolt/app/database/bolt.db",
		"prefix":       "bolt_",
		"wrapper":      WrapperStandard,
	})
	return c, paths, fs
}

func TestCheckerPasses(t *testing.T) {
	c, paths, fs := checkerFixture(t)
	rep := &recordingReporter{}

	if err := NewChecker(rep, c, paths, fs).Check(); err != nil {
		t.Fatalf("expected checks to pass: %v", err)
	}
	if len(rep.reported) != 0 {
		t.Errorf("expected no reported failures, got %d", len(rep.reported))
	}
}

func TestCheckerFailsOnBadDescriptor(t *testing.T) {
	c, paths, fs := checkerFixture(t)
	c.Set("general/database", map[string]any{"driver": "oracle"})
	rep := &recordingReporter{}

	err := NewChecker(rep, c, paths, fs).Check()
	if err == nil {
		t.Fatal("expected failure for invalid descriptor")
	}
	if len(rep.reported) != 1 {
		t.Fatalf("expected failure reported once, got %d", len(rep.reported))
	}
	if rep.reported[0] != err {
		t.Error("expected the returned error to be the reported one")
	}
}

func TestCheckerFailsOnMissingCanonical(t *testing.T) {
	c, paths, fs := checkerFixture(t)
	c.Set("general/canonical", "")

	err := NewChecker(nil, c, paths, fs).Check()
	if err == nil {
		t.Fatal("expected failure for missing canonical")
	}
	if !strings.Contains(err.Error(), "canonical") {
		t.Errorf("expected canonical in message, got %v", err)
	}
}

func TestCheckerFailsOnMissingConfigDir(t *testing.T) {
	c, paths, _ := checkerFixture(t)
	empty := afero.NewMemMapFs()

	if err := NewChecker(nil, c, paths, empty).Check(); err == nil {
		t.Error("expected failure when config dir absent")
	}
}

func TestCheckerCreatesDatabaseDir(t *testing.T) {
	c, paths, fs := checkerFixture(t)

	if err := NewChecker(nil, c, paths, fs).Check(); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	ok, err := afero.DirExists(fs, "/srv/bolt/app/database")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected database dir to be created")
	}
}

func TestCheckerSkipsPathProbeForMemoryDB(t *testing.T) {
	c, paths, fs := checkerFixture(t)
	c.Set("general/database", map[string]any{
		"driver":       "sqlite",
		"databasename": "bolt",
		"path":         ":memory:",
		"prefix":       "bolt_",
		"wrapper":      WrapperStandard,
	})

	ro := afero.NewReadOnlyFs(fs)
	if err := NewChecker(nil, c, paths, ro).Check(); err != nil {
		t.Errorf("expected in-memory descriptor to skip write probe: %v", err)
	}
}

func TestCheckerFirstFailureAborts(t *testing.T) {
	c, paths, fs := checkerFixture(t)
	// Break two checks; only the first should be reported.
	c.Set("general/database", map[string]any{"driver": "oracle"})
	c.Set("general/canonical", "")
	rep := &recordingReporter{}

	if err := NewChecker(rep, c, paths, fs).Check(); err == nil {
		t.Fatal("expected failure")
	}
	if len(rep.reported) != 1 {
		t.Errorf("expected fail-fast single report, got %d", len(rep.reported))
	}
}
