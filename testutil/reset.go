package testutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marciopocebon/bolt-1/app"
	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/resources"
)

// WorkingDatabase returns the path of the database file applications
// built by this harness use.
func (h *Harness) WorkingDatabase() string {
	return filepath.Join(resolverFor(h.root).MustPath(resources.AliasDatabase), DatabaseFile)
}

// BaselineDatabase returns the path of the pristine baseline the
// working database is restored from.
func (h *Harness) BaselineDatabase() string {
	return filepath.Join(resolverFor(h.root).MustPath(resources.AliasResources), DatabaseFile)
}

// ResetDatabase restores the working database to its pristine state by
// deleting it and copying the baseline over it. A missing or unreadable
// working file means there is nothing to reset and is not an error.
// Failures deleting or copying surface. Safe to call repeatedly, with
// or without an application.
func (h *Harness) ResetDatabase() error {
	working := h.WorkingDatabase()
	if _, err := os.Stat(working); err != nil {
		return nil
	}
	if err := os.Remove(working); err != nil {
		return fmt.Errorf("remove working database: %w", err)
	}
	return h.installBaseline(working)
}

// ResetConfiguration deletes the working copy of every configuration
// file under the config path. Absent files are skipped; real I/O
// failures surface. Safe to call repeatedly, with or without an
// application.
func (h *Harness) ResetConfiguration() error {
	dir := resolverFor(h.root).MustPath(resources.AliasConfig)
	for _, name := range config.Files() {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove config file %s: %w", name, err)
		}
	}
	return nil
}

// EnsureDatabase installs the baseline as the working database when no
// working file exists yet. An existing working file is left alone.
func (h *Harness) EnsureDatabase() error {
	working := h.WorkingDatabase()
	if _, err := os.Stat(working); err == nil {
		return nil
	}
	return h.installBaseline(working)
}

// installBaseline copies the baseline over working, building the
// baseline first when it does not exist yet.
func (h *Harness) installBaseline(working string) error {
	baseline := h.BaselineDatabase()
	if _, err := os.Stat(baseline); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("stat baseline database: %w", err)
		}
		if err := buildBaseline(baseline); err != nil {
			return fmt.Errorf("build baseline database: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(working), 0o750); err != nil {
		return err
	}
	return copyFile(baseline, working)
}

// buildBaseline creates the pristine database fixture: a fresh sqlite
// file carrying the full schema for the stock configuration and no
// rows. It is built into place atomically so a crash never leaves a
// half-written baseline.
func buildBaseline(baseline string) error {
	if err := os.MkdirAll(filepath.Dir(baseline), 0o750); err != nil {
		return err
	}
	tmp := baseline + ".tmp"
	_ = os.Remove(tmp)

	db, err := database.Open(config.Database{
		Driver:       "sqlite",
		Databasename: "bolt",
		Prefix:       "bolt_",
		Path:         tmp,
		Wrapper:      config.WrapperStandard,
	}, logger.Discard())
	if err != nil {
		return err
	}
	if err := app.MigrateDatabase(db, config.NewConfig(), logger.Discard()); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, baseline)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
