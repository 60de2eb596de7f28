package storage

import (
	"github.com/google/uuid"

	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/dispatcher"
	"github.com/marciopocebon/bolt-1/logger"
)

// LogTable is the unprefixed name of the content change log table.
const LogTable = "log_change"

// ChangeLogEntry is one recorded content mutation.
type ChangeLogEntry struct {
	database.BaseModel
	ContentType string    `gorm:"index;size:64" json:"contenttype"`
	RecordID    uuid.UUID `gorm:"type:uuid;index" json:"recordid"`
	Mutation    string    `gorm:"size:16" json:"mutation"`
	Title       string    `json:"title"`
}

// ChangeLog records content mutations into the log table. The container
// exposes it under "logger.change"; boot wires it to the dispatcher's
// save and delete events.
type ChangeLog struct {
	db  *database.DB
	log *logger.Logger
}

// NewChangeLog creates the change log on an open database handle.
func NewChangeLog(db *database.DB, log *logger.Logger) *ChangeLog {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ChangeLog{db: db, log: log.WithComponent("changelog")}
}

// Record writes one entry for a mutation of r.
func (c *ChangeLog) Record(mutation string, r *Record) error {
	if r == nil {
		return nil
	}
	e := &ChangeLogEntry{
		ContentType: r.ContentType,
		RecordID:    r.ID,
		Mutation:    mutation,
		Title:       r.Title,
	}
	if err := c.db.GormDB.Table(c.db.TableName(LogTable)).Create(e).Error; err != nil {
		return database.FromDatabase(err, LogTable)
	}
	return nil
}

// RecordEvent translates a dispatched storage event into a log entry.
// Events carrying no content record are ignored.
func (c *ChangeLog) RecordEvent(ev *dispatcher.Event) {
	r, ok := ev.Subject.(*Record)
	if !ok {
		return
	}
	var mutation string
	switch ev.Name {
	case dispatcher.PostSave:
		mutation = "save"
	case dispatcher.PostDelete:
		mutation = "delete"
	default:
		return
	}
	if err := c.Record(mutation, r); err != nil {
		c.log.Warn("Change log write failed", map[string]interface{}{
			"contenttype": r.ContentType,
			"mutation":    mutation,
			"error":       err.Error(),
		})
	}
}

// Entries returns the newest entries, up to limit.
func (c *ChangeLog) Entries(limit int) ([]ChangeLogEntry, error) {
	tx := c.db.GormDB.Table(c.db.TableName(LogTable)).Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var entries []ChangeLogEntry
	if err := tx.Find(&entries).Error; err != nil {
		return nil, database.FromDatabase(err, LogTable)
	}
	return entries, nil
}
