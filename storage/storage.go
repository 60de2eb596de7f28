// Package storage implements the content store behind the "storage"
// service: per-contenttype tables holding records, plus the prefill
// operation that seeds them from a generated-content source.
package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/database"
	"github.com/marciopocebon/bolt-1/dispatcher"
	apperrors "github.com/marciopocebon/bolt-1/errors"
	"github.com/marciopocebon/bolt-1/logger"
)

// prefillRecords is how many records Prefill seeds per contenttype.
const prefillRecords = 4

// PrefillSource produces generated records for a contenttype. The
// "prefill" service implements it.
type PrefillSource interface {
	Generate(ctx context.Context, contenttype string, count int) ([]Record, error)
}

// Query narrows GetContent.
type Query struct {
	// Status restricts to one record status; empty means all.
	Status string
	// Slug restricts to records with this slug.
	Slug string
	// OrderBy is a column name, "-"-prefixed for descending. Empty
	// falls back to newest first.
	OrderBy string
	Limit   int
	Offset  int
}

// Storage reads and writes content records.
type Storage struct {
	db   *database.DB
	cfg  *config.Config
	disp *dispatcher.Dispatcher
	log  *logger.Logger
}

// NewStorage creates the content store.
func NewStorage(db *database.DB, cfg *config.Config, disp *dispatcher.Dispatcher, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Storage{db: db, cfg: cfg, disp: disp, log: log.WithComponent("storage")}
}

// ContentTypes returns the registered contenttype slugs, sorted.
func (s *Storage) ContentTypes() []string {
	m := s.cfg.GetStringMap("contenttypes")
	types := make([]string, 0, len(m))
	for k := range m {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Migrate creates the content table for every registered contenttype.
func (s *Storage) Migrate() error {
	for _, ct := range s.ContentTypes() {
		if err := s.db.AutoMigrateTable(s.db.TableName(ct), &Record{}); err != nil {
			return err
		}
	}
	return nil
}

// GetContent returns the records of a contenttype matching q.
func (s *Storage) GetContent(contenttype string, q Query) ([]Record, error) {
	table, err := s.table(contenttype)
	if err != nil {
		return nil, err
	}

	tx := s.db.GormDB.Table(table)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Slug != "" {
		tx = tx.Where("slug = ?", q.Slug)
	}
	tx = tx.Order(orderClause(q.OrderBy))
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var records []Record
	if err := tx.Find(&records).Error; err != nil {
		return nil, database.FromDatabase(err, contenttype)
	}
	for i := range records {
		records[i].ContentType = contenttype
	}
	return records, nil
}

// GetSingle returns the record of a contenttype with the given slug.
func (s *Storage) GetSingle(contenttype, slug string) (*Record, error) {
	table, err := s.table(contenttype)
	if err != nil {
		return nil, err
	}

	var r Record
	if err := s.db.GormDB.Table(table).Where("slug = ?", slug).First(&r).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.NotFound(contenttype, slug)
		}
		return nil, database.FromDatabase(err, contenttype)
	}
	r.ContentType = contenttype
	return &r, nil
}

// SaveContent persists r into the contenttype's table. An empty slug is
// derived from the title, an empty status defaults to draft. Listeners
// on preSave may amend the record before it is written; postSave fires
// after.
func (s *Storage) SaveContent(contenttype string, r *Record) (*Record, error) {
	table, err := s.table(contenttype)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperrors.MissingField("record")
	}

	if r.Status == "" {
		r.Status = StatusDraft
	}
	if r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
	if r.Slug == "" {
		return nil, apperrors.MissingField("slug")
	}
	r.ContentType = contenttype

	if s.disp != nil {
		ev := dispatcher.NewEvent(dispatcher.PreSave, r)
		ev.Data["contenttype"] = contenttype
		s.disp.Dispatch(ev)
	}

	if r.ID == uuid.Nil {
		err = s.db.GormDB.Table(table).Create(r).Error
	} else {
		err = s.db.GormDB.Table(table).Save(r).Error
	}
	if err != nil {
		return nil, database.FromDatabase(err, contenttype)
	}

	if s.disp != nil {
		ev := dispatcher.NewEvent(dispatcher.PostSave, r)
		ev.Data["contenttype"] = contenttype
		s.disp.Dispatch(ev)
	}

	s.log.Debug("Content saved", map[string]interface{}{
		"contenttype": contenttype,
		"slug":        r.Slug,
	})
	copied := *r
	return &copied, nil
}

// DeleteContent removes a record by ID, firing preDelete and postDelete.
func (s *Storage) DeleteContent(contenttype string, id uuid.UUID) error {
	table, err := s.table(contenttype)
	if err != nil {
		return err
	}

	var r Record
	if err := s.db.GormDB.Table(table).Where("id = ?", id).First(&r).Error; err != nil {
		if database.IsNotFound(err) {
			return apperrors.NotFound(contenttype, id.String())
		}
		return database.FromDatabase(err, contenttype)
	}
	r.ContentType = contenttype

	if s.disp != nil {
		ev := dispatcher.NewEvent(dispatcher.PreDelete, &r)
		ev.Data["contenttype"] = contenttype
		s.disp.Dispatch(ev)
	}

	if err := s.db.GormDB.Table(table).Where("id = ?", id).Delete(&Record{}).Error; err != nil {
		return database.FromDatabase(err, contenttype)
	}

	if s.disp != nil {
		ev := dispatcher.NewEvent(dispatcher.PostDelete, &r)
		ev.Data["contenttype"] = contenttype
		s.disp.Dispatch(ev)
	}
	return nil
}

// Count returns the number of records in a contenttype's table.
func (s *Storage) Count(contenttype string) (int64, error) {
	table, err := s.table(contenttype)
	if err != nil {
		return 0, err
	}
	return s.db.Count(table)
}

// Prefill seeds each named contenttype with generated records from
// source. Generated records come in published, stamped with the current
// time, and carry the first configured category option for every
// taxonomy the contenttype declares. Returns how many records were
// created.
func (s *Storage) Prefill(ctx context.Context, source PrefillSource, contenttypes []string) (int, error) {
	if source == nil {
		return 0, apperrors.MissingField("prefill source")
	}

	tracer := otel.Tracer("storage")

	created := 0
	for _, ct := range contenttypes {
		ctCtx, span := tracer.Start(ctx, "storage.prefill",
			trace.WithAttributes(attribute.String("contenttype", ct)))

		if _, err := s.table(ct); err != nil {
			span.End()
			return created, err
		}

		records, err := source.Generate(ctCtx, ct, prefillRecords)
		if err != nil {
			span.End()
			return created, apperrors.ExternalServiceError("prefill", err)
		}

		for i := range records {
			r := records[i]
			now := time.Now()
			r.Status = StatusPublished
			if r.DatePublish == nil {
				r.DatePublish = &now
			}
			s.applyTaxonomy(ct, &r)
			if _, err := s.SaveContent(ct, &r); err != nil {
				span.End()
				return created, err
			}
			created++
		}
		span.End()
	}

	s.log.Info("Content prefilled", map[string]interface{}{
		"contenttypes": strings.Join(contenttypes, ", "),
		"records":      created,
	})
	return created, nil
}

// applyTaxonomy assigns the first configured option of each taxonomy the
// contenttype declares, keeping generated content deterministic.
func (s *Storage) applyTaxonomy(contenttype string, r *Record) {
	declared := s.cfg.GetStringSlice("contenttypes/" + contenttype + "/taxonomy")
	if len(declared) == 0 {
		return
	}
	if r.Taxonomy == nil {
		r.Taxonomy = make(map[string][]string)
	}
	for _, tax := range declared {
		options := s.cfg.GetStringSlice("taxonomy/" + tax + "/options")
		if len(options) > 0 {
			r.Taxonomy[tax] = []string{options[0]}
		}
	}
}

// table validates the contenttype and returns its prefixed table name.
func (s *Storage) table(contenttype string) (string, error) {
	contenttype = strings.TrimSpace(contenttype)
	if contenttype == "" {
		return "", apperrors.MissingField("contenttype")
	}
	if !s.cfg.IsSet("contenttypes/" + contenttype) {
		return "", apperrors.NotFound("contenttype", contenttype)
	}
	return s.db.TableName(contenttype), nil
}

func orderClause(orderBy string) string {
	if orderBy == "" {
		return "created_at DESC"
	}
	if strings.HasPrefix(orderBy, "-") {
		return sanitizeColumn(orderBy[1:]) + " DESC"
	}
	return sanitizeColumn(orderBy) + " ASC"
}

// sanitizeColumn keeps order-by inputs to identifier characters so user
// input can never smuggle SQL through the order clause.
func sanitizeColumn(col string) string {
	var b strings.Builder
	for _, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "created_at"
	}
	return b.String()
}
