package storage

import (
	"strings"
	"time"

	"github.com/marciopocebon/bolt-1/database"
)

// Record statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusHeld      = "held"
	StatusTimed     = "timed"
)

// Record is one content item. Every contenttype shares this shape; the
// table a record lives in is what identifies its type.
type Record struct {
	database.BaseModel
	ContentType   string                 `gorm:"-" json:"contenttype"`
	Slug          string                 `gorm:"index;size:128" json:"slug"`
	Title         string                 `json:"title"`
	Status        string                 `gorm:"index;size:16" json:"status"`
	OwnerID       string                 `gorm:"size:64" json:"ownerid"`
	Body          string                 `json:"body"`
	Excerpt       string                 `json:"excerpt"`
	Template      string                 `json:"template"`
	Values        map[string]interface{} `gorm:"serializer:json" json:"values"`
	Taxonomy      map[string][]string    `gorm:"serializer:json" json:"taxonomy"`
	DatePublish   *time.Time             `json:"datepublish"`
	DateDepublish *time.Time             `json:"datedepublish"`
}

// Published reports whether the record is live: status published, inside
// its publish window.
func (r *Record) Published() bool {
	if r.Status != StatusPublished {
		return false
	}
	now := time.Now()
	if r.DatePublish != nil && r.DatePublish.After(now) {
		return false
	}
	if r.DateDepublish != nil && r.DateDepublish.Before(now) {
		return false
	}
	return true
}

// Slugify turns a title into a URL slug: lowercase, alphanumerics
// preserved, everything else collapsed into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
