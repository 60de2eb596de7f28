package prefill

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/storage"
)

// excerptLength is where generated excerpts are cut off.
const excerptLength = 200

// titleWords is how many words of text feed a generated title.
const titleWords = 5

// Generator turns filler text from a Source into content records.
type Generator struct {
	source Source
	opts   Options
	log    *logger.Logger
}

var _ storage.PrefillSource = (*Generator)(nil)

// NewGenerator wraps source with the default fetch options.
func NewGenerator(source Source, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Generator{
		source: source,
		opts:   DefaultOptions(),
		log:    log.WithComponent("prefill"),
	}
}

// Generate fetches one batch of filler text per record and shapes each
// into a content record for the given contenttype. Slugs and statuses
// are left for the storage layer to fill in.
func (g *Generator) Generate(ctx context.Context, contenttype string, count int) ([]storage.Record, error) {
	records := make([]storage.Record, 0, count)
	for i := 0; i < count; i++ {
		raw, err := g.source.Fetch(ctx, g.opts)
		if err != nil {
			return nil, fmt.Errorf("fetch filler text for %s: %w", contenttype, err)
		}
		records = append(records, recordFromText(contenttype, raw))
	}

	g.log.Debug("Generated filler records", map[string]interface{}{
		"contenttype": contenttype,
		"count":       len(records),
	})
	return records, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// recordFromText builds a record whose title and excerpt derive from the
// stripped text while the body keeps the fetched markup.
func recordFromText(contenttype, raw string) storage.Record {
	text := strings.Join(strings.Fields(stripTags(raw)), " ")
	return storage.Record{
		ContentType: contenttype,
		Title:       titleFrom(text),
		Body:        strings.TrimSpace(raw),
		Excerpt:     trimText(text, excerptLength),
	}
}

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

// titleFrom takes the leading words of the text, without trailing
// punctuation.
func titleFrom(text string) string {
	words := strings.Fields(text)
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.TrimRight(strings.Join(words, " "), ".,;:!?")
}

// trimText shortens text to at most length runes, cutting on a word
// boundary where possible.
func trimText(text string, length int) string {
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}
	cut := string(runes[:length])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
