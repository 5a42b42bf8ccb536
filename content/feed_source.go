package content

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/sautihealth/sauti/models"
)

// FeedSource scans an RSS/Atom feed for the first recent entry mentioning
// the target keyword and turns its title and summary into broadcast text.
type FeedSource struct {
	name      string
	url       string
	keyword   string
	parser    *gofeed.Parser
	sanitizer *bluemonday.Policy
}

func NewFeedSource(name, url, keyword string) *FeedSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: webFetchTimeout}
	return &FeedSource{
		name:      name,
		url:       url,
		keyword:   strings.ToLower(keyword),
		parser:    parser,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Name identifies the tier in chain results and source labels.
func (f *FeedSource) Name() string {
	return f.name
}

// Fetch parses the feed and scans its leading entries for the keyword in
// title+summary (case-insensitive). Markup is stripped before truncation.
func (f *FeedSource) Fetch(ctx context.Context) (models.ContentItem, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	entries := feed.Items
	if len(entries) > maxFeedEntries {
		entries = entries[:maxFeedEntries]
	}

	for _, entry := range entries {
		combined := entry.Title + " " + entry.Description
		if !strings.Contains(strings.ToLower(combined), f.keyword) {
			continue
		}

		text := collapseWhitespace(html.UnescapeString(f.sanitizer.Sanitize(combined)))
		if text == "" {
			continue
		}

		return models.ContentItem{
			Message:   truncate(text, maxContentChars),
			Source:    f.name,
			Timestamp: time.Now().UTC(),
		}, nil
	}

	return models.ContentItem{}, fmt.Errorf("no entry mentioning %q in first %d items of %s", f.keyword, maxFeedEntries, f.url)
}
