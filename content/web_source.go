package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sautihealth/sauti/models"
)

const webFetchTimeout = 5 * time.Second

// WebSource scrapes one live page for broadcastable text: the first few
// paragraphs long enough to be meaningful, concatenated and cut to the
// content budget.
type WebSource struct {
	name   string
	url    string
	client *http.Client
}

// NewWebSource wires an HTTP client with the bounded network timeout.
func NewWebSource(name, url string, client *http.Client) *WebSource {
	if client == nil {
		client = &http.Client{Timeout: webFetchTimeout}
	}
	return &WebSource{name: name, url: url, client: client}
}

// Name identifies the tier in chain results and source labels.
func (w *WebSource) Name() string {
	return w.name
}

// Fetch downloads the page and extracts its leading meaningful text blocks.
func (w *WebSource) Fetch(ctx context.Context) (models.ContentItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("build request for %s: %w", w.url, err)
	}
	req.Header.Set("User-Agent", "SautiHealth/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("request %s: %w", w.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ContentItem{}, fmt.Errorf("%s returned %s", w.url, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("parse %s: %w", w.url, err)
	}

	blocks := extractTextBlocks(doc)
	if len(blocks) == 0 {
		return models.ContentItem{}, fmt.Errorf("no meaningful text blocks on %s", w.url)
	}

	return models.ContentItem{
		Message:   truncate(strings.Join(blocks, " "), maxContentChars),
		Source:    w.name,
		Timestamp: time.Now().UTC(),
	}, nil
}

// extractTextBlocks walks the page's paragraphs and keeps the first few
// whose text clears the minimum length threshold.
func extractTextBlocks(doc *goquery.Document) []string {
	var blocks []string
	doc.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		text := collapseWhitespace(p.Text())
		if len([]rune(text)) < minBlockLength {
			return true
		}
		blocks = append(blocks, text)
		return len(blocks) < maxTextBlocks
	})
	return blocks
}
