package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func rssBody(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Health News</title>` + items + `</channel></rss>`
}

func TestFeedSourceMatchesKeywordCaseInsensitively(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody(`
		  <item><title>Flu season begins</title><description>Vaccination drive starts.</description></item>
		  <item><title>MALARIA cases drop</title><description>&lt;b&gt;New nets&lt;/b&gt; cut infections in half.</description></item>`)))
	}))
	defer server.Close()

	source := NewFeedSource("who-news", server.URL, "malaria")
	item, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if item.Source != "who-news" {
		t.Fatalf("unexpected source label: %s", item.Source)
	}
	if !strings.Contains(item.Message, "MALARIA cases drop") {
		t.Fatalf("expected matching entry title in content: %q", item.Message)
	}
	if strings.Contains(item.Message, "<b>") {
		t.Fatalf("markup survived stripping: %q", item.Message)
	}
	if strings.Contains(item.Message, "Flu season") {
		t.Fatalf("non-matching entry leaked into content: %q", item.Message)
	}
}

func TestFeedSourceFailsWithoutKeywordMatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody(`<item><title>Flu season begins</title><description>No match here.</description></item>`)))
	}))
	defer server.Close()

	source := NewFeedSource("who-news", server.URL, "malaria")
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error when no entry mentions the keyword")
	}
}

func TestFeedSourceFailsOnMalformedFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not XML"))
	}))
	defer server.Close()

	source := NewFeedSource("who-news", server.URL, "malaria")
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for malformed feed")
	}
}
