package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sautihealth/sauti/models"
)

type stubFetcher struct {
	name  string
	item  models.ContentItem
	err   error
	calls int
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(ctx context.Context) (models.ContentItem, error) {
	s.calls++
	if s.err != nil {
		return models.ContentItem{}, s.err
	}
	item := s.item
	item.Timestamp = time.Now().UTC()
	return item, nil
}

func failing(name string) *stubFetcher {
	return &stubFetcher{name: name, err: errors.New(name + " unavailable")}
}

func succeeding(name, message string) *stubFetcher {
	return &stubFetcher{name: name, item: models.ContentItem{Message: message, Source: name}}
}

func TestChainReturnsFirstSuccessfulTier(t *testing.T) {
	t.Parallel()

	primaryA := succeeding("who", "primary A content")
	primaryB := succeeding("cdc", "primary B content")
	fallback := succeeding("rss", "rss content")

	chain := NewChain(primaryA, primaryB, []Fetcher{fallback}, func() int { return 0 })
	item, trail := chain.FetchContent(context.Background())

	if item.Source != "who" {
		t.Fatalf("expected first primary to win, got source %s", item.Source)
	}
	if primaryB.calls != 0 || fallback.calls != 0 {
		t.Fatalf("later tiers consulted after success: primaryB=%d fallback=%d", primaryB.calls, fallback.calls)
	}
	if len(trail) != 1 || trail[0].Tier != "who" || trail[0].Err != nil {
		t.Fatalf("unexpected trail: %+v", trail)
	}
}

func TestChainTriesComplementOfRandomPick(t *testing.T) {
	t.Parallel()

	primaryA := succeeding("who", "primary A content")
	primaryB := failing("cdc")

	// Randomized pick selects B; its deterministic complement is A.
	chain := NewChain(primaryA, primaryB, nil, func() int { return 1 })
	item, trail := chain.FetchContent(context.Background())

	if item.Source != "who" {
		t.Fatalf("expected complement tier to win, got %s", item.Source)
	}
	if len(trail) != 2 || trail[0].Tier != "cdc" || trail[1].Tier != "who" {
		t.Fatalf("unexpected tier order: %+v", trail)
	}
}

func TestChainFallsThroughToSafeDefault(t *testing.T) {
	t.Parallel()

	chain := NewChain(
		failing("who"),
		failing("cdc"),
		[]Fetcher{failing("rss-a"), failing("rss-b"), failing("CSV")},
		func() int { return 0 },
	)

	item, trail := chain.FetchContent(context.Background())

	if item.Source != models.SafeDefaultSource {
		t.Fatalf("expected SafeDefault source, got %s", item.Source)
	}
	if item.Message == "" {
		t.Fatal("safe default message must not be empty")
	}
	if item.Timestamp.IsZero() {
		t.Fatal("safe default item must be timestamped")
	}
	if len(trail) != 5 {
		t.Fatalf("expected 5 failed tier results, got %d", len(trail))
	}
	for _, result := range trail {
		if result.Err == nil {
			t.Fatalf("tier %s should have recorded a failure", result.Tier)
		}
	}
}

func TestTruncateAddsEllipsisOverBudget(t *testing.T) {
	t.Parallel()

	long := ""
	for i := 0; i < maxContentChars+50; i++ {
		long += "a"
	}

	got := truncate(long, maxContentChars)
	if len([]rune(got)) != maxContentChars+3 {
		t.Fatalf("unexpected truncated length %d", len([]rune(got)))
	}
	if got[len(got)-3:] != "..." {
		t.Fatalf("expected trailing ellipsis, got %q", got[len(got)-10:])
	}

	if truncate("short", maxContentChars) != "short" {
		t.Fatal("under-budget text must pass through unchanged")
	}
}
