package content

import (
	"context"
	"strings"

	"github.com/sautihealth/sauti/models"
)

const (
	// maxContentChars bounds the message we hand to translation; anything
	// longer is cut at the budget with an ellipsis marker.
	maxContentChars = 500

	// minBlockLength separates meaningful text blocks from navigation
	// crumbs and boilerplate when scraping live pages.
	minBlockLength = 80

	// maxTextBlocks is how many qualifying blocks a web tier concatenates.
	maxTextBlocks = 3

	// maxFeedEntries is how many feed entries a feed tier scans for the
	// target keyword before giving up on that feed.
	maxFeedEntries = 10
)

// safeDefaultMessage is the last-resort broadcast content, used only when
// every live and file-backed tier has failed. The chain must always hand
// the orchestrator something broadcastable.
const safeDefaultMessage = "Malaria is preventable and curable. Sleep under an " +
	"insecticide-treated mosquito net every night, and see a health worker " +
	"promptly if you or your child develops a fever."

// Fetcher is one content-acquisition tier in the fallback chain.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (models.ContentItem, error)
}

// TierResult records one tier attempt so callers can see which tier
// produced output (or why it did not) without parsing log text.
type TierResult struct {
	Tier string
	Err  error
}

// truncate cuts text to the character budget, marking the cut with an
// ellipsis. Budgets are counted in runes so multi-byte text is not split.
func truncate(text string, budget int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= budget {
		return string(runes)
	}
	return string(runes[:budget]) + "..."
}

// collapseWhitespace folds runs of whitespace (including newlines left
// behind by markup stripping) into single spaces.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
