package content

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/sautihealth/sauti/models"
)

// Chain is the strict fail-over chain over the content tiers: one of the
// two primary live sources (picked at random), then its complement, then
// each fallback tier in order, and finally the hardcoded safe default.
// The first tier to succeed wins; later tiers are never consulted. The
// chain never fails to the caller.
type Chain struct {
	primaryA  Fetcher
	primaryB  Fetcher
	fallbacks []Fetcher

	// pickPrimary maps the injected random-bit source to a tier index
	// (0 or 1); substitutable for deterministic tests.
	pickPrimary func() int
}

// NewChain wires the tiers. A nil pickPrimary defaults to a uniform pick.
func NewChain(primaryA, primaryB Fetcher, fallbacks []Fetcher, pickPrimary func() int) *Chain {
	if pickPrimary == nil {
		pickPrimary = func() int { return rand.Intn(2) }
	}
	return &Chain{
		primaryA:    primaryA,
		primaryB:    primaryB,
		fallbacks:   fallbacks,
		pickPrimary: pickPrimary,
	}
}

// FetchContent walks the tiers and always returns a nonempty ContentItem,
// plus the per-tier trail of what was attempted and why it moved on.
func (c *Chain) FetchContent(ctx context.Context) (models.ContentItem, []TierResult) {
	var trail []TierResult

	for _, tier := range c.tierOrder() {
		if tier == nil {
			continue
		}
		item, err := tier.Fetch(ctx)
		trail = append(trail, TierResult{Tier: tier.Name(), Err: err})
		if err != nil {
			log.Printf("WARN (ContentChain): Tier %s failed, trying next: %v", tier.Name(), err)
			continue
		}
		log.Printf("INFO (ContentChain): Tier %s produced content (source: %s)", tier.Name(), item.Source)
		return item, trail
	}

	log.Printf("WARN (ContentChain): All tiers failed, using safe default")
	return models.ContentItem{
		Message:   safeDefaultMessage,
		Source:    models.SafeDefaultSource,
		Timestamp: time.Now().UTC(),
	}, trail
}

// tierOrder resolves the randomized primary entry point, then the
// deterministic complement, then the fixed fallback order.
func (c *Chain) tierOrder() []Fetcher {
	first, second := c.primaryA, c.primaryB
	if c.pickPrimary() == 1 {
		first, second = second, first
	}
	order := []Fetcher{first, second}
	return append(order, c.fallbacks...)
}
