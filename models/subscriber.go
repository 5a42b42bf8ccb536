package models

import "time"

// Subscriber is one opted-in (or opted-out) recipient, keyed by the
// channel address they message from (e.g. "whatsapp:+2348012345678").
// Subscribers are never hard-deleted, only flagged unsubscribed.
type Subscriber struct {
	Unsubscribed      bool      `json:"unsubscribed"`
	LastSeen          time.Time `json:"last_seen"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
}
