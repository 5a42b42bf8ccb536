package delivery

import (
	"context"
	"log"

	"github.com/sautihealth/sauti/datastore"
)

// Channel is the adapter interface for messaging transports. Implement
// this to add new channels (WhatsApp via Twilio, SMS gateways, etc.).
type Channel interface {
	// ObservedContacts returns recipient addresses seen in the channel's
	// own inbound transport log for our number.
	ObservedContacts(ctx context.Context) ([]string, error)
	// SendText dispatches a plain text message.
	SendText(ctx context.Context, recipient, body string) error
	// SendMedia dispatches a media message referencing a fetchable URL.
	SendMedia(ctx context.Context, recipient, mediaURL string) error
}

// Service resolves broadcast eligibility and performs the best-effort
// per-recipient fan-out. A single recipient's failure never blocks the
// rest.
type Service struct {
	channel               Channel
	subscribers           *datastore.SubscriberStore
	requireChannelHistory bool
}

func NewService(channel Channel, subscribers *datastore.SubscriberStore, requireChannelHistory bool) *Service {
	return &Service{
		channel:               channel,
		subscribers:           subscribers,
		requireChannelHistory: requireChannelHistory,
	}
}

// Subscribers exposes the consent store for webhook command handling.
func (s *Service) Subscribers() *datastore.SubscriberStore {
	return s.subscribers
}

// Channel exposes the raw transport for direct replies (e.g. the
// re-subscription confirmation).
func (s *Service) Channel() Channel {
	return s.channel
}

// EligibleRecipients returns the recipients a broadcast may reach. Under
// the strict policy this is the intersection of the local opt-in set and
// the channel's observed-contact history; otherwise local consent alone
// qualifies.
func (s *Service) EligibleRecipients(ctx context.Context) ([]string, error) {
	active, err := s.subscribers.ActiveRecipients()
	if err != nil {
		return nil, err
	}

	if !s.requireChannelHistory {
		return active, nil
	}

	observed, err := s.channel.ObservedContacts(ctx)
	if err != nil {
		// On transport-log failure, broadcast to nobody rather than to
		// unconfirmed recipients.
		log.Printf("ERROR (DeliveryService): Getting observed contacts failed: %v", err)
		return nil, nil
	}

	observedSet := make(map[string]struct{}, len(observed))
	for _, contact := range observed {
		observedSet[contact] = struct{}{}
	}

	eligible := make([]string, 0, len(active))
	for _, recipient := range active {
		if _, ok := observedSet[recipient]; ok {
			eligible = append(eligible, recipient)
		}
	}
	return eligible, nil
}

// Broadcast sends the text and the audio reference to every recipient,
// logging and skipping individual failures. Returns how many recipients
// received at least the text message.
func (s *Service) Broadcast(ctx context.Context, recipients []string, text, audioURL string) int {
	log.Printf("INFO (DeliveryService): Broadcasting to %d recipients", len(recipients))

	delivered := 0
	for _, recipient := range recipients {
		if err := s.channel.SendText(ctx, recipient, text); err != nil {
			log.Printf("ERROR (DeliveryService): Text send to %s failed: %v", recipient, err)
			continue
		}
		delivered++
		if err := s.channel.SendMedia(ctx, recipient, audioURL); err != nil {
			log.Printf("ERROR (DeliveryService): Audio send to %s failed: %v", recipient, err)
			continue
		}
		log.Printf("INFO (DeliveryService): Sent text and audio to %s", recipient)
	}
	return delivered
}
