package datastore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/sautihealth/sauti/models"
)

// SubscriberStore persists per-recipient subscription state in a single
// JSON file. Every mutation rewrites the whole file synchronously so a
// crash can never lose a just-processed recipient. A scheduled broadcast
// and an inbound webhook may mutate concurrently; the mutex serializes
// every read-modify-write cycle.
type SubscriberStore struct {
	mu   sync.Mutex
	path string
}

func NewSubscriberStore(path string) *SubscriberStore {
	return &SubscriberStore{path: path}
}

// RecordActivity upserts the recipient as subscribed and stamps last_seen.
// The language preference is only touched when a language is supplied.
func (s *SubscriberStore) RecordActivity(recipient string, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribers, err := s.load()
	if err != nil {
		return err
	}

	entry := subscribers[recipient]
	entry.Unsubscribed = false
	entry.LastSeen = time.Now().UTC()
	if language != "" {
		entry.PreferredLanguage = language
	}
	subscribers[recipient] = entry

	return s.save(subscribers)
}

// MarkUnsubscribed upserts the recipient as opted out, preserving any
// previously recorded language preference.
func (s *SubscriberStore) MarkUnsubscribed(recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribers, err := s.load()
	if err != nil {
		return err
	}

	entry := subscribers[recipient]
	entry.Unsubscribed = true
	entry.LastSeen = time.Now().UTC()
	subscribers[recipient] = entry

	return s.save(subscribers)
}

// ActiveRecipients returns every recipient with unsubscribed=false,
// in no guaranteed order.
func (s *SubscriberStore) ActiveRecipients() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribers, err := s.load()
	if err != nil {
		return nil, err
	}

	active := make([]string, 0, len(subscribers))
	for recipient, entry := range subscribers {
		if !entry.Unsubscribed {
			active = append(active, recipient)
		}
	}
	return active, nil
}

// Language returns the recipient's stored preference, or the system
// default when none is recorded or the stored value is unrecognized.
func (s *SubscriberStore) Language(recipient string) models.Language {
	s.mu.Lock()
	defer s.mu.Unlock()

	subscribers, err := s.load()
	if err != nil {
		log.Printf("WARN (SubscriberStore): Failed to load subscribers for language lookup: %v", err)
		return models.DefaultLanguage()
	}

	if lang, ok := models.LanguageByName(subscribers[recipient].PreferredLanguage); ok {
		return lang
	}
	return models.DefaultLanguage()
}

// load reads the whole store. A missing file means an empty store.
// Callers must hold the mutex.
func (s *SubscriberStore) load() (map[string]models.Subscriber, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.Subscriber{}, nil
		}
		return nil, fmt.Errorf("failed to read subscriber file %s: %w", s.path, err)
	}

	subscribers := map[string]models.Subscriber{}
	if err := json.Unmarshal(raw, &subscribers); err != nil {
		return nil, fmt.Errorf("failed to parse subscriber file %s: %w", s.path, err)
	}
	return subscribers, nil
}

// save rewrites the whole store. Callers must hold the mutex.
func (s *SubscriberStore) save(subscribers map[string]models.Subscriber) error {
	raw, err := json.MarshalIndent(subscribers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscribers: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write subscriber file %s: %w", s.path, err)
	}
	return nil
}
