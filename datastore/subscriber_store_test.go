package datastore

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/sautihealth/sauti/models"
)

func newTestStore(t *testing.T) *SubscriberStore {
	t.Helper()
	return NewSubscriberStore(filepath.Join(t.TempDir(), "subscribers.json"))
}

func TestRecordActivitySubscribes(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RecordActivity("whatsapp:+111", ""); err != nil {
		t.Fatalf("RecordActivity returned error: %v", err)
	}

	active, err := store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients returned error: %v", err)
	}
	if len(active) != 1 || active[0] != "whatsapp:+111" {
		t.Fatalf("unexpected active set: %v", active)
	}
}

func TestOptOutThenOptInPreservesLanguage(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	recipient := "whatsapp:+222"

	if err := store.RecordActivity(recipient, "YORUBA"); err != nil {
		t.Fatalf("RecordActivity returned error: %v", err)
	}
	if err := store.MarkUnsubscribed(recipient); err != nil {
		t.Fatalf("MarkUnsubscribed returned error: %v", err)
	}

	active, err := store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients returned error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active recipients after opt-out, got %v", active)
	}

	if err := store.RecordActivity(recipient, ""); err != nil {
		t.Fatalf("RecordActivity returned error: %v", err)
	}

	active, err = store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients returned error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected recipient re-subscribed, got %v", active)
	}
	if lang := store.Language(recipient); lang.Name != "YORUBA" {
		t.Fatalf("expected preserved language YORUBA, got %s", lang.Name)
	}
}

func TestLanguageDefaultsWhenUnsetOrUnrecognized(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RecordActivity("whatsapp:+333", ""); err != nil {
		t.Fatalf("RecordActivity returned error: %v", err)
	}

	if lang := store.Language("whatsapp:+333"); lang.Name != models.DefaultLanguageName {
		t.Fatalf("expected default language, got %s", lang.Name)
	}
	if lang := store.Language("whatsapp:+never-seen"); lang.Name != models.DefaultLanguageName {
		t.Fatalf("expected default language for unknown recipient, got %s", lang.Name)
	}
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	recipients := []string{"whatsapp:+1", "whatsapp:+2", "whatsapp:+3", "whatsapp:+4", "whatsapp:+5"}

	var wg sync.WaitGroup
	for _, r := range recipients {
		wg.Add(1)
		go func(recipient string) {
			defer wg.Done()
			if err := store.RecordActivity(recipient, ""); err != nil {
				t.Errorf("RecordActivity(%s) returned error: %v", recipient, err)
			}
		}(r)
	}
	wg.Wait()

	active, err := store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients returned error: %v", err)
	}
	if len(active) != len(recipients) {
		t.Fatalf("expected %d recipients after concurrent writes, got %d", len(recipients), len(active))
	}
}
