package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sautihealth/sauti/datastore"
	"github.com/sautihealth/sauti/delivery"
)

type stubChannel struct {
	replies []string
}

func (c *stubChannel) ObservedContacts(ctx context.Context) ([]string, error) { return nil, nil }

func (c *stubChannel) SendText(ctx context.Context, recipient, body string) error {
	c.replies = append(c.replies, body)
	return nil
}

func (c *stubChannel) SendMedia(ctx context.Context, recipient, mediaURL string) error { return nil }

type submission struct {
	text        string
	sourceLabel string
}

type stubBroadcaster struct {
	submissions chan submission
}

func (b *stubBroadcaster) ProcessMessage(ctx context.Context, text, sourceLabel string) bool {
	b.submissions <- submission{text: text, sourceLabel: sourceLabel}
	return true
}

func newTestHandler(t *testing.T) (*InboundMessageHandler, *datastore.SubscriberStore, *stubChannel, *stubBroadcaster) {
	t.Helper()

	store := datastore.NewSubscriberStore(filepath.Join(t.TempDir(), "subscribers.json"))
	channel := &stubChannel{}
	broadcaster := &stubBroadcaster{submissions: make(chan submission, 1)}
	svc := delivery.NewService(channel, store, false)
	return NewInboundMessageHandler(svc, broadcaster, "Sauti Health"), store, channel, broadcaster
}

func postInbound(t *testing.T, handler *InboundMessageHandler, from, body string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	form.Set("From", from)
	form.Set("Body", body)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.HandleInbound(rec, req)
	return rec
}

func TestStopKeywordUnsubscribes(t *testing.T) {
	t.Parallel()

	handler, store, channel, _ := newTestHandler(t)
	sender := "whatsapp:+2348000000001"
	if err := store.RecordActivity(sender, "YORUBA"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := postInbound(t, handler, sender, "stop")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	active, err := store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("recipient still active after STOP: %v", active)
	}
	if len(channel.replies) != 0 {
		t.Fatalf("opt-out must not trigger a reply, got %v", channel.replies)
	}
}

func TestStartKeywordResubscribesAndConfirms(t *testing.T) {
	t.Parallel()

	handler, store, channel, _ := newTestHandler(t)
	sender := "whatsapp:+2348000000001"
	if err := store.RecordActivity(sender, "IGBO"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.MarkUnsubscribed(sender); err != nil {
		t.Fatalf("seed opt-out: %v", err)
	}

	postInbound(t, handler, sender, "START")

	active, err := store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected recipient active after START, got %v", active)
	}
	if got := store.Language(sender).Name; got != "IGBO" {
		t.Fatalf("language after resubscribe = %s, want IGBO", got)
	}
	if len(channel.replies) != 1 || !strings.Contains(channel.replies[0], "re-subscribed") {
		t.Fatalf("replies = %v, want re-subscription confirmation", channel.replies)
	}
}

func TestLanguageSelection(t *testing.T) {
	t.Parallel()

	handler, store, channel, _ := newTestHandler(t)
	sender := "whatsapp:+2348000000001"

	postInbound(t, handler, sender, "language:yoruba")

	if got := store.Language(sender).Name; got != "YORUBA" {
		t.Fatalf("language = %s, want YORUBA", got)
	}
	if len(channel.replies) != 1 || !strings.Contains(channel.replies[0], "YORUBA") {
		t.Fatalf("replies = %v, want confirmation naming YORUBA", channel.replies)
	}
}

func TestUnknownLanguageGetsGuidance(t *testing.T) {
	t.Parallel()

	handler, store, channel, _ := newTestHandler(t)
	sender := "whatsapp:+2348000000001"
	if err := store.RecordActivity(sender, "IGBO"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	postInbound(t, handler, sender, "LANGUAGE:FRENCH")

	if got := store.Language(sender).Name; got != "IGBO" {
		t.Fatalf("language changed to %s, must stay IGBO", got)
	}
	if len(channel.replies) != 1 || !strings.Contains(channel.replies[0], "HAUSA") {
		t.Fatalf("replies = %v, want guidance listing options", channel.replies)
	}
}

func TestNewsSubmissionIsBroadcastWithSenderAsSource(t *testing.T) {
	t.Parallel()

	handler, _, channel, broadcaster := newTestHandler(t)
	sender := "whatsapp:+2348000000001"

	postInbound(t, handler, sender, "Malaria News Update Nets distributed in Kano today.")

	select {
	case got := <-broadcaster.submissions:
		if got.text != "Nets distributed in Kano today." {
			t.Fatalf("submitted text = %q", got.text)
		}
		if got.sourceLabel != sender {
			t.Fatalf("source label = %q, want sender %q", got.sourceLabel, sender)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the broadcaster")
	}
	if len(channel.replies) != 1 || !strings.Contains(channel.replies[0], "broadcast") {
		t.Fatalf("replies = %v, want submission acknowledgment", channel.replies)
	}
}

func TestEmptyNewsSubmissionGetsGuidance(t *testing.T) {
	t.Parallel()

	handler, _, channel, broadcaster := newTestHandler(t)

	postInbound(t, handler, "whatsapp:+2348000000001", "malaria news update   ")

	select {
	case got := <-broadcaster.submissions:
		t.Fatalf("empty submission must not be broadcast, got %q", got.text)
	case <-time.After(50 * time.Millisecond):
	}
	if len(channel.replies) != 1 {
		t.Fatalf("replies = %v, want usage guidance", channel.replies)
	}
}

func TestPlainMessageRecordsActivity(t *testing.T) {
	t.Parallel()

	handler, store, channel, _ := newTestHandler(t)
	sender := "whatsapp:+2348000000001"

	rec := postInbound(t, handler, sender, "hello there")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	active, err := store.ActiveRecipients()
	if err != nil {
		t.Fatalf("ActiveRecipients: %v", err)
	}
	if len(active) != 1 || active[0] != sender {
		t.Fatalf("active = %v, want [%s]", active, sender)
	}
	if len(channel.replies) != 0 {
		t.Fatalf("plain chatter must not trigger a reply, got %v", channel.replies)
	}
}

func TestMissingSenderRejected(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newTestHandler(t)

	rec := postInbound(t, handler, "", "hello")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
