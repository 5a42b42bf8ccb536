package webhooks

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sautihealth/sauti/datastore"
	"github.com/sautihealth/sauti/delivery"
	"github.com/sautihealth/sauti/models"
	"github.com/sautihealth/sauti/webutil"
)

const (
	formFieldFrom = "From"
	formFieldBody = "Body"

	languageCommandPrefix = "LANGUAGE:"
	newsSubmissionPrefix  = "malaria news update"
)

// Carrier-standard opt-out keywords plus the variants the deployment has
// seen in the wild.
var optOutKeywords = map[string]struct{}{
	"STOP":        {},
	"STOPALL":     {},
	"UNSUBSCRIBE": {},
	"CANCEL":      {},
	"END":         {},
	"QUIT":        {},
	"JOIN":        {},
}

var optInKeywords = map[string]struct{}{
	"START":  {},
	"UNSTOP": {},
}

// Broadcaster is the slice of the orchestrator the webhook needs for
// ad-hoc content submissions.
type Broadcaster interface {
	ProcessMessage(ctx context.Context, text, sourceLabel string) bool
}

// InboundMessageHandler processes messages arriving on the Twilio webhook:
// opt-in/opt-out keywords, language selection, ad-hoc broadcast
// submissions, and plain chatter (which just refreshes last_seen).
type InboundMessageHandler struct {
	subscribers *datastore.SubscriberStore
	channel     delivery.Channel
	broadcaster Broadcaster
	appName     string
}

func NewInboundMessageHandler(deliveryService *delivery.Service, broadcaster Broadcaster, appName string) *InboundMessageHandler {
	return &InboundMessageHandler{
		subscribers: deliveryService.Subscribers(),
		channel:     deliveryService.Channel(),
		broadcaster: broadcaster,
		appName:     appName,
	}
}

func (h *InboundMessageHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Printf("ERROR (InboundMessageHandler): Failed to parse webhook form: %v", err)
		webutil.RespondWithError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	sender := strings.TrimSpace(r.PostFormValue(formFieldFrom))
	body := strings.TrimSpace(r.PostFormValue(formFieldBody))
	if sender == "" {
		webutil.RespondWithError(w, http.StatusBadRequest, "missing sender in webhook payload")
		return
	}

	log.Printf("INFO (InboundMessageHandler): Message from %s: %q", sender, body)

	keyword := strings.ToUpper(body)
	switch {
	case isOptOut(keyword):
		h.handleOptOut(sender)
	case isOptIn(keyword):
		h.handleOptIn(r.Context(), sender)
	case strings.HasPrefix(keyword, languageCommandPrefix):
		h.handleLanguageSelection(r.Context(), sender, body)
	case strings.HasPrefix(strings.ToLower(body), newsSubmissionPrefix):
		h.handleNewsSubmission(r.Context(), sender, body)
	default:
		h.recordActivity(sender, "")
	}

	acknowledge(w)
}

func (h *InboundMessageHandler) handleOptOut(sender string) {
	if err := h.subscribers.MarkUnsubscribed(sender); err != nil {
		log.Printf("ERROR (InboundMessageHandler): Failed to unsubscribe %s: %v", sender, err)
		return
	}
	// The carrier sends its own mandated opt-out confirmation; no reply here.
	log.Printf("INFO (InboundMessageHandler): Unsubscribed %s", sender)
}

func (h *InboundMessageHandler) handleOptIn(ctx context.Context, sender string) {
	h.recordActivity(sender, "")
	log.Printf("INFO (InboundMessageHandler): Re-subscribed %s", sender)
	h.reply(ctx, sender, fmt.Sprintf("You have been re-subscribed to %s updates. Reply STOP to unsubscribe.", h.appName))
}

func (h *InboundMessageHandler) handleLanguageSelection(ctx context.Context, sender, body string) {
	requested := strings.TrimSpace(body[len(languageCommandPrefix):])
	lang, ok := models.LanguageByName(requested)
	if !ok {
		h.recordActivity(sender, "")
		h.reply(ctx, sender, models.LanguageGuidance())
		return
	}

	h.recordActivity(sender, lang.Name)
	log.Printf("INFO (InboundMessageHandler): Set language for %s to %s", sender, lang.Name)
	h.reply(ctx, sender, fmt.Sprintf("Language preference set to %s.", lang.Name))
}

func (h *InboundMessageHandler) handleNewsSubmission(ctx context.Context, sender, body string) {
	h.recordActivity(sender, "")

	submitted := strings.TrimSpace(body[len(newsSubmissionPrefix):])
	if submitted == "" {
		h.reply(ctx, sender, fmt.Sprintf("Please include the news text after %q.", newsSubmissionPrefix))
		return
	}

	log.Printf("INFO (InboundMessageHandler): Broadcasting submission from %s", sender)
	// The sender is the source attribution for submitted content. The
	// pipeline involves multiple model calls; run it off the request.
	go h.broadcaster.ProcessMessage(context.WithoutCancel(ctx), submitted, sender)
	h.reply(ctx, sender, "Thank you! Your update is being prepared for broadcast.")
}

func (h *InboundMessageHandler) recordActivity(sender, language string) {
	if err := h.subscribers.RecordActivity(sender, language); err != nil {
		log.Printf("ERROR (InboundMessageHandler): Failed to record activity for %s: %v", sender, err)
	}
}

func (h *InboundMessageHandler) reply(ctx context.Context, recipient, text string) {
	if err := h.channel.SendText(ctx, recipient, text); err != nil {
		log.Printf("ERROR (InboundMessageHandler): Reply to %s failed: %v", recipient, err)
	}
}

func isOptOut(keyword string) bool {
	_, ok := optOutKeywords[keyword]
	return ok
}

func isOptIn(keyword string) bool {
	_, ok := optInKeywords[keyword]
	return ok
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
