package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sautihealth/sauti/config"
)

const (
	twilioAPIBase = "https://api.twilio.com"

	// observedContactsPageSize is the page size for the message-log scan.
	// One page covers the deployment scale; pagination is a later concern.
	observedContactsPageSize = 1000

	whatsappPrefix = "whatsapp:"
)

// TwilioProvider implements Channel over the Twilio Messages REST API.
// Addresses are WhatsApp-style ("whatsapp:+234...").
type TwilioProvider struct {
	accountSID string
	authToken  string
	fromNumber string
	apiBase    string
	httpClient *http.Client
}

var _ Channel = (*TwilioProvider)(nil)

func NewTwilioProvider(cfg config.DeliveryConfig) *TwilioProvider {
	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		apiBase:    twilioAPIBase,
		httpClient: http.DefaultClient,
	}
}

func (p *TwilioProvider) SendText(ctx context.Context, recipient, body string) error {
	form := url.Values{}
	form.Set("From", p.fromNumber)
	form.Set("To", recipient)
	form.Set("Body", body)
	return p.createMessage(ctx, form)
}

func (p *TwilioProvider) SendMedia(ctx context.Context, recipient, mediaURL string) error {
	form := url.Values{}
	form.Set("From", p.fromNumber)
	form.Set("To", recipient)
	form.Set("MediaUrl", mediaURL)
	return p.createMessage(ctx, form)
}

// ObservedContacts scans the account message log for messages addressed to
// our number and returns the distinct WhatsApp senders.
func (p *TwilioProvider) ObservedContacts(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json?To=%s&PageSize=%d",
		p.apiBase, p.accountSID, url.QueryEscape(p.fromNumber), observedContactsPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Twilio request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("Twilio returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var page twMessagePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode Twilio message log: %w", err)
	}

	seen := make(map[string]struct{}, len(page.Messages))
	contacts := make([]string, 0, len(page.Messages))
	for _, msg := range page.Messages {
		if !strings.HasPrefix(msg.From, whatsappPrefix) {
			continue
		}
		if _, ok := seen[msg.From]; ok {
			continue
		}
		seen[msg.From] = struct{}{}
		contacts = append(contacts, msg.From)
	}
	return contacts, nil
}

func (p *TwilioProvider) createMessage(ctx context.Context, form url.Values) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.apiBase, p.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create Twilio request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("Twilio returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Twilio Messages list response types.
type twMessagePage struct {
	Messages []twMessage `json:"messages"`
}

type twMessage struct {
	From string `json:"from"`
	To   string `json:"to"`
}
