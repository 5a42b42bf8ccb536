package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sautihealth/sauti/config"
	"github.com/sautihealth/sauti/models"
)

// Translator is the capability contract for English → target-language text.
type Translator interface {
	Translate(ctx context.Context, text string, lang models.Language) (string, error)
}

// NLLBClient implements Translator against a hosted NLLB-200 inference
// endpoint (Hugging Face Inference API shape).
type NLLBClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Translator = (*NLLBClient)(nil)

// NewNLLBClient builds a client from configuration.
func NewNLLBClient(cfg config.InferenceConfig) *NLLBClient {
	return &NLLBClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.TranslateModel,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Translate posts the English text and decodes the first translation.
func (c *NLLBClient) Translate(ctx context.Context, text string, lang models.Language) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("translation client misconfigured: missing API key")
	}

	body, err := json.Marshal(map[string]any{
		"inputs": text,
		"parameters": map[string]string{
			"src_lang": "eng_Latn",
			"tgt_lang": lang.NLLBCode,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal translation payload: %w", err)
	}

	endpoint := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("translation error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var results []struct {
		TranslationText string `json:"translation_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("translation response for %s contained no results", lang.NLLBCode)
	}

	return strings.TrimSpace(results[0].TranslationText), nil
}
