package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sautihealth/sauti/config"
	"github.com/sautihealth/sauti/conversion"
	"github.com/sautihealth/sauti/models"
)

// Synthesizer is the capability contract for text → audio. Implementations
// return the file name of a served MP3 artifact inside the audio directory.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang models.Language) (string, error)
}

// MMSClient implements Synthesizer against hosted MMS-TTS models, one per
// language (the language registry carries the model id). The raw response
// audio is written as an intermediate WAV and converted to MP3; the WAV
// never outlives the call.
type MMSClient struct {
	baseURL    string
	apiKey     string
	audioDir   string
	httpClient *http.Client
	converter  *conversion.Converter
}

var _ Synthesizer = (*MMSClient)(nil)

// NewMMSClient builds a client from configuration and ensures the audio
// directory exists.
func NewMMSClient(cfg config.InferenceConfig, audioDir string, converter *conversion.Converter) (*MMSClient, error) {
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory %s: %w", audioDir, err)
	}
	return &MMSClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		audioDir:   audioDir,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		converter:  converter,
	}, nil
}

// Synthesize voices the text with the language's TTS model and returns the
// MP3 file name under the audio directory.
func (c *MMSClient) Synthesize(ctx context.Context, text string, lang models.Language) (string, error) {
	audio, err := c.fetchAudio(ctx, text, lang)
	if err != nil {
		return "", err
	}

	wavPath := filepath.Join(c.audioDir, strings.ReplaceAll(uuid.NewString(), "-", "")+".wav")
	if err := os.WriteFile(wavPath, audio, 0644); err != nil {
		return "", fmt.Errorf("failed to write WAV artifact: %w", err)
	}

	mp3Path, err := c.converter.WAVToMP3(ctx, wavPath)
	if err != nil {
		return "", fmt.Errorf("failed to convert synthesis output: %w", err)
	}

	return filepath.Base(mp3Path), nil
}

// fetchAudio posts the text to the per-language model endpoint and returns
// the raw audio bytes.
func (c *MMSClient) fetchAudio(ctx context.Context, text string, lang models.Language) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("synthesis client misconfigured: missing API key")
	}

	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis payload: %w", err)
	}

	endpoint := c.baseURL + "/" + lang.TTSModel
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("synthesis error %s for model %s: %s", resp.Status, lang.TTSModel, strings.TrimSpace(string(payload)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis response for model %s was empty", lang.TTSModel)
	}
	return audio, nil
}
