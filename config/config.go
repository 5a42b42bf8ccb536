package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "SAUTI_CONFIG"
	portEnv            = "PORT"
	publicURLEnv       = "PUBLIC_URL"
	twilioSIDEnv       = "TWILIO_ACCOUNT_SID"
	twilioTokenEnv     = "TWILIO_AUTH_TOKEN"
	twilioNumberEnv    = "TWILIO_NUMBER"
	inferenceAPIKeyEnv = "INFERENCE_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Inference InferenceConfig `yaml:"inference"`
	Content   ContentConfig   `yaml:"content"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig describes the HTTP listener and the public base address
// used when building audio URLs for outbound media messages.
type ServerConfig struct {
	Port      string `yaml:"port"`
	PublicURL string `yaml:"publicUrl"`
	AppName   string `yaml:"appName"`
}

// DeliveryConfig wires the Twilio messaging channel.
type DeliveryConfig struct {
	AccountSID string `yaml:"accountSid"`
	AuthToken  string `yaml:"authToken"`
	FromNumber string `yaml:"fromNumber"`
	// RequireChannelHistory gates broadcast eligibility on the recipient
	// also appearing in the channel's own inbound message log. True is the
	// strict double-confirmation policy.
	RequireChannelHistory *bool `yaml:"requireChannelHistory"`
}

// InferenceConfig defines how to reach the hosted translation and TTS models.
type InferenceConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	APIKey         string `yaml:"apiKey"`
	TranslateModel string `yaml:"translateModel"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the per-call inference timeout.
func (i InferenceConfig) Timeout() time.Duration {
	if i.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// ContentConfig describes the fallback chain's sources.
type ContentConfig struct {
	PrimaryURLs []string `yaml:"primaryUrls"`
	FeedURLs    []string `yaml:"feedUrls"`
	Keyword     string   `yaml:"keyword"`
	CSVPath     string   `yaml:"csvPath"`
	CursorPath  string   `yaml:"cursorPath"`
}

// StorageConfig holds the file-backed state locations.
type StorageConfig struct {
	SubscriberPath string `yaml:"subscriberPath"`
	AudioDir       string `yaml:"audioDir"`
}

// SchedulerConfig defines when broadcasts fire. IntervalMinutes takes
// precedence when nonzero; otherwise DailyAt ("HH:MM", scheduler timezone)
// applies.
type SchedulerConfig struct {
	IntervalMinutes  int    `yaml:"intervalMinutes"`
	DailyAt          string `yaml:"dailyAt"`
	Timezone         string `yaml:"timezone"`
	BroadcastOnStart bool   `yaml:"broadcastOnStart"`
}

// Interval returns the broadcast interval, or zero when daily scheduling applies.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// RequireChannelHistoryEnabled resolves the eligibility policy, defaulting to strict.
func (d DeliveryConfig) RequireChannelHistoryEnabled() bool {
	if d.RequireChannelHistory == nil {
		return true
	}
	return *d.RequireChannelHistory
}

// Location resolves the scheduler timezone, falling back to UTC.
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Printf("WARN (Config): unknown timezone %q, reverting to UTC", s.Timezone)
		return time.UTC
	}
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("WARN (Config): cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("WARN (Config): cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Delivery.AccountSID == "" || cfg.Delivery.AuthToken == "" {
		log.Println("WARNING: Twilio credentials not set. Message delivery will fail at runtime.")
	}
	if cfg.Inference.APIKey == "" {
		log.Println("WARNING: INFERENCE_API_KEY not set. Translation and synthesis will fail at runtime.")
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv(publicURLEnv); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv(twilioSIDEnv); v != "" {
		c.Delivery.AccountSID = v
	}
	if v := os.Getenv(twilioTokenEnv); v != "" {
		c.Delivery.AuthToken = v
	}
	if v := os.Getenv(twilioNumberEnv); v != "" {
		c.Delivery.FromNumber = v
	}
	if v := os.Getenv(inferenceAPIKeyEnv); v != "" {
		c.Inference.APIKey = v
	}
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:      "8080",
			PublicURL: "http://localhost:8080",
			AppName:   "Sauti Health",
		},
		Inference: InferenceConfig{
			BaseURL:        "https://api-inference.huggingface.co/models",
			TranslateModel: "facebook/nllb-200-distilled-600M",
			TimeoutSeconds: 60,
		},
		Content: ContentConfig{
			PrimaryURLs: []string{
				"https://www.who.int/news-room/fact-sheets/detail/malaria",
				"https://www.cdc.gov/malaria/about/index.html",
			},
			FeedURLs: []string{
				"https://www.who.int/rss-feeds/news-english.xml",
				"https://news.google.com/rss/search?q=malaria",
			},
			Keyword:    "malaria",
			CSVPath:    "messages.csv",
			CursorPath: "last_sent.txt",
		},
		Storage: StorageConfig{
			SubscriberPath: "subscribers.json",
			AudioDir:       "temp_audio",
		},
		Scheduler: SchedulerConfig{
			DailyAt:  "09:00",
			Timezone: "Africa/Lagos",
		},
	}
}
