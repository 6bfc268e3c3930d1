package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

type Config struct {
	AutoSendEmails  bool
	AutoUpdateSF    bool
	AutoRemoveDead  bool
	CheckInterval   time.Duration
	CallDelay       time.Duration
	NurtureSequence string

	LLM        LLM
	Outreach   Outreach
	Salesforce Salesforce
	Orum       Orum
	Sender     Sender
	Schedule   Schedule
	Resend     Resend
	Slack      Slack
	Whisper    Whisper
}

type LLM struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

type Outreach struct {
	APIKey string
	APIURL string
}

type Salesforce struct {
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
	LoginURL      string
	APIVersion    string
}

// Configured reports whether every credential needed for the password grant is set.
func (s Salesforce) Configured() bool {
	return s.Username != "" && s.Password != "" && s.SecurityToken != "" &&
		s.ClientID != "" && s.ClientSecret != ""
}

// MissingAppCredentials reports whether the user credentials are set but the
// connected app's client id or secret is not.
func (s Salesforce) MissingAppCredentials() bool {
	return s.Username != "" && s.Password != "" && s.SecurityToken != "" &&
		(s.ClientID == "" || s.ClientSecret == "")
}

type Orum struct {
	APIKey string
	APIURL string
}

type Sender struct {
	Name         string
	Email        string
	Title        string
	Company      string
	Phone        string
	CalendarLink string
}

type Schedule struct {
	Timezone         string
	DefaultEmailTime string
}

type Resend struct {
	APIKey string
	From   string
}

type Slack struct {
	BotToken string
	Channel  string
}

// Whisper configures audio transcription for --audio.
type Whisper struct {
	APIKey  string
	BaseURL string
	Model   string
}

var defaultModels = map[string]string{
	ProviderOllama:    "llama3.2",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderMock:      "mock",
}

// Load reads the process environment. Call godotenv.Load before it to pick up .env.
func Load() (Config, error) {
	cfg := Config{
		AutoSendEmails:  envBool("AUTO_SEND_EMAILS", false),
		AutoUpdateSF:    envBool("AUTO_UPDATE_SALESFORCE", true),
		AutoRemoveDead:  envBool("AUTO_REMOVE_DEAD_ENDS", true),
		NurtureSequence: envOr("NURTURE_SEQUENCE", "Long-Term Nurture"),
		Outreach: Outreach{
			APIKey: os.Getenv("OUTREACH_API_KEY"),
			APIURL: envOr("OUTREACH_API_URL", "https://api.outreach.io/api/v2"),
		},
		Salesforce: Salesforce{
			Username:      os.Getenv("SALESFORCE_USERNAME"),
			Password:      os.Getenv("SALESFORCE_PASSWORD"),
			SecurityToken: os.Getenv("SALESFORCE_SECURITY_TOKEN"),
			ClientID:      os.Getenv("SALESFORCE_CLIENT_ID"),
			ClientSecret:  os.Getenv("SALESFORCE_CLIENT_SECRET"),
			LoginURL:      envOr("SALESFORCE_LOGIN_URL", "https://login.salesforce.com"),
			APIVersion:    envOr("SALESFORCE_API_VERSION", "v59.0"),
		},
		Orum: Orum{
			APIKey: os.Getenv("ORUM_API_KEY"),
			APIURL: envOr("ORUM_API_URL", "https://api.orum.com/v1"),
		},
		Sender: Sender{
			Name:         envOr("YOUR_NAME", "Your Name"),
			Email:        envOr("YOUR_EMAIL", "your@email.com"),
			Title:        envOr("YOUR_TITLE", "Sales Development Representative"),
			Company:      envOr("YOUR_COMPANY", "Company Name"),
			Phone:        os.Getenv("YOUR_PHONE"),
			CalendarLink: envOr("YOUR_CALENDAR_LINK", "https://calendly.com/yourname"),
		},
		Schedule: Schedule{
			Timezone:         envOr("TIMEZONE", "America/Chicago"),
			DefaultEmailTime: envOr("DEFAULT_EMAIL_TIME", "09:00"),
		},
		Resend: Resend{
			APIKey: os.Getenv("RESEND_API_KEY"),
			From:   os.Getenv("RESEND_FROM"),
		},
		Slack: Slack{
			BotToken: os.Getenv("SLACK_BOT_TOKEN"),
			Channel:  os.Getenv("SLACK_CHANNEL"),
		},
		Whisper: Whisper{
			APIKey:  envOr("WHISPER_API_KEY", os.Getenv("OPENAI_API_KEY")),
			BaseURL: os.Getenv("WHISPER_BASE_URL"),
			Model:   envOr("WHISPER_MODEL", "whisper-1"),
		},
	}

	minutes, err := envInt("CHECK_INTERVAL", 5)
	if err != nil {
		return Config{}, err
	}
	if minutes <= 0 {
		return Config{}, fmt.Errorf("CHECK_INTERVAL must be positive, got %d", minutes)
	}
	cfg.CheckInterval = time.Duration(minutes) * time.Minute

	delay, err := envInt("CALL_DELAY_SECONDS", 2)
	if err != nil {
		return Config{}, err
	}
	cfg.CallDelay = time.Duration(delay) * time.Second

	cfg.LLM, err = loadLLM()
	if err != nil {
		return Config{}, err
	}
	if _, _, err := ParseClock(cfg.Schedule.DefaultEmailTime); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadLLM() (LLM, error) {
	provider := strings.ToLower(envOr("LLM_PROVIDER", ProviderOllama))
	if envBool("USE_MOCK_LLM", false) {
		provider = ProviderMock
	}

	llm := LLM{
		Provider: provider,
		Model:    envOr("LLM_MODEL", defaultModels[provider]),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	}

	switch provider {
	case ProviderOllama:
		if llm.BaseURL == "" {
			llm.BaseURL = "http://localhost:11434"
		}
	case ProviderOpenAI:
		llm.APIKey = os.Getenv("OPENAI_API_KEY")
		if llm.APIKey == "" {
			return LLM{}, fmt.Errorf("OPENAI_API_KEY is required for LLM_PROVIDER=openai")
		}
	case ProviderAnthropic:
		llm.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if llm.APIKey == "" {
			return LLM{}, fmt.Errorf("ANTHROPIC_API_KEY is required for LLM_PROVIDER=anthropic")
		}
	case ProviderMock:
	default:
		return LLM{}, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
	return llm, nil
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
