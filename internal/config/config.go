package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

const (
	productionAPIBase  = "https://api.docsbot.ai"
	developmentAPIBase = "http://localhost:9000"
)

// Labels holds the user-facing strings of the widget.
type Labels struct {
	FirstMessage     string // greeting shown before any question
	InputPlaceholder string
	GetSupport       string // label on the escalation affordance
	SupportResponse  string // bot text shown once an escalation completes
	Yes              string // default binary-affordance labels
	No               string
}

// Config holds all configuration for the widget engine and dev server.
// It is passed explicitly to every component; there is no ambient access.
type Config struct {
	TeamID    string
	BotID     string
	SignedKey string // bearer token sent as Authorization header, optional

	Port string
	Env  string

	// APIBase overrides the environment-derived backend host when non-empty.
	APIBase string

	AgentMode      bool // richer message types (resolution checks, escalations)
	EnableFeedback bool
	EnableSupport  bool
	EnableCopy     bool

	SupportLink string // URL the escalation popup navigates to, optional

	// Source visibility: HideAllSources suppresses every source list;
	// HiddenSourceTypes hides a list only when every source matches.
	HideAllSources    bool
	HiddenSourceTypes []string

	// CollectLeadBeforeSupport interposes the lead form before escalations.
	CollectLeadBeforeSupport bool
	LeadFields               []models.FieldSpec

	Labels Labels
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		TeamID:    os.Getenv("DOCSBOT_TEAM_ID"),
		BotID:     os.Getenv("DOCSBOT_BOT_ID"),
		SignedKey: os.Getenv("DOCSBOT_SIGNED_KEY"),

		Port: getEnv("PORT", "9000"),
		Env:  getEnv("ENV", "development"),

		APIBase: os.Getenv("DOCSBOT_API_URL"),

		AgentMode:      getEnv("DOCSBOT_AGENT_MODE", "false") == "true",
		EnableFeedback: getEnv("DOCSBOT_FEEDBACK", "true") == "true",
		EnableSupport:  getEnv("DOCSBOT_SUPPORT", "true") == "true",
		EnableCopy:     getEnv("DOCSBOT_COPY", "true") == "true",

		SupportLink: os.Getenv("DOCSBOT_SUPPORT_LINK"),

		HideAllSources: getEnv("DOCSBOT_HIDE_SOURCES", "false") == "true",

		CollectLeadBeforeSupport: getEnv("DOCSBOT_COLLECT_LEAD", "false") == "true",

		Labels: Labels{
			FirstMessage:     getEnv("DOCSBOT_FIRST_MESSAGE", "How can I help you?"),
			InputPlaceholder: getEnv("DOCSBOT_PLACEHOLDER", "Ask a question..."),
			GetSupport:       getEnv("DOCSBOT_SUPPORT_LABEL", "Get support"),
			SupportResponse:  getEnv("DOCSBOT_SUPPORT_RESPONSE", "Connecting you with our support team."),
			Yes:              "Yes",
			No:               "No",
		},
	}

	// Parse hidden source types (comma-separated)
	if hidden := os.Getenv("DOCSBOT_HIDDEN_SOURCE_TYPES"); hidden != "" {
		for _, entry := range strings.Split(hidden, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.HiddenSourceTypes = append(cfg.HiddenSourceTypes, entry)
			}
		}
	}

	// Default lead form collects an email address.
	cfg.LeadFields = []models.FieldSpec{
		{Key: "email", Label: "Email", Type: models.FieldEmail, Required: true},
	}

	// In production, require bot identity
	if cfg.Env == "production" {
		if cfg.TeamID == "" {
			panic("DOCSBOT_TEAM_ID is required in production")
		}
		if cfg.BotID == "" {
			panic("DOCSBOT_BOT_ID is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// APIBaseURL returns the backend host the widget talks to.
func (c *Config) APIBaseURL() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	if c.IsDevelopment() {
		return developmentAPIBase
	}
	return productionAPIBase
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
