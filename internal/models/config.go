package models

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Telegram   TelegramConfig   `json:"telegram"`
	Wazzup     WazzupConfig     `json:"wazzup"`
	AI         AIConfig         `json:"ai"`
	Automation AutomationConfig `json:"automation"`
	Retry      RetryConfig      `json:"retry"`
	Tracing    TracingConfig    `json:"tracing"`
	LogLevel   string           `json:"log_level"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"read_timeout_sec"`
	WriteTimeoutSec int `json:"write_timeout_sec"`
	IdleTimeoutSec  int `json:"idle_timeout_sec"`
}

// DatabaseConfig holds conversation store related configurations. An empty
// Path means no durable backend: the store runs in-memory only.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// TelegramConfig holds Telegram bot related configurations. The bot token
// is taken from the TELEGRAM_BOT_TOKEN environment variable, never from the
// config file.
type TelegramConfig struct {
	APIBaseURL string `json:"api_base_url"`
	BotToken   string `json:"-"`
	TimeoutSec int    `json:"timeout_sec"`
	ParseMode  string `json:"parse_mode"`
}

// WazzupConfig holds Wazzup bridge related configurations. The API key is
// taken from the WAZZUP_API_KEY environment variable.
type WazzupConfig struct {
	APIBaseURL       string `json:"api_base_url"`
	APIKey           string `json:"-"`
	DefaultChannelID string `json:"default_channel_id"`
	TimeoutSec       int    `json:"timeout_sec"`
	ChannelCacheSec  int    `json:"channel_cache_sec"`
}

// AIConfig holds the external response generator configurations. The API
// key comes from the AI_API_KEY environment variable.
type AIConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"-"`
	DefaultAgentID string `json:"default_agent_id"`
	TimeoutSec     int    `json:"timeout_sec"`
}

// AutomationConfig controls the webhook auto-reply path. DefaultMode applies
// to conversations with no explicit mode record.
type AutomationConfig struct {
	DefaultMode AutomationMode `json:"default_mode"`
}

// RetryConfig holds backoff settings for opening the durable store.
type RetryConfig struct {
	InitialBackoffMs int `json:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms"`
	MaxAttempts      int `json:"max_attempts"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}
