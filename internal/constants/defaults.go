package constants

// Default server configuration values
const (
	DefaultServerPort            = 8084
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1
)

// Default external call timeouts
const (
	DefaultAdapterTimeoutSec   = 30
	DefaultGeneratorTimeoutSec = 60
)

// Default store configuration values
const (
	DefaultStoreRetryAttempts = 3
	DefaultBackoffInitialMs   = 500
	DefaultBackoffMaxMs       = 5000
	DefaultListLimit          = 50
	MaxListLimit              = 500
)

// Default provider endpoints
const (
	DefaultTelegramAPIBaseURL = "https://api.telegram.org"
	DefaultWazzupAPIBaseURL   = "https://api.wazzup24.com/v3"
)

// Default Wazzup channel listing cache TTL
const DefaultWazzupChannelCacheSec = 300

// Automation defaults
const (
	DefaultAgentID = "travel-assistant"
	// CommandMarker excludes bot commands from auto-reply.
	CommandMarker = "/"
)

// Encryption parameters for at-rest field encryption
const (
	NonceSize        = 12
	PBKDF2Iters      = 100_000
	EncryptionKeyLen = 32
	MinSecretLength  = 16
)
