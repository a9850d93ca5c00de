// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "VOLUNTEERHUB"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, redis_uri, etc.
//   - Environment variables: VOLUNTEERHUB_MONGO_URI, VOLUNTEERHUB_REDIS_URI, etc.
//   - Command-line flags: --mongo_uri, --redis_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "volunteerhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Redis leaderboard cache
	{Name: "redis_uri", Default: "", Desc: "Redis URI for the leaderboard cache (leave empty to disable caching)"},
	{Name: "leaderboard_cache_ttl", Default: "30s", Desc: "Leaderboard cache TTL (e.g., 30s, 1m)"},

	// API key configuration (protects the admin report routes)
	{Name: "api_key", Default: "", Desc: "API key for report access (leave empty to disable API key auth)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "VolunteerHub", Desc: "From display name"},

	// Scheduled jobs
	{Name: "reminder_interval", Default: "24h", Desc: "Overdue-task reminder sweep interval (e.g., 24h, 1h)"},
	{Name: "outbox_retention", Default: "168h", Desc: "How long delivered outbox entries are retained"},

	// Notification worker
	{Name: "outbox_poll_interval", Default: "5s", Desc: "Outbox poll interval per delivery worker"},
	{Name: "outbox_retry_delay", Default: "1m", Desc: "Base delay before retrying a failed delivery"},
	{Name: "outbox_concurrency", Default: 2, Desc: "Number of concurrent delivery workers"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, VOLUNTEERHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Redis leaderboard cache
		RedisURI:            appValues.String("redis_uri"),
		LeaderboardCacheTTL: appValues.Duration("leaderboard_cache_ttl", 30*time.Second),

		APIKey: appValues.String("api_key"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		// Scheduled jobs
		ReminderInterval: appValues.Duration("reminder_interval", 24*time.Hour),
		OutboxRetention:  appValues.Duration("outbox_retention", 7*24*time.Hour),

		// Notification worker
		OutboxPollInterval: appValues.Duration("outbox_poll_interval", 5*time.Second),
		OutboxRetryDelay:   appValues.Duration("outbox_retry_delay", time.Minute),
		OutboxConcurrency:  appValues.Int("outbox_concurrency"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.ReminderInterval <= 0 {
		return fmt.Errorf("reminder_interval must be positive, got %s", appCfg.ReminderInterval)
	}
	if appCfg.OutboxConcurrency < 0 {
		return fmt.Errorf("outbox_concurrency must not be negative, got %d", appCfg.OutboxConcurrency)
	}

	return nil
}
