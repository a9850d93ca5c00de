// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (HTTP ports, TLS, logging, CORS, body limits);
// AppConfig is everything specific to the volunteer platform.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Redis cache configuration.
	// When RedisURI is empty the leaderboard cache is disabled and all
	// leaderboard reads hit MongoDB directly.
	RedisURI            string
	LeaderboardCacheTTL time.Duration // how long a cached leaderboard stays fresh (default: 30s)

	// API key authentication for the admin report routes.
	// Leave empty to serve reports without authentication.
	APIKey string

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty disables auth)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@example.com)
	MailFromName string // From display name (e.g., VolunteerHub)

	// Scheduled job configuration
	ReminderInterval time.Duration // overdue-task reminder sweep cadence (default: 24h)
	OutboxRetention  time.Duration // how long delivered outbox entries are kept (default: 168h)

	// Notification worker configuration
	OutboxPollInterval time.Duration // outbox poll cadence per worker (default: 5s)
	OutboxRetryDelay   time.Duration // base retry delay, multiplied by attempt count (default: 1m)
	OutboxConcurrency  int           // delivery goroutines (default: 2)
}
