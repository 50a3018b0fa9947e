package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"`
	Avatar   AvatarConfig   `mapstructure:"avatar"   validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and session settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes of zero issues tokens without an expiry; they stay
	// valid until revoked through logout.
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
	CookieName           string `mapstructure:"cookie_name"            validate:"required"`
	// CookieSecure marks the session cookie Secure; enable behind TLS.
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// MailConfig configures transactional email delivery.
// An empty SendGridAPIKey switches delivery to the log-only mailer.
type MailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromAddress    string `mapstructure:"from_address"     validate:"required,email"`
	FromName       string `mapstructure:"from_name"`
}

// AvatarConfig configures avatar upload limits and the storage backend.
type AvatarConfig struct {
	Storage  string   `mapstructure:"storage"   validate:"required,oneof=database s3"`
	MaxBytes int64    `mapstructure:"max_bytes" validate:"gt=0"`
	Size     int      `mapstructure:"size"      validate:"gt=0,lte=2048"`
	S3       S3Config `mapstructure:"s3"`
}

// S3Config holds the object storage settings used when Avatar.Storage is "s3".
type S3Config struct {
	Bucket          string `mapstructure:"bucket"            validate:"required_if=Enabled true"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// Enabled is derived from Avatar.Storage during Load.
	Enabled bool `mapstructure:"-"`
}

// JobsConfig sizes the background job worker pool.
type JobsConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size"   validate:"gte=1"`
}
