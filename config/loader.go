package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Load reads config.yaml (and config.<APP_ENVIRONMENT>.yaml when present)
// from ./configs or the working directory. Environment variables override
// file values using upper snake case keys, e.g. DATABASE_HOST.
func Load() (*Config, error) {
	loadEnvFile(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "error reading base config")
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile(".env")

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	return decode(v)
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper knows about.
	for _, key := range []string{
		"database.host", "database.port", "database.database", "database.user", "database.password",
		"redis.address", "redis.password", "redis.db",
		"email.provider", "email.from", "email.reply_to", "email.mailgun.domain", "email.mailgun.api_key",
		"sms.provider", "sms.sender_id", "sms.elks.from", "sms.elks.username", "sms.elks.password",
		"push.provider", "aws.region",
		"logging.level", "logging.format",
	} {
		_ = v.BindEnv(key)
	}

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "communication-hub"
	}

	if cfg.Http.Addr == "" {
		cfg.Http.Addr = ":8080"
	}
	if cfg.Http.ShutdownTimeout == 0 {
		cfg.Http.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.PoolSize == 0 {
		cfg.Database.PoolSize = 10
	}

	if cfg.Redis.PreferenceTTL == 0 {
		cfg.Redis.PreferenceTTL = 10 * time.Minute
	}

	if cfg.Router.Workers == 0 {
		cfg.Router.Workers = 5
	}
	if cfg.Router.QueueSize == 0 {
		cfg.Router.QueueSize = 1000
	}
	if cfg.Router.SendTimeout == 0 {
		cfg.Router.SendTimeout = 30 * time.Second
	}
	if cfg.Router.MaxAttempts == 0 {
		cfg.Router.MaxAttempts = 5
	}

	if cfg.Templates.Source == "" {
		cfg.Templates.Source = "builtin"
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "log"
	}
	if cfg.Sms.Provider == "" {
		cfg.Sms.Provider = "log"
	}
	if cfg.Push.Provider == "" {
		cfg.Push.Provider = "log"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if cfg.Database.Database == "" {
		return errors.New("database.database is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database.user is required")
	}

	switch cfg.Templates.Source {
	case "builtin", "postgres":
	default:
		return errors.Errorf("templates.source must be builtin or postgres, got %q", cfg.Templates.Source)
	}

	switch cfg.Email.Provider {
	case "log", "ses":
	case "mailgun":
		if cfg.Email.Mailgun.Domain == "" || cfg.Email.Mailgun.ApiKey == "" {
			return errors.New("email.mailgun.domain and email.mailgun.api_key are required for mailgun")
		}
	default:
		return errors.Errorf("unknown email.provider %q", cfg.Email.Provider)
	}

	if cfg.Email.Provider != "log" && cfg.Email.From == "" {
		return errors.New("email.from is required")
	}

	switch cfg.Sms.Provider {
	case "log", "sns":
	case "46elks":
		if cfg.Sms.Elks.Username == "" || cfg.Sms.Elks.Password == "" {
			return errors.New("sms.elks.username and sms.elks.password are required for 46elks")
		}
	default:
		return errors.Errorf("unknown sms.provider %q", cfg.Sms.Provider)
	}

	switch cfg.Push.Provider {
	case "log", "sns":
	default:
		return errors.Errorf("unknown push.provider %q", cfg.Push.Provider)
	}

	if cfg.usesAws() && cfg.Aws.Region == "" {
		return errors.New("aws.region is required when an aws provider is used")
	}

	return nil
}
