package config

import (
	"fmt"
	"time"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Http      HttpConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Router    RouterConfig    `mapstructure:"router"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Email     EmailConfig     `mapstructure:"email"`
	Sms       SmsConfig       `mapstructure:"sms"`
	Push      PushConfig      `mapstructure:"push"`
	Aws       AwsConfig       `mapstructure:"aws"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HttpConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	PoolSize int    `mapstructure:"pool_size"`
}

func (d DatabaseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// RedisConfig enables the preference cache when Address is set.
type RedisConfig struct {
	Address       string        `mapstructure:"address"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PreferenceTTL time.Duration `mapstructure:"preference_ttl"`
}

type RouterConfig struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// TemplatesConfig.Source is either "builtin" or "postgres".
type TemplatesConfig struct {
	Source string `mapstructure:"source"`
	Seed   bool   `mapstructure:"seed"`
}

// EmailConfig.Provider is one of "ses", "mailgun" or "log".
type EmailConfig struct {
	Provider string        `mapstructure:"provider"`
	From     string        `mapstructure:"from"`
	ReplyTo  string        `mapstructure:"reply_to"`
	Mailgun  MailgunConfig `mapstructure:"mailgun"`
}

type MailgunConfig struct {
	Domain string `mapstructure:"domain"`
	ApiKey string `mapstructure:"api_key"`
}

// SmsConfig.Provider is one of "sns", "46elks" or "log".
type SmsConfig struct {
	Provider string     `mapstructure:"provider"`
	SenderId string     `mapstructure:"sender_id"`
	Elks     ElksConfig `mapstructure:"elks"`
}

type ElksConfig struct {
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// PushConfig.Provider is one of "sns" or "log".
type PushConfig struct {
	Provider string `mapstructure:"provider"`
}

type AwsConfig struct {
	Region string `mapstructure:"region"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) usesAws() bool {
	return c.Email.Provider == "ses" || c.Sms.Provider == "sns" || c.Push.Provider == "sns"
}
