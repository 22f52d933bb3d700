package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	ResendAPIURL       string `env:"RESEND_API_URL,default=https://api.resend.com/emails"`
	ResendAPIKey       string `env:"RESEND_API_KEY,required=true"`
	MailFrom           string `env:"MAIL_FROM,default=LinguaFlow <reminders@linguaflow.app>"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
	TickIntervalMins   int    `env:"TICK_INTERVAL_MINUTES,default=5"`
	SendTimeoutSecs    int    `env:"SEND_TIMEOUT_SECONDS,default=10"`
	ClaimTTLMins       int    `env:"CLAIM_TTL_MINUTES,default=0"`
	MailRatePerSec     int    `env:"MAIL_RATE_PER_SEC,default=10"`
	RunTicker          bool   `env:"RUN_TICKER,default=true"`
	WindowSelectLimit  int    `env:"WINDOW_SELECT_LIMIT,default=500"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMins) * time.Minute
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSecs) * time.Second
}

// ClaimTTL defaults to twice the tick interval so a claim from a crashed run
// survives at most one extra tick before it is released.
func (c *Config) ClaimTTL() time.Duration {
	if c.ClaimTTLMins > 0 {
		return time.Duration(c.ClaimTTLMins) * time.Minute
	}
	return 2 * c.TickInterval()
}
