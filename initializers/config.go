package initializers

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Port            string        `mapstructure:"PORT"`
	GinMode         string        `mapstructure:"GIN_MODE"`
	DBDriver        string        `mapstructure:"DB_DRIVER"`
	DBDsn           string        `mapstructure:"DB_DSN"`
	DBMaxOpenConns  int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns  int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	AllowedOrigins  string        `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	TxMaxRetries    int           `mapstructure:"TX_MAX_RETRIES"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	IdempotencyTTL  time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
	KafkaBrokers    string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string        `mapstructure:"KAFKA_TOPIC"`
	PesapalBaseURL  string        `mapstructure:"PESAPAL_BASE_URL"`
	PesapalKey      string        `mapstructure:"PESAPAL_CONSUMER_KEY"`
	PesapalSecret   string        `mapstructure:"PESAPAL_CONSUMER_SECRET"`
	PesapalNotifyID string        `mapstructure:"PESAPAL_NOTIFICATION_ID"`
	PesapalCallback string        `mapstructure:"PESAPAL_CALLBACK_URL"`
	S3Bucket        string        `mapstructure:"S3_BUCKET"`
}

var defaults = map[string]any{
	"PORT":                    "8080",
	"GIN_MODE":                "debug",
	"DB_DRIVER":               "mysql",
	"DB_DSN":                  "",
	"DB_MAX_OPEN_CONNS":       100,
	"DB_MAX_IDLE_CONNS":       10,
	"JWT_SECRET":              "",
	"ALLOWED_ORIGINS":         "http://localhost:4200,https://www.amexan.store",
	"LOG_LEVEL":               "info",
	"TX_MAX_RETRIES":          3,
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"IDEMPOTENCY_TTL":         "24h",
	"KAFKA_BROKERS":           "",
	"KAFKA_TOPIC":             "amexan.commerce.events",
	"PESAPAL_BASE_URL":        "https://pay.pesapal.com/v3",
	"PESAPAL_CONSUMER_KEY":    "",
	"PESAPAL_CONSUMER_SECRET": "",
	"PESAPAL_NOTIFICATION_ID": "",
	"PESAPAL_CALLBACK_URL":    "https://amexan.store/payment/callback",
	"S3_BUCKET":               "",
}

// LoadConfig builds the application config from the environment. Every key
// has a default so viper can resolve it through AutomaticEnv.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.DBDsn == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *AppConfig) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func (c *AppConfig) Brokers() []string {
	return splitList(c.KafkaBrokers)
}
