package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	EventBusMemory = "memory"
	EventBusKafka  = "kafka"
	EventBusRedis  = "redis"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string

	DBDriver      string
	DatabaseDSN   string
	DBAutoMigrate bool

	OTPTTL        time.Duration
	VoterTokenTTL time.Duration
	TokenSecret   string
	AdminAPIKey   string

	TrustProxyHeaders bool

	ElectionClockEnabled  bool
	ElectionClockInterval time.Duration

	EventBus         string
	KafkaBrokers     []string
	EventTopicPrefix string
	RedisURL         string
	MetricsNamespace string
}

// Load reads the process environment, after merging an optional .env file
// (ENV_FILE, default ".env"). Variables already set in the environment win.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVICE_NAME", "offline-voting")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("OTP_TTL", "30m")
	v.SetDefault("VOTER_TOKEN_TTL", "2h")
	v.SetDefault("ELECTION_CLOCK_ENABLED", true)
	v.SetDefault("ELECTION_CLOCK_INTERVAL", "15s")
	v.SetDefault("EVENT_BUS", EventBusMemory)
	v.SetDefault("EVENT_TOPIC_PREFIX", "voting.")
	v.SetDefault("METRICS_NAMESPACE", "offline_voting")

	r := reader{v: v}
	cfg := Config{
		ServiceName:      r.String("SERVICE_NAME"),
		HTTPPort:         r.String("HTTP_PORT"),
		DBDriver:         strings.ToLower(r.String("DB_DRIVER")),
		DatabaseDSN:      r.String("DATABASE_DSN"),
		DBAutoMigrate:    r.Bool("DB_AUTO_MIGRATE"),
		OTPTTL:           r.Duration("OTP_TTL"),
		VoterTokenTTL:    r.Duration("VOTER_TOKEN_TTL"),
		TokenSecret:      r.String("TOKEN_SECRET"),
		AdminAPIKey:      r.String("ADMIN_API_KEY"),
		EventBus:         strings.ToLower(r.String("EVENT_BUS")),
		KafkaBrokers:     r.List("KAFKA_BROKERS"),
		EventTopicPrefix: r.String("EVENT_TOPIC_PREFIX"),
		RedisURL:         r.String("REDIS_URL"),
		MetricsNamespace: r.String("METRICS_NAMESPACE"),

		TrustProxyHeaders:     r.Bool("TRUST_PROXY_HEADERS"),
		ElectionClockEnabled:  r.Bool("ELECTION_CLOCK_ENABLED"),
		ElectionClockInterval: r.Duration("ELECTION_CLOCK_INTERVAL"),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.TokenSecret) == "" {
		errs = append(errs, errors.New("TOKEN_SECRET is required"))
	}
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
	}
	switch c.EventBus {
	case EventBusMemory:
	case EventBusKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when EVENT_BUS=kafka"))
		}
	case EventBusRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when EVENT_BUS=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENT_BUS %q is not supported", c.EventBus))
	}
	if c.OTPTTL <= 0 || c.VoterTokenTTL <= 0 || c.ElectionClockInterval <= 0 {
		errs = append(errs, errors.New("OTP_TTL, VOTER_TOKEN_TTL and ELECTION_CLOCK_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// reader resolves keys with KEY_FILE support and keeps the first conversion
// error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) raw(key string) string {
	if path := strings.TrimSpace(r.v.GetString(key + "_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			r.fail(fmt.Errorf("read %s_FILE: %w", key, err))
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) String(key string) string {
	return r.raw(key)
}

func (r *reader) Bool(key string) bool {
	value, err := cast.ToBoolE(r.raw(key))
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
	}
	return value
}

func (r *reader) Duration(key string) time.Duration {
	value, err := cast.ToDurationE(r.raw(key))
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
	}
	return value
}

func (r *reader) List(key string) []string {
	var items []string
	for _, value := range strings.Split(r.raw(key), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
