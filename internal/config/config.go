package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Notification sink kinds.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkKafka = "kafka"
	SinkNATS  = "nats"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Escalation   EscalationConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int

	// SeedFile is a YAML fixture loaded into the in-memory store when no
	// Postgres DSN is set.
	SeedFile string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
	Service     string
}

// EscalationConfig tunes the sweep scheduler.
type EscalationConfig struct {
	SweepIntervalSeconds int
	Workers              int
	TicketTimeoutSeconds int
	AtRiskPercent        int
	LockTTLSeconds       int
	ReassignOnEscalation bool
	CheckNowPerMinute    int
	SchedulerEnabled     bool
	RunSweepOnStart      bool
	LockKeyPrefix        string
	HistoryPageSize      int
}

// NotificationConfig selects and configures the notification intent sink.
type NotificationConfig struct {
	Sink           string
	RedisStream    string
	KafkaBrokers   []string
	KafkaTopic     string
	NATSURL        string
	NATSSubject    string
	RetryCount     int
	RetryBackoffMs int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	appName := getEnv("APP_NAME", "ticket-escalation")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			SeedFile:              os.Getenv("SEED_FILE"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Encoding:    getEnv("LOG_ENCODING", "json"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
			Service:     appName,
		},
		Escalation: EscalationConfig{
			SweepIntervalSeconds: getEnvAsInt("ESCALATION_SWEEP_INTERVAL_SECONDS", 120),
			Workers:              getEnvAsInt("ESCALATION_WORKERS", 8),
			TicketTimeoutSeconds: getEnvAsInt("ESCALATION_TICKET_TIMEOUT_SECONDS", 5),
			AtRiskPercent:        getEnvAsInt("ESCALATION_AT_RISK_PERCENT", 80),
			LockTTLSeconds:       getEnvAsInt("ESCALATION_LOCK_TTL_SECONDS", 30),
			ReassignOnEscalation: getEnvAsBool("ESCALATION_REASSIGN", true),
			CheckNowPerMinute:    getEnvAsInt("ESCALATION_CHECK_NOW_PER_MINUTE", 6),
			SchedulerEnabled:     getEnvAsBool("ESCALATION_SCHEDULER_ENABLED", true),
			RunSweepOnStart:      getEnvAsBool("ESCALATION_SWEEP_ON_START", false),
			LockKeyPrefix:        getEnv("ESCALATION_LOCK_PREFIX", "escalation:lock:ticket:"),
			HistoryPageSize:      getEnvAsInt("ESCALATION_HISTORY_PAGE_SIZE", 50),
		},
		Notification: NotificationConfig{
			Sink:           strings.ToLower(getEnv("NOTIFY_SINK", SinkLog)),
			RedisStream:    getEnv("NOTIFY_REDIS_STREAM", "escalation.notifications"),
			KafkaBrokers:   getEnvAsList("NOTIFY_KAFKA_BROKERS"),
			KafkaTopic:     getEnv("NOTIFY_KAFKA_TOPIC", "escalation.notifications"),
			NATSURL:        getEnv("NOTIFY_NATS_URL", "nats://127.0.0.1:4222"),
			NATSSubject:    getEnv("NOTIFY_NATS_SUBJECT", "escalation.notifications"),
			RetryCount:     getEnvAsInt("NOTIFY_RETRY_COUNT", 3),
			RetryBackoffMs: getEnvAsInt("NOTIFY_RETRY_BACKOFF_MS", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Notification.Sink {
	case SinkLog, SinkRedis, SinkNATS:
	case SinkKafka:
		if len(c.Notification.KafkaBrokers) == 0 {
			return fmt.Errorf("NOTIFY_KAFKA_BROKERS is required for the kafka sink")
		}
	default:
		return fmt.Errorf("invalid NOTIFY_SINK %q", c.Notification.Sink)
	}
	if c.Notification.Sink == SinkRedis && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis sink")
	}
	if p := c.Escalation.AtRiskPercent; p <= 0 || p > 100 {
		return fmt.Errorf("ESCALATION_AT_RISK_PERCENT must be within 1..100, got %d", p)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the periodic sweep interval.
func (e EscalationConfig) SweepInterval() time.Duration {
	if e.SweepIntervalSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(e.SweepIntervalSeconds) * time.Second
}

// TicketTimeout bounds the evaluation of a single ticket.
func (e EscalationConfig) TicketTimeout() time.Duration {
	if e.TicketTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.TicketTimeoutSeconds) * time.Second
}

// LockTTL returns the lifetime of per-ticket lock markers.
func (e EscalationConfig) LockTTL() time.Duration {
	if e.LockTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.LockTTLSeconds) * time.Second
}

// WorkerCount returns the sweep worker pool size.
func (e EscalationConfig) WorkerCount() int {
	if e.Workers <= 0 {
		return 1
	}
	return e.Workers
}

// RetryBackoff returns the initial sink retry backoff.
func (n NotificationConfig) RetryBackoff() time.Duration {
	if n.RetryBackoffMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(n.RetryBackoffMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
