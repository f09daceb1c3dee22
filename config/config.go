package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"compressd/models"
)

// Config is read once at startup and treated as immutable for the process
// lifetime. Every knob comes from a COMPRESSD_* environment variable; the
// preset tables may additionally be overridden from a YAML file.
type Config struct {
	ListenAddr string
	DataDir    string // databases
	ServeDir   string // default delivery target, served by the HTTP server
	WorkDir    string // per-job scratch directories

	JWTSecret string

	// Scheduler
	Workers      int           // max concurrently running jobs
	MaxQueue     int           // pending+running admission cap
	MaxRetries   int           // extra attempts for execution failures
	RetryBackoff time.Duration // base backoff, doubled per attempt
	CancelGrace  time.Duration // force-cancel deadline after a cancel signal

	// Intake
	MaxInputBytes int64

	// Progress reporting
	FlushInterval time.Duration

	// Notification backend: "log", "webhook", "redis" or "kafka"
	NotifyBackend  string
	WebhookURL     string
	RedisAddr      string
	RedisChannel   string
	KafkaBrokers   []string
	KafkaTopic     string
	NotifyTimeout  time.Duration

	Presets map[models.QualityPreset]models.PresetParams
}

// Load reads the environment (and the optional presets file named by
// COMPRESSD_PRESETS_FILE) into a Config.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr: envString("COMPRESSD_LISTEN", ":8080"),
		DataDir:    envString("COMPRESSD_DATA_DIR", "./data"),
		ServeDir:   envString("COMPRESSD_SERVE_DIR", "./serve"),
		WorkDir:    envString("COMPRESSD_WORK_DIR", os.TempDir()),

		JWTSecret: os.Getenv("COMPRESSD_JWT_SECRET"),

		Workers:      envInt("COMPRESSD_WORKERS", 2),
		MaxQueue:     envInt("COMPRESSD_MAX_QUEUE", 32),
		MaxRetries:   envInt("COMPRESSD_MAX_RETRIES", 0),
		RetryBackoff: envDuration("COMPRESSD_RETRY_BACKOFF", 5*time.Second),
		CancelGrace:  envDuration("COMPRESSD_CANCEL_GRACE", 10*time.Second),

		MaxInputBytes: envInt64("COMPRESSD_MAX_INPUT_MB", 100) << 20,

		FlushInterval: envDuration("COMPRESSD_FLUSH_INTERVAL", 2*time.Second),

		NotifyBackend: envString("COMPRESSD_NOTIFY", "log"),
		WebhookURL:    os.Getenv("COMPRESSD_WEBHOOK_URL"),
		RedisAddr:     envString("COMPRESSD_REDIS_ADDR", "localhost:6379"),
		RedisChannel:  envString("COMPRESSD_REDIS_CHANNEL", "compressd:progress"),
		KafkaBrokers:  []string{envString("COMPRESSD_KAFKA_BROKER", "localhost:9092")},
		KafkaTopic:    envString("COMPRESSD_KAFKA_TOPIC", "compressd.jobs"),
		NotifyTimeout: envDuration("COMPRESSD_NOTIFY_TIMEOUT", 5*time.Second),

		Presets: DefaultPresets(),
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("COMPRESSD_WORKERS must be at least 1")
	}
	if cfg.MaxQueue < cfg.Workers {
		return nil, fmt.Errorf("COMPRESSD_MAX_QUEUE must be at least COMPRESSD_WORKERS")
	}

	if path := os.Getenv("COMPRESSD_PRESETS_FILE"); path != "" {
		if err := mergePresetsFile(cfg.Presets, path); err != nil {
			return nil, fmt.Errorf("load presets file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// HistoryDBPath returns the full path of the terminal-record database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
