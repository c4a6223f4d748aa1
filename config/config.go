package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DedupBackendRedis    = "redis"
	DedupBackendPostgres = "postgres"
)

type (
	Config struct {
		HTTP            HTTP
		Log             Log
		Kafka           Kafka
		KafkaController KafkaController
		Dedup           Dedup
		Redis           Redis
		PG              PG
		Analytics       Analytics
		Producer        Producer
	}

	HTTP struct {
		Port string `env:"HTTP_PORT" envDefault:"8000"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Kafka struct {
		Brokers        []string `env:"KAFKA_BOOTSTRAP" envDefault:"localhost:9092" envSeparator:","`
		GroupID        string   `env:"KAFKA_GROUP_ID" envDefault:"analytics-consumer-group"`
		CustomerTopic  string   `env:"KAFKA_CUSTOMER_TOPIC" envDefault:"customer_data"`
		InventoryTopic string   `env:"KAFKA_INVENTORY_TOPIC" envDefault:"inventory_data"`
	}

	KafkaController struct {
		CommitTimeout   time.Duration `env:"KAFKA_CONTROLLER_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_CONTROLLER_PROCESS_TIMEOUT" envDefault:"2m"` // dedup + merge + every forward attempt
		ShutdownTimeout time.Duration `env:"KAFKA_CONTROLLER_SHUTDOWN_TIMEOUT" envDefault:"2m"`
		RedeliveryDelay time.Duration `env:"KAFKA_REDELIVERY_DELAY" envDefault:"1s"`
		PartitionBuffer int           `env:"KAFKA_PARTITION_BUFFER" envDefault:"64"`
	}

	Dedup struct {
		Backend         string        `env:"DEDUP_BACKEND" envDefault:"redis"`
		TTL             time.Duration `env:"DEDUP_TTL" envDefault:"168h"`
		CleanupInterval time.Duration `env:"DEDUP_CLEANUP_INTERVAL" envDefault:"1h"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     string `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX" envDefault:"4"`
		URL     string `env:"PG_URL"`
	}

	Analytics struct {
		URL             string        `env:"ANALYTICS_URL" envDefault:"http://localhost:8085/analytics/data"`
		Timeout         time.Duration `env:"ANALYTICS_TIMEOUT" envDefault:"10s"`
		RetryAttempts   int           `env:"ANALYTICS_RETRY_ATTEMPTS" envDefault:"5"`
		RetryMultiplier float64       `env:"ANALYTICS_RETRY_MULTIPLIER" envDefault:"2"`
		RetryUnit       time.Duration `env:"ANALYTICS_RETRY_UNIT" envDefault:"1s"`
		RetryMaxDelay   time.Duration `env:"ANALYTICS_RETRY_MAX_DELAY" envDefault:"1m"`
	}

	Producer struct {
		CRMBaseURL       string        `env:"CRM_BASE_URL" envDefault:"http://localhost:8081"`
		InventoryBaseURL string        `env:"INVENTORY_BASE_URL" envDefault:"http://localhost:8082"`
		Interval         time.Duration `env:"PRODUCER_INTERVAL" envDefault:"60s"`
		FetchAttempts    int           `env:"PRODUCER_FETCH_ATTEMPTS" envDefault:"3"`
		FetchDelay       time.Duration `env:"PRODUCER_FETCH_DELAY" envDefault:"2s"`
		FetchTimeout     time.Duration `env:"PRODUCER_FETCH_TIMEOUT" envDefault:"10s"`
	}
)

// Load reads the given dotenv files that exist, without overriding variables
// already set in the environment, and then parses the environment.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		_, err := os.Stat(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		err = godotenv.Load(file)
		if err != nil {
			return nil, fmt.Errorf("config error: %s: %w", file, err)
		}
	}

	return New()
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Dedup.TTL <= 0 {
		return nil, fmt.Errorf("config error: DEDUP_TTL must be positive, got %s", cfg.Dedup.TTL)
	}

	switch cfg.Dedup.Backend {
	case DedupBackendRedis:
	case DedupBackendPostgres:
		if cfg.PG.URL == "" {
			return nil, fmt.Errorf("config error: PG_URL is required when DEDUP_BACKEND=%s", DedupBackendPostgres)
		}
	default:
		return nil, fmt.Errorf("config error: unknown DEDUP_BACKEND %q", cfg.Dedup.Backend)
	}

	return cfg, nil
}
