package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	supplierModel "fulfillment-backend/internal/domains/supplier/model"
)

// Config holds the whole application configuration, populated from the
// environment. cmd entry points call godotenv.Load first.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	MinIO      MinIOConfig
	Kafka      KafkaConfig
	Classifier ClassifierConfig
	Sourcing   SourcingConfig
	Supplier   SupplierConfig
	Worker     WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	// Store selects "postgres" or "memory".
	Store string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

// URL is the DSN used by golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled is false when no brokers are configured; events are then dropped.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type ClassifierConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	RPS     float64
	Timeout time.Duration
	// MaxImageBytes bounds uploads accepted by the inspection endpoint.
	MaxImageBytes int64
}

type SourcingConfig struct {
	SameCityDays  int
	OtherCityDays int
	// FavoredHubs lists hub cities whose warehouses are drawn from first, in order.
	FavoredHubs     []string
	PreviewCacheTTL time.Duration
	StatusCacheTTL  time.Duration
}

type SupplierConfig struct {
	PlannerPolicy supplierModel.ConfirmPolicy
	ManualPolicy  supplierModel.ConfirmPolicy
	TrustMinScore decimal.Decimal
	TrustMaxIssue int
}

// AutoConfirm converts the section into the policy used at reservation creation.
func (s SupplierConfig) AutoConfirm() supplierModel.AutoConfirm {
	return supplierModel.AutoConfirm{
		Planner: s.PlannerPolicy,
		Manual:  s.ManualPolicy,
		Rule:    supplierModel.TrustRule{MinScore: s.TrustMinScore, MaxIssues: s.TrustMaxIssue},
	}
}

type WorkerConfig struct {
	Concurrency         int
	StaleReservationAge time.Duration
	StaleScanCron       string
	StaleScanLimit      int
	HealthAddr          string
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	var errs []string

	plannerPolicy, err := supplierModel.ParseConfirmPolicy(getEnv("SUPPLIER_AUTO_CONFIRM_POLICY", "always"))
	if err != nil {
		errs = append(errs, err.Error())
	}
	manualPolicy, err := supplierModel.ParseConfirmPolicy(getEnv("SUPPLIER_MANUAL_POLICY", "trust"))
	if err != nil {
		errs = append(errs, err.Error())
	}
	minScore, err := decimal.NewFromString(getEnv("SUPPLIER_TRUST_MIN_SCORE", "0.95"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SUPPLIER_TRUST_MIN_SCORE: %v", err))
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Fulfillment API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Store:       getEnv("APP_STORE", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "fulfillment"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "inspections"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "fulfillment.events"),
		},
		Classifier: ClassifierConfig{
			APIURL:        getEnv("CLASSIFIER_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
			APIKey:        getEnv("CLASSIFIER_API_KEY", ""),
			Model:         getEnv("CLASSIFIER_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
			RPS:           getEnvFloat("CLASSIFIER_RPS", 2),
			Timeout:       getEnvDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
			MaxImageBytes: int64(getEnvInt("CLASSIFIER_MAX_IMAGE_MB", 10)) << 20,
		},
		Sourcing: SourcingConfig{
			SameCityDays:    getEnvInt("SOURCING_SAME_CITY_DAYS", 1),
			OtherCityDays:   getEnvInt("SOURCING_OTHER_CITY_DAYS", 2),
			FavoredHubs:     getEnvList("SOURCING_FAVORED_HUBS"),
			PreviewCacheTTL: getEnvDuration("SOURCING_PREVIEW_TTL", 30*time.Second),
			StatusCacheTTL:  getEnvDuration("COMPLETION_STATUS_TTL", 5*time.Second),
		},
		Supplier: SupplierConfig{
			PlannerPolicy: plannerPolicy,
			ManualPolicy:  manualPolicy,
			TrustMinScore: minScore,
			TrustMaxIssue: getEnvInt("SUPPLIER_TRUST_MAX_ISSUES", 0),
		},
		Worker: WorkerConfig{
			Concurrency:         getEnvInt("WORKER_CONCURRENCY", 10),
			StaleReservationAge: time.Duration(getEnvInt("STALE_RESERVATION_HOURS", 24)) * time.Hour,
			StaleScanCron:       getEnv("STALE_SCAN_CRON", "@every 30m"),
			StaleScanLimit:      getEnvInt("STALE_SCAN_LIMIT", 500),
			HealthAddr:          getEnv("WORKER_HEALTH_ADDR", ":9999"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Store != "postgres" && c.App.Store != "memory" {
		return fmt.Errorf("APP_STORE must be postgres or memory, got %q", c.App.Store)
	}
	if c.Sourcing.SameCityDays < 0 || c.Sourcing.OtherCityDays < 0 {
		return fmt.Errorf("sourcing transit days must not be negative")
	}
	if c.Classifier.RPS <= 0 {
		return fmt.Errorf("CLASSIFIER_RPS must be positive")
	}
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
