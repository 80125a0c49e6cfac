package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique consumer name using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

// Order store backends.
const (
	OrderStoreMongo    = "mongo"
	OrderStorePostgres = "postgres"
	OrderStoreNone     = "none"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string
	// OrderStore selects the order lookup backend.
	OrderStore string

	// Admin
	JWTSecret string

	// Paths
	DataDir             string
	ModelDir            string
	TemplatesPath       string
	RepliesPath         string
	CorpusPath          string
	SentimentCorpusPath string

	// Corpus
	PerIntent   int
	Seed        int64
	IntentCap   int
	SourceLimit int

	// Training
	CVFolds        int
	TrainWorkers   int
	LogRegMaxIter  int
	SentimentLimit int
	Epochs         int
	BatchSize      int

	// Inference
	IntentThreshold  float64
	LexiconThreshold float64

	// Serving
	OrderLookupTimeout time.Duration
	// OrderCacheTTL caches found orders in Redis; zero disables the cache.
	OrderCacheTTL      time.Duration
	RetrainTimeout     time.Duration
	RateLimitPerMin    int
	MaxBodyBytes       int
	AllowedOrigins     []string

	// Consumer (Redis Stream)
	WorkerID                string
	ConsumerGroup           string
	ConsumerBatchSize       int
	ConsumerBlockMS         int
	ConsumerMaxRetries      int
	ConsumerPendingCheckSec int
}

func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "data")
	modelDir := getEnv("MODEL_DIR", "models")

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "ecommerce"),
		RedisURL:    getEnv("REDIS_URL", ""),
		OrderStore:  strings.ToLower(getEnv("ORDER_STORE", "")),

		JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		// Paths
		DataDir:             dataDir,
		ModelDir:            modelDir,
		TemplatesPath:       getEnv("TEMPLATES_PATH", ""),
		RepliesPath:         getEnv("REPLIES_PATH", ""),
		CorpusPath:          getEnv("CORPUS_PATH", filepath.Join(dataDir, "consolidated_training_data.csv")),
		SentimentCorpusPath: getEnv("SENTIMENT_CORPUS_PATH", filepath.Join(dataDir, "train.ft.txt")),

		// Corpus
		PerIntent:   getEnvInt("CORPUS_PER_INTENT", 400),
		Seed:        int64(getEnvInt("SEED", 42)),
		IntentCap:   getEnvInt("INTENT_CAP", 1000),
		SourceLimit: getEnvInt("SOURCE_LIMIT", 100),

		// Training
		CVFolds:        getEnvInt("CV_FOLDS", 5),
		TrainWorkers:   getEnvInt("TRAIN_WORKERS", 0),
		LogRegMaxIter:  getEnvInt("LOGREG_MAX_ITER", 1000),
		SentimentLimit: getEnvInt("SENTIMENT_LIMIT", 2000),
		Epochs:         getEnvInt("EPOCHS", 5),
		BatchSize:      getEnvInt("BATCH_SIZE", 128),

		// Inference
		IntentThreshold:  getEnvFloat("INTENT_THRESHOLD", 0.15),
		LexiconThreshold: getEnvFloat("LEXICON_THRESHOLD", 0.05),

		// Serving
		OrderLookupTimeout: time.Duration(getEnvInt("ORDER_LOOKUP_TIMEOUT_MS", 3000)) * time.Millisecond,
		OrderCacheTTL:      time.Duration(getEnvInt("ORDER_CACHE_TTL_SEC", 30)) * time.Second,
		RetrainTimeout:     time.Duration(getEnvInt("RETRAIN_TIMEOUT_MIN", 120)) * time.Minute,
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MIN", 120),
		MaxBodyBytes:       getEnvInt("MAX_BODY_BYTES", 16*1024),
		AllowedOrigins:     getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Consumer
		WorkerID:                getEnv("WORKER_ID", generateWorkerID()),
		ConsumerGroup:           getEnv("CONSUMER_GROUP", "chatbot-workers"),
		ConsumerBatchSize:       getEnvInt("CONSUMER_BATCH_SIZE", 50),
		ConsumerBlockMS:         getEnvInt("CONSUMER_BLOCK_MS", 5000),
		ConsumerMaxRetries:      getEnvInt("CONSUMER_MAX_RETRIES", 3),
		ConsumerPendingCheckSec: getEnvInt("CONSUMER_PENDING_CHECK_SEC", 30),
	}

	if cfg.OrderStore == "" {
		switch {
		case cfg.MongoDBURL != "":
			cfg.OrderStore = OrderStoreMongo
		case cfg.DatabaseURL != "":
			cfg.OrderStore = OrderStorePostgres
		default:
			cfg.OrderStore = OrderStoreNone
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IntentThreshold < 0 || c.IntentThreshold >= 1 {
		errs = append(errs, fmt.Errorf("INTENT_THRESHOLD must be in [0,1), got %v", c.IntentThreshold))
	}
	if c.LexiconThreshold < 0 || c.LexiconThreshold >= 1 {
		errs = append(errs, fmt.Errorf("LEXICON_THRESHOLD must be in [0,1), got %v", c.LexiconThreshold))
	}
	if c.CVFolds < 2 {
		errs = append(errs, fmt.Errorf("CV_FOLDS must be at least 2, got %d", c.CVFolds))
	}
	if c.PerIntent <= 0 || c.IntentCap <= 0 {
		errs = append(errs, errors.New("CORPUS_PER_INTENT and INTENT_CAP must be positive"))
	}
	switch c.OrderStore {
	case OrderStoreMongo:
		if c.MongoDBURL == "" {
			errs = append(errs, errors.New("ORDER_STORE=mongo requires MONGODB_URL"))
		}
	case OrderStorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ORDER_STORE=postgres requires DATABASE_URL"))
		}
	case OrderStoreNone:
	default:
		errs = append(errs, fmt.Errorf("unknown ORDER_STORE %q", c.OrderStore))
	}
	return errors.Join(errs...)
}

// ModelPath returns the path of a model artifact inside ModelDir.
func (c *Config) ModelPath(name string) string {
	return filepath.Join(c.ModelDir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
