package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverMongo = "mongo"
	StorageDriverMySQL = "mysql"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Storage  StorageConfig
	Log      LogConfig
	PayPal   PayPalConfig
	Payments PaymentsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type HTTPConfig struct {
	ServerConfig
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    string
}

type GRPCConfig struct {
	ServerConfig
	Enabled bool
}

type StorageConfig struct {
	Driver         string
	ConnectTimeout time.Duration
	AutoMigrate    bool
	Mongo          MongoConfig
	MySQL          MySQLConfig
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type PayPalConfig struct {
	ReferencePrefix  string
	SimulateFailure  bool
	SimulatedLatency time.Duration
}

type PaymentsConfig struct {
	OrderIDPrefix string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	storage, err := loadStorage()
	if err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "payments-service"),
		},
		HTTP: HTTPConfig{
			ServerConfig: ServerConfig{
				Host: getEnv("HTTP_HOST", "0.0.0.0"),
				Port: getEnv("HTTP_PORT", getEnv("PORT", "3000")),
			},
			ReadTimeout:  getSecondsEnv("HTTP_READ_TIMEOUT_SECONDS", 15*time.Second),
			WriteTimeout: getSecondsEnv("HTTP_WRITE_TIMEOUT_SECONDS", 15*time.Second),
			BodyLimit:    getEnv("HTTP_BODY_LIMIT", "1M"),
		},
		GRPC: GRPCConfig{
			ServerConfig: ServerConfig{
				Host: getEnv("GRPC_HOST", "0.0.0.0"),
				Port: getEnv("GRPC_PORT", "9090"),
			},
			Enabled: getBoolEnv("GRPC_ENABLED", true),
		},
		Storage: *storage,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		PayPal: PayPalConfig{
			ReferencePrefix:  getEnv("PAYPAL_REFERENCE_PREFIX", "PAYPAL"),
			SimulateFailure:  getBoolEnv("PAYPAL_SIMULATE_FAILURE", false),
			SimulatedLatency: getMillisecondsEnv("PAYPAL_SIMULATED_LATENCY_MS", 0),
		},
		Payments: PaymentsConfig{
			OrderIDPrefix: getEnv("PAYMENTS_ORDER_ID_PREFIX", "ord_"),
		},
	}, nil
}

func loadStorage() (*StorageConfig, error) {
	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMongo))

	cfg := &StorageConfig{
		Driver:         driver,
		ConnectTimeout: getSecondsEnv("STORAGE_CONNECT_TIMEOUT_SECONDS", 10*time.Second),
		AutoMigrate:    getBoolEnv("STORAGE_AUTO_MIGRATE", true),
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", os.Getenv("MONGODB_URI")),
			Database:   getEnv("MONGO_DATABASE", "payments"),
			Collection: getEnv("MONGO_COLLECTION", "payments"),
		},
		MySQL: MySQLConfig{
			DSN:             os.Getenv("MYSQL_DSN"),
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
	}

	switch driver {
	case StorageDriverMongo:
		if cfg.Mongo.URI == "" {
			return nil, errors.New("MONGO_URI environment variable is required")
		}
	case StorageDriverMySQL:
		if cfg.MySQL.DSN == "" {
			return nil, errors.New("MYSQL_DSN environment variable is required")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getMillisecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
