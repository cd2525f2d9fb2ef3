package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/utils"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	MediaProviderImageKit = "imagekit"
	MediaProviderGCS      = "gcs"
)

type Config struct {
	Port            string
	LogMode         string
	ClientURLs      []string
	ShutdownTimeout time.Duration

	StoreDriver string
	Mongo       MongoConfig
	Postgres    PostgresConfig
	SQLitePath  string

	Auth  AuthConfig
	Media MediaConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (pc PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pc.User, pc.Password, pc.Host, pc.Port, pc.Name)
}

type AuthConfig struct {
	JWTSecret         string
	JWTPublicKeyPEM   string
	Issuer            string
	AuthorizedParties []string
}

type MediaConfig struct {
	Provider           string
	ImageKitEndpoint   string
	ImageKitPublicKey  string
	ImageKitPrivateKey string
	GCSBucket          string
	GCSCredentialsFile string
	UploadTTL          time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	Channel  string
}

func (rc RedisConfig) Enabled() bool {
	return strings.TrimSpace(rc.Address) != ""
}

// Load reads an optional .env file and then the process environment.
func Load(log *logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded, relying on process environment", "error", err)
	}
	log.Info("Attempting to load environment variables for Config now...")
	cfg := &Config{
		Port:            utils.GetEnv("PORT", "3000", log),
		LogMode:         utils.GetEnv("LOG_MODE", "development", log),
		ClientURLs:      utils.GetEnvAsList("CLIENT_URLS", []string{"https://racon.onrender.com", "http://localhost:5173"}, log),
		ShutdownTimeout: time.Duration(utils.GetEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10, log)) * time.Second,
		StoreDriver:     strings.ToLower(utils.GetEnv("STORE_DRIVER", StoreDriverMongo, log)),
		Mongo: MongoConfig{
			URI:      utils.GetEnv("MONGO", "mongodb://localhost:27017", log),
			Database: utils.GetEnv("MONGO_DATABASE", "racon", log),
		},
		Postgres: PostgresConfig{
			Host:     utils.GetEnv("POSTGRES_HOST", "localhost", log),
			Port:     utils.GetEnv("POSTGRES_PORT", "5432", log),
			User:     utils.GetEnv("POSTGRES_USER", "postgres", log),
			Password: utils.GetEnv("POSTGRES_PASSWORD", "", log),
			Name:     utils.GetEnv("POSTGRES_NAME", "racon", log),
		},
		SQLitePath: utils.GetEnv("SQLITE_PATH", "racon.db", log),
		Auth: AuthConfig{
			JWTSecret:         utils.GetEnv("AUTH_JWT_SECRET", "", log),
			JWTPublicKeyPEM:   utils.GetEnv("AUTH_JWT_PUBLIC_KEY", "", log),
			Issuer:            utils.GetEnv("AUTH_ISSUER", "", log),
			AuthorizedParties: utils.GetEnvAsList("AUTH_AUTHORIZED_PARTIES", nil, log),
		},
		Media: MediaConfig{
			Provider:           strings.ToLower(utils.GetEnv("MEDIA_PROVIDER", MediaProviderImageKit, log)),
			ImageKitEndpoint:   utils.GetEnv("IMAGE_KIT_ENDPOINT", "", log),
			ImageKitPublicKey:  utils.GetEnv("IMAGE_KIT_PUBLIC_KEY", "", log),
			ImageKitPrivateKey: utils.GetEnv("IMAGE_KIT_PRIVATE_KEY", "", log),
			GCSBucket:          utils.GetEnv("MEDIA_GCS_BUCKET", "", log),
			GCSCredentialsFile: utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS", "", log),
			UploadTTL:          time.Duration(utils.GetEnvAsInt("MEDIA_UPLOAD_TTL_SECONDS", 1800, log)) * time.Second,
		},
		Redis: RedisConfig{
			Address:  utils.GetEnv("REDIS_ADDRESS", "", log),
			Password: utils.GetEnv("REDIS_PASSWORD", "", log),
			Channel:  utils.GetEnv("REDIS_CHANNEL", "racon_hub_broadcast", log),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info("Environment variables loaded for Config :)", "storeDriver", cfg.StoreDriver, "mediaProvider", cfg.Media.Provider)
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO is required for the mongo store driver"))
		}
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKeyPEM == "" {
		errs = append(errs, errors.New("one of AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY is required"))
	}
	switch c.Media.Provider {
	case MediaProviderImageKit:
		if c.Media.ImageKitPrivateKey == "" || c.Media.ImageKitPublicKey == "" {
			errs = append(errs, errors.New("IMAGE_KIT_PUBLIC_KEY and IMAGE_KIT_PRIVATE_KEY are required for the imagekit media provider"))
		}
	case MediaProviderGCS:
		if c.Media.GCSBucket == "" {
			errs = append(errs, errors.New("MEDIA_GCS_BUCKET is required for the gcs media provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_PROVIDER %q", c.Media.Provider))
	}
	if c.Media.UploadTTL <= 0 {
		errs = append(errs, errors.New("MEDIA_UPLOAD_TTL_SECONDS must be positive"))
	}
	return errors.Join(errs...)
}
