package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		StoreDriver: StoreDriverMongo,
		Mongo:       MongoConfig{URI: "mongodb://localhost:27017", Database: "racon"},
		Auth:        AuthConfig{JWTSecret: "secret"},
		Media: MediaConfig{
			Provider:           MediaProviderImageKit,
			ImageKitPublicKey:  "public_x",
			ImageKitPrivateKey: "private_x",
			UploadTTL:          30 * time.Minute,
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.StoreDriver = "cassandra"
	cfg.Auth = AuthConfig{}
	cfg.Media.Provider = MediaProviderGCS

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"STORE_DRIVER", "AUTH_JWT_SECRET", "MEDIA_GCS_BUCKET"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	pc := PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "racon"}
	if got, want := pc.DSN(), "postgres://u:p@db:5432/racon?sslmode=disable"; got != want {
		t.Fatalf("DSN: got %q want %q", got, want)
	}
}

func TestRedisEnabled(t *testing.T) {
	if (RedisConfig{}).Enabled() {
		t.Fatal("empty address should disable redis")
	}
	if !(RedisConfig{Address: "localhost:6379"}).Enabled() {
		t.Fatal("address should enable redis")
	}
}
