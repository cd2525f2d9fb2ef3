package utils

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/racon-ai/racon-backend/internal/logger"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("RACON_TEST_STR", "value")
	if got := GetEnv("RACON_TEST_STR", "def", nil); got != "value" {
		t.Fatalf("GetEnv: got %q", got)
	}
	if got := GetEnv("RACON_TEST_MISSING", "def", nil); got != "def" {
		t.Fatalf("GetEnv default: got %q", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("RACON_TEST_INT", " 42 ")
	t.Setenv("RACON_TEST_BAD_INT", "forty")
	if got := GetEnvAsInt("RACON_TEST_INT", 1, nil); got != 42 {
		t.Fatalf("GetEnvAsInt: got %d", got)
	}
	if got := GetEnvAsInt("RACON_TEST_BAD_INT", 7, nil); got != 7 {
		t.Fatalf("GetEnvAsInt fallback: got %d", got)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("RACON_TEST_BOOL", "true")
	t.Setenv("RACON_TEST_BAD_BOOL", "maybe")
	if !GetEnvAsBool("RACON_TEST_BOOL", false, nil) {
		t.Fatal("GetEnvAsBool: expected true")
	}
	if GetEnvAsBool("RACON_TEST_BAD_BOOL", false, nil) {
		t.Fatal("GetEnvAsBool fallback: expected false")
	}
}

func TestGetEnvAsList(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"split and trim", " a , b,,c ", []string{"a", "b", "c"}},
		{"blank falls back", " , ", []string{"default"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RACON_TEST_LIST", tc.raw)
			got := GetEnvAsList("RACON_TEST_LIST", []string{"default"}, nil)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestGetEnvNeverLogsValues(t *testing.T) {
	secrets := map[string]string{
		"AUTH_JWT_SECRET":       "super-secret-hmac-key",
		"IMAGE_KIT_PRIVATE_KEY": "private_abc123",
		"POSTGRES_PASSWORD":     "pg-pass-123",
		"MONGO":                 "mongodb://admin:hunter2@db:27017",
	}
	log, logs := observedLogger()
	for key, val := range secrets {
		t.Setenv(key, val)
		if got := GetEnv(key, "", log); got != val {
			t.Fatalf("GetEnv(%s): got %q", key, got)
		}
	}
	t.Setenv("RACON_TEST_SECRET_TTL", "987654")
	if got := GetEnvAsInt("RACON_TEST_SECRET_TTL", 1, log); got != 987654 {
		t.Fatalf("GetEnvAsInt: got %d", got)
	}
	t.Setenv("RACON_TEST_BAD_INT", "hunter2")
	GetEnvAsInt("RACON_TEST_BAD_INT", 1, log)

	if logs.Len() == 0 {
		t.Fatal("expected debug entries")
	}
	leaks := []string{"super-secret-hmac-key", "private_abc123", "pg-pass-123", "hunter2", "987654"}
	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			rendered := fmt.Sprint(field.String, field.Integer, field.Interface)
			for _, leak := range leaks {
				if strings.Contains(rendered, leak) || strings.Contains(entry.Message, leak) {
					t.Fatalf("value leaked into log: msg=%q field=%s=%s", entry.Message, field.Key, rendered)
				}
			}
		}
	}
}

func TestGetEnvAsIntLogsPlainValues(t *testing.T) {
	log, logs := observedLogger()
	t.Setenv("PORT_NUMBER", "3000")
	GetEnvAsInt("PORT_NUMBER", 1, log)
	if logs.FilterField(zap.Int("value", 3000)).Len() != 1 {
		t.Fatalf("expected the non-sensitive int to be logged, got %+v", logs.All())
	}
}
