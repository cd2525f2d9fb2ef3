package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"
	"time"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/testutil"
)

func TestImageKitSignature(t *testing.T) {
	mac := hmac.New(sha1.New, []byte("private_key_test"))
	mac.Write([]byte("your_token1655379249"))
	want := hex.EncodeToString(mac.Sum(nil))

	got := imageKitSignature("private_key_test", "your_token", 1655379249)
	if got != want {
		t.Fatalf("signature: got %q want %q", got, want)
	}
	if got == imageKitSignature("other_key", "your_token", 1655379249) {
		t.Fatal("signature must depend on the private key")
	}
}

func TestImageKitUploadAuth(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	keys := ImageKitKeys{PublicKey: "public_abc", PrivateKey: "private_abc", URLEndpoint: "https://ik.imagekit.io/racon"}
	svc := NewImageKitMediaService(testutil.Logger(t), keys, 30*time.Minute).(*imageKitMediaService)
	svc.now = func() time.Time { return fixed }
	svc.newToken = func() string { return "tok-1" }

	auth, err := svc.UploadAuth(context.Background())
	if err != nil {
		t.Fatalf("UploadAuth: %v", err)
	}
	if auth.Token != "tok-1" {
		t.Fatalf("token: %q", auth.Token)
	}
	if auth.Expire != fixed.Add(30*time.Minute).Unix() {
		t.Fatalf("expire: %d", auth.Expire)
	}
	if auth.Signature != imageKitSignature("private_abc", "tok-1", auth.Expire) {
		t.Fatalf("signature mismatch: %q", auth.Signature)
	}
	if auth.PublicKey != "public_abc" || auth.URLEndpoint != "https://ik.imagekit.io/racon" {
		t.Fatalf("client upload params missing: %+v", auth)
	}
	if auth.UploadURL != "" || auth.Method != "" {
		t.Fatalf("imagekit auth should not carry a signed url: %+v", auth)
	}
}

func TestImageKitUploadAuthFreshTokens(t *testing.T) {
	svc := NewImageKitMediaService(testutil.Logger(t), ImageKitKeys{PublicKey: "public_abc", PrivateKey: "private_abc"}, time.Minute)
	a, err := svc.UploadAuth(context.Background())
	if err != nil {
		t.Fatalf("UploadAuth: %v", err)
	}
	b, err := svc.UploadAuth(context.Background())
	if err != nil {
		t.Fatalf("UploadAuth: %v", err)
	}
	if a.Token == b.Token {
		t.Fatal("expected a fresh token per call")
	}
}

func TestNewMediaServiceImageKitFromConfig(t *testing.T) {
	svc, err := NewMediaService(context.Background(), testutil.Logger(t), config.MediaConfig{
		Provider:           config.MediaProviderImageKit,
		ImageKitPublicKey:  "public_cfg",
		ImageKitPrivateKey: "private_cfg",
		ImageKitEndpoint:   "https://ik.imagekit.io/cfg",
		UploadTTL:          time.Minute,
	})
	if err != nil {
		t.Fatalf("NewMediaService: %v", err)
	}
	auth, err := svc.UploadAuth(context.Background())
	if err != nil {
		t.Fatalf("UploadAuth: %v", err)
	}
	if auth.PublicKey != "public_cfg" || auth.URLEndpoint != "https://ik.imagekit.io/cfg" {
		t.Fatalf("config keys not carried through: %+v", auth)
	}
	if auth.Signature != imageKitSignature("private_cfg", auth.Token, auth.Expire) {
		t.Fatalf("signature not made with the configured private key")
	}
}

func TestNewMediaServiceUnknownProvider(t *testing.T) {
	if _, err := NewMediaService(context.Background(), testutil.Logger(t), config.MediaConfig{Provider: "s3"}); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
}
