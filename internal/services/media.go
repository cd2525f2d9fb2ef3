package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/logger"
)

// UploadAuth lets a client upload straight to the media host. ImageKit fills
// token/expire/signature plus the public key and url endpoint its upload API
// needs; GCS fills uploadUrl/objectKey/method/expire.
type UploadAuth struct {
	Token       string `json:"token,omitempty"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature,omitempty"`
	PublicKey   string `json:"publicKey,omitempty"`
	URLEndpoint string `json:"urlEndpoint,omitempty"`
	UploadURL string `json:"uploadUrl,omitempty"`
	ObjectKey string `json:"objectKey,omitempty"`
	Method    string `json:"method,omitempty"`
}

type MediaService interface {
	UploadAuth(ctx context.Context) (*UploadAuth, error)
	Close() error
}

func NewMediaService(ctx context.Context, log *logger.Logger, mc config.MediaConfig) (MediaService, error) {
	serviceLog := log.With("service", "MediaService", "provider", mc.Provider)
	switch mc.Provider {
	case config.MediaProviderImageKit:
		return NewImageKitMediaService(serviceLog, ImageKitKeys{
			PublicKey:   mc.ImageKitPublicKey,
			PrivateKey:  mc.ImageKitPrivateKey,
			URLEndpoint: mc.ImageKitEndpoint,
		}, mc.UploadTTL), nil
	case config.MediaProviderGCS:
		return NewGCSMediaService(ctx, serviceLog, mc.GCSBucket, mc.GCSCredentialsFile, mc.UploadTTL)
	default:
		return nil, fmt.Errorf("unknown media provider %q", mc.Provider)
	}
}

//----------------------------------------------------------------------------------------
// ImageKit
//----------------------------------------------------------------------------------------

type ImageKitKeys struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
}

type imageKitMediaService struct {
	log      *logger.Logger
	keys     ImageKitKeys
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

func NewImageKitMediaService(log *logger.Logger, keys ImageKitKeys, ttl time.Duration) MediaService {
	return &imageKitMediaService{
		log:      log,
		keys:     keys,
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (s *imageKitMediaService) UploadAuth(ctx context.Context) (*UploadAuth, error) {
	token := s.newToken()
	expire := s.now().Add(s.ttl).Unix()
	return &UploadAuth{
		Token:       token,
		Expire:      expire,
		Signature:   imageKitSignature(s.keys.PrivateKey, token, expire),
		PublicKey:   s.keys.PublicKey,
		URLEndpoint: s.keys.URLEndpoint,
	}, nil
}

func (s *imageKitMediaService) Close() error { return nil }

func imageKitSignature(privateKey, token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

//----------------------------------------------------------------------------------------
// Google Cloud Storage
//----------------------------------------------------------------------------------------

type gcsMediaService struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	ttl    time.Duration
}

func NewGCSMediaService(ctx context.Context, log *logger.Logger, bucket, credentialsFile string, ttl time.Duration) (MediaService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		log.Error("Failed to create storage client", "error", err)
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &gcsMediaService{log: log, client: client, bucket: bucket, ttl: ttl}, nil
}

func (s *gcsMediaService) UploadAuth(ctx context.Context) (*UploadAuth, error) {
	key := "uploads/" + uuid.NewString()
	expires := time.Now().Add(s.ttl)
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodPut,
		Expires: expires,
	})
	if err != nil {
		s.log.Error("Failed to sign upload url", "object_key", key, "error", err)
		return nil, fmt.Errorf("failed to sign upload url: %w", err)
	}
	return &UploadAuth{
		UploadURL: url,
		ObjectKey: key,
		Method:    http.MethodPut,
		Expire:    expires.Unix(),
	}, nil
}

func (s *gcsMediaService) Close() error {
	return s.client.Close()
}
