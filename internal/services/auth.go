package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/requestdata"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// SessionClaims is the subset of the identity provider's session token this
// service reads. sub is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
}

// AuthService verifies session tokens issued by the external identity
// provider. It never sees credentials.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	log               *logger.Logger
	hmacSecret        []byte
	rsaPublicKey      *rsa.PublicKey
	authorizedParties []string
	parser            *jwt.Parser
}

func NewAuthService(log *logger.Logger, ac config.AuthConfig) (AuthService, error) {
	serviceLog := log.With("service", "AuthService")

	var pub *rsa.PublicKey
	if ac.JWTPublicKeyPEM != "" {
		parsed, err := jwt.ParseRSAPublicKeyFromPEM([]byte(ac.JWTPublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse AUTH_JWT_PUBLIC_KEY: %w", err)
		}
		pub = parsed
	}
	if pub == nil && ac.JWTSecret == "" {
		return nil, errors.New("no session token verification key configured")
	}

	var methods []string
	if ac.JWTSecret != "" {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if pub != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if ac.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(ac.Issuer))
	}

	return &authService{
		log:               serviceLog,
		hmacSecret:        []byte(ac.JWTSecret),
		rsaPublicKey:      pub,
		authorizedParties: ac.AuthorizedParties,
		parser:            jwt.NewParser(opts...),
	}, nil
}

func (as *authService) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(as.hmacSecret) == 0 {
			return nil, errors.New("hmac session tokens are not accepted")
		}
		return as.hmacSecret, nil
	case *jwt.SigningMethodRSA:
		if as.rsaPublicKey == nil {
			return nil, errors.New("rsa session tokens are not accepted")
		}
		return as.rsaPublicKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrInvalidToken
	}
	claims := &SessionClaims{}
	parsedToken, err := as.parser.ParseWithClaims(tokenString, claims, as.keyFunc)
	if err != nil || !parsedToken.Valid {
		as.log.Debug("Session token rejected", "error", err)
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return ctx, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if len(as.authorizedParties) > 0 && claims.AuthorizedParty != "" &&
		!slices.Contains(as.authorizedParties, claims.AuthorizedParty) {
		as.log.Warn("Session token issued for an unknown party", "azp", claims.AuthorizedParty)
		return ctx, fmt.Errorf("%w: unauthorized party", ErrInvalidToken)
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      claims.Subject,
		SessionID:   claims.SessionID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}
