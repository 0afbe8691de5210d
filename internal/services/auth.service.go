package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	tokenIssuer    = "pulse-server"
	minSecretBytes = 32
)

// AuthService manages JWT token generation and validation
type AuthService struct {
	secretKey   []byte
	tokenExpiry time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ClientName string `json:"client_name"`
	jwt.RegisteredClaims
}

// DefaultKeyFile is where a generated secret key is persisted
func DefaultKeyFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return filepath.Join(os.TempDir(), ".pulse-secret-key")
	}
	return filepath.Join(homeDir, ".pulse-secret-key")
}

// NewAuthService creates the token service. An empty secretKey loads the
// key persisted in keyFile, generating and saving one on first use.
func NewAuthService(secretKey string, tokenExpiry time.Duration, keyFile string, logger zerolog.Logger) (*AuthService, error) {
	logger = logger.With().Str("component", "auth").Logger()

	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		key, err := loadOrCreateKey(keyFile, logger)
		if err != nil {
			return nil, err
		}
		secretKey = key
	}

	if len(secretKey) < minSecretBytes {
		return nil, fmt.Errorf("secret key is %d bytes, need at least %d for HMAC-SHA256", len(secretKey), minSecretBytes)
	}

	if tokenExpiry <= 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	return &AuthService{
		secretKey:   []byte(secretKey),
		tokenExpiry: tokenExpiry,
		now:         time.Now,
		logger:      logger,
	}, nil
}

func loadOrCreateKey(keyFile string, logger zerolog.Logger) (string, error) {
	if keyFile == "" {
		keyFile = DefaultKeyFile()
	}

	if data, err := os.ReadFile(keyFile); err == nil {
		if key := strings.TrimSpace(string(data)); key != "" {
			logger.Info().Str("path", keyFile).Msg("loaded persisted secret key")
			return key, nil
		}
	}

	randomBytes := make([]byte, minSecretBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	key := hex.EncodeToString(randomBytes)

	if err := os.WriteFile(keyFile, []byte(key), 0o600); err != nil {
		logger.Warn().Err(err).Str("path", keyFile).Msg("could not persist secret key, tokens will not survive a restart")
	} else {
		logger.Info().Str("path", keyFile).Msg("generated and persisted secret key")
	}
	return key, nil
}

// GenerateToken issues a signed token for a named client
func (a *AuthService) GenerateToken(clientName string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenExpiry)

	claims := CustomClaims{
		ClientName: clientName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	a.logger.Info().Str("client", clientName).Time("expires_at", expiresAt).Msg("token generated")
	return tokenString, expiresAt, nil
}

// ValidateToken verifies and parses a JWT token
func (a *AuthService) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
