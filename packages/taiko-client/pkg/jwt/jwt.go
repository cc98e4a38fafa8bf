// Package jwt mints the bearer tokens the Engine API requires on every
// authenticated call, the same way the teacher's prover and driver parse a
// shared secret file and sign a short-lived token per request.
package jwt

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ParseSecretFromFile reads a 32-byte hex-encoded JWT secret from disk, the
// format `geth --authrpc.jwtsecret` writes and consumes.
func ParseSecretFromFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jwt secret file: %w", err)
	}

	secret, err := hex.DecodeString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x")))
	if err != nil {
		return nil, fmt.Errorf("failed to hex decode jwt secret: %w", err)
	}

	if len(secret) != 32 {
		return nil, fmt.Errorf("jwt secret must be 32 bytes, got %d", len(secret))
	}

	return secret, nil
}

// NewToken mints an HS256 token with an `iat` claim set to now, valid for the
// Engine API's 60 second clock-skew tolerance window.
func NewToken(secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}

	return token, nil
}
