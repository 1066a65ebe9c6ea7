package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StreamKeyClaims identify the broadcaster a stream key was issued to. The
// media ingest collaborator presents the key back when validating an
// incoming broadcast.
type StreamKeyClaims struct {
	BroadcasterID string `json:"broadcaster_id"`
	ExpiresAt     int64  `json:"exp"`
}

// GenerateStreamKey issues an HMAC-signed stream key for a broadcaster.
func GenerateStreamKey(broadcasterID string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for key generation")
	}
	claims := StreamKeyClaims{
		BroadcasterID: broadcasterID,
		ExpiresAt:     time.Now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	key := fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig))
	return key, nil
}

// VerifyStreamKey checks signature and expiry and returns the claims.
func VerifyStreamKey(key, secret string) (*StreamKeyClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for key verification")
	}
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid key format")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.New("invalid payload encoding")
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errors.New("invalid signature encoding")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payloadBytes)
	expected := mac.Sum(nil)
	if !hmac.Equal(sigBytes, expected) {
		return nil, errors.New("invalid key signature")
	}
	var claims StreamKeyClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, errors.New("invalid payload")
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, errors.New("key expired")
	}
	return &claims, nil
}
