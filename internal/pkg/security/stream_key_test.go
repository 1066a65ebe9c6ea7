package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamKeyRoundtrip(t *testing.T) {
	key, err := GenerateStreamKey("caster-1", time.Hour, "test-secret")
	require.NoError(t, err)
	assert.Contains(t, key, ".")

	claims, err := VerifyStreamKey(key, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "caster-1", claims.BroadcasterID)
	assert.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestStreamKeyRejectsWrongSecret(t *testing.T) {
	key, err := GenerateStreamKey("caster-1", time.Hour, "test-secret")
	require.NoError(t, err)

	_, err = VerifyStreamKey(key, "other-secret")
	assert.Error(t, err)
}

func TestStreamKeyRejectsTampering(t *testing.T) {
	key, err := GenerateStreamKey("caster-1", time.Hour, "test-secret")
	require.NoError(t, err)

	parts := strings.SplitN(key, ".", 2)
	forged, err := GenerateStreamKey("caster-2", time.Hour, "attacker-secret")
	require.NoError(t, err)
	forgedParts := strings.SplitN(forged, ".", 2)

	_, err = VerifyStreamKey(forgedParts[0]+"."+parts[1], "test-secret")
	assert.Error(t, err)
}

func TestStreamKeyExpiry(t *testing.T) {
	key, err := GenerateStreamKey("caster-1", -time.Minute, "test-secret")
	require.NoError(t, err)

	_, err = VerifyStreamKey(key, "test-secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestStreamKeyRequiresSecret(t *testing.T) {
	_, err := GenerateStreamKey("caster-1", time.Hour, "")
	assert.Error(t, err)

	_, err = VerifyStreamKey("a.b", "")
	assert.Error(t, err)
}

func TestStreamKeyInvalidFormat(t *testing.T) {
	_, err := VerifyStreamKey("not-a-key", "test-secret")
	assert.Error(t, err)
}
