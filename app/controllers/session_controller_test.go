package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumencast/lumencast/internal/pkg/security"
)

func validateKeyResponse(t *testing.T, body string) (int, map[string]any) {
	t.Helper()

	app := fiber.New()
	app.Post("/validate", HandleValidateStreamKey)

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func TestValidateStreamKey(t *testing.T) {
	t.Setenv("STREAM_KEY_SECRET", "test-secret")

	key, err := security.GenerateStreamKey("caster-1", time.Hour, "test-secret")
	require.NoError(t, err)

	status, body := validateKeyResponse(t, `{"stream_key": "`+key+`"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "caster-1", body["broadcaster_id"])
}

func TestValidateStreamKeyRejectsForgedKey(t *testing.T) {
	t.Setenv("STREAM_KEY_SECRET", "test-secret")

	key, err := security.GenerateStreamKey("caster-1", time.Hour, "other-secret")
	require.NoError(t, err)

	status, body := validateKeyResponse(t, `{"stream_key": "`+key+`"}`)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_stream_key", body["error"])
}

func TestValidateStreamKeyRequiresKey(t *testing.T) {
	t.Setenv("STREAM_KEY_SECRET", "test-secret")

	status, body := validateKeyResponse(t, `{}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_stream_key", body["error"])
}
