package mediatransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/lumencast/lumencast/internal/pkg/env"
	"github.com/lumencast/lumencast/internal/pkg/faults"
)

const defaultRequestTimeout = 15 * time.Second

// HTTPProvider talks to the media transport's REST API. Any network error,
// timeout or non-2xx response is collapsed into faults.ErrTransportUnavailable
// with the detail logged for reconciliation.
type HTTPProvider struct {
	BaseURL string
	APIKey  string

	HTTPClient *http.Client
}

// NewHTTPProviderFromEnv builds the provider from MEDIA_TRANSPORT_* vars.
func NewHTTPProviderFromEnv() *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(env.GetEnv("MEDIA_TRANSPORT_URL", "http://localhost:7880"), "/"),
		APIKey:  strings.TrimSpace(env.GetEnv("MEDIA_TRANSPORT_API_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

type createRoomResponse struct {
	RoomToken string `json:"room_token"`
}

// CreateRoom requests a room for a session about to go live.
func (p *HTTPProvider) CreateRoom(ctx context.Context, meta SessionMeta) (string, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/rooms", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		log.Warnf("[MediaTransport] create room failed for session %s: %v", meta.SessionPublicID, err)
		return "", faults.ErrTransportUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warnf("[MediaTransport] create room returned %d for session %s: %s", resp.StatusCode, meta.SessionPublicID, string(body))
		return "", faults.ErrTransportUnavailable
	}

	var out createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Warnf("[MediaTransport] create room response unreadable for session %s: %v", meta.SessionPublicID, err)
		return "", faults.ErrTransportUnavailable
	}
	if out.RoomToken == "" {
		return "", faults.ErrTransportUnavailable
	}
	return out.RoomToken, nil
}

// DestroyRoom tears down a room after its session ended.
func (p *HTTPProvider) DestroyRoom(ctx context.Context, roomToken string) error {
	url := fmt.Sprintf("%s/v1/rooms/%s", p.BaseURL, roomToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return faults.ErrTransportUnavailable
	}
	defer resp.Body.Close()

	// A room that is already gone counts as torn down.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return faults.ErrTransportUnavailable
	}
	return nil
}
