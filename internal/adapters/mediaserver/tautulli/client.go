// Package tautulli implements the media-server port against the Tautulli
// v2 HTTP API (get_activity / terminate_session).
package tautulli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/streamguard/internal/domain"
	"github.com/bnema/streamguard/internal/ports"
)

const maxResponseBytes = 1 << 20

type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ ports.MediaServer = (*Client)(nil)

func New(name, baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) ServerName() string {
	return c.name
}

type apiEnvelope struct {
	Response struct {
		Result  string          `json:"result"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"response"`
}

type activityData struct {
	Sessions []activitySession `json:"sessions"`
}

type activitySession struct {
	Username   string `json:"username"`
	SessionID  string `json:"session_id"`
	SessionKey string `json:"session_key"`
}

// ActiveSessions fetches the sessions currently playing on this server.
// Network failures map to domain.ErrServerUnreachable; malformed payloads,
// non-2xx statuses, and entries missing a session_id map to
// domain.ErrInvalidResponse. Zero sessions is a valid result.
func (c *Client) ActiveSessions(ctx context.Context) ([]domain.SessionRecord, error) {
	body, err := c.call(ctx, url.Values{"cmd": []string{"get_activity"}})
	if err != nil {
		return nil, err
	}

	var data activityData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: decode activity data: %v", domain.ErrInvalidResponse, err)
	}

	records := make([]domain.SessionRecord, 0, len(data.Sessions))
	for _, session := range data.Sessions {
		if strings.TrimSpace(session.SessionID) == "" {
			return nil, fmt.Errorf("%w: session entry missing session_id", domain.ErrInvalidResponse)
		}

		records = append(records, domain.SessionRecord{
			Username:   session.Username,
			SessionID:  session.SessionID,
			SessionKey: session.SessionKey,
			Origin:     c,
		})
	}

	return records, nil
}

// Terminate ends one session, showing reason to the viewer. The response is
// an opaque acknowledgement; only transport-level success is checked.
func (c *Client) Terminate(ctx context.Context, session domain.SessionRecord, reason string) error {
	params := url.Values{
		"cmd":         []string{"terminate_session"},
		"session_key": []string{session.SessionKey},
		"session_id":  []string{session.SessionID},
		"message":     []string{reason},
	}

	if _, err := c.call(ctx, params); err != nil {
		return fmt.Errorf("terminate session %s: %w", session.SessionID, err)
	}

	return nil
}

func (c *Client) call(ctx context.Context, params url.Values) (json.RawMessage, error) {
	params.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/api/v2?" + params.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("User-Agent", "streamguard")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrServerUnreachable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrServerUnreachable, err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrInvalidResponse, response.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", domain.ErrInvalidResponse, err)
	}
	if envelope.Response.Result != "success" {
		return nil, fmt.Errorf("%w: result %q: %s", domain.ErrInvalidResponse, envelope.Response.Result, envelope.Response.Message)
	}

	return envelope.Response.Data, nil
}
