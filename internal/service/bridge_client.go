package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lawn-engine/internal/config"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/metrics"
)

// BridgeClient looks up parcel records by street address.
type BridgeClient struct {
	baseURL string
	apiKey  string
	out     *outbound
	log     *logger.Logger
}

func NewBridgeClient(cfg config.BridgeConfig, m *metrics.Metrics, log *logger.Logger) *BridgeClient {
	return &BridgeClient{
		baseURL: strings.TrimSpace(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		out:     newOutbound("bridge", cfg.Timeout, 0, m),
		log:     log.With("client", "bridge"),
	}
}

// CleanParcelAddress drops a trailing country code and every comma.
func CleanParcelAddress(address string) string {
	for _, code := range []string{"USA", "US"} {
		address = strings.TrimSuffix(address, code)
	}
	return strings.TrimSpace(strings.ReplaceAll(address, ",", ""))
}

// Parcel returns the first parcel bundle for address. Every provider failure surfaces as
// ErrDataUnavailable.
func (c *BridgeClient) Parcel(ctx context.Context, address string) (json.RawMessage, error) {
	address = CleanParcelAddress(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address param is required", ErrInputValidation)
	}
	if c.baseURL == "" {
		c.log.Error("bridge base url not configured")
		return nil, fmt.Errorf("%w: bridge not configured", ErrDataUnavailable)
	}

	q := url.Values{}
	q.Set("access_token", c.apiKey)
	q.Set("limit", "1")
	q.Set("address.full", address)

	res, err := c.out.get(ctx, c.baseURL+"?"+q.Encode(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		c.log.Error("bridge connection error", "error", err)
		return nil, err
	}
	switch res.status {
	case http.StatusOK:
	case http.StatusForbidden:
		c.log.Error("bridge 403 unauthorized")
		return nil, fmt.Errorf("%w: bridge rejected the api token", ErrDataUnavailable)
	default:
		c.log.Error("bridge unknown error", "status", res.status, "body", truncateBody(res.body))
		return nil, fmt.Errorf("%w: bridge returned %d", ErrDataUnavailable, res.status)
	}

	var payload struct {
		Bundle []json.RawMessage `json:"bundle"`
	}
	if err := json.Unmarshal(res.body, &payload); err != nil {
		c.log.Error("bridge response decode failed", "error", err)
		return nil, fmt.Errorf("%w: decode bridge response: %v", ErrDataUnavailable, err)
	}
	if len(payload.Bundle) == 0 {
		return nil, ErrParcelNotFound
	}
	return payload.Bundle[0], nil
}
