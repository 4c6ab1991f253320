package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lawn-engine/internal/config"
	"lawn-engine/internal/metrics"

	"github.com/clbanning/mxj/v2"
)

// ZillowClient fetches property search results, which the provider serves as XML, and
// hands them back as JSON.
type ZillowClient struct {
	baseURL string
	apiKey  string
	out     *outbound
}

func NewZillowClient(cfg config.ZillowConfig, m *metrics.Metrics) *ZillowClient {
	return &ZillowClient{
		baseURL: strings.TrimSpace(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		out:     newOutbound("zillow", cfg.Timeout, 1, m),
	}
}

func (c *ZillowClient) Search(ctx context.Context, address, cityStateZip string) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: zillow not configured", ErrDataUnavailable)
	}
	if strings.TrimSpace(address) == "" || strings.TrimSpace(cityStateZip) == "" {
		return nil, fmt.Errorf("%w: address and citystatezip are required", ErrInputValidation)
	}
	q := url.Values{}
	q.Set("zws-id", c.apiKey)
	q.Set("address", address)
	q.Set("citystatezip", cityStateZip)

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	res, err := c.out.get(ctx, c.baseURL+sep+q.Encode(), http.Header{"Accept": {"application/xml"}})
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusOK {
		return nil, fmt.Errorf("%w: zillow returned %d: %s", ErrDataUnavailable, res.status, truncateBody(res.body))
	}

	mv, err := mxj.NewMapXml(res.body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse zillow xml: %v", ErrDataUnavailable, err)
	}
	if len(mv) == 0 {
		return nil, fmt.Errorf("%w: empty zillow response", ErrDataUnavailable)
	}
	out, err := mv.Json()
	if err != nil {
		return nil, fmt.Errorf("encode zillow json: %w", err)
	}
	return out, nil
}
