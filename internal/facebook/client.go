// Package facebook implements the Graph API client used to pull ad-level
// spend insights. Authentication uses the access token from the passkey
// store, sent as a query parameter the way the Graph API expects.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/zetalabs/teliads/internal/credentials"
	"github.com/zetalabs/teliads/internal/httpclient"
	"github.com/zetalabs/teliads/internal/logger"
	"github.com/zetalabs/teliads/internal/resilience"
)

// Client talks to the Facebook Graph API.
type Client struct {
	http        *httpclient.Client
	config      Config
	adAccountID string
	log         *logger.Logger
}

// NewClient creates a Graph API client authenticated with the passkey
// store's access token.
func NewClient(cfg Config, pk *credentials.Passkeys, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	retry := resilience.RetryConfig{
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: 4 * time.Second,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        httpclient.IsRetryable,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("Graph API request failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
				"backoff": backoff.String(),
			})
		},
	}

	hc, err := httpclient.New(httpclient.Config{
		BaseURL: fmt.Sprintf("%s/%s", cfg.BaseURL, cfg.APIVersion),
		Timeout: cfg.Timeout,
		Auth:    httpclient.APIKeyAuthQuery(pk.AccessToken, "access_token"),
		Retry:   &retry,
	})
	if err != nil {
		return nil, fmt.Errorf("facebook: create http client: %w", err)
	}

	return &Client{
		http:        hc,
		config:      cfg,
		adAccountID: pk.AdAccountID,
		log:         log.WithComponent("facebook"),
	}, nil
}

// FetchInsights pulls all ad-level insight rows for the given date,
// following pagination until exhausted.
func (c *Client) FetchInsights(ctx context.Context, date string) ([]AdInsight, error) {
	c.log.Info("Fetching ad insights", map[string]interface{}{
		"account": c.adAccountID,
		"date":    date,
	})

	timeRange, err := json.Marshal(map[string]string{"since": date, "until": date})
	if err != nil {
		return nil, fmt.Errorf("facebook: encode time range: %w", err)
	}

	req := httpclient.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/act_%s/insights", c.adAccountID),
		Query: map[string]string{
			"fields":     "campaign_name,ad_name,spend,ad_id",
			"level":      "ad",
			"time_range": string(timeRange),
			"limit":      strconv.Itoa(c.config.PageLimit),
		},
	}

	var all []AdInsight
	for {
		page, err := c.fetchPage(ctx, req)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Data...)
		c.log.Debug("Insights page fetched", map[string]interface{}{
			"rows":  len(page.Data),
			"total": len(all),
		})

		if page.Paging.Next == "" {
			break
		}
		// Next-page links come back as full URLs with all parameters
		// embedded, so the follow-up request carries no query of its own.
		req = httpclient.Request{Method: http.MethodGet, Path: page.Paging.Next}
	}

	c.log.Info("Insights fetch complete", map[string]interface{}{
		"total": len(all),
	})
	return all, nil
}

// fetchPage executes one insights request and surfaces Graph-level errors.
func (c *Client) fetchPage(ctx context.Context, req httpclient.Request) (*insightsPage, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if ge := graphErrorFrom(err); ge != nil {
			return nil, fmt.Errorf("facebook: %w", ge)
		}
		return nil, fmt.Errorf("facebook: insights request: %w", err)
	}

	var page insightsPage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("facebook: decode insights response: %w", err)
	}
	if page.Error != nil {
		return nil, fmt.Errorf("facebook: %w", page.Error)
	}
	return &page, nil
}

// FetchAdCreationTime fetches the creation time of a single ad. A Graph
// error object or a missing created_time yields a nil time without error,
// matching the skip-and-continue handling the sync flow needs.
func (c *Client) FetchAdCreationTime(ctx context.Context, adID string) (*time.Time, error) {
	c.log.Debug("Fetching ad creation time", logger.Fields("ad_id", adID))

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/" + adID,
		Query:  map[string]string{"fields": "created_time"},
	})
	if err != nil {
		// The Graph API reports per-ad errors (deleted ads, permission
		// gaps) with an error object; those ads are skipped, not fatal.
		if ge := graphErrorFrom(err); ge != nil {
			c.log.Error("Graph API error fetching ad creation time", map[string]interface{}{
				"ad_id": adID,
				"error": ge.Error(),
			})
			return nil, nil
		}
		return nil, fmt.Errorf("facebook: ad %s creation time: %w", adID, err)
	}

	var detail adDetail
	if err := json.Unmarshal(resp.Body, &detail); err != nil {
		return nil, fmt.Errorf("facebook: decode ad %s response: %w", adID, err)
	}
	if detail.Error != nil {
		c.log.Error("Graph API error fetching ad creation time", map[string]interface{}{
			"ad_id": adID,
			"error": detail.Error.Error(),
		})
		return nil, nil
	}
	if detail.CreatedTime == "" {
		return nil, nil
	}

	t, err := ParseGraphTime(detail.CreatedTime)
	if err != nil {
		return nil, fmt.Errorf("facebook: ad %s: %w", adID, err)
	}
	return &t, nil
}

// FilterByCutoff keeps only insights whose ad was created on or after the
// configured cutoff date. Ads whose creation time cannot be determined are
// skipped.
func (c *Client) FilterByCutoff(ctx context.Context, insights []AdInsight) ([]AdInsight, error) {
	cutoff := c.config.Cutoff()
	kept := make([]AdInsight, 0, len(insights))

	for _, ad := range insights {
		if ad.AdID == "" {
			continue
		}

		created, err := c.FetchAdCreationTime(ctx, ad.AdID)
		if err != nil {
			return nil, err
		}
		if created == nil || created.Before(cutoff) {
			c.log.Debug("Skipping ad created before cutoff", map[string]interface{}{
				"ad_id":  ad.AdID,
				"cutoff": c.config.CutoffDate,
			})
			continue
		}
		kept = append(kept, ad)
	}

	c.log.Info("Cutoff filter applied", map[string]interface{}{
		"in":  len(insights),
		"out": len(kept),
	})
	return kept, nil
}

// graphErrorFrom extracts a Graph error object from the body carried by a
// typed HTTP client error, or nil if there is none.
func graphErrorFrom(err error) *GraphError {
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
		return decodeGraphError(httpErr.Body)
	}
	return nil
}

// decodeGraphError extracts a Graph error object from a response body, or
// nil if the body does not carry one.
func decodeGraphError(body []byte) *GraphError {
	var wrapper struct {
		Error *GraphError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil
	}
	return wrapper.Error
}
