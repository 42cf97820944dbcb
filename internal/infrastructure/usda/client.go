package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 4 << 20
	// curated datasets only; Branded (manufacturer-submitted) foods are excluded
	curatedDataTypes = "Foundation,SR Legacy,Survey (FNDDS)"
)

var errSchema = errors.New("unexpected USDA response shape")

// ClientConfig configures a USDA FoodData Central client.
type ClientConfig struct {
	APIKey   string
	BaseURL  string
	PageSize int
	// RequestsPerHour caps outbound calls; USDA allows 1000/hour per key.
	RequestsPerHour int
}

// Client handles communication with the USDA FoodData Central API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	pageSize    int
	rateLimiter *rate.Limiter
	log         *logger.Logger
	debug       bool
}

// NewClient creates a new USDA API client
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = 1000
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:    pageSize,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perHour)/3600), 10),
		log:         log.With("service", "USDAClient"),
	}
}

// SetDebug toggles logging of request URLs (with the key stripped).
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(msg string, keysAndValues ...interface{}) {
	if c.debug {
		c.log.Debug(msg, keysAndValues...)
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt (1-based).
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// getJSON performs a GET with rate limiting and retries on transport errors, 429 and 5xx.
// 404 maps to ErrProductNotFound; other 4xx fail immediately.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: USDA API key is not set", domain.ErrConfiguration)
	}
	params.Set("api_key", c.apiKey)
	reqURL := endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstreamUnavailable, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "recipesync/1.0")
		req.Header.Set("Accept", "application/json")

		c.debugLog("USDA request", "endpoint", endpoint, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			c.log.Warn("USDA request failed", "endpoint", endpoint, "attempt", attempt, "error", err)
			if ctx.Err() != nil {
				return lastErr
			}
			if !c.sleep(ctx, attempt) {
				return lastErr
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, readErr)
			if !c.sleep(ctx, attempt) {
				return lastErr
			}
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return domain.ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
			c.log.Warn("USDA API error", "endpoint", endpoint, "attempt", attempt, "status", resp.StatusCode, "body", truncate(string(body), 200))
			if !isRetryableStatus(resp.StatusCode) {
				return lastErr
			}
			if !c.sleep(ctx, attempt) {
				return lastErr
			}
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamUnavailable, err)
		}
		return nil
	}

	c.log.Error("USDA retries exhausted", "endpoint", endpoint, "error", lastErr)
	return lastErr
}

// sleep waits out the backoff for attempt, returning false when no further attempt should run.
func (c *Client) sleep(ctx context.Context, attempt int) bool {
	if attempt >= maxAttempts {
		return false
	}
	t := time.NewTimer(exponentialBackoff(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// SearchFoods searches curated USDA datasets and returns a bounded, relevance-ordered page.
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("dataType", curatedDataTypes)
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	var searchResp domain.USDASearchResponse
	if err := c.getJSON(ctx, c.baseURL+"/v1/foods/search", params, &searchResp); err != nil {
		return nil, err
	}

	if len(searchResp.Foods) == 0 {
		c.log.Info("USDA search returned no foods", "query", query)
		return nil, domain.ErrProductNotFound
	}
	for i, food := range searchResp.Foods {
		if food.FdcID <= 0 || strings.TrimSpace(food.Description) == "" {
			return nil, fmt.Errorf("%w: %w: search result %d lacks fdcId or description", domain.ErrUpstreamUnavailable, errSchema, i)
		}
	}

	c.log.Debug("USDA search", "query", query, "hits", len(searchResp.Foods), "total", searchResp.TotalHits)
	return &searchResp, nil
}

// detailNutrient covers both the full ("nutrient" object + "amount") and the abridged
// (flat) nutrient shapes the detail endpoint returns.
type detailNutrient struct {
	Nutrient *struct {
		ID       int    `json:"id"`
		Number   string `json:"number"`
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount *float64 `json:"amount"`

	NutrientID     int      `json:"nutrientId"`
	NutrientNumber string   `json:"nutrientNumber"`
	NutrientName   string   `json:"nutrientName"`
	UnitName       string   `json:"unitName"`
	Value          *float64 `json:"value"`
}

type detailResponse struct {
	FdcID         int              `json:"fdcId"`
	Description   string           `json:"description"`
	DataType      string           `json:"dataType"`
	FoodNutrients []detailNutrient `json:"foodNutrients"`
}

// GetFoodDetails retrieves detailed nutrition information for a specific food by FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, fdcID int) (*domain.USDAFood, error) {
	var detail detailResponse
	endpoint := fmt.Sprintf("%s/v1/food/%d", c.baseURL, fdcID)
	if err := c.getJSON(ctx, endpoint, url.Values{}, &detail); err != nil {
		return nil, err
	}
	return normalizeDetail(detail)
}

func normalizeDetail(detail detailResponse) (*domain.USDAFood, error) {
	if detail.FdcID <= 0 {
		return nil, fmt.Errorf("%w: %w: detail lacks fdcId", domain.ErrUpstreamUnavailable, errSchema)
	}

	food := &domain.USDAFood{
		FdcID:       detail.FdcID,
		Description: detail.Description,
		DataType:    detail.DataType,
		Nutrients:   make([]domain.USDANutrient, 0, len(detail.FoodNutrients)),
	}
	for i, n := range detail.FoodNutrients {
		switch {
		case n.Nutrient != nil:
			if n.Amount == nil {
				// Foundation foods list derivation-only rows without an amount
				continue
			}
			food.Nutrients = append(food.Nutrients, domain.USDANutrient{
				NutrientID:     n.Nutrient.ID,
				NutrientName:   n.Nutrient.Name,
				NutrientNumber: n.Nutrient.Number,
				UnitName:       n.Nutrient.UnitName,
				Value:          *n.Amount,
			})
		case n.NutrientID != 0 || n.NutrientNumber != "":
			if n.Value == nil {
				continue
			}
			food.Nutrients = append(food.Nutrients, domain.USDANutrient{
				NutrientID:     n.NutrientID,
				NutrientName:   n.NutrientName,
				NutrientNumber: n.NutrientNumber,
				UnitName:       n.UnitName,
				Value:          *n.Value,
			})
		default:
			return nil, fmt.Errorf("%w: %w: nutrient %d has no identifier", domain.ErrUpstreamUnavailable, errSchema, i)
		}
	}
	return food, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
