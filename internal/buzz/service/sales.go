package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-logr/logr"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
)

// ErrSalesUnavailable means no sales system is configured
var ErrSalesUnavailable = errors.New("sales system not configured")

// SalesVolume is the sales system's answer for one business and date
type SalesVolume struct {
	BusinessID int64  `json:"business_id"`
	Date       string `json:"date"`
	GrossSales int64  `json:"gross_sales"`
}

// rateLimitError is returned while the sales system asks us to back off
type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	if e.retryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
	}
	return "rate limited"
}

// SalesClient fetches a business's gross sales for a date from the POS
// sales system.
type SalesClient struct {
	baseURL    string
	httpClient *http.Client
	log        logr.Logger
	attempts   uint
	delay      time.Duration
}

// NewSalesClient creates a client for the sales system at baseURL. An empty
// baseURL yields a client that always returns ErrSalesUnavailable.
func NewSalesClient(baseURL string, log logr.Logger) *SalesClient {
	return &SalesClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:      log.WithName("sales"),
		attempts: 3,
		delay:    time.Second,
	}
}

// GrossSales returns the gross sales of businessID on date. A 204 answer means
// the system has no sales for that day.
func (s *SalesClient) GrossSales(ctx context.Context, businessID int64, date string) (int64, error) {
	if s.baseURL == "" {
		return 0, ErrSalesUnavailable
	}

	var gross int64
	err := retry.Do(
		func() error {
			var err error
			gross, err = s.fetch(ctx, businessID, date)
			return err
		},
		retry.RetryIf(func(err error) bool {
			var rl *rateLimitError
			return errors.As(err, &rl)
		}),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(func(n uint, err error, c *retry.Config) time.Duration {
			var rl *rateLimitError
			if errors.As(err, &rl) && rl.retryAfter > 0 {
				return rl.retryAfter
			}
			return retry.FixedDelay(n, err, c)
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.log.V(1).Info("retrying sales request", "business", businessID, "date", date, "attempt", n+1, "err", err.Error())
		}),
	)
	if err != nil {
		return 0, err
	}
	return gross, nil
}

func (s *SalesClient) fetch(ctx context.Context, businessID int64, date string) (int64, error) {
	u := fmt.Sprintf("%s/api/businesses/%d/sales?date=%s", s.baseURL, businessID, url.QueryEscape(date))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.SalesRequestsTotal.WithLabelValues("transport_error").Inc()
		return 0, err
	}
	defer resp.Body.Close()
	metrics.SalesRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return 0, nil
	case http.StatusTooManyRequests:
		rl := &rateLimitError{}
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			rl.retryAfter = time.Duration(seconds) * time.Second
		}
		return 0, rl
	default:
		return 0, fmt.Errorf("sales system returned status %d", resp.StatusCode)
	}

	var v SalesVolume
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return 0, fmt.Errorf("decode sales volume: %w", err)
	}
	if v.GrossSales < 0 {
		return 0, fmt.Errorf("sales system reported negative gross sales %d", v.GrossSales)
	}
	return v.GrossSales, nil
}
