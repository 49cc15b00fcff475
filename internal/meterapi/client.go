// Package meterapi fetches per-minute readings from the upstream noise meter API.
package meterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/codeGROOVE-dev/retry"
	"github.com/relvacode/iso8601"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// futureSkew is how far past now a timestamp may be before it is dropped
const futureSkew = time.Hour

// Client talks to the meter API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a client for baseURL
func NewClient(baseURL string, timeout time.Duration, attempts uint, logger *zap.Logger) *Client {
	if attempts == 0 {
		attempts = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		attempts:   attempts,
		delay:      time.Second,
		logger:     logger,
		now:        time.Now,
	}
}

// apiReading is one element of the API response.
// The reading may arrive as a number, a numeric string, or null.
type apiReading struct {
	DT      string          `json:"dt"`
	Reading json.RawMessage `json:"reading"`
}

// FetchDay returns the readings the API holds for sensorID on date.
//
// Entries without a parseable timestamp, or stamped more than an hour in the
// future, are dropped. Unparseable values become nil readings.
func (c *Client) FetchDay(ctx context.Context, sensorID string, date civil.Date) ([]models.Reading, error) {
	url := fmt.Sprintf("%s/%s?start=%s", c.baseURL, sensorID, date.String())

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(data, 256))
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(data, 256)))
			}

			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("Retrying meter API request",
				zap.Uint("attempt", n+1),
				zap.String("url", url),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s on %s: %w", sensorID, date, err)
	}

	return c.decode(sensorID, body)
}

func (c *Client) decode(sensorID string, body []byte) ([]models.Reading, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var raw []apiReading
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode meter API response: %w", err)
	}

	cutoff := c.now().Add(futureSkew)
	readings := make([]models.Reading, 0, len(raw))
	for _, item := range raw {
		if item.DT == "" {
			continue
		}
		ts, err := iso8601.ParseString(item.DT)
		if err != nil {
			c.logger.Warn("Invalid timestamp from meter API",
				zap.String("sensor_id", sensorID),
				zap.String("dt", item.DT),
				zap.Error(err))
			continue
		}
		if ts.After(cutoff) {
			continue
		}

		readings = append(readings, models.Reading{
			SensorID:  sensorID,
			Timestamp: ts.UTC(),
			Value:     parseValue(item.Reading),
		})
	}
	return readings, nil
}

func parseValue(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &n
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
