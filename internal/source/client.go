// Package source fetches submitted survey responses from the backend API.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"survey-insights-go/internal/logger"
	"survey-insights-go/internal/types"
)

var ErrNotConfigured = errors.New("source: responses API URL not set")

type Client struct {
	URL        string
	Token      string
	HTTP       *http.Client
	MaxElapsed time.Duration
	log        *logrus.Entry
}

func NewClient(url, token string, timeout, maxElapsed time.Duration) *Client {
	return &Client{
		URL:        url,
		Token:      token,
		HTTP:       &http.Client{Timeout: timeout},
		MaxElapsed: maxElapsed,
		log:        logger.New().Component("source"),
	}
}

// Fetch downloads every response. 5xx answers and transport errors are
// retried with exponential backoff until MaxElapsed; 4xx answers are not.
func (c *Client) Fetch(ctx context.Context) ([]types.Record, error) {
	if c.URL == "" {
		return nil, ErrNotConfigured
	}
	var records []types.Record
	var lastErr error
	attempt := 0

	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).WithField("attempt", attempt).Warn("responses request failed")
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			c.log.WithError(err).WithField("attempt", attempt).Warn("responses body truncated")
			return lastErr
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(body))
			c.log.WithField("http_status", resp.StatusCode).WithField("attempt", attempt).Warn("responses API unavailable")
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("client error %d: %s", resp.StatusCode, truncate(body))
			return backoff.Permanent(lastErr)
		}
		out, dropped, err := Decode(body)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		LogDropped(c.log, out, dropped)
		records = out
		lastErr = nil
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.MaxElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("fetch responses: %w", lastErr)
	}
	c.log.WithField("records", len(records)).WithField("attempts", attempt).Info("responses fetched")
	return records, nil
}

// Decode accepts either a bare JSON array of records or an envelope
// {"data": [...]}. Elements that are not objects are dropped and counted
// rather than failing the batch; only a body that is not one of the two
// shapes is an error.
func Decode(body []byte) ([]types.Record, int, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, 0, errors.New("empty body")
	}
	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("json decode error: %w", err)
		}
	} else {
		var envelope struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, 0, fmt.Errorf("json decode error: %w", err)
		}
		items = envelope.Data
	}

	records := make([]types.Record, 0, len(items))
	dropped := 0
	for _, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			dropped++
			continue
		}
		var r types.Record
		if err := json.Unmarshal(item, &r); err != nil {
			dropped++
			continue
		}
		records = append(records, r)
	}
	return records, dropped, nil
}

// LogDropped warns about records and forms Decode had to discard.
func LogDropped(log *logrus.Entry, records []types.Record, dropped int) {
	malformed := 0
	for _, r := range records {
		if r.Malformed() > 0 {
			malformed++
		}
	}
	if dropped == 0 && malformed == 0 {
		return
	}
	log.WithFields(logrus.Fields{
		"records":                len(records),
		"dropped_records":        dropped,
		"records_with_bad_forms": malformed,
	}).Warn("malformed responses ignored")
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
