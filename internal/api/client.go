package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"annotate-cli/internal/gateway"
	"annotate-cli/internal/logging"
)

const (
	DefaultTimeout   = 30 * time.Second
	maxResponseBytes = 32 << 20
)

type Config struct {
	// BaseURL includes the version prefix, e.g. http://localhost:8000/v1.
	BaseURL string
	Token   string
	// AnnotatorID scopes RemoveMine.
	AnnotatorID string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the annotation backend. It implements gateway.Gateway.
type Client struct {
	base        *url.URL
	token       string
	annotatorID string
	http        *http.Client
	log         *slog.Logger
}

var _ gateway.Gateway = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api url is required")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", raw)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:        u,
		token:       strings.TrimSpace(cfg.Token),
		annotatorID: strings.TrimSpace(cfg.AnnotatorID),
		http:        hc,
		log:         logging.OrDiscard(cfg.Logger).With("component", "api"),
	}, nil
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailText flattens FastAPI error details, which are either a string or a
// list of {loc, msg} objects.
func detailText(b []byte) string {
	var eb errorBody
	if err := json.Unmarshal(b, &eb); err != nil || len(eb.Detail) == 0 {
		return strings.TrimSpace(string(b))
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			field := ""
			if len(it.Loc) > 0 {
				field = fmt.Sprint(it.Loc[len(it.Loc)-1]) + ": "
			}
			msgs = append(msgs, field+it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(eb.Detail)
}

// do sends one request. out may be nil. Status codes map onto the gateway
// error taxonomy: client errors become ValidationError (ErrLocked for agreed
// spans), everything else NetworkError.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	op := method + " " + path
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "err", err)
		return &gateway.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &gateway.NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	c.log.Debug("request", "op", op, "status", resp.StatusCode, "took", time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s: %w", op, err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &gateway.ValidationError{Status: resp.StatusCode, Detail: detailText(data)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail := detailText(data)
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(detail), "agreed") {
			return fmt.Errorf("%w: %s", gateway.ErrLocked, detail)
		}
		return &gateway.ValidationError{Status: resp.StatusCode, Detail: detail}
	default:
		return &gateway.NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(detailText(data))}
	}
}

func pathID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
