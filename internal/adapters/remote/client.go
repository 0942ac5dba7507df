package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

const (
	DefaultBaseURL       = "http://localhost:5000"
	DefaultReplyTimeout  = 30 * time.Second
	DefaultDeleteTimeout = 10 * time.Second
)

// Client talks to the reply backend. It implements domain.ReplyService and
// domain.SessionDeleter.
type Client struct {
	http          *resty.Client
	replyTimeout  time.Duration
	deleteTimeout time.Duration
	log           *zerolog.Logger
}

type Option func(*Client)

func WithReplyTimeout(d time.Duration) Option {
	return func(c *Client) { c.replyTimeout = d }
}

func WithDeleteTimeout(d time.Duration) Option {
	return func(c *Client) { c.deleteTimeout = d }
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL
		c.http = resty.NewWithClient(hc).SetBaseURL(base)
		configure(c.http)
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:          configure(resty.New().SetBaseURL(strings.TrimRight(baseURL, "/"))),
		replyTimeout:  DefaultReplyTimeout,
		deleteTimeout: DefaultDeleteTimeout,
		log:           observability.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func configure(rc *resty.Client) *resty.Client {
	// a chat message must never be delivered twice
	return rc.
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

type errorBody struct {
	Error string `json:"error"`
}

// Reply posts the message to /chat. Failures come back as *domain.TransportError.
func (c *Client) Reply(ctx context.Context, req domain.ReplyRequest) (*domain.ReplyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.replyTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat")
	if err != nil {
		return nil, classify(ctx, err)
	}
	if resp.IsError() {
		var body errorBody
		_ = json.Unmarshal(resp.Body(), &body)
		return nil, &domain.TransportError{
			Kind:    domain.TransportServer,
			Status:  resp.StatusCode(),
			Message: body.Error,
		}
	}

	var out domain.ReplyResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &domain.TransportError{
			Kind:   domain.TransportServer,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("decode reply: %w", err),
		}
	}
	return &out, nil
}

// DeleteSession tells the backend a session is gone. Any failure yields false.
func (c *Client) DeleteSession(ctx context.Context, id domain.SessionID) bool {
	ctx, cancel := context.WithTimeout(ctx, c.deleteTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", string(id)).
		Delete("/api/chat-sessions/{id}")
	if err != nil {
		c.log.Warn().Err(classify(ctx, err)).Str("session_id", string(id)).Msg("delete session request failed")
		return false
	}
	if !resp.IsSuccess() {
		c.log.Warn().Int("status", resp.StatusCode()).Str("session_id", string(id)).Msg("delete session rejected")
		return false
	}
	return true
}

func classify(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &domain.TransportError{Kind: domain.TransportTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &domain.TransportError{Kind: domain.TransportTimeout, Err: err}
	default:
		return &domain.TransportError{Kind: domain.TransportNetwork, Err: fmt.Errorf("request failed: %w", err)}
	}
}
