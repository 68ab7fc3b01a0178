package rocketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
	"followsync/pkg/ratelimit"
	"followsync/pkg/retry"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 10 << 20

// Options configures a Client
type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Envelope EnvelopeKind

	// Limiter paces every attempt; shared by all targets of a run
	Limiter ratelimit.Limiter
	// Inflight caps concurrent requests; nil means uncapped
	Inflight *ratelimit.Inflight
	// Retry policy applied to every call; nil means retry.DefaultConfig
	Retry *retry.Config

	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client talks to the RocketAPI follower endpoints
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	envelope   EnvelopeKind
	limiter    ratelimit.Limiter
	inflight   *ratelimit.Inflight
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a new RocketAPI client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	envelope := opts.Envelope
	if envelope == "" {
		envelope = EnvelopeAuto
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if opts.Limiter != nil {
		limiter = opts.Limiter
	}

	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	if retryCfg.Logger == nil {
		cp := *retryCfg
		cp.Logger = log
		retryCfg = &cp
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"Authorization": "Token " + opts.Token,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
			"User-Agent":    "followsync",
		},
		baseURL:  baseURL,
		envelope: envelope,
		limiter:  limiter,
		inflight: opts.Inflight,
		retry:    retryCfg,
		logger:   log,
	}
}

// Envelope returns the configured envelope kind
func (c *Client) Envelope() EnvelopeKind {
	return c.envelope
}

// FetchUserID resolves a username to the upstream user id
func (c *Client) FetchUserID(ctx context.Context, username string) (string, error) {
	username = SanitizeUsername(username)
	if username == "" {
		return "", errs.New(errs.KindStructuralUpstream, errs.StageFetchUserID, "empty username")
	}

	c.logger.DebugWithFields("fetching user id", map[string]interface{}{
		"account": username,
	})

	id, err := retry.DoWithResult(ctx, func(ctx context.Context) (string, error) {
		body, err := c.doRequest(ctx, errs.StageFetchUserID, UserInfoEndpoint, userInfoRequest{Username: username})
		if err != nil {
			return "", err
		}
		doc, err := parseDocument(body, errs.StageFetchUserID)
		if err != nil {
			return "", err
		}
		return normalizeUserID(c.envelope, doc)
	}, c.retry)
	if err != nil {
		return "", err
	}

	c.logger.DebugWithFields("resolved user id", map[string]interface{}{
		"account": username,
		"user_id": id,
	})
	return id, nil
}

// FetchFollowerPage fetches one follower page. An empty cursor requests the first page.
func (c *Client) FetchFollowerPage(ctx context.Context, userID string, cursor Cursor) (Page, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (Page, error) {
		body, err := c.doRequest(ctx, errs.StageFetchPage, FollowersEndpoint, newFollowersRequest(userID, cursor))
		if err != nil {
			return Page{}, err
		}
		doc, err := parseDocument(body, errs.StageFetchPage)
		if err != nil {
			return Page{}, err
		}
		return normalizePage(c.envelope, doc)
	}, c.retry)
}

// doRequest performs one POST attempt and returns the raw body of a 2xx response
func (c *Client) doRequest(ctx context.Context, stage errs.Stage, endpoint string, payload interface{}) ([]byte, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if waited := time.Since(waitStart); waited > 10*time.Millisecond {
		logger.LogRateLimit(c.logger, "upstream", waited.Milliseconds())
	}

	if c.inflight != nil {
		if !c.inflight.TryAcquire() {
			c.logger.DebugWithFields("waiting for in-flight slot", map[string]interface{}{
				"max_inflight": c.inflight.Max(),
			})
			if err := c.inflight.Acquire(ctx); err != nil {
				return nil, err
			}
		}
		defer c.inflight.Release()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindStructuralUpstream, stage, "failed to encode request")
	}

	url := endpointURL(c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(err, errs.KindStructuralUpstream, stage, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.LogRequest(c.logger, req.Method, url, 0, float64(duration.Milliseconds()))
		return nil, errs.Wrap(err, errs.KindTransientUpstream, stage, "network error")
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, float64(duration.Milliseconds()))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &errs.Error{
			Kind:    errs.KindTransientUpstream,
			Stage:   stage,
			Code:    resp.StatusCode,
			Message: "failed to read response body",
			Err:     err,
		}
	}

	if err := checkResponseStatus(resp.StatusCode, stage); err != nil {
		return nil, err
	}
	return body, nil
}

// checkResponseStatus classifies a non-2xx status
func checkResponseStatus(statusCode int, stage errs.Stage) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var message string
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		message = "token rejected by upstream"
	case http.StatusNotFound:
		message = "resource not found"
	case http.StatusTooManyRequests:
		message = "rate limit exceeded"
	default:
		if statusCode >= 500 {
			message = "server error"
		} else {
			message = fmt.Sprintf("unexpected status code: %d", statusCode)
		}
	}

	kind := errs.KindStructuralUpstream
	if errs.IsRetryableStatusCode(statusCode) {
		kind = errs.KindTransientUpstream
	}
	return errs.New(kind, stage, message).WithCode(statusCode)
}
