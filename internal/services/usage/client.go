package usage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/zai-usage-monitor/internal/logger"
	"github.com/j-veylop/zai-usage-monitor/internal/models"
)

const defaultHTTPTimeout = 30 * time.Second

// Request identifies one account and window to query.
type Request struct {
	Domain string
	Token  string
	Window TimeWindow
}

// CallObserver receives one record per HTTP attempt.
type CallObserver func(ctx context.Context, call models.APICall)

type pollIDKey struct{}

// WithPollID tags ctx so observed calls can be grouped per poll.
func WithPollID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, pollIDKey{}, id)
}

// PollIDFromContext returns the poll tag set by WithPollID.
func PollIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(pollIDKey{}).(string)
	return id
}

// Client performs the three monitoring requests.
type Client struct {
	httpClient *http.Client
	observer   CallObserver
}

// NewClient creates a client. A nil httpClient gets a 30s timeout client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{httpClient: httpClient}
}

// SetObserver installs a call observer. It must be set before use.
func (c *Client) SetObserver(obs CallObserver) {
	c.observer = obs
}

// FetchModelUsage queries model-usage for the request window.
func (c *Client) FetchModelUsage(ctx context.Context, req Request) (*models.ModelUsageResult, error) {
	var res *models.ModelUsageResult
	err := c.get(ctx, req, EndpointModelUsage, true, func(body []byte) (err error) {
		res, err = ParseModelUsage(body)
		return err
	})
	return res, err
}

// FetchToolUsage queries tool-usage for the request window.
func (c *Client) FetchToolUsage(ctx context.Context, req Request) ([]models.ToolUsageItem, error) {
	var items []models.ToolUsageItem
	err := c.get(ctx, req, EndpointToolUsage, true, func(body []byte) (err error) {
		items, err = ParseToolUsage(body)
		return err
	})
	return items, err
}

// FetchQuotaLimits queries quota/limit. It takes no window.
func (c *Client) FetchQuotaLimits(ctx context.Context, req Request) ([]models.QuotaLimit, error) {
	var limits []models.QuotaLimit
	err := c.get(ctx, req, EndpointQuotaLimit, false, func(body []byte) (err error) {
		limits, err = ParseQuotaLimits(body)
		return err
	})
	return limits, err
}

func buildURL(domain string, ep Endpoint, window *TimeWindow) string {
	u := strings.TrimRight(domain, "/") + ep.Path()
	if window == nil {
		return u
	}
	q := url.Values{}
	q.Set("startTime", window.Start)
	q.Set("endTime", window.End)
	return u + "?" + q.Encode()
}

// get performs one request and hands a 200 body to parse. The call is
// observed once, after parsing, so a schema failure is recorded as an error.
func (c *Client) get(ctx context.Context, r Request, ep Endpoint, withWindow bool, parse func([]byte) error) error {
	var window *TimeWindow
	if withWindow {
		window = &r.Window
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildURL(r.Domain, ep, window), nil)
	if err != nil {
		return &TransportError{Endpoint: ep, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", r.Token)
	req.Header.Set("Accept-Language", "en-US,en")
	req.Header.Set("Content-Type", "application/json")

	call := models.APICall{
		Timestamp: time.Now(),
		PollID:    PollIDFromContext(ctx),
		Endpoint:  string(ep),
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Endpoint: ep, Err: err}
		c.observe(ctx, call, 0, 0, terr)
		return terr
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "endpoint", ep, "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{Endpoint: ep, Err: fmt.Errorf("failed to read response: %w", err)}
		c.observe(ctx, call, resp.StatusCode, len(body), terr)
		return terr
	}

	logger.Debug("usage API response",
		"endpoint", ep, "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode != http.StatusOK {
		serr := &HTTPStatusError{Endpoint: ep, Status: resp.StatusCode, Body: string(body)}
		c.observe(ctx, call, resp.StatusCode, len(body), serr)
		return serr
	}

	if err := parse(body); err != nil {
		serr := &SchemaError{Endpoint: ep, Err: err, RawBody: string(body)}
		c.observe(ctx, call, resp.StatusCode, len(body), serr)
		return serr
	}

	c.observe(ctx, call, resp.StatusCode, len(body), nil)
	return nil
}

func (c *Client) observe(ctx context.Context, call models.APICall, status, size int, err error) {
	if c.observer == nil {
		return
	}
	call.StatusCode = status
	call.BodyBytes = size
	call.DurationMs = int(time.Since(call.Timestamp).Milliseconds())
	if err != nil {
		call.Error = err.Error()
	}
	c.observer(ctx, call)
}
