package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"board-tracker/internal/errors"
	"board-tracker/internal/logging"
	"board-tracker/internal/models"
	"board-tracker/internal/resilience"
	"board-tracker/pkg/utils"
)

// HTTP routes of the agent API.
const (
	PathController      = "/api/controller"
	PathControllerStart = "/api/controller/start"
	PathControllerStop  = "/api/controller/stop"
	PathInstruments     = "/api/instruments"
	PathTicker          = "/api/ticker"
	PathLogger          = "/api/logger"
	PathHealth          = "/api/health"

	// RequestIDHeader carries the per-call request id.
	RequestIDHeader = "X-Request-ID"
)

const msgUnreachable = "agent is not reachable"

// ClientOptions configures an HTTPClient.
type ClientOptions struct {
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	Burst      int
	Retries    int // extra attempts of read-only commands
	Breaker    resilience.Config
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

// HTTPClient talks to a remote agent over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retry   utils.RetryConfig
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

var _ Agent = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the agent at baseURL.
func NewHTTPClient(baseURL string, opts ClientOptions) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "agent url %q", baseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = opts.Retries + 1
	retry.Retryable = retryable

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  hc,
		limiter: rate.NewLimiter(limit, burst),
		retry:   retry,
		breaker: resilience.New("agent", opts.Breaker),
		logger:  opts.Logger.With().Str("component", "agent_client").Logger(),
	}, nil
}

// retryable reports whether a failed read is worth repeating: transport
// failures and server errors are, refusals are not.
func retryable(err error) bool {
	if errors.Is(err, resilience.ErrOpen) {
		return false
	}
	var callErr *errors.AgentCallError
	if !errors.As(err, &callErr) {
		return false
	}
	return callErr.Status == 0 || callErr.Status >= http.StatusInternalServerError
}

// StartController sends start_controller.
func (c *HTTPClient) StartController(ctx context.Context) (*models.Controller, error) {
	return c.controllerCall(ctx, CmdStartController, http.MethodPost, PathControllerStart, nil)
}

// StopController sends stop_controller.
func (c *HTTPClient) StopController(ctx context.Context) (*models.Controller, error) {
	return c.controllerCall(ctx, CmdStopController, http.MethodPost, PathControllerStop, nil)
}

// GetController sends get_controller.
func (c *HTTPClient) GetController(ctx context.Context) (*models.Controller, error) {
	return c.controllerCall(ctx, CmdGetController, http.MethodGet, PathController, nil)
}

// PostController sends post_controller.
func (c *HTTPClient) PostController(ctx context.Context, ctrl models.Controller) (*models.Controller, error) {
	return c.controllerCall(ctx, CmdPostController, http.MethodPost, PathController, ctrl)
}

// PutController sends put_controller.
func (c *HTTPClient) PutController(ctx context.Context, ctrl models.Controller) (*models.Controller, error) {
	return c.controllerCall(ctx, CmdPutController, http.MethodPut, PathController, ctrl)
}

// DeleteController sends delete_controller.
func (c *HTTPClient) DeleteController(ctx context.Context) (*models.Controller, error) {
	return c.controllerCall(ctx, CmdDeleteController, http.MethodDelete, PathController, nil)
}

func (c *HTTPClient) controllerCall(ctx context.Context, command, method, path string, body interface{}) (*models.Controller, error) {
	var out models.Controller
	if err := c.call(ctx, command, method, path, body, &out); err != nil {
		return nil, err
	}
	if err := out.CheckShape(); err != nil {
		return nil, malformed(command, err)
	}
	return &out, nil
}

// GetInstruments sends get_instruments.
func (c *HTTPClient) GetInstruments(ctx context.Context, exchange models.ExchangeName) ([]models.Instrument, error) {
	var out []models.Instrument
	path := PathInstruments + "/" + url.PathEscape(string(exchange))
	if err := c.call(ctx, CmdGetInstruments, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	for _, inst := range out {
		if err := inst.CheckShape(); err != nil {
			return nil, malformed(CmdGetInstruments, err)
		}
	}
	if out == nil {
		out = []models.Instrument{}
	}
	return out, nil
}

// GetTicker sends get_ticker.
func (c *HTTPClient) GetTicker(ctx context.Context, exchange models.ExchangeName, symbol string) (*models.Ticker, error) {
	var out models.Ticker
	path := PathTicker + "/" + url.PathEscape(string(exchange)) + "/" + url.PathEscape(symbol)
	if err := c.call(ctx, CmdGetTicker, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if err := out.CheckShape(); err != nil {
		return nil, malformed(CmdGetTicker, err)
	}
	return &out, nil
}

// GetLogger sends get_logger. It is not retried because reading drains the
// agent's journal.
func (c *HTTPClient) GetLogger(ctx context.Context) ([]models.LogEntry, error) {
	var out []models.LogEntry
	if err := c.send(ctx, CmdGetLogger, http.MethodGet, PathLogger, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.LogEntry{}
	}
	return out, nil
}

// ClearLogger sends clear_logger.
func (c *HTTPClient) ClearLogger(ctx context.Context) error {
	return c.send(ctx, CmdClearLogger, http.MethodDelete, PathLogger, nil, nil)
}

// LinkState returns the state of the breaker guarding the agent link.
func (c *HTTPClient) LinkState() resilience.State {
	return c.breaker.State()
}

// Health checks that the agent answers.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.send(ctx, "health", http.MethodGet, PathHealth, nil, nil)
}

func malformed(command string, err error) error {
	return errors.NewAgentCallError(command, "malformed response", err.Error(),
		fmt.Errorf("%w: %v", errors.ErrMalformed, err))
}

// call sends one command, retrying idempotent reads.
func (c *HTTPClient) call(ctx context.Context, command, method, path string, body, out interface{}) error {
	if method != http.MethodGet {
		return c.send(ctx, command, method, path, body, out)
	}
	return utils.Retry(ctx, c.retry, func() error {
		return c.send(ctx, command, method, path, body, out)
	})
}

// send performs a single HTTP exchange.
func (c *HTTPClient) send(ctx context.Context, command, method, path string, body, out interface{}) (err error) {
	requestID := uuid.NewString()
	logger := logging.WithRequestID(c.logger, requestID)
	start := time.Now()
	defer func() {
		logging.LogAgentCall(logger, command, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.NewAgentCallError(command, msgUnreachable, err.Error(), err)
	}

	if err := c.breaker.Allow(); err != nil {
		return errors.NewAgentCallError(command, msgUnreachable, err.Error(),
			fmt.Errorf("%w: %w", errors.ErrConnectionFailed, err))
	}
	defer func() {
		if errors.Is(err, errors.ErrConnectionFailed) {
			c.breaker.Failure()
		} else {
			c.breaker.Success()
		}
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewAgentCallError(command, "request is invalid", err.Error(), err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewAgentCallError(command, "request is invalid", err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewAgentCallError(command, msgUnreachable, err.Error(),
			fmt.Errorf("%w: %v", errors.ErrConnectionFailed, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewAgentCallError(command, msgUnreachable, err.Error(),
			fmt.Errorf("%w: %v", errors.ErrConnectionFailed, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeRefusal(command, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return malformed(command, err)
	}
	return nil
}

// decodeRefusal turns a non-2xx response into an AgentCallError.
func decodeRefusal(command string, status int, data []byte) error {
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Msg == "" {
		body = ErrorBody{
			Msg:   http.StatusText(status),
			Cause: strings.TrimSpace(string(data)),
		}
	}
	e := errors.NewAgentCallError(command, body.Msg, body.Cause, nil)
	e.Status = status
	return e
}
