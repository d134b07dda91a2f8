package highlightly

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/riskibarqy/bracket-pool/internal/platform/resilience"
	"github.com/riskibarqy/bracket-pool/internal/usecase"
)

const (
	defaultBaseURL = "https://basketball-highlights-api.p.rapidapi.com"
	keyHeader      = "X-RapidAPI-Key"
	hostHeader     = "X-RapidAPI-Host"
)

var errHighlightlyTransient = crerr.New("highlightly transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	APIHost        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client is the secondary results provider, reached through a RapidAPI
// gateway that authenticates with key and host headers.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	apiHost        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiHost := strings.TrimSpace(cfg.APIHost)
	if apiHost == "" {
		apiHost = strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		apiHost:        apiHost,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type apiMatch struct {
	ID       string `json:"id"`
	Finished bool   `json:"finished"`
	State    struct {
		Description string `json:"description"`
	} `json:"state"`
	HomeTeam apiSide `json:"homeTeam"`
	AwayTeam apiSide `json:"awayTeam"`
}

type apiSide struct {
	ID    string `json:"id"`
	Score *int   `json:"score"`
}

type matchEnvelope struct {
	Data []apiMatch `json:"data"`
}

// GameByExternalID returns ok=false when the provider has no match for
// the identifier.
func (c *Client) GameByExternalID(ctx context.Context, externalGameID string) (usecase.SecondaryResult, bool, error) {
	externalGameID = strings.TrimSpace(externalGameID)
	if externalGameID == "" {
		return usecase.SecondaryResult{}, false, fmt.Errorf("external game id is required")
	}

	raw, err := c.fetch(ctx, "/matches/"+externalGameID)
	if err != nil {
		if stderrors.Is(err, errNotFound) {
			return usecase.SecondaryResult{}, false, nil
		}
		return usecase.SecondaryResult{}, false, err
	}

	var envelope matchEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return usecase.SecondaryResult{}, false, fmt.Errorf("decode match payload: %w", err)
	}
	if len(envelope.Data) == 0 {
		return usecase.SecondaryResult{}, false, nil
	}

	match := envelope.Data[0]
	result := usecase.SecondaryResult{
		ExternalGameID:     match.ID,
		HomeTeamExternalID: match.HomeTeam.ID,
		AwayTeamExternalID: match.AwayTeam.ID,
		HomeScore:          match.HomeTeam.Score,
		AwayScore:          match.AwayTeam.Score,
		Finished:           match.Finished || strings.EqualFold(match.State.Description, "finished"),
	}
	return result, true, nil
}

var errNotFound = crerr.New("highlightly match not found")

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "highlightly circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: secondary results provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errHighlightlyTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set(keyHeader, c.apiKey)
		req.Header.Set(hostHeader, c.apiHost)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errHighlightlyTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errHighlightlyTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if resp.StatusCode == http.StatusNotFound {
				return nil, errNotFound
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d", errHighlightlyTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "highlightly request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, secret string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if secret != "" {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	return value
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
