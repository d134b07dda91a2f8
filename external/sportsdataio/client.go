package sportsdataio

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/riskibarqy/bracket-pool/internal/platform/resilience"
	"github.com/riskibarqy/bracket-pool/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.sportsdata.io/v3/cbb"
	subscriptionHeader = "Ocp-Apim-Subscription-Key"
	gamesDateLayout    = "2006-Jan-02"
)

var errSportsDataTransient = crerr.New("sportsdata transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the primary tournament data provider. Authentication
// is a subscription key header; the key never appears in URLs or logs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
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
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) GamesBySeason(ctx context.Context, season int) ([]usecase.ProviderGame, error) {
	if season <= 0 {
		return nil, fmt.Errorf("season must be greater than zero")
	}

	raw, err := c.fetch(ctx, fmt.Sprintf("/scores/json/Games/%d", season), nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeGames(raw)
	if err != nil {
		return nil, err
	}
	return mapGames(rows), nil
}

func (c *Client) GamesByDate(ctx context.Context, day time.Time) ([]usecase.ProviderGame, error) {
	path := "/scores/json/GamesByDate/" + strings.ToUpper(day.UTC().Format(gamesDateLayout))
	raw, err := c.fetch(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeGames(raw)
	if err != nil {
		return nil, err
	}
	return mapGames(rows), nil
}

// TournamentBySeason returns ok=false when the provider responds with
// an empty body, which it does until the bracket is published.
func (c *Client) TournamentBySeason(ctx context.Context, season int) ([]usecase.ProviderGame, bool, error) {
	if season <= 0 {
		return nil, false, fmt.Errorf("season must be greater than zero")
	}

	raw, err := c.fetch(ctx, fmt.Sprintf("/scores/json/Tournament/%d", season), nil)
	if err != nil {
		return nil, false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, nil
	}
	rows, err := decodeGames(raw)
	if err != nil {
		return nil, false, err
	}
	return mapGames(rows), true, nil
}

type apiGame struct {
	GameID        int64  `json:"GameID"`
	Season        int    `json:"Season"`
	Round         *int   `json:"Round"`
	Bracket       string `json:"Bracket"`
	Slot          *int   `json:"Slot"`
	Day           string `json:"Day"`
	DateTime      string `json:"DateTime"`
	Status        string `json:"Status"`
	HomeTeamID    int64  `json:"HomeTeamID"`
	AwayTeamID    int64  `json:"AwayTeamID"`
	HomeTeamScore *int   `json:"HomeTeamScore"`
	AwayTeamScore *int   `json:"AwayTeamScore"`
}

type gamesEnvelope struct {
	Games []apiGame `json:"Games"`
}

// decodeGames accepts both response shapes the provider has been seen
// to emit: a bare JSON array and an object wrapping it in "Games".
func decodeGames(raw []byte) ([]apiGame, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var rows []apiGame
		if err := sonic.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode provider payload: %w", err)
		}
		return rows, nil
	}

	var envelope gamesEnvelope
	if err := sonic.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return envelope.Games, nil
}

func mapGames(rows []apiGame) []usecase.ProviderGame {
	out := make([]usecase.ProviderGame, 0, len(rows))
	for _, row := range rows {
		item := usecase.ProviderGame{
			GameID:             row.GameID,
			Season:             row.Season,
			Bracket:            strings.TrimSpace(row.Bracket),
			Status:             strings.TrimSpace(row.Status),
			HomeTeamProviderID: row.HomeTeamID,
			AwayTeamProviderID: row.AwayTeamID,
			HomeScore:          row.HomeTeamScore,
			AwayScore:          row.AwayTeamScore,
		}
		if row.Round != nil {
			item.RoundNumber = *row.Round
		}
		if row.Slot != nil {
			item.Slot = *row.Slot
		}
		item.Day = parseProviderDay(row.Day, row.DateTime)
		out = append(out, item)
	}
	return out
}

var providerDayLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseProviderDay(values ...string) *time.Time {
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		for _, layout := range providerDayLayouts {
			if parsed, err := time.Parse(layout, value); err == nil {
				utc := parsed.UTC()
				return &utc
			}
		}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportsdata circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: tournament data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isSportsDataCircuitFailure(reqErr) {
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
		req.Header.Set(subscriptionHeader, c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSportsDataTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errSportsDataTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: provider status=%d body=%s", errSportsDataTransient, resp.StatusCode, abbreviateBody(raw))
				} else {
					return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				}
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
	c.logger.WarnContext(ctx, "sportsdata request failed", "url", fullURL, "error", lastErr)
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

func isSportsDataCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errSportsDataTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
