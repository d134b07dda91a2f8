package espn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/bracket-pool/internal/platform/cache"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/riskibarqy/bracket-pool/internal/usecase"
)

const (
	defaultBaseURL    = "https://site.api.espn.com/apis/site/v2/sports/basketball/mens-college-basketball"
	directoryCacheKey = "espn:team-directory"
	directoryPageSize = 500
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Cache      *cache.Store
	Logger     *logging.Logger
}

// Client reads the public team directory feed. The feed needs no
// credentials and changes rarely, so responses are cached.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *cache.Store
	logger     *logging.Logger
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

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cache:      cfg.Cache,
		logger:     logger,
	}
}

func (c *Client) TeamDirectory(ctx context.Context) ([]usecase.DirectoryTeam, error) {
	if c.cache == nil {
		return c.fetchDirectory(ctx)
	}

	out, err := c.cache.GetOrLoad(ctx, directoryCacheKey, func(ctx context.Context) (any, error) {
		return c.fetchDirectory(ctx)
	})
	if err != nil {
		return nil, err
	}
	entries, ok := out.([]usecase.DirectoryTeam)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload type %T", out)
	}
	return entries, nil
}

type directoryEnvelope struct {
	Sports []struct {
		Leagues []struct {
			Teams []struct {
				Team directoryTeam `json:"team"`
			} `json:"teams"`
		} `json:"leagues"`
	} `json:"sports"`
}

type directoryTeam struct {
	ID               string          `json:"id"`
	DisplayName      string          `json:"displayName"`
	ShortDisplayName string          `json:"shortDisplayName"`
	Logos            []directoryLogo `json:"logos"`
}

type directoryLogo struct {
	Href string `json:"href"`
}

func (c *Client) fetchDirectory(ctx context.Context) ([]usecase.DirectoryTeam, error) {
	fullURL := fmt.Sprintf("%s/teams?limit=%d", c.baseURL, directoryPageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch team directory: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
	if err != nil {
		return nil, fmt.Errorf("read directory body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: directory status=%d", usecase.ErrDependencyUnavailable, resp.StatusCode)
	}

	var envelope directoryEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode directory payload: %w", err)
	}

	entries := make([]usecase.DirectoryTeam, 0, 400)
	for _, sport := range envelope.Sports {
		for _, league := range sport.Leagues {
			for _, wrapper := range league.Teams {
				entry := usecase.DirectoryTeam{
					ExternalID:       strings.TrimSpace(wrapper.Team.ID),
					DisplayName:      strings.TrimSpace(wrapper.Team.DisplayName),
					ShortDisplayName: strings.TrimSpace(wrapper.Team.ShortDisplayName),
				}
				if len(wrapper.Team.Logos) > 0 {
					entry.LogoURL = strings.TrimSpace(wrapper.Team.Logos[0].Href)
				}
				if entry.DisplayName == "" && entry.ShortDisplayName == "" {
					continue
				}
				entries = append(entries, entry)
			}
		}
	}

	c.logger.InfoContext(ctx, "team directory fetched", "teams", len(entries))
	return entries, nil
}
