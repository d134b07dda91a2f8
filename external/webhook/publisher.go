package webhook

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/riskibarqy/bracket-pool/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type PublisherConfig struct {
	TargetBaseURL  string
	Token          string
	Retries        int
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher delivers sync completion events to the external scheduler.
// Delivery is best effort from the caller's point of view; retries and
// the circuit breaker live here.
type Publisher struct {
	client         *fasthttp.Client
	targetBaseURL  string
	token          string
	retries        int
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewPublisher(cfg PublisherConfig, logger *logging.Logger) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Publisher{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		targetBaseURL:  strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		retries:        cfg.Retries,
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (p *Publisher) Publish(ctx context.Context, path string, payload any, deduplicationID string) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("webhook target is temporarily unavailable: %w", err)
		}
	}

	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return crerr.New("webhook path is required")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid WEBHOOK_TARGET_BASE_URL")
	}
	targetURL := targetBaseURL + path

	bodyPayload := payload
	if bodyPayload == nil {
		bodyPayload = map[string]any{}
	}
	body, err := sonic.Marshal(bodyPayload)
	if err != nil {
		return crerr.Wrap(err, "marshal webhook payload")
	}

	curlPreview := buildCurlPreview(targetURL, deduplicationID, truncateForLog(string(body), 4096), p.token != "")
	p.logger.InfoContext(ctx, "webhook publish request", "path", path, "target_url", targetURL, "curl_preview", curlPreview)

	callErr := p.deliver(ctx, targetURL, body, deduplicationID)
	p.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}

	p.logger.InfoContext(ctx, "webhook published", "path", path, "deduplication_id", deduplicationID)
	return nil
}

func (p *Publisher) deliver(ctx context.Context, targetURL string, body []byte, deduplicationID string) error {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()

		req.SetRequestURI(targetURL)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		if p.token != "" {
			req.Header.Set("Authorization", "Bearer "+p.token)
		}
		if strings.TrimSpace(deduplicationID) != "" {
			req.Header.Set("X-Deduplication-Id", strings.TrimSpace(deduplicationID))
		}
		req.SetBody(body)

		err := p.client.DoTimeout(req, resp, p.timeout)
		statusCode := resp.StatusCode()
		respBody := strings.TrimSpace(string(resp.Body()))
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		if err != nil {
			lastErr = fmt.Errorf("%w: deliver webhook target_url=%s: %v", errWebhookTransient, targetURL, err)
		} else if statusCode/100 == 2 {
			return nil
		} else if isRetryableStatus(statusCode) {
			lastErr = fmt.Errorf("%w: deliver webhook status=%d target_url=%s body=%s", errWebhookTransient, statusCode, targetURL, truncateForLog(respBody, 512))
		} else {
			return fmt.Errorf("deliver webhook status=%d target_url=%s body=%s", statusCode, targetURL, truncateForLog(respBody, 512))
		}

		if attempt == p.retries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("webhook delivery failed")
	}
	return lastErr
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(targetURL, deduplicationID, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(targetURL))
	appendFlagHeader("Content-Type: application/json")
	if withToken {
		appendFlagHeader("Authorization: Bearer ***")
	}
	if strings.TrimSpace(deduplicationID) != "" {
		appendFlagHeader("X-Deduplication-Id: " + strings.TrimSpace(deduplicationID))
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (p *Publisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err == nil || !stderrors.Is(err, errWebhookTransient) {
		p.breaker.RecordSuccess()
		return
	}
	p.breaker.RecordFailure()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}
