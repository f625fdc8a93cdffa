package wiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"go.uber.org/zap"
)

// Fetcher retrieves the raw HTML of one source page.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) ([]byte, error)
}

type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

type HTTPFetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	// MaxBodyBytes caps the accepted response size; larger bodies fail the fetch.
	MaxBodyBytes int64
}

func NewHTTPFetcher(cfg HTTPFetcherConfig, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.WikiConfig.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.WikiConfig.UserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = constants.WikiConfig.MaxBodyBytes
	}

	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		breaker: util.NewCircuitBreaker("wiki",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger),
		logger: logger,
	}
}

// WithHTTPClient swaps the underlying client; the client's own Timeout applies.
func (f *HTTPFetcher) WithHTTPClient(client *http.Client) *HTTPFetcher {
	f.httpClient = client
	return f
}

func (f *HTTPFetcher) Breaker() *util.CircuitBreaker {
	return f.breaker
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if !f.breaker.CanExecute() {
		return nil, errors.NewFetchError("wiki circuit open", src.Name, src.URL,
			fmt.Errorf("retry after %s", f.breaker.RetryAfter().Round(time.Second)))
	}

	body, err := f.fetch(ctx, src)
	if err != nil {
		f.breaker.RecordFailure()
		return nil, errors.NewFetchError("failed to fetch wiki page", src.Name, src.URL, err)
	}

	f.breaker.RecordSuccess()
	f.logger.Debug("Fetched wiki page",
		zap.String("source", src.Name),
		zap.Int("bytes", len(body)))

	return body, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, src Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.maxBody)
	}

	return body, nil
}
