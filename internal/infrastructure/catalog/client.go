package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/platform/cache"
	"github.com/vaultheim/crucible/internal/platform/logging"
	"github.com/vaultheim/crucible/internal/platform/resilience"
	"github.com/vaultheim/crucible/internal/usecase"
)

const (
	defaultBaseURL  = "https://decksofkeyforge.com/public-api/v1"
	defaultPageSize = 200
	defaultCacheTTL = 10 * time.Minute
	maxSearchPages  = 25
)

var (
	errCatalogTransient = crerr.New("deck catalog transient failure")
	errDeckNotFound     = crerr.New("deck is not registered")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	PageSize       int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the external deck registry. Deck lookups are cached and
// deduplicated; the breaker shields the registry when it misbehaves.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	pageSize       int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	decks          *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = otelhttp.NewTransport(base)

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     max(cfg.MaxRetries, 0),
		pageSize:       pageSize,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		decks:          cache.NewStore(cacheTTL),
	}
}

func (c *Client) Resolve(ctx context.Context, ref string) (deck.Info, bool, error) {
	id := deck.ParseRef(ref)
	if id == "" {
		return deck.Info{}, false, nil
	}

	value, err := c.decks.GetOrLoad(ctx, "deck:"+id, func(ctx context.Context) (any, error) {
		var envelope deckEnvelope
		if err := c.doJSON(ctx, http.MethodGet, "/decks/"+id, nil, &envelope); err != nil {
			return nil, err
		}
		info, ok := deckFromPayload(envelope.Deck)
		if !ok {
			return nil, crerr.Wrapf(errDeckNotFound, "deck %s", id)
		}
		return info, nil
	})
	if err != nil {
		if crerr.Is(err, errDeckNotFound) {
			return deck.Info{}, false, nil
		}
		return deck.Info{}, false, err
	}

	info, ok := value.(deck.Info)
	if !ok {
		return deck.Info{}, false, fmt.Errorf("unexpected cached deck type %T", value)
	}
	return info, true, nil
}

func (c *Client) HousesOf(ctx context.Context, deckID string) ([]deck.House, error) {
	info, found, err := c.Resolve(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("deck %s is not registered", deckID)
	}
	return info.Houses, nil
}

func (c *Client) ListBySets(ctx context.Context, sets []deck.Set) ([]deck.Info, error) {
	expansions := make([]string, 0, len(sets))
	for _, s := range sets {
		name, ok := expansionBySet[s]
		if !ok {
			return nil, fmt.Errorf("unknown expansion %q", s)
		}
		expansions = append(expansions, name)
	}

	seen := make(map[string]struct{})
	out := make([]deck.Info, 0, c.pageSize)
	for page := 0; page < maxSearchPages; page++ {
		body, err := encodeSearchBody(searchRequest{
			Expansions: expansions,
			Page:       page,
			PageSize:   c.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("encode deck search request: %w", err)
		}

		var envelope searchEnvelope
		if err := c.doJSON(ctx, http.MethodPost, "/decks/search", body, &envelope); err != nil {
			return nil, err
		}
		if len(envelope.Decks) == 0 {
			break
		}

		for _, payload := range envelope.Decks {
			info, ok := deckFromPayload(payload)
			if !ok {
				continue
			}
			if _, dup := seen[info.ID]; dup {
				continue
			}
			seen[info.ID] = struct{}{}
			out = append(out, info)
		}

		if envelope.Pages > 0 && page >= envelope.Pages-1 {
			break
		}
		if len(envelope.Decks) < c.pageSize {
			break
		}
	}

	return out, nil
}

func encodeSearchBody(req searchRequest) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(req); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "deck catalog circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: deck catalog is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	key := method + " " + path + " " + string(body)
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, method, c.baseURL+path, body)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errCatalogTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode catalog payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if len(body) > 0 {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if len(body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Api-Key", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = crerr.Wrapf(errCatalogTransient, "send request: %v", err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Wrapf(errCatalogTransient, "read response body: %v", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, crerr.Wrapf(errDeckNotFound, "catalog status=%d", resp.StatusCode)
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Wrapf(errCatalogTransient, "catalog status=%d", resp.StatusCode)
			default:
				return nil, fmt.Errorf("catalog status=%d", resp.StatusCode)
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
		lastErr = fmt.Errorf("catalog request failed")
	}
	c.logger.WarnContext(ctx, "deck catalog request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
