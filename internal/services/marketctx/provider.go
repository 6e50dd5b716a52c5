package marketctx

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/service/cache"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
)

// HTTPProvider fetches MarketContext from an external market-analysis service:
//
//	GET {url}/market-context?symbol=AAPL -> {"volatility":0.21,"regime":"bull","regime_confidence":0.8}
//
// Responses are cached per symbol for CacheTTL.
type HTTPProvider struct {
	baseURL  string
	attempts int
	ttl      time.Duration
	client   *xhttp.Client
	cache    *cache.TTLCache
}

func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	mc := cfg.MarketContext
	timeout := mc.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProvider{
		baseURL:  strings.TrimRight(mc.URL, "/"),
		attempts: mc.Attempts,
		ttl:      mc.CacheTTL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:    cache.NewTTLCache(),
	}
}

type contextResponse struct {
	Volatility       *float64 `json:"volatility"`
	Regime           string   `json:"regime"`
	RegimeConfidence *float64 `json:"regime_confidence"`
}

func (p *HTTPProvider) MarketContext(ctx context.Context, symbol string) (*models.MarketContext, error) {
	key := strings.ToUpper(symbol)
	if v, ok := p.cache.Get(key); ok {
		mc := v.(models.MarketContext)
		return &mc, nil
	}

	var resp contextResponse
	if err := p.getWithRetry(ctx, "/market-context", url.Values{"symbol": {key}}, &resp); err != nil {
		return nil, fmt.Errorf("market context %s: %w", key, err)
	}

	mc := models.MarketContext{
		Volatility:       resp.Volatility,
		Regime:           models.MarketRegime(strings.ToLower(resp.Regime)),
		RegimeConfidence: resp.RegimeConfidence,
	}
	if p.ttl > 0 {
		p.cache.Set(key, mc, p.ttl)
	}
	return &mc, nil
}

func (p *HTTPProvider) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	if p.baseURL == "" {
		return fmt.Errorf("market context url not configured")
	}
	return p.client.GetJSON(ctx, p.baseURL+path, query, dest)
}

// getWithRetry retries transport errors and retryable statuses with linear backoff.
// A 4xx answer is final.
func (p *HTTPProvider) getWithRetry(ctx context.Context, path string, query url.Values, dest interface{}) error {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = p.get(ctx, path, query, dest); err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return err
		}
		if i == attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

var _ domsvc.MarketContextProvider = (*HTTPProvider)(nil)
