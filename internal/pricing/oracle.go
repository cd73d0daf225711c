package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/constants"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/storage"
)

// ErrPriceUnavailable is returned when the external price feed errors or
// reports no usable rate. Planning must abort on it: a sweep is never
// returned with a silently-zeroed admin fee.
var ErrPriceUnavailable = errors.New("price unavailable")

// Oracle converts a USD fee target into lamports using an external
// USD-denominated price feed, with a TTL cache in front of the feed.
type Oracle struct {
	baseURL string
	http    *http.Client
	cache   storage.MetaCache
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewOracle(baseURL string, cache storage.MetaCache, ttl time.Duration, logger *logrus.Logger) *Oracle {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.jup.ag/price/v2"
	}
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Oracle{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

type priceResponse struct {
	Data map[string]struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

// Price returns the USD price of the given mint as a decimal.
func (o *Oracle) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return decimal.Zero, fmt.Errorf("mint is required")
	}

	key := constants.RedisKeyPricePrefix + mint
	if o.cache != nil {
		if raw, ok, err := o.cache.Get(ctx, key); err != nil {
			o.logger.WithError(err).WithField("mint", mint).Warn("price cache read failed")
		} else if ok {
			if p, err := decimal.NewFromString(raw); err == nil {
				return p, nil
			}
		}
	}

	p, err := o.fetch(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, key, p.String(), o.ttl); err != nil {
			o.logger.WithError(err).WithField("mint", mint).Warn("price cache write failed")
		}
	}

	return p, nil
}

func (o *Oracle) fetch(ctx context.Context, mint string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("accept", "application/json")

	res, err := o.http.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("%w: price feed http %d", ErrPriceUnavailable, res.StatusCode)
	}

	var out priceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid price response: %v", ErrPriceUnavailable, err)
	}

	entry, ok := out.Data[mint]
	if !ok || strings.TrimSpace(entry.Price) == "" {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", ErrPriceUnavailable, mint)
	}

	p, err := decimal.NewFromString(entry.Price)
	if err != nil || !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: bad rate %q for %s", ErrPriceUnavailable, entry.Price, mint)
	}

	return p, nil
}

// QuoteFeeLamports converts a USD amount into lamports at the current
// SOL/USD rate, rounding up so the fee never undershoots the target.
func (o *Oracle) QuoteFeeLamports(ctx context.Context, usdAmount decimal.Decimal) (uint64, error) {
	if !usdAmount.IsPositive() {
		return 0, fmt.Errorf("usd amount must be positive, got %s", usdAmount)
	}

	solPrice, err := o.Price(ctx, constants.WrappedSOLMint)
	if err != nil {
		return 0, err
	}

	lamports := usdAmount.
		Div(solPrice).
		Mul(decimal.NewFromInt(constants.LamportsPerSOL)).
		Ceil()

	if !lamports.IsPositive() {
		return 0, fmt.Errorf("%w: computed zero-lamport fee", ErrPriceUnavailable)
	}

	return uint64(lamports.IntPart()), nil
}
