package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-sentinel/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches spot prices and market-chart history. Transport
// and non-2xx failures surface as errors; an asset simply missing from the
// response is empty data, not an error.
type CoinGeckoProvider struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tracer:     tracer,
	}
}

// NewCoinGeckoProviderWithBaseURL points the client at an alternate API
// host, used by tests and API-compatible mirrors.
func NewCoinGeckoProviderWithBaseURL(tracer trace.Tracer, baseURL string) *CoinGeckoProvider {
	p := NewCoinGeckoProvider(tracer)
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// CurrentPrices returns the USD spot price per asset id. Assets unknown to
// the API are absent from the result.
func (p *CoinGeckoProvider) CurrentPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.current-prices")
	defer span.End()

	q := url.Values{}
	q.Set("ids", strings.ToLower(strings.Join(ids, ",")))
	q.Set("vs_currencies", "usd")

	var payload map[string]map[string]float64
	if err := p.getJSON(ctx, "/simple/price?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("price feed failed: %w", err)
	}

	prices := make(map[string]float64, len(payload))
	for id, quote := range payload {
		if usd, ok := quote["usd"]; ok {
			prices[id] = usd
		}
	}
	return prices, nil
}

// MarketChart returns the recent price and volume series for one asset,
// oldest sample first.
func (p *CoinGeckoProvider) MarketChart(ctx context.Context, id string, days int) (*domain.MarketSeries, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.market-chart")
	defer span.End()

	if days <= 0 {
		days = 1
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))

	var payload struct {
		Prices       [][2]float64 `json:"prices"`
		TotalVolumes [][2]float64 `json:"total_volumes"`
	}
	path := "/coins/" + url.PathEscape(strings.ToLower(id)) + "/market_chart?" + q.Encode()
	if err := p.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("volume data failed: %w", err)
	}

	return &domain.MarketSeries{
		Prices:  toSeries(payload.Prices),
		Volumes: toSeries(payload.TotalVolumes),
	}, nil
}

func (p *CoinGeckoProvider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toSeries(raw [][2]float64) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(raw))
	for _, pair := range raw {
		points = append(points, domain.SeriesPoint{
			Time:  time.UnixMilli(int64(pair[0])).UTC(),
			Value: pair[1],
		})
	}
	return points
}
