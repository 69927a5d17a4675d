package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

const binanceMaxLimit = 1000

// BinanceKlineProvider implements KlineProvider for Binance exchange.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines fetches kline data from Binance.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.PriceBar, error) {
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}

	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.PriceBar, len(klines))
	for i, k := range klines {
		bar, err := parseBar(time.UnixMilli(k.OpenTime), k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "binance kline at index %d", i)
		}
		result[i] = bar
	}

	return result, nil
}

// parseBar builds a bar from exchange string fields.
func parseBar(ts time.Time, open, high, low, close, volume string) (domain.PriceBar, error) {
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", open, new(decimal.Decimal)},
		{"high", high, new(decimal.Decimal)},
		{"low", low, new(decimal.Decimal)},
		{"close", close, new(decimal.Decimal)},
		{"volume", volume, new(decimal.Decimal)},
	}

	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.PriceBar{}, errors.Wrapf(err, "failed to parse %s price", f.name)
		}
		*f.dst = v
	}

	return domain.PriceBar{
		Timestamp: ts,
		Open:      *fields[0].dst,
		High:      *fields[1].dst,
		Low:       *fields[2].dst,
		Close:     *fields[3].dst,
		Volume:    *fields[4].dst,
	}, nil
}
