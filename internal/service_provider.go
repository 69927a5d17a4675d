package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradegate/config"
	"github.com/vadiminshakov/tradegate/internal/clients"
	"github.com/vadiminshakov/tradegate/internal/metrics"
	"github.com/vadiminshakov/tradegate/internal/services/analysis"
	"github.com/vadiminshakov/tradegate/internal/services/decision"
	"github.com/vadiminshakov/tradegate/internal/services/feeds"
	"github.com/vadiminshakov/tradegate/internal/services/market/collector"
	"github.com/vadiminshakov/tradegate/internal/services/riskgate"
	"github.com/vadiminshakov/tradegate/internal/services/sources"
)

// NewExchangeClient creates a market data client for exchange.
func NewExchangeClient(exchange, apiKey, apiSecret string) (any, error) {
	switch exchange {
	case config.ExchangeBinance:
		return clients.NewBinanceClient(apiKey, apiSecret), nil
	case config.ExchangeBybit:
		return clients.NewBybitClient(apiKey, apiSecret), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", exchange)
	}
}

// NewKlineProvider dispatches a client to its platform-specific kline provider.
func NewKlineProvider(client any) (collector.KlineProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return collector.NewBinanceKlineProvider(c), nil
	case *bybit.Client:
		return collector.NewBybitKlineProvider(c), nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// NewCollaborators builds the optional inputs of the sentiment, calendar and
// backtest sources. Sections left empty in the configuration stay nil so the
// matching source abstains.
func NewCollaborators(cfg config.Config, logger *zap.Logger) (analysis.Collaborators, error) {
	var c analysis.Collaborators

	if cfg.Sentiment.Enabled {
		if cfg.Secrets.LLMAPIKey == "" {
			logger.Warn("sentiment enabled without LLM_API_KEY, using price action only")
		} else {
			c.Sentiment = clients.NewSentimentClient(cfg.LLMConfig(), logger)
		}
	}

	if len(cfg.Calendar.Events) > 0 {
		cal, err := feeds.NewStaticCalendar(cfg.Calendar.Events)
		if err != nil {
			return analysis.Collaborators{}, errors.Wrap(err, "calendar")
		}
		c.Calendar = cal
	}

	if len(cfg.Backtest.Stats) > 0 {
		bt, err := feeds.NewStaticBacktests(cfg.Backtest.Stats)
		if err != nil {
			return analysis.Collaborators{}, errors.Wrap(err, "backtest")
		}
		c.Backtests = bt
	}

	return c, nil
}

// NewEngine wires the analysis engine from configuration. The exchange client
// is created from the configured platform and the matching secrets.
func NewEngine(cfg config.Config, rec *metrics.Recorder, logger *zap.Logger) (*analysis.Engine, error) {
	key, secret := cfg.Secrets.BinanceAPIKey, cfg.Secrets.BinanceAPISecret
	if cfg.Exchange == config.ExchangeBybit {
		key, secret = cfg.Secrets.BybitAPIKey, cfg.Secrets.BybitAPISecret
	}

	client, err := NewExchangeClient(cfg.Exchange, key, secret)
	if err != nil {
		return nil, err
	}
	provider, err := NewKlineProvider(client)
	if err != nil {
		return nil, err
	}

	return NewEngineWithProvider(cfg, provider, rec, logger)
}

// NewEngineWithProvider wires the analysis engine over an existing kline provider.
func NewEngineWithProvider(cfg config.Config, provider collector.KlineProvider, rec *metrics.Recorder, logger *zap.Logger) (*analysis.Engine, error) {
	gateCfg, err := cfg.RiskGateConfig()
	if err != nil {
		return nil, err
	}
	gate, err := riskgate.New(gateCfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, "risk gate")
	}

	collab, err := NewCollaborators(cfg, logger)
	if err != nil {
		return nil, err
	}

	srcCfg := analysis.SourceConfig{
		Weights:        cfg.Weights,
		Strategy:       cfg.Backtest.Strategy,
		CalendarWindow: cfg.CalendarWindow(),
		SentimentOptions: []sources.SentimentOption{
			sources.WithSentimentTimeout(cfg.Sentiment.Timeout),
			sources.WithAgreementBoost(cfg.Sentiment.AgreementBoost),
		},
	}

	return analysis.NewEngine(
		collector.New(provider),
		analysis.StandardSources(srcCfg, collab, logger),
		gate,
		decision.New(cfg.DecisionConfig()),
		logger,
		analysis.WithWindow(cfg.Window),
		analysis.WithMetrics(rec),
	), nil
}
