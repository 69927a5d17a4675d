// Package config loads the tradegate configuration from a YAML file layered
// over struct-tag defaults. Exchange and LLM credentials are read from the
// environment only.
package config

import (
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradegate/internal/clients"
	"github.com/vadiminshakov/tradegate/internal/domain"
	"github.com/vadiminshakov/tradegate/internal/services/decision"
	"github.com/vadiminshakov/tradegate/internal/services/riskgate"
	"github.com/vadiminshakov/tradegate/internal/services/sources"
	"gopkg.in/yaml.v3"
)

const (
	ExchangeBinance = "binance"
	ExchangeBybit   = "bybit"
)

// Config application configuration.
type Config struct {
	Exchange      string          `yaml:"exchange" default:"binance" validate:"oneof=binance bybit"`
	Pairs         []string        `yaml:"pairs" default:"[\"BTC_USDT\"]" validate:"min=1,dive,required"`
	Timeframe     string          `yaml:"timeframe" default:"1h" validate:"required"`
	Window        int             `yaml:"window" default:"100" validate:"gte=20,lte=1000"`
	WatchInterval time.Duration   `yaml:"watch_interval" default:"5m" validate:"gt=0"`
	Coalesce      bool            `yaml:"coalesce" default:"true"`
	ListenAddr    string          `yaml:"listen_addr" default:":8080" validate:"required"`
	ReportHistory int             `yaml:"report_history" default:"500" validate:"gt=0"`
	Weights       sources.Weights `yaml:"weights"`
	Risk          RiskConfig      `yaml:"risk"`
	Decision      DecisionConfig  `yaml:"decision"`
	Sentiment     SentimentConfig `yaml:"sentiment"`
	Calendar      CalendarConfig  `yaml:"calendar"`
	Backtest      BacktestConfig  `yaml:"backtest"`

	Secrets Secrets `yaml:"-"`
}

// RiskConfig risk gate parameters.
type RiskConfig struct {
	RiskPerTrade        float64   `yaml:"risk_per_trade" default:"0.01" validate:"gte=0,lte=1"`
	MaxFraction         float64   `yaml:"max_fraction" default:"0.25" validate:"gt=0,lte=1"`
	StopMultiplier      float64   `yaml:"stop_multiplier" default:"2" validate:"gt=0"`
	TakeProfitMultiples []float64 `yaml:"take_profit_multiples" default:"[1.5,2.5,4]" validate:"dive,gt=0"`
	VolumeLow           float64   `yaml:"volume_low" default:"0.3" validate:"gte=0"`
	VolumeHigh          float64   `yaml:"volume_high" default:"3" validate:"gtfield=VolumeLow"`
	VolatilityWindow    int       `yaml:"volatility_window" default:"20" validate:"gte=2"`
	// Capital account size as a decimal string; zero disables money amounts.
	Capital string `yaml:"capital" default:"0" validate:"required"`
}

// DecisionConfig trade gating thresholds, in percent.
type DecisionConfig struct {
	ConfidenceFloor         float64 `yaml:"confidence_floor" default:"60" validate:"gte=0,lte=100"`
	AccuracyFloor           float64 `yaml:"accuracy_floor" default:"65" validate:"gte=0,lte=100"`
	BlackoutOverrideFloor   float64 `yaml:"blackout_override_floor" default:"85" validate:"gte=0,lte=100"`
	HighUrgencyConfidence   float64 `yaml:"high_urgency_confidence" default:"80" validate:"gte=0,lte=100"`
	MediumUrgencyConfidence float64 `yaml:"medium_urgency_confidence" default:"70" validate:"gte=0,lte=100"`
}

// SentimentConfig external sentiment provider.
type SentimentConfig struct {
	Enabled           bool          `yaml:"enabled"`
	APIURL            string        `yaml:"api_url" default:"https://api.openai.com/v1/chat/completions" validate:"omitempty,url"`
	Model             string        `yaml:"model" default:"gpt-4o-mini"`
	Timeout           time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	AgreementBoost    float64       `yaml:"agreement_boost" default:"5" validate:"gte=0,lte=20"`
	RequestsPerMinute int           `yaml:"requests_per_minute" default:"20" validate:"gt=0"`
	MaxRetries        int           `yaml:"max_retries" default:"2" validate:"gte=0,lte=10"`
}

// CalendarConfig economic calendar window and events.
type CalendarConfig struct {
	Lookahead      time.Duration          `yaml:"lookahead" default:"24h" validate:"gt=0"`
	BlackoutBefore time.Duration          `yaml:"blackout_before" default:"30m" validate:"gte=0"`
	BlackoutAfter  time.Duration          `yaml:"blackout_after" default:"30m" validate:"gte=0"`
	Events         []domain.EconomicEvent `yaml:"events"`
}

// BacktestConfig strategy statistics consumed by the backtest source.
type BacktestConfig struct {
	Strategy string                 `yaml:"strategy" default:"default"`
	Stats    []domain.BacktestStats `yaml:"stats"`
}

// Secrets credentials taken from the environment.
type Secrets struct {
	BinanceAPIKey    string
	BinanceAPISecret string
	BybitAPIKey      string
	BybitAPISecret   string
	LLMAPIKey        string
}

// SecretsFromEnv reads credentials from the process environment.
func SecretsFromEnv() Secrets {
	return Secrets{
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),
		BybitAPIKey:      os.Getenv("BYBIT_API_KEY"),
		BybitAPISecret:   os.Getenv("BYBIT_API_SECRET"),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
	}
}

var validate = validator.New()

// Load reads path, or only defaults when path is empty, and validates the result.
func Load(path string) (Config, error) {
	var raw []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to read config")
		}
		raw = b
	}

	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	cfg.Secrets = SecretsFromEnv()

	return cfg, nil
}

// Parse builds a configuration from YAML. Keys absent from the document keep
// their defaults, so an explicit zero (a disabled source weight) is preserved.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to apply defaults")
	}

	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to parse yaml")
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and values that need parsing.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if _, err := c.ParsedPairs(); err != nil {
		return err
	}
	if _, err := domain.ParseTimeframe(c.Timeframe); err != nil {
		return errors.Wrap(err, "invalid timeframe")
	}
	if _, err := c.RiskGateConfig(); err != nil {
		return err
	}
	for _, ev := range c.Calendar.Events {
		if _, err := domain.ParseImpact(string(ev.Impact)); err != nil {
			return errors.Wrapf(err, "calendar event %q", ev.Title)
		}
	}
	return nil
}

// ParsedPairs returns the configured pairs.
func (c Config) ParsedPairs() ([]domain.Pair, error) {
	pairs := make([]domain.Pair, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		pair, err := domain.ParsePair(p)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// TF returns the configured timeframe.
func (c Config) TF() domain.Timeframe {
	return domain.Timeframe(c.Timeframe)
}

// RiskGateConfig converts the risk section.
func (c Config) RiskGateConfig() (riskgate.Config, error) {
	capital, err := decimal.NewFromString(c.Risk.Capital)
	if err != nil {
		return riskgate.Config{}, errors.Wrapf(err, "incorrect 'capital' param %q", c.Risk.Capital)
	}
	if capital.IsNegative() {
		return riskgate.Config{}, errors.Errorf("capital %s must not be negative", capital)
	}

	return riskgate.Config{
		RiskPerTrade:        c.Risk.RiskPerTrade,
		MaxFraction:         c.Risk.MaxFraction,
		StopMultiplier:      c.Risk.StopMultiplier,
		TakeProfitMultiples: append([]float64(nil), c.Risk.TakeProfitMultiples...),
		VolumeLow:           c.Risk.VolumeLow,
		VolumeHigh:          c.Risk.VolumeHigh,
		Window:              c.Risk.VolatilityWindow,
		Capital:             capital,
	}, nil
}

// DecisionConfig converts the decision section.
func (c Config) DecisionConfig() decision.Config {
	return decision.Config{
		ConfidenceFloor:         c.Decision.ConfidenceFloor,
		AccuracyFloor:           c.Decision.AccuracyFloor,
		BlackoutOverrideFloor:   c.Decision.BlackoutOverrideFloor,
		HighUrgencyConfidence:   c.Decision.HighUrgencyConfidence,
		MediumUrgencyConfidence: c.Decision.MediumUrgencyConfidence,
	}
}

// CalendarWindow converts the calendar bounds.
func (c Config) CalendarWindow() sources.CalendarWindow {
	return sources.CalendarWindow{
		Lookahead: c.Calendar.Lookahead,
		Before:    c.Calendar.BlackoutBefore,
		After:     c.Calendar.BlackoutAfter,
	}
}

// LLMConfig converts the sentiment section for the chat client.
func (c Config) LLMConfig() clients.LLMConfig {
	return clients.LLMConfig{
		APIURL:            c.Sentiment.APIURL,
		APIKey:            c.Secrets.LLMAPIKey,
		Model:             c.Sentiment.Model,
		RequestsPerMinute: c.Sentiment.RequestsPerMinute,
		MaxRetries:        c.Sentiment.MaxRetries,
	}
}
