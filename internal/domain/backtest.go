package domain

// BacktestStats historical performance of a named strategy.
type BacktestStats struct {
	Strategy     string  `json:"strategy" yaml:"strategy"`
	WinRate      float64 `json:"win_rate" yaml:"win_rate"` // fraction, 0.65 = 65%
	ProfitFactor float64 `json:"profit_factor" yaml:"profit_factor"`
	Trades       int     `json:"trades" yaml:"trades"`
}
