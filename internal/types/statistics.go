package types

import "time"

// MetricsReport summarizes a run. All fields are plain numbers so any renderer can consume it.
type MetricsReport struct {
	Start          time.Time `yaml:"start" json:"start"`
	End            time.Time `yaml:"end" json:"end"`
	InitialEquity  float64   `yaml:"initial_equity" json:"initial_equity"`
	FinalEquity    float64   `yaml:"final_equity" json:"final_equity"`
	FinalCash      float64   `yaml:"final_cash" json:"final_cash"`
	TotalReturn    float64   `yaml:"total_return" json:"total_return"`
	MaxDrawdown    float64   `yaml:"max_drawdown" json:"max_drawdown"`
	SharpeRatio    float64   `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	NumberOfTrades int       `yaml:"number_of_trades" json:"number_of_trades"`
	WinningTrades  int       `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades   int       `yaml:"losing_trades" json:"losing_trades"`
	WinRate        float64   `yaml:"win_rate" json:"win_rate"`
	TotalFees      float64   `yaml:"total_fees" json:"total_fees"`
	RealizedPnL    float64   `yaml:"realized_pnl" json:"realized_pnl"`
	Ticks          int       `yaml:"ticks" json:"ticks"`
	ErroredTicks   int       `yaml:"errored_ticks" json:"errored_ticks"`
}
