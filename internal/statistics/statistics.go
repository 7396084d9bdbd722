package statistics

import (
	"math"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Statistics collects equity snapshots and fills during a run and summarizes them.
type Statistics interface {
	broker.Listener
	// Snapshot records the portfolio value at the end of a tick.
	Snapshot(ts time.Time, cash, equity decimal.Decimal)
	// TickErrored counts a tick that failed somewhere in the loop.
	TickErrored()
	Report() types.MetricsReport
	EquityCurve() []types.EquityPoint
	Transactions() []types.Transaction
}

type Tag string

const TagDefault Tag = "default"

// GetStatistics builds the statistics collector registered under tag.
func GetStatistics(tag Tag, initialEquity decimal.Decimal, log *logger.Logger) (Statistics, error) {
	switch tag {
	case TagDefault, "":
		return NewDefaultStatistics(initialEquity, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown statistics %q", tag)
	}
}

// DefaultStatistics keeps the whole equity curve in memory.
type DefaultStatistics struct {
	initial      float64
	curve        []types.EquityPoint
	transactions []types.Transaction
	errored      int
	mu           sync.Mutex
	logger       *logger.Logger
}

var _ Statistics = (*DefaultStatistics)(nil)

func NewDefaultStatistics(initialEquity decimal.Decimal, log *logger.Logger) *DefaultStatistics {
	return &DefaultStatistics{
		initial: initialEquity.InexactFloat64(),
		logger:  log.Named("statistics"),
	}
}

func (s *DefaultStatistics) OnTransaction(tx types.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, tx)
	s.logger.Debug("Transaction recorded",
		zap.String("order_id", tx.OrderID),
		zap.String("asset", tx.Asset.String()),
		zap.String("realized_pnl", tx.RealizedPnL.String()),
	)
}

func (s *DefaultStatistics) Snapshot(ts time.Time, cash, equity decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	point := types.EquityPoint{Timestamp: ts, Equity: finite(equity.InexactFloat64()), Cash: finite(cash.InexactFloat64())}

	// one point per timestamp; a later snapshot of the same tick wins
	if n := len(s.curve); n > 0 && s.curve[n-1].Timestamp.Equal(ts) {
		s.curve[n-1] = point

		return
	}

	s.curve = append(s.curve, point)
}

func (s *DefaultStatistics) TickErrored() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errored++
}

func (s *DefaultStatistics) EquityCurve() []types.EquityPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]types.EquityPoint(nil), s.curve...)
}

func (s *DefaultStatistics) Transactions() []types.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]types.Transaction(nil), s.transactions...)
}

func (s *DefaultStatistics) Report() types.MetricsReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := types.MetricsReport{
		InitialEquity:  s.initial,
		FinalEquity:    s.initial,
		FinalCash:      s.initial,
		NumberOfTrades: len(s.transactions),
		Ticks:          len(s.curve),
		ErroredTicks:   s.errored,
	}

	if n := len(s.curve); n > 0 {
		report.Start = s.curve[0].Timestamp
		report.End = s.curve[n-1].Timestamp
		report.FinalEquity = s.curve[n-1].Equity
		report.FinalCash = s.curve[n-1].Cash
	}

	if s.initial != 0 {
		report.TotalReturn = report.FinalEquity/s.initial - 1
	}

	report.MaxDrawdown = maxDrawdown(s.initial, s.curve)
	report.SharpeRatio = sharpe(s.initial, s.curve)

	fees := decimal.Zero
	realized := decimal.Zero

	for _, tx := range s.transactions {
		fees = fees.Add(tx.Fee).Add(tx.Tax)
		realized = realized.Add(tx.RealizedPnL)

		switch tx.RealizedPnL.Sign() {
		case 1:
			report.WinningTrades++
		case -1:
			report.LosingTrades++
		}
	}

	if closed := report.WinningTrades + report.LosingTrades; closed > 0 {
		report.WinRate = float64(report.WinningTrades) / float64(closed)
	}

	report.TotalFees = fees.InexactFloat64()
	report.RealizedPnL = realized.InexactFloat64()

	return report
}

// maxDrawdown is the largest peak-to-trough fall as a fraction of the peak.
func maxDrawdown(initial float64, curve []types.EquityPoint) float64 {
	peak := initial
	worst := 0.0

	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}

		if peak <= 0 {
			continue
		}

		if dd := (peak - p.Equity) / peak; dd > worst {
			worst = dd
		}
	}

	return worst
}

// sharpe is the mean over the standard deviation of per-tick returns, with a zero risk-free rate.
func sharpe(initial float64, curve []types.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve))
	prev := initial

	for _, p := range curve {
		if prev != 0 {
			returns = append(returns, p.Equity/prev-1)
		}

		prev = p.Equity
	}

	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	return finite(mean / std)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}
