package broker

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger records orders and fills of a broker in DuckDB.
type Ledger struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// LedgerSummary aggregates the transactions table.
type LedgerSummary struct {
	Transactions int
	TotalFees    decimal.Decimal
	RealizedPnL  decimal.Decimal
}

// NewLedger opens a ledger at path. An empty path keeps it in memory.
func NewLedger(path string, log *logger.Logger) (*Ledger, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open ledger database", err)
	}

	l := &Ledger{
		db:     db,
		logger: log.Named("ledger"),
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := l.Initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return l, nil
}

// Initialize creates the orders and transactions tables.
func (l *Ledger) Initialize() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			parent_id TEXT,
			asset TEXT,
			exchange TEXT,
			action TEXT,
			direction TEXT,
			order_type TEXT,
			size DOUBLE,
			status TEXT,
			reason TEXT,
			strategy_name TEXT,
			exchange_order_id TEXT,
			generated_at TIMESTAMP,
			filled_price DOUBLE,
			filled_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to create orders table", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			order_id TEXT,
			asset TEXT,
			exchange TEXT,
			action TEXT,
			direction TEXT,
			order_type TEXT,
			size DOUBLE,
			price DOUBLE,
			fee DOUBLE,
			tax DOUBLE,
			realized_pnl DOUBLE,
			timestamp TIMESTAMP,
			strategy_name TEXT,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to create transactions table", err)
	}

	return nil
}

// RecordOrder inserts or replaces the order row.
func (l *Ledger) RecordOrder(ctx context.Context, order types.Order) error {
	var filledAt any
	if !order.FilledAt.IsZero() {
		filledAt = order.FilledAt
	}

	_, err := l.sq.
		Insert("orders").
		Options("OR REPLACE").
		Columns(
			"order_id", "parent_id", "asset", "exchange", "action", "direction", "order_type", "size",
			"status", "reason", "strategy_name", "exchange_order_id", "generated_at", "filled_price", "filled_at",
		).
		Values(
			order.ID, order.ParentID, order.Asset.Symbol, order.Asset.Exchange, string(order.Action),
			string(order.Direction), string(order.Type), order.Size.InexactFloat64(), string(order.Status),
			order.Reason, order.StrategyName, order.ExchangeOrderID, order.GeneratedAt,
			order.FilledPrice.InexactFloat64(), filledAt,
		).
		RunWith(l.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorageWriteFailed, err, "failed to record order %s", order.ID)
	}

	return nil
}

// RecordTransaction appends a fill.
func (l *Ledger) RecordTransaction(ctx context.Context, tx types.Transaction) error {
	_, err := l.sq.
		Insert("transactions").
		Columns(
			"id", "order_id", "asset", "exchange", "action", "direction", "order_type", "size", "price",
			"fee", "tax", "realized_pnl", "timestamp", "strategy_name", "reason",
		).
		Values(
			tx.ID, tx.OrderID, tx.Asset.Symbol, tx.Asset.Exchange, string(tx.Action), string(tx.Direction),
			string(tx.OrderType), tx.Size.InexactFloat64(), tx.Price.InexactFloat64(), tx.Fee.InexactFloat64(),
			tx.Tax.InexactFloat64(), tx.RealizedPnL.InexactFloat64(), tx.Timestamp, tx.StrategyName, tx.Reason,
		).
		RunWith(l.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorageWriteFailed, err, "failed to record transaction %s", tx.ID)
	}

	return nil
}

// OrderStatus returns the recorded status of an order.
func (l *Ledger) OrderStatus(ctx context.Context, orderID string) (types.OrderStatus, error) {
	var status string

	err := l.sq.
		Select("status").
		From("orders").
		Where(squirrel.Eq{"order_id": orderID}).
		RunWith(l.db).
		QueryRowContext(ctx).
		Scan(&status)
	if err == sql.ErrNoRows {
		return "", errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to query order status", err)
	}

	return types.OrderStatus(status), nil
}

// Transactions returns the fills of a symbol in time order. An empty symbol returns all fills.
func (l *Ledger) Transactions(ctx context.Context, symbol string) ([]types.Transaction, error) {
	query := l.sq.
		Select("id", "order_id", "asset", "exchange", "action", "direction", "order_type", "size", "price",
			"fee", "tax", "realized_pnl", "timestamp", "strategy_name", "reason").
		From("transactions").
		OrderBy("timestamp", "id")

	if symbol != "" {
		query = query.Where(squirrel.Eq{"asset": symbol})
	}

	rows, err := query.RunWith(l.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query transactions", err)
	}
	defer rows.Close()

	var out []types.Transaction

	for rows.Next() {
		var (
			tx                              types.Transaction
			action, direction, orderType    string
			size, price, fee, tax, realized float64
			ts                              time.Time
		)

		if err := rows.Scan(&tx.ID, &tx.OrderID, &tx.Asset.Symbol, &tx.Asset.Exchange, &action, &direction,
			&orderType, &size, &price, &fee, &tax, &realized, &ts, &tx.StrategyName, &tx.Reason); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan transaction", err)
		}

		tx.Action = types.Action(action)
		tx.Direction = types.Direction(direction)
		tx.OrderType = types.OrderType(orderType)
		tx.Size = decimal.NewFromFloat(size)
		tx.Price = decimal.NewFromFloat(price)
		tx.Fee = decimal.NewFromFloat(fee)
		tx.Tax = decimal.NewFromFloat(tax)
		tx.RealizedPnL = decimal.NewFromFloat(realized)
		tx.Timestamp = ts.UTC()

		out = append(out, tx)
	}

	return out, rows.Err()
}

// Summary aggregates every recorded fill.
func (l *Ledger) Summary(ctx context.Context) (LedgerSummary, error) {
	var (
		count          int
		fees, realized float64
	)

	err := l.sq.
		Select("COUNT(*)", "COALESCE(SUM(fee + tax), 0)", "COALESCE(SUM(realized_pnl), 0)").
		From("transactions").
		RunWith(l.db).
		QueryRowContext(ctx).
		Scan(&count, &fees, &realized)
	if err != nil {
		return LedgerSummary{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to summarize transactions", err)
	}

	return LedgerSummary{
		Transactions: count,
		TotalFees:    decimal.NewFromFloat(fees),
		RealizedPnL:  decimal.NewFromFloat(realized),
	}, nil
}

func (l *Ledger) Close() error {
	if err := l.db.Close(); err != nil {
		l.logger.Warn("Failed to close ledger", zap.Error(err))

		return err
	}

	return nil
}
