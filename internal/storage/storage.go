package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

// CandleStore persists candles as points tagged by asset, exchange and time unit.
type CandleStore interface {
	// Initialize creates the candle table when it does not exist yet.
	Initialize() error
	// WriteCandles upserts the candles in one transaction.
	WriteCandles(ctx context.Context, candles []types.Candle) error
	// Read returns the candles of asset with start <= time <= end in time order.
	Read(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error)
	// Count returns the number of stored candles of asset.
	Count(ctx context.Context, asset types.Asset) (int, error)
	// ExportParquet writes the whole table to a parquet file.
	ExportParquet(path string) error
	Close() error
}

type DuckDBCandleStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewCandleStore opens a DuckDB database at path. An empty path or ":memory:" keeps
// the store in memory.
func NewCandleStore(path string, log *logger.Logger) (CandleStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open candle store", err)
	}

	store := &DuckDBCandleStore{
		db:     db,
		logger: log.Named("storage"),
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.Initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

// Initialize implements CandleStore.
func (s *DuckDBCandleStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS candle (
			asset TEXT NOT NULL,
			exchange TEXT NOT NULL,
			time_unit BIGINT NOT NULL,
			time TIMESTAMP NOT NULL,
			open DOUBLE NOT NULL,
			high DOUBLE NOT NULL,
			low DOUBLE NOT NULL,
			close DOUBLE NOT NULL,
			volume DOUBLE NOT NULL,
			PRIMARY KEY (asset, exchange, time_unit, time)
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to create candle table", err)
	}

	return nil
}

// WriteCandles implements CandleStore.
func (s *DuckDBCandleStore) WriteCandles(ctx context.Context, candles []types.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to begin transaction", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range candles {
		_, err = s.sq.
			Insert("candle").
			Options("OR REPLACE").
			Columns("asset", "exchange", "time_unit", "time", "open", "high", "low", "close", "volume").
			Values(c.Asset.Symbol, c.Asset.Exchange, int64(c.Asset.TimeUnit/time.Second), c.Timestamp.UTC(),
				c.Open, c.High, c.Low, c.Close, c.Volume).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStorageWriteFailed, err, "failed to write %s candle at %s", c.Asset, c.Timestamp)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to commit candles", err)
	}

	s.logger.Debug("Wrote candles", zap.Int("count", len(candles)))

	return nil
}

// Read implements CandleStore.
func (s *DuckDBCandleStore) Read(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	query := s.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("candle").
		Where(s.assetFilter(asset)).
		OrderBy("time ASC")

	if !start.IsZero() {
		query = query.Where(squirrel.GtOrEq{"time": start.UTC()})
	}

	if !end.IsZero() {
		query = query.Where(squirrel.LtOrEq{"time": end.UTC()})
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s candles", asset)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		c := types.Candle{Asset: asset}
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
		}

		c.Timestamp = c.Timestamp.UTC()
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate candles", err)
	}

	return candles, nil
}

// Count implements CandleStore.
func (s *DuckDBCandleStore) Count(ctx context.Context, asset types.Asset) (int, error) {
	var count int

	err := s.sq.
		Select("COUNT(*)").
		From("candle").
		Where(s.assetFilter(asset)).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s candles", asset)
	}

	return count, nil
}

// ExportParquet implements CandleStore.
func (s *DuckDBCandleStore) ExportParquet(path string) error {
	// squirrel has no COPY support
	_, err := s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM candle ORDER BY asset, exchange, time_unit, time) TO '%s' (FORMAT PARQUET)`, path))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to export candles to parquet", err)
	}

	return nil
}

// Close implements CandleStore.
func (s *DuckDBCandleStore) Close() error {
	return s.db.Close()
}

func (s *DuckDBCandleStore) assetFilter(asset types.Asset) squirrel.Eq {
	return squirrel.Eq{
		"asset":     asset.Symbol,
		"exchange":  asset.Exchange,
		"time_unit": int64(asset.TimeUnit / time.Second),
	}
}
