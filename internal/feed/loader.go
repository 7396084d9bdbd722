package feed

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-quant/internal/storage"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// csvRow is one line of a candle file with header date,open,high,low,close,volume.
type csvRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// CSVLoader reads one CSV file per asset.
type CSVLoader struct {
	files map[types.Asset]string
}

// NewCSVLoader maps every asset to its candle file.
func NewCSVLoader(files map[types.Asset]string) *CSVLoader {
	return &CSVLoader{files: files}
}

// Load implements Loader.
func (l *CSVLoader) Load(_ context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	path, ok := l.files[asset]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no csv file configured for %s", asset)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	candles, err := ReadCSV(file, asset)
	if err != nil {
		return nil, err
	}

	return clip(candles, start, end), nil
}

// ReadCSV parses candles of asset from r. Rows must be sorted ascending by date.
func ReadCSV(r io.Reader, asset types.Asset) ([]types.Candle, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to parse candle csv", err)
	}

	candles := make([]types.Candle, 0, len(rows))

	for i, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.Date)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "row %d has invalid date %q", i+1, row.Date)
		}

		ts = ts.UTC()
		if len(candles) > 0 && !ts.After(candles[len(candles)-1].Timestamp) {
			return nil, errors.Newf(errors.ErrCodeOutOfOrderCandle, "row %d at %s is not sorted ascending", i+1, row.Date)
		}

		candles = append(candles, types.Candle{
			Asset:     asset,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
			Timestamp: ts,
		})
	}

	return candles, nil
}

// WriteCSV writes candles with the header read by ReadCSV.
func WriteCSV(w io.Writer, candles []types.Candle) error {
	rows := make([]*csvRow, len(candles))
	for i, c := range candles {
		rows[i] = &csvRow{
			Date:   c.Timestamp.UTC().Format(time.RFC3339),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}

	return gocsv.Marshal(rows, w)
}

// StorageLoader reads candles from the DuckDB candle store.
type StorageLoader struct {
	store storage.CandleStore
}

func NewStorageLoader(store storage.CandleStore) *StorageLoader {
	return &StorageLoader{store: store}
}

// Load implements Loader.
func (l *StorageLoader) Load(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	candles, err := l.store.Read(ctx, asset, start, end)
	if err != nil {
		return nil, err
	}

	if len(candles) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no stored candles for %s", asset)
	}

	return candles, nil
}

func clip(candles []types.Candle, start, end time.Time) []types.Candle {
	out := candles[:0:0]

	for _, c := range candles {
		if !start.IsZero() && c.Timestamp.Before(start) {
			continue
		}

		if !end.IsZero() && c.Timestamp.After(end) {
			continue
		}

		out = append(out, c)
	}

	return out
}
