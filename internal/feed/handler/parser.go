package handler

import (
	"bytes"
	"sort"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// ResponseParser decodes a candle response body. Candles come back sorted ascending.
type ResponseParser interface {
	Parse(asset types.Asset, body []byte) ([]types.Candle, error)
}

// BinanceParser decodes [[openMs, "open", "high", "low", "close", "volume", ...], ...].
type BinanceParser struct{}

// Parse implements ResponseParser.
func (BinanceParser) Parse(asset types.Asset, body []byte) ([]types.Candle, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		msg, _ := jsonparser.GetString(body, "msg")
		code, _ := jsonparser.GetInt(body, "code")

		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "binance error %d: %s", code, msg)
	}

	var (
		candles []types.Candle
		rowErr  error
	)

	_, err := jsonparser.ArrayEach(body, func(row []byte, _ jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}

		openMs, err := jsonparser.GetInt(row, "[0]")
		if err != nil {
			rowErr = err

			return
		}

		values, err := floatColumns(row, 1, 5)
		if err != nil {
			rowErr = err

			return
		}

		candles = append(candles, types.Candle{
			Asset:     asset,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
			Timestamp: time.UnixMilli(openMs).UTC(),
		})
	})
	if err == nil {
		err = rowErr
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to parse binance klines", err)
	}

	return candles, nil
}

// KucoinParser decodes {code, data: [[ts, open, close, high, low, volume, turnover], ...]}
// where data is newest first and every column is a string.
type KucoinParser struct{}

// Parse implements ResponseParser.
func (KucoinParser) Parse(asset types.Asset, body []byte) ([]types.Candle, error) {
	code, err := jsonparser.GetString(body, "code")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "kucoin response has no code", err)
	}

	if code != "200000" {
		msg, _ := jsonparser.GetString(body, "msg")

		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "kucoin error %s: %s", code, msg)
	}

	var (
		candles []types.Candle
		rowErr  error
	)

	_, err = jsonparser.ArrayEach(body, func(row []byte, _ jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}

		values, err := floatColumns(row, 0, 6)
		if err != nil {
			rowErr = err

			return
		}

		candles = append(candles, types.Candle{
			Asset:     asset,
			Open:      values[1],
			Close:     values[2],
			High:      values[3],
			Low:       values[4],
			Volume:    values[5],
			Timestamp: time.Unix(int64(values[0]), 0).UTC(),
		})
	}, "data")
	if err == nil {
		err = rowErr
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to parse kucoin candles", err)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	return candles, nil
}

// TiingoParser decodes [{ticker, priceData: [{date, open, high, low, close, volume}, ...]}].
type TiingoParser struct{}

// Parse implements ResponseParser.
func (TiingoParser) Parse(asset types.Asset, body []byte) ([]types.Candle, error) {
	var (
		candles []types.Candle
		rowErr  error
	)

	_, err := jsonparser.ArrayEach(body, func(row []byte, _ jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}

		date, err := jsonparser.GetString(row, "date")
		if err != nil {
			rowErr = err

			return
		}

		ts, err := time.Parse(time.RFC3339, date)
		if err != nil {
			rowErr = err

			return
		}

		c := types.Candle{Asset: asset, Timestamp: ts.UTC()}
		for _, field := range []struct {
			key string
			dst *float64
		}{
			{"open", &c.Open}, {"high", &c.High}, {"low", &c.Low}, {"close", &c.Close}, {"volume", &c.Volume},
		} {
			if *field.dst, err = jsonparser.GetFloat(row, field.key); err != nil {
				rowErr = err

				return
			}
		}

		candles = append(candles, c)
	}, "[0]", "priceData")
	if err == nil {
		err = rowErr
	}

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to parse tiingo prices", err)
	}

	return candles, nil
}

// floatColumns reads the string or number columns [from, from+n) of a JSON array row.
func floatColumns(row []byte, from, n int) ([]float64, error) {
	out := make([]float64, n)

	for i := 0; i < n; i++ {
		raw, _, _, err := jsonparser.Get(row, "["+strconv.Itoa(from+i)+"]")
		if err != nil {
			return nil, err
		}

		if out[i], err = strconv.ParseFloat(string(raw), 64); err != nil {
			return nil, err
		}
	}

	return out, nil
}
