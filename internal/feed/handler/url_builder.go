package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// URLBuilder builds the candle request of one asset over [start, end].
type URLBuilder interface {
	Build(asset types.Asset, start, end time.Time) (string, error)
	// MaxCandles is the largest number of candles one response may hold.
	MaxCandles() int
}

// DayPeriod expands two dates to [start 00:00:00, end 23:59:59] in UTC.
func DayPeriod(start, end time.Time) (time.Time, time.Time) {
	s := start.UTC()
	e := end.UTC()

	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, time.UTC)
}

type BinanceURLBuilder struct {
	BaseURL string
	Limit   int
}

func NewBinanceURLBuilder() *BinanceURLBuilder {
	return &BinanceURLBuilder{BaseURL: "https://api.binance.com", Limit: 1000}
}

// Build implements URLBuilder.
func (b *BinanceURLBuilder) Build(asset types.Asset, start, end time.Time) (string, error) {
	interval, err := BinanceInterval(asset.TimeUnit)
	if err != nil {
		return "", err
	}

	// parameter order is fixed, url.Values would sort it
	return fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
		b.BaseURL, strings.ToUpper(asset.PlainSymbol()), interval, start.UnixMilli(), end.UnixMilli(), b.Limit), nil
}

// MaxCandles implements URLBuilder.
func (b *BinanceURLBuilder) MaxCandles() int {
	return b.Limit
}

type KucoinURLBuilder struct {
	BaseURL string
}

func NewKucoinURLBuilder() *KucoinURLBuilder {
	return &KucoinURLBuilder{BaseURL: "https://api.kucoin.com"}
}

// Build implements URLBuilder.
func (b *KucoinURLBuilder) Build(asset types.Asset, start, end time.Time) (string, error) {
	interval, err := kucoinInterval(asset.TimeUnit)
	if err != nil {
		return "", err
	}

	base, quote := asset.Base(), asset.Quote()
	if quote == "" {
		return "", errors.Newf(errors.ErrCodeInvalidAsset, "cannot split %s into base and quote", asset.Symbol)
	}

	return fmt.Sprintf("%s/api/v1/market/candles?symbol=%s-%s&type=%s&startAt=%d&endAt=%d",
		b.BaseURL, strings.ToUpper(base), strings.ToUpper(quote), interval, start.Unix(), end.Unix()), nil
}

// MaxCandles implements URLBuilder.
func (b *KucoinURLBuilder) MaxCandles() int {
	return 1500
}

type TiingoURLBuilder struct {
	BaseURL string
	Token   string
}

func NewTiingoURLBuilder(token string) *TiingoURLBuilder {
	return &TiingoURLBuilder{BaseURL: "https://api.tiingo.com", Token: token}
}

// Build implements URLBuilder. Tiingo takes whole days.
func (b *TiingoURLBuilder) Build(asset types.Asset, start, end time.Time) (string, error) {
	freq, err := tiingoFrequency(asset.TimeUnit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/tiingo/crypto/prices?tickers=%s%s&startDate=%s&endDate=%s&resampleFreq=%s&token=%s",
		b.BaseURL, strings.ToLower(asset.Base()), strings.ToLower(asset.Quote()),
		start.UTC().Format(time.DateOnly), end.UTC().Format(time.DateOnly), freq, b.Token), nil
}

// MaxCandles implements URLBuilder.
func (b *TiingoURLBuilder) MaxCandles() int {
	return 5000
}

// BinanceInterval maps a time unit to a kline interval name.
func BinanceInterval(unit time.Duration) (string, error) {
	switch unit {
	case time.Minute:
		return "1m", nil
	case 3 * time.Minute:
		return "3m", nil
	case 5 * time.Minute:
		return "5m", nil
	case 15 * time.Minute:
		return "15m", nil
	case 30 * time.Minute:
		return "30m", nil
	case time.Hour:
		return "1h", nil
	case 2 * time.Hour:
		return "2h", nil
	case 4 * time.Hour:
		return "4h", nil
	case 6 * time.Hour:
		return "6h", nil
	case 8 * time.Hour:
		return "8h", nil
	case 12 * time.Hour:
		return "12h", nil
	case 24 * time.Hour:
		return "1d", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimeUnit, "binance has no %s interval", unit)
	}
}

func kucoinInterval(unit time.Duration) (string, error) {
	switch unit {
	case time.Minute, 3 * time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute:
		return fmt.Sprintf("%dmin", int(unit/time.Minute)), nil
	case time.Hour, 2 * time.Hour, 4 * time.Hour, 6 * time.Hour, 8 * time.Hour, 12 * time.Hour:
		return fmt.Sprintf("%dhour", int(unit/time.Hour)), nil
	case 24 * time.Hour:
		return "1day", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimeUnit, "kucoin has no %s interval", unit)
	}
}

func tiingoFrequency(unit time.Duration) (string, error) {
	switch {
	case unit >= time.Minute && unit < time.Hour && unit%time.Minute == 0:
		return fmt.Sprintf("%dmin", int(unit/time.Minute)), nil
	case unit >= time.Hour && unit < 24*time.Hour && unit%time.Hour == 0:
		return fmt.Sprintf("%dhour", int(unit/time.Hour)), nil
	case unit == 24*time.Hour:
		return "1day", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimeUnit, "tiingo cannot resample to %s", unit)
	}
}
