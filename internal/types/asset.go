package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// knownQuotes is used to split concatenated symbols such as XRPEUR.
// Longer suffixes first so USDT wins over USD.
var knownQuotes = []string{"USDT", "USDC", "BUSD", "TUSD", "EUR", "USD", "GBP", "BTC", "ETH", "BNB"}

// Asset identifies a tradeable instrument on one exchange at one candle resolution.
// Two assets are equal iff symbol, exchange and time unit all match, so Asset can be
// used directly as a map key.
type Asset struct {
	Symbol   string        `yaml:"symbol" json:"symbol" validate:"required"`
	Exchange string        `yaml:"exchange" json:"exchange" validate:"required"`
	TimeUnit time.Duration `yaml:"time_unit" json:"time_unit" validate:"required"`
}

// NewAsset creates an asset with the exchange name upper-cased.
func NewAsset(symbol, exchange string, timeUnit time.Duration) Asset {
	return Asset{Symbol: symbol, Exchange: strings.ToUpper(exchange), TimeUnit: timeUnit}
}

// ParseAsset parses the SYMBOL@EXCHANGE notation.
func ParseAsset(s string, timeUnit time.Duration) (Asset, error) {
	symbol, exchange, ok := strings.Cut(s, "@")
	if !ok {
		return Asset{}, errors.Newf(errors.ErrCodeInvalidAsset, "asset %q must be SYMBOL@EXCHANGE", s)
	}

	asset := NewAsset(symbol, exchange, timeUnit)
	if err := asset.Validate(); err != nil {
		return Asset{}, err
	}

	return asset, nil
}

// String returns SYMBOL@EXCHANGE.
func (a Asset) String() string {
	return a.Symbol + "@" + a.Exchange
}

// Key returns a string unique for the full identity triple.
func (a Asset) Key() string {
	return fmt.Sprintf("%s@%s/%s", a.Symbol, a.Exchange, a.TimeUnit)
}

// Base returns the base currency (XRP for XRP/USDT or XRPUSDT).
func (a Asset) Base() string {
	base, _ := a.split()

	return base
}

// Quote returns the quote currency (USDT for XRP/USDT or XRPUSDT).
func (a Asset) Quote() string {
	_, quote := a.split()

	return quote
}

// PlainSymbol returns the symbol without separators (XRPUSDT).
func (a Asset) PlainSymbol() string {
	return strings.NewReplacer("/", "", "-", "").Replace(a.Symbol)
}

func (a Asset) split() (string, string) {
	for _, sep := range []string{"/", "-"} {
		if base, quote, ok := strings.Cut(a.Symbol, sep); ok {
			return base, quote
		}
	}

	upper := strings.ToUpper(a.Symbol)
	for _, quote := range knownQuotes {
		if len(upper) > len(quote) && strings.HasSuffix(upper, quote) {
			return a.Symbol[:len(a.Symbol)-len(quote)], a.Symbol[len(a.Symbol)-len(quote):]
		}
	}

	return a.Symbol, ""
}

// Validate rejects empty names and time units that are not whole minutes.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return errors.New(errors.ErrCodeInvalidAsset, "asset symbol is empty")
	}

	if strings.TrimSpace(a.Exchange) == "" {
		return errors.Newf(errors.ErrCodeInvalidAsset, "asset %s has no exchange", a.Symbol)
	}

	if a.TimeUnit < time.Minute || a.TimeUnit%time.Minute != 0 {
		return errors.Newf(errors.ErrCodeInvalidTimeUnit, "asset %s has invalid time unit %s", a, a.TimeUnit)
	}

	return nil
}
