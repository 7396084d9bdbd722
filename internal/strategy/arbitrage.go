package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

type ArbitrageConfig struct {
	// MarginFactor scales the round-trip fee the spread has to beat.
	MarginFactor float64 `yaml:"margin_factor" json:"margin_factor" jsonschema:"title=Margin factor,default=1" validate:"gt=0"`
	// FeePct is the fee charged per leg, as a fraction of the leg price.
	FeePct float64 `yaml:"fee_pct" json:"fee_pct" jsonschema:"title=Fee per leg,default=0.001" validate:"gte=0,lt=1"`
}

func ArbitrageDefinition() Definition {
	return Definition{
		Tag:               "arbitrage",
		Description:       "Buys the cheaper and sells the pricier listing of a symbol when the spread beats the fees",
		Config:            ArbitrageConfig{},
		DefaultParameters: Parameters{"margin_factor": 1.0, "fee_pct": 0.001},
		ParameterSpace: map[string][]any{
			"margin_factor": {1.0, 1.5, 2.0},
		},
		New: NewArbitrage,
	}
}

// Arbitrage compares listings of the same symbol on different exchanges. When the
// close of one exceeds the other by more than
// margin_factor * (buy_price*fee_pct + sell_price*fee_pct) it emits one pair signal:
// BUY LONG on the cheaper exchange and SELL SHORT on the pricier. A pair counts as open
// once both legs were placed, and is unwound once the spread closes.
type Arbitrage struct {
	Base
	config ArbitrageConfig
	// open holds the legs of pairs not yet unwound, by symbol.
	open map[string]types.ArbitragePairSignal
}

var (
	_ MultiAssetStrategy = (*Arbitrage)(nil)
	_ OrderListener      = (*Arbitrage)(nil)
	_ EmissionListener   = (*Arbitrage)(nil)
)

func NewArbitrage(name string, assets []types.Asset, params Parameters, env Environment) (Strategy, error) {
	var config ArbitrageConfig
	if err := params.Decode(&config); err != nil {
		return nil, err
	}

	return &Arbitrage{
		Base:   NewBase(name, assets, env),
		config: config,
		open:   make(map[string]types.ArbitragePairSignal),
	}, nil
}

func (a *Arbitrage) CurrentAll(candles []types.Candle) error {
	bySymbol := make(map[string][]types.Candle)
	var symbols []string

	for _, c := range candles {
		symbol := c.Asset.PlainSymbol()
		if _, seen := bySymbol[symbol]; !seen {
			symbols = append(symbols, symbol)
		}

		bySymbol[symbol] = append(bySymbol[symbol], c)
	}

	for _, symbol := range symbols {
		listings := bySymbol[symbol]
		if len(listings) < 2 {
			continue
		}

		cheap, rich := listings[0], listings[0]
		for _, c := range listings[1:] {
			if c.Close < cheap.Close {
				cheap = c
			}

			if c.Close > rich.Close {
				rich = c
			}
		}

		if pair, ok := a.open[symbol]; ok {
			a.unwind(symbol, pair, listings)

			continue
		}

		threshold := a.config.MarginFactor * (cheap.Close*a.config.FeePct + rich.Close*a.config.FeePct)
		if rich.Close-cheap.Close <= threshold {
			continue
		}

		pair := types.NewArbitragePairSignal(
			types.NewSignal(a.Name(), cheap, types.ActionBuy, types.DirectionLong),
			types.NewSignal(a.Name(), rich, types.ActionSell, types.DirectionShort),
		)

		a.AddPairSignal(pair)
		a.Notifier().Notify(Note{
			Strategy:  a.Name(),
			Asset:     cheap.Asset,
			Timestamp: cheap.Timestamp,
			Message:   fmt.Sprintf("spread %.6f over %s beats threshold %.6f", rich.Close-cheap.Close, rich.Asset.Exchange, threshold),
		})
	}

	return nil
}

// unwind closes both legs once the bought listing is no longer cheaper than the sold one.
func (a *Arbitrage) unwind(symbol string, pair types.ArbitragePairSignal, listings []types.Candle) {
	var bought, sold types.Candle
	var haveBought, haveSold bool

	for _, c := range listings {
		switch c.Asset {
		case pair.Buy.Asset:
			bought, haveBought = c, true
		case pair.Sell.Asset:
			sold, haveSold = c, true
		}
	}

	if !haveBought || !haveSold || bought.Close < sold.Close {
		return
	}

	a.AddSignal(types.NewSignal(a.Name(), bought, types.ActionSell, types.DirectionLong))
	a.AddSignal(types.NewSignal(a.Name(), sold, types.ActionBuy, types.DirectionShort))
	delete(a.open, symbol)
}

// OnOrderRejected drops the pair a rejected leg belonged to so it can be re-entered.
func (a *Arbitrage) OnOrderRejected(order types.Order) {
	for symbol, pair := range a.open {
		if order.SignalID == pair.Buy.ID || order.SignalID == pair.Sell.ID {
			delete(a.open, symbol)
		}
	}
}

// OnEmissionProcessed opens the pair once both of its legs were placed.
func (a *Arbitrage) OnEmissionProcessed(emission types.Emission, orders []types.Order) {
	pair, ok := emission.(types.ArbitragePairSignal)
	if !ok || len(orders) != len(pair.Legs()) {
		return
	}

	a.open[pair.Buy.Asset.PlainSymbol()] = pair
}
