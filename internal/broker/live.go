package broker

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/retry"
	tradingprovider "github.com/rxtech-lab/argo-quant/internal/trading/provider"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/internal/utils"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPollPeriod is the refresh period of prices, balances and trades.
const DefaultPollPeriod = 10 * time.Second

// LiveConfig configures an exchange-backed broker.
type LiveConfig struct {
	// QuoteCurrency is the balance used as cash, e.g. USDT.
	QuoteCurrency      string        `yaml:"quote_currency" json:"quote_currency" validate:"required"`
	PricePeriod        time.Duration `yaml:"price_period" json:"price_period"`
	BalancesPeriod     time.Duration `yaml:"balances_period" json:"balances_period"`
	TransactionsPeriod time.Duration `yaml:"transactions_period" json:"transactions_period"`
	LotSizeTTL         time.Duration `yaml:"lot_size_ttl" json:"lot_size_ttl"`
	SymbolInfoTTL      time.Duration `yaml:"symbol_info_ttl" json:"symbol_info_ttl"`
	// Retry applies to reads only. Submissions are never retried.
	Retry retry.Policy `yaml:"retry" json:"retry"`
	// CancelOnShutdown cancels outstanding exchange orders on Close.
	CancelOnShutdown bool `yaml:"cancel_on_shutdown" json:"cancel_on_shutdown"`
}

func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		QuoteCurrency:      "USDT",
		PricePeriod:        DefaultPollPeriod,
		BalancesPeriod:     DefaultPollPeriod,
		TransactionsPeriod: DefaultPollPeriod,
		LotSizeTTL:         DefaultLotSizeTTL,
		SymbolInfoTTL:      DefaultSymbolInfoTTL,
		Retry:              retry.DefaultPolicy(),
	}
}

// LiveBroker mirrors the state of an exchange account.
//
// MARKET, LIMIT and TARGET orders and bracket entries are placed on the exchange.
// STOP orders and bracket exits are held locally and sent as market orders once the
// polled price crosses them. Fills are booked from the exchange trade history.
type LiveBroker struct {
	*book
	connector tradingprovider.Connector
	config    LiveConfig
	markets   *MarketCache
	now       func() time.Time

	lastPrices   time.Time
	lastBalances time.Time
	lastTrades   time.Time

	// byExchangeID maps exchange order ids to local ids.
	byExchangeID map[string]string
	// executed accumulates fills of remote orders: size and notional.
	executed     map[string]execution
	seenTrades   map[string]struct{}
	tradesCursor map[string]time.Time
}

type execution struct {
	size     decimal.Decimal
	notional decimal.Decimal
	last     time.Time
}

var _ Broker = (*LiveBroker)(nil)

// LiveOption configures a LiveBroker.
type LiveOption func(*LiveBroker)

// WithClock replaces the wall clock used for poll periods.
func WithClock(now func() time.Time) LiveOption {
	return func(b *LiveBroker) {
		b.now = now
	}
}

// WithLedger records orders and fills in a ledger. The broker closes it on Close.
func WithLedger(ledger *Ledger) LiveOption {
	return func(b *LiveBroker) {
		b.ledger = ledger
	}
}

func NewLiveBroker(connector tradingprovider.Connector, fee commission_fee.FeeModel, config LiveConfig, log *logger.Logger, opts ...LiveOption) (*LiveBroker, error) {
	if config.QuoteCurrency == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "live broker needs a quote currency")
	}

	markets, err := NewMarketCache(config.LotSizeTTL, config.SymbolInfoTTL)
	if err != nil {
		return nil, err
	}

	name := connector.Name()
	b := &LiveBroker{
		book:         newBook(name, decimal.Zero, fee, nil, log.Named("live_broker").With(zap.String("exchange", name))),
		connector:    connector,
		config:       config,
		markets:      markets,
		now:          time.Now,
		byExchangeID: make(map[string]string),
		executed:     make(map[string]execution),
		seenTrades:   make(map[string]struct{}),
		tradesCursor: make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Initialize loads the account balance and the metadata of the traded symbols.
func (b *LiveBroker) Initialize(ctx context.Context, assets []types.Asset) error {
	symbols := make([]string, 0, len(assets))
	for _, a := range assets {
		symbols = append(symbols, exchangeSymbol(a))
	}

	if err := b.refreshMarkets(ctx, symbols); err != nil {
		return err
	}

	if err := b.syncBalances(ctx); err != nil {
		return err
	}

	start := b.now().UTC()
	for _, s := range symbols {
		b.tradesCursor[s] = start
	}

	return nil
}

// Submit implements Broker. The exchange call is made once; a failure rejects the order.
func (b *LiveBroker) Submit(ctx context.Context, order types.Order) (types.Order, error) {
	o, err := b.register(ctx, order)
	if err != nil {
		return order, err
	}

	switch o.Type {
	case types.OrderTypeStop:
		b.logger.Info("Holding stop order locally", zap.String("order_id", o.ID), zap.String("stop", o.StopPrice.Unwrap().String()))

		return *o, nil
	case types.OrderTypeBracket:
		remoteType := types.OrderTypeMarket
		if o.LimitPrice.IsSome() {
			remoteType = types.OrderTypeLimit
		}

		err = b.place(ctx, o, remoteType, o.Size)
	default:
		err = b.place(ctx, o, o.Type, o.Size)
	}

	b.compact()

	return *o, err
}

// place sends o to the exchange as remoteType. The size is rounded down to the lot step.
func (b *LiveBroker) place(ctx context.Context, o *types.Order, remoteType types.OrderType, size decimal.Decimal) error {
	symbol := exchangeSymbol(o.Asset)

	lot, err := b.lotSize(ctx, symbol)
	if err != nil {
		b.reject(ctx, o, types.OrderReasonExchange)

		return errors.Wrapf(errors.ErrCodeOrderRejected, err, "no lot size for %s", symbol)
	}

	size = utils.RoundDownToStep(size, lot.Step)
	if lot.MaxQty.IsPositive() && size.GreaterThan(lot.MaxQty) {
		size = utils.RoundDownToStep(lot.MaxQty, lot.Step)
	}

	if !size.IsPositive() || size.LessThan(lot.MinQty) {
		b.reject(ctx, o, types.OrderReasonExchange)

		return errors.Newf(errors.ErrCodeOrderRejected, "order %s size %s is below the %s lot minimum %s", o.ID, size, symbol, lot.MinQty)
	}

	req := tradingprovider.OrderRequest{
		Symbol:   symbol,
		Action:   o.Action,
		Type:     remoteType,
		Amount:   size,
		Price:    o.LimitPrice,
		ClientID: o.ID,
	}
	if remoteType == types.OrderTypeMarket {
		req.Price = optional.None[decimal.Decimal]()
	}

	remote, err := b.connector.CreateOrder(ctx, req)
	if err != nil {
		b.reject(ctx, o, types.OrderReasonExchange)

		return errors.Wrapf(errors.ErrCodeOrderRejected, err, "exchange rejected order %s", o.ID)
	}

	o.Size = size
	o.ExchangeOrderID = remote.ID
	b.byExchangeID[remote.ID] = o.ID
	b.recordOrder(ctx, o)

	b.logger.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("exchange_order_id", remote.ID),
		zap.String("symbol", symbol),
		zap.String("action", string(o.Action)),
		zap.String("type", string(remoteType)),
		zap.String("size", size.String()),
	)

	return nil
}

// Cancel implements Broker.
func (b *LiveBroker) Cancel(ctx context.Context, orderID string, reason string) error {
	o, ok := b.orders[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	if o.ExchangeOrderID != "" && !o.IsTerminal() {
		if err := b.connector.CancelOrder(ctx, exchangeSymbol(o.Asset), o.ExchangeOrderID); err != nil {
			return err
		}
	}

	if err := b.cancel(ctx, orderID, reason); err != nil {
		return err
	}

	b.compact()

	return nil
}

// Settle implements Broker. It polls whatever is due, triggers local orders against
// the latest prices and books new exchange trades.
func (b *LiveBroker) Settle(ctx context.Context, candles []types.Candle) ([]types.Transaction, error) {
	for _, c := range candles {
		b.marks[c.Asset] = decimal.NewFromFloat(c.Close)
	}

	now := b.now()

	if due(b.lastPrices, b.config.PricePeriod, now) {
		if err := b.syncPrices(ctx); err != nil {
			return nil, err
		}

		b.lastPrices = now
	}

	b.triggerLocal(ctx)

	var txs []types.Transaction

	if due(b.lastTrades, b.config.TransactionsPeriod, now) {
		booked, err := b.syncTrades(ctx)
		if err != nil {
			return nil, err
		}

		txs = booked
		b.lastTrades = now
	}

	if due(b.lastBalances, b.config.BalancesPeriod, now) {
		if err := b.syncBalances(ctx); err != nil {
			return txs, err
		}

		b.lastBalances = now
	}

	b.compact()
	b.portfolio.Mark(b.marks)

	return txs, nil
}

// CloseAllAtEndOfDay implements Broker by cancelling working orders and sending
// market orders that flatten the positions.
func (b *LiveBroker) CloseAllAtEndOfDay(ctx context.Context, candles []types.Candle) ([]types.Transaction, error) {
	for _, c := range candles {
		for _, id := range slices.Clone(b.working) {
			if o := b.orders[id]; o.Asset == c.Asset && !o.IsTerminal() {
				if err := b.Cancel(ctx, id, types.OrderReasonEndOfDay); err != nil {
					b.logger.Warn("Failed to cancel order at end of day", zap.String("order_id", id), zap.Error(err))
				}
			}
		}

		pos, ok := b.portfolio.Position(c.Asset)
		if !ok {
			continue
		}

		closing := types.NewOrder(c.Asset, exitAction(pos.Direction), pos.Direction, pos.Size, types.OrderTypeMarket, c.Timestamp)
		closing.Reason = types.OrderReasonEndOfDay

		if _, err := b.Submit(ctx, closing); err != nil {
			b.logger.Error("Failed to close position at end of day", zap.String("asset", c.Asset.String()), zap.Error(err))
		}
	}

	// fills arrive with the next trade poll
	return nil, nil
}

// Close implements Broker.
func (b *LiveBroker) Close(ctx context.Context) error {
	if b.config.CancelOnShutdown {
		for _, o := range b.OpenOrders() {
			if o.ExchangeOrderID == "" {
				continue
			}

			if err := b.connector.CancelOrder(ctx, exchangeSymbol(o.Asset), o.ExchangeOrderID); err != nil {
				b.logger.Warn("Failed to cancel order on shutdown", zap.String("order_id", o.ID), zap.Error(err))

				continue
			}

			_ = b.cancel(ctx, o.ID, "shutdown")
		}
	}

	b.markets.Close()

	if b.ledger != nil {
		return b.ledger.Close()
	}

	return nil
}

func (b *LiveBroker) syncPrices(ctx context.Context) error {
	symbols, assets := b.trackedSymbols()
	if len(symbols) == 0 {
		return nil
	}

	tickers, err := retry.Do(ctx, b.config.Retry, func(ctx context.Context) (map[string]tradingprovider.Ticker, error) {
		return b.connector.FetchTickers(ctx, symbols)
	}, b.notify("fetch tickers"))
	if err != nil {
		return err
	}

	for symbol, asset := range assets {
		if t, ok := tickers[symbol]; ok {
			b.marks[asset] = t.Last
		}
	}

	return nil
}

func (b *LiveBroker) syncBalances(ctx context.Context) error {
	balances, err := retry.Do(ctx, b.config.Retry, func(ctx context.Context) (map[string]tradingprovider.Balance, error) {
		return b.connector.FetchBalance(ctx)
	}, b.notify("fetch balance"))
	if err != nil {
		return err
	}

	cash := decimal.Zero
	if bal, ok := balances[strings.ToUpper(b.config.QuoteCurrency)]; ok {
		cash = bal.Total()
	}

	b.portfolio.SetCash(cash)

	return nil
}

// syncTrades books exchange trades of locally known orders. Open orders are fetched
// first so an order missing from the open list and fully covered by trades is FILLED,
// and one missing without trades was cancelled on the exchange.
func (b *LiveBroker) syncTrades(ctx context.Context) ([]types.Transaction, error) {
	pending := b.remoteWorking()
	if len(pending) == 0 {
		return nil, nil
	}

	open, err := retry.Do(ctx, b.config.Retry, func(ctx context.Context) ([]tradingprovider.RemoteOrder, error) {
		return b.connector.FetchOpenOrders(ctx)
	}, b.notify("fetch open orders"))
	if err != nil {
		return nil, err
	}

	stillOpen := make(map[string]bool, len(open))
	for _, r := range open {
		stillOpen[r.ID] = true
	}

	var txs []types.Transaction

	for symbol := range pendingSymbols(pending) {
		since := b.tradesCursor[symbol]

		trades, err := retry.Do(ctx, b.config.Retry, func(ctx context.Context) ([]tradingprovider.Trade, error) {
			return b.connector.FetchMyTrades(ctx, symbol, since)
		}, b.notify("fetch trades"))
		if err != nil {
			return txs, err
		}

		for _, t := range trades {
			if t.Timestamp.After(b.tradesCursor[symbol]) {
				b.tradesCursor[symbol] = t.Timestamp
			}

			if _, seen := b.seenTrades[t.ID]; seen {
				continue
			}

			localID, ok := b.byExchangeID[t.OrderID]
			if !ok {
				continue
			}

			b.seenTrades[t.ID] = struct{}{}
			o := b.orders[localID]

			txs = append(txs, b.applyFill(ctx, o, t.Amount, t.Price, t.Fee, decimal.Zero, t.Timestamp))

			ex := b.executed[o.ID]
			ex.size = ex.size.Add(t.Amount)
			ex.notional = ex.notional.Add(t.Amount.Mul(t.Price))
			ex.last = t.Timestamp
			b.executed[o.ID] = ex
		}
	}

	for _, o := range pending {
		if o.IsTerminal() {
			continue
		}

		ex := b.executed[o.ID]

		switch {
		case ex.size.GreaterThanOrEqual(o.Size):
			b.complete(ctx, o, ex.size, ex.notional.Div(ex.size), ex.last)
		case !stillOpen[o.ExchangeOrderID] && ex.size.IsPositive():
			b.complete(ctx, o, ex.size, ex.notional.Div(ex.size), ex.last)
		case !stillOpen[o.ExchangeOrderID]:
			_ = b.cancel(ctx, o.ID, types.OrderReasonExchange)
		}
	}

	return txs, nil
}

// triggerLocal sends held stop orders and armed bracket exits once the mark crosses them.
func (b *LiveBroker) triggerLocal(ctx context.Context) {
	for _, id := range b.working {
		o := b.orders[id]
		if o.Status != types.OrderStatusSubmitted || o.ExchangeOrderID != "" {
			continue
		}

		mark, ok := b.marks[o.Asset]
		if !ok || !crossed(*o, mark) {
			continue
		}

		size := o.Size
		if !o.Action.Opens(o.Direction) {
			pos, open := b.portfolio.Position(o.Asset)
			if !open {
				_ = b.cancel(ctx, o.ID, types.OrderReasonNoPosition)

				continue
			}

			size = decimal.Min(size, pos.Size)
		}

		b.logger.Info("Local order triggered", zap.String("order_id", o.ID), zap.String("mark", mark.String()))

		if err := b.place(ctx, o, types.OrderTypeMarket, size); err != nil {
			b.logger.Warn("Failed to place triggered order", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
}

func (b *LiveBroker) lotSize(ctx context.Context, symbol string) (LotSize, error) {
	if lot, ok := b.markets.LotSize(symbol); ok {
		return lot, nil
	}

	if err := b.refreshMarkets(ctx, []string{symbol}); err != nil {
		return LotSize{}, err
	}

	lot, ok := b.markets.LotSize(symbol)
	if !ok {
		return LotSize{}, errors.Newf(errors.ErrCodeMarketDataMissing, "exchange has no market %s", symbol)
	}

	return lot, nil
}

func (b *LiveBroker) refreshMarkets(ctx context.Context, symbols []string) error {
	markets, err := retry.Do(ctx, b.config.Retry, func(ctx context.Context) (map[string]tradingprovider.Market, error) {
		return b.connector.FetchMarkets(ctx, symbols)
	}, b.notify("fetch markets"))
	if err != nil {
		return err
	}

	for symbol, m := range markets {
		b.markets.SetLotSize(symbol, LotSize{MinQty: m.MinQty, MaxQty: m.MaxQty, Step: m.LotStep})
		b.markets.SetSymbolInfo(SymbolInfo{Symbol: symbol, Base: m.Base, Quote: m.Quote})
	}

	return nil
}

// trackedSymbols returns the symbols with working orders or open positions.
func (b *LiveBroker) trackedSymbols() ([]string, map[string]types.Asset) {
	assets := make(map[string]types.Asset)

	for _, id := range b.working {
		o := b.orders[id]
		assets[exchangeSymbol(o.Asset)] = o.Asset
	}

	for _, p := range b.portfolio.Positions() {
		assets[exchangeSymbol(p.Asset)] = p.Asset
	}

	symbols := make([]string, 0, len(assets))
	for s := range assets {
		symbols = append(symbols, s)
	}

	return symbols, assets
}

// remoteWorking returns the orders live on the exchange.
func (b *LiveBroker) remoteWorking() []*types.Order {
	var out []*types.Order

	for _, id := range b.working {
		if o := b.orders[id]; o.ExchangeOrderID != "" && o.Status == types.OrderStatusSubmitted {
			out = append(out, o)
		}
	}

	return out
}

func (b *LiveBroker) notify(op string) retry.Notify {
	return func(err error, wait time.Duration) {
		b.logger.Warn("Retrying exchange read", zap.String("op", op), zap.Duration("wait", wait), zap.Error(err))
	}
}

func pendingSymbols(orders []*types.Order) map[string]struct{} {
	out := make(map[string]struct{})
	for _, o := range orders {
		out[exchangeSymbol(o.Asset)] = struct{}{}
	}

	return out
}

// crossed reports whether a locally held order triggers at mark.
func crossed(o types.Order, mark decimal.Decimal) bool {
	switch o.Type {
	case types.OrderTypeStop:
		if o.Action == types.ActionBuy {
			return mark.GreaterThanOrEqual(o.StopPrice.Unwrap())
		}

		return mark.LessThanOrEqual(o.StopPrice.Unwrap())
	case types.OrderTypeTarget, types.OrderTypeLimit:
		if o.Action == types.ActionBuy {
			return mark.LessThanOrEqual(o.LimitPrice.Unwrap())
		}

		return mark.GreaterThanOrEqual(o.LimitPrice.Unwrap())
	default:
		return false
	}
}

func due(last time.Time, period time.Duration, now time.Time) bool {
	return last.IsZero() || now.Sub(last) >= period
}

func exchangeSymbol(asset types.Asset) string {
	return strings.ToUpper(asset.PlainSymbol())
}
