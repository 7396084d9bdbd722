package tradingprovider

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-quant/internal/feed/handler"
	"github.com/rxtech-lab/argo-quant/internal/ratelimit"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// BinanceExchange is the exchange name assets traded here carry.
	BinanceExchange = "BINANCE"
	// binanceKlineLimit is the largest kline page Binance returns.
	binanceKlineLimit = 1000
)

// Service interfaces for mocking the Binance API

type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

type GetAccountService interface {
	Do(ctx context.Context) (*binance.Account, error)
}

type ListOpenOrdersService interface {
	Do(ctx context.Context) ([]*binance.Order, error)
}

type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*binance.CancelOrderResponse, error)
}

type ListTradesService interface {
	Symbol(symbol string) ListTradesService
	StartTime(startTime int64) ListTradesService
	Limit(limit int) ListTradesService
	Do(ctx context.Context) ([]*binance.TradeV3, error)
}

type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	StartTime(startTime int64) KlinesService
	EndTime(endTime int64) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

type ListPricesService interface {
	Symbols(symbols []string) ListPricesService
	Do(ctx context.Context) ([]*binance.SymbolPrice, error)
}

type ExchangeInfoService interface {
	Symbols(symbols ...string) ExchangeInfoService
	Do(ctx context.Context) (*binance.ExchangeInfo, error)
}

// BinanceClient abstracts the Binance client for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewGetAccountService() GetAccountService
	NewListOpenOrdersService() ListOpenOrdersService
	NewCancelOrderService() CancelOrderService
	NewListTradesService() ListTradesService
	NewKlinesService() KlinesService
	NewListPricesService() ListPricesService
	NewExchangeInfoService() ExchangeInfoService
}

// BinanceConnector implements Connector over the Binance spot REST API.
// Every call waits on the shared rate limiter first.
type BinanceConnector struct {
	client  BinanceClient
	limiter *ratelimit.Limiter
}

// NewBinanceConnector creates a connector. useTestnet points at https://testnet.binance.vision/;
// config.BaseURL takes precedence over it.
func NewBinanceConnector(config BinanceProviderConfig, useTestnet bool) (*BinanceConnector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if useTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)
	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return newBinanceConnectorWithClient(&realBinanceClient{client: client},
		ratelimit.NewLimiter(config.RequestsPerMinute, time.Minute)), nil
}

func newBinanceConnectorWithClient(client BinanceClient, limiter *ratelimit.Limiter) *BinanceConnector {
	if limiter == nil {
		limiter = ratelimit.NewLimiter(0, 0)
	}

	return &BinanceConnector{client: client, limiter: limiter}
}

// Name implements Connector.
func (b *BinanceConnector) Name() string {
	return BinanceExchange
}

// FetchOHLCV implements Connector and the live feed's CandleFetcher.
func (b *BinanceConnector) FetchOHLCV(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	interval, err := handler.BinanceInterval(asset.TimeUnit)
	if err != nil {
		return nil, err
	}

	var candles []types.Candle

	for from := start; !from.After(end); {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := b.client.NewKlinesService().
			Symbol(asset.PlainSymbol()).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(binanceKlineLimit).
			Do(ctx)
		if err != nil {
			return nil, transportError("failed to fetch klines from Binance", err)
		}

		for _, k := range klines {
			c, err := convertKline(asset, k)
			if err != nil {
				return nil, err
			}

			candles = append(candles, c)
		}

		if len(klines) < binanceKlineLimit {
			break
		}

		from = candles[len(candles)-1].Timestamp.Add(asset.TimeUnit)
	}

	return candles, nil
}

// FetchTickers implements Connector.
func (b *BinanceConnector) FetchTickers(ctx context.Context, symbols []string) (map[string]Ticker, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	prices, err := b.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		return nil, transportError("failed to fetch prices from Binance", err)
	}

	now := time.Now().UTC()
	tickers := make(map[string]Ticker, len(prices))

	for _, p := range prices {
		last, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid price for %s", p.Symbol)
		}

		tickers[p.Symbol] = Ticker{Symbol: p.Symbol, Last: last, Timestamp: now}
	}

	return tickers, nil
}

// FetchBalance implements Connector.
func (b *BinanceConnector) FetchBalance(ctx context.Context) (map[string]Balance, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, transportError("failed to get account info from Binance", err)
	}

	balances := make(map[string]Balance, len(account.Balances))

	for _, bal := range account.Balances {
		free, _ := decimal.NewFromString(bal.Free)
		locked, _ := decimal.NewFromString(bal.Locked)

		if free.IsZero() && locked.IsZero() {
			continue
		}

		balances[bal.Asset] = Balance{Asset: bal.Asset, Free: free, Locked: locked}
	}

	return balances, nil
}

// CreateOrder implements Connector. It is never retried.
func (b *BinanceConnector) CreateOrder(ctx context.Context, req OrderRequest) (RemoteOrder, error) {
	var side binance.SideType

	switch req.Action {
	case types.ActionBuy:
		side = binance.SideTypeBuy
	case types.ActionSell:
		side = binance.SideTypeSell
	default:
		return RemoteOrder{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", req.Action)
	}

	if !req.Amount.IsPositive() {
		return RemoteOrder{}, errors.New(errors.ErrCodeInvalidParameter, "order amount must be greater than zero")
	}

	service := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Quantity(req.Amount.String())

	switch req.Type {
	case types.OrderTypeMarket:
		service = service.Type(binance.OrderTypeMarket)
	case types.OrderTypeLimit, types.OrderTypeTarget:
		if req.Price.IsNone() {
			return RemoteOrder{}, errors.Newf(errors.ErrCodeInvalidOrder, "%s order needs a price", req.Type)
		}

		service = service.
			Type(binance.OrderTypeLimit).
			Price(req.Price.Unwrap().String()).
			TimeInForce(binance.TimeInForceTypeGTC)
	default:
		return RemoteOrder{}, errors.Newf(errors.ErrCodeInvalidOrderType, "binance connector cannot place %s orders", req.Type)
	}

	if req.ClientID != "" {
		service = service.NewClientOrderID(req.ClientID)
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return RemoteOrder{}, err
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return RemoteOrder{}, errors.Wrap(errors.ErrCodeOrderRejected, "failed to place order on Binance", err)
	}

	filled, _ := decimal.NewFromString(resp.ExecutedQuantity)
	price, _ := decimal.NewFromString(resp.Price)

	// market orders report a zero price; use the quote volume instead
	if quote, qerr := decimal.NewFromString(resp.CummulativeQuoteQuantity); qerr == nil && filled.IsPositive() && price.IsZero() {
		price = quote.Div(filled)
	}

	return RemoteOrder{
		ID:       strconv.FormatInt(resp.OrderID, 10),
		ClientID: resp.ClientOrderID,
		Symbol:   resp.Symbol,
		Status:   mapBinanceOrderStatus(resp.Status),
		Filled:   filled,
		Price:    price,
	}, nil
}

// CancelOrder implements Connector.
func (b *BinanceConnector) CancelOrder(ctx context.Context, symbol, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := b.client.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeOrderNotFound, "failed to cancel order on Binance", err)
	}

	return nil
}

// FetchOpenOrders implements Connector.
func (b *BinanceConnector) FetchOpenOrders(ctx context.Context) ([]RemoteOrder, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	orders, err := b.client.NewListOpenOrdersService().Do(ctx)
	if err != nil {
		return nil, transportError("failed to get open orders from Binance", err)
	}

	out := make([]RemoteOrder, 0, len(orders))

	for _, o := range orders {
		filled, _ := decimal.NewFromString(o.ExecutedQuantity)
		price, _ := decimal.NewFromString(o.Price)

		out = append(out, RemoteOrder{
			ID:       strconv.FormatInt(o.OrderID, 10),
			ClientID: o.ClientOrderID,
			Symbol:   o.Symbol,
			Status:   mapBinanceOrderStatus(o.Status),
			Filled:   filled,
			Price:    price,
		})
	}

	return out, nil
}

// FetchMyTrades implements Connector.
func (b *BinanceConnector) FetchMyTrades(ctx context.Context, symbol string, since time.Time) ([]Trade, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	service := b.client.NewListTradesService().Symbol(symbol).Limit(binanceKlineLimit)
	if !since.IsZero() {
		service = service.StartTime(since.UnixMilli())
	}

	trades, err := service.Do(ctx)
	if err != nil {
		return nil, transportError("failed to get trades from Binance", err)
	}

	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		out = append(out, convertBinanceTrade(t, symbol))
	}

	return out, nil
}

// FetchMarkets implements Connector.
func (b *BinanceConnector) FetchMarkets(ctx context.Context, symbols []string) (map[string]Market, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	info, err := b.client.NewExchangeInfoService().Symbols(symbols...).Do(ctx)
	if err != nil {
		return nil, transportError("failed to get exchange info from Binance", err)
	}

	markets := make(map[string]Market, len(info.Symbols))

	for i := range info.Symbols {
		s := &info.Symbols[i]
		market := Market{Symbol: s.Symbol, Base: s.BaseAsset, Quote: s.QuoteAsset}

		if lot := s.LotSizeFilter(); lot != nil {
			market.MinQty, _ = decimal.NewFromString(lot.MinQuantity)
			market.MaxQty, _ = decimal.NewFromString(lot.MaxQuantity)
			market.LotStep, _ = decimal.NewFromString(lot.StepSize)
		}

		markets[s.Symbol] = market
	}

	return markets, nil
}

func transportError(message string, err error) error {
	return errors.Wrap(errors.ErrCodeTransport, message, err)
}

func convertKline(asset types.Asset, k *binance.Kline) (types.Candle, error) {
	values := make([]float64, 5)

	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Candle{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", raw)
		}

		values[i] = v
	}

	return types.Candle{
		Asset:     asset,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
	}, nil
}

// mapBinanceOrderStatus maps a Binance order status onto the order state machine.
func mapBinanceOrderStatus(status binance.OrderStatusType) types.OrderStatus {
	switch status {
	case binance.OrderStatusTypeNew, binance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusSubmitted
	case binance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypeExpired, binance.OrderStatusTypePendingCancel:
		return types.OrderStatusCancelled
	case binance.OrderStatusTypeRejected:
		return types.OrderStatusRejected
	default:
		return types.OrderStatusPending
	}
}

func convertBinanceTrade(t *binance.TradeV3, symbol string) Trade {
	price, _ := decimal.NewFromString(t.Price)
	amount, _ := decimal.NewFromString(t.Quantity)
	fee, _ := decimal.NewFromString(t.Commission)

	action := types.ActionSell
	if t.IsBuyer {
		action = types.ActionBuy
	}

	return Trade{
		ID:        strconv.FormatInt(t.ID, 10),
		OrderID:   strconv.FormatInt(t.OrderID, 10),
		Symbol:    symbol,
		Action:    action,
		Price:     price,
		Amount:    amount,
		Fee:       fee,
		Timestamp: time.UnixMilli(t.Time).UTC(),
	}
}
