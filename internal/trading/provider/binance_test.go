package tradingprovider

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type mockBinanceClient struct {
	createOrder  *mockCreateOrderService
	account      *mockGetAccountService
	openOrders   *mockListOpenOrdersService
	cancelOrder  *mockCancelOrderService
	trades       *mockListTradesService
	klines       *mockKlinesService
	prices       *mockListPricesService
	exchangeInfo *mockExchangeInfoService
}

func newMockBinanceClient() *mockBinanceClient {
	return &mockBinanceClient{
		createOrder:  &mockCreateOrderService{},
		account:      &mockGetAccountService{},
		openOrders:   &mockListOpenOrdersService{},
		cancelOrder:  &mockCancelOrderService{},
		trades:       &mockListTradesService{},
		klines:       &mockKlinesService{},
		prices:       &mockListPricesService{},
		exchangeInfo: &mockExchangeInfoService{},
	}
}

func (m *mockBinanceClient) NewCreateOrderService() CreateOrderService       { return m.createOrder }
func (m *mockBinanceClient) NewGetAccountService() GetAccountService         { return m.account }
func (m *mockBinanceClient) NewListOpenOrdersService() ListOpenOrdersService { return m.openOrders }
func (m *mockBinanceClient) NewCancelOrderService() CancelOrderService       { return m.cancelOrder }
func (m *mockBinanceClient) NewListTradesService() ListTradesService         { return m.trades }
func (m *mockBinanceClient) NewKlinesService() KlinesService                 { return m.klines }
func (m *mockBinanceClient) NewListPricesService() ListPricesService         { return m.prices }
func (m *mockBinanceClient) NewExchangeInfoService() ExchangeInfoService     { return m.exchangeInfo }

type mockCreateOrderService struct {
	response *binance.CreateOrderResponse
	err      error
	calls    int
	symbol   string
	side     binance.SideType
	orderTyp binance.OrderType
	quantity string
	price    string
	tif      binance.TimeInForceType
	clientID string
}

func (m *mockCreateOrderService) Symbol(symbol string) CreateOrderService {
	m.symbol = symbol
	return m
}

func (m *mockCreateOrderService) Side(side binance.SideType) CreateOrderService {
	m.side = side
	return m
}

func (m *mockCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	m.orderTyp = orderType
	return m
}

func (m *mockCreateOrderService) Quantity(quantity string) CreateOrderService {
	m.quantity = quantity
	return m
}

func (m *mockCreateOrderService) Price(price string) CreateOrderService {
	m.price = price
	return m
}

func (m *mockCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	m.tif = tif
	return m
}

func (m *mockCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	m.clientID = id
	return m
}

func (m *mockCreateOrderService) Do(_ context.Context) (*binance.CreateOrderResponse, error) {
	m.calls++
	return m.response, m.err
}

type mockGetAccountService struct {
	account *binance.Account
	err     error
}

func (m *mockGetAccountService) Do(_ context.Context) (*binance.Account, error) {
	return m.account, m.err
}

type mockListOpenOrdersService struct {
	orders []*binance.Order
	err    error
}

func (m *mockListOpenOrdersService) Do(_ context.Context) ([]*binance.Order, error) {
	return m.orders, m.err
}

type mockCancelOrderService struct {
	err     error
	symbol  string
	orderID int64
}

func (m *mockCancelOrderService) Symbol(symbol string) CancelOrderService {
	m.symbol = symbol
	return m
}

func (m *mockCancelOrderService) OrderID(orderID int64) CancelOrderService {
	m.orderID = orderID
	return m
}

func (m *mockCancelOrderService) Do(_ context.Context) (*binance.CancelOrderResponse, error) {
	return &binance.CancelOrderResponse{}, m.err
}

type mockListTradesService struct {
	trades    []*binance.TradeV3
	err       error
	symbol    string
	startTime int64
}

func (m *mockListTradesService) Symbol(symbol string) ListTradesService {
	m.symbol = symbol
	return m
}

func (m *mockListTradesService) StartTime(startTime int64) ListTradesService {
	m.startTime = startTime
	return m
}

func (m *mockListTradesService) Limit(int) ListTradesService { return m }

func (m *mockListTradesService) Do(_ context.Context) ([]*binance.TradeV3, error) {
	return m.trades, m.err
}

// mockKlinesService serves consecutive pages.
type mockKlinesService struct {
	pages    [][]*binance.Kline
	err      error
	calls    int
	symbol   string
	interval string
	starts   []int64
}

func (m *mockKlinesService) Symbol(symbol string) KlinesService {
	m.symbol = symbol
	return m
}

func (m *mockKlinesService) Interval(interval string) KlinesService {
	m.interval = interval
	return m
}

func (m *mockKlinesService) StartTime(startTime int64) KlinesService {
	m.starts = append(m.starts, startTime)
	return m
}

func (m *mockKlinesService) EndTime(int64) KlinesService { return m }
func (m *mockKlinesService) Limit(int) KlinesService     { return m }

func (m *mockKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	if m.err != nil {
		return nil, m.err
	}

	page := m.pages[m.calls]
	m.calls++

	return page, nil
}

type mockListPricesService struct {
	prices  []*binance.SymbolPrice
	symbols []string
}

func (m *mockListPricesService) Symbols(symbols []string) ListPricesService {
	m.symbols = symbols
	return m
}

func (m *mockListPricesService) Do(_ context.Context) ([]*binance.SymbolPrice, error) {
	return m.prices, nil
}

type mockExchangeInfoService struct {
	info *binance.ExchangeInfo
}

func (m *mockExchangeInfoService) Symbols(...string) ExchangeInfoService { return m }

func (m *mockExchangeInfoService) Do(_ context.Context) (*binance.ExchangeInfo, error) {
	return m.info, nil
}

type BinanceConnectorTestSuite struct {
	suite.Suite
	client    *mockBinanceClient
	connector *BinanceConnector
	asset     types.Asset
}

func TestBinanceConnectorSuite(t *testing.T) {
	suite.Run(t, new(BinanceConnectorTestSuite))
}

func (suite *BinanceConnectorTestSuite) SetupTest() {
	suite.client = newMockBinanceClient()
	suite.connector = newBinanceConnectorWithClient(suite.client, nil)
	suite.asset = types.NewAsset("XRP/USDT", BinanceExchange, time.Minute)
}

func kline(openMs int64, price string) *binance.Kline {
	return &binance.Kline{OpenTime: openMs, Open: price, High: price, Low: price, Close: price, Volume: "1"}
}

func (suite *BinanceConnectorTestSuite) TestFetchOHLCVPaginates() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	full := make([]*binance.Kline, binanceKlineLimit)

	for i := range full {
		full[i] = kline(start.Add(time.Duration(i)*time.Minute).UnixMilli(), "1.5")
	}

	tail := []*binance.Kline{kline(start.Add(binanceKlineLimit*time.Minute).UnixMilli(), "2")}
	suite.client.klines.pages = [][]*binance.Kline{full, tail}

	candles, err := suite.connector.FetchOHLCV(context.Background(), suite.asset, start, start.Add(48*time.Hour))
	suite.Require().NoError(err)
	suite.Len(candles, binanceKlineLimit+1)
	suite.Equal("XRPUSDT", suite.client.klines.symbol)
	suite.Equal("1m", suite.client.klines.interval)
	suite.Equal(start.Add(binanceKlineLimit*time.Minute).UnixMilli(), suite.client.klines.starts[1])
	suite.Equal(2.0, candles[binanceKlineLimit].Close)
	suite.Equal(suite.asset, candles[0].Asset)
}

func (suite *BinanceConnectorTestSuite) TestFetchOHLCVTransportError() {
	suite.client.klines.err = stderrors.New("connection reset")

	_, err := suite.connector.FetchOHLCV(context.Background(), suite.asset, time.Now(), time.Now())
	suite.True(errors.IsRetryable(err))
}

func (suite *BinanceConnectorTestSuite) TestCreateLimitOrder() {
	suite.client.createOrder.response = &binance.CreateOrderResponse{
		Symbol:           "XRPUSDT",
		OrderID:          42,
		ClientOrderID:    "local-1",
		Price:            "0.5",
		ExecutedQuantity: "0",
		Status:           binance.OrderStatusTypeNew,
	}

	order, err := suite.connector.CreateOrder(context.Background(), OrderRequest{
		Symbol:   "XRPUSDT",
		Action:   types.ActionBuy,
		Type:     types.OrderTypeLimit,
		Amount:   decimal.RequireFromString("100"),
		Price:    optional.Some(decimal.RequireFromString("0.5")),
		ClientID: "local-1",
	})
	suite.Require().NoError(err)
	suite.Equal("42", order.ID)
	suite.Equal(types.OrderStatusSubmitted, order.Status)
	suite.Equal(binance.OrderTypeLimit, suite.client.createOrder.orderTyp)
	suite.Equal(binance.TimeInForceTypeGTC, suite.client.createOrder.tif)
	suite.Equal("0.5", suite.client.createOrder.price)
	suite.Equal("100", suite.client.createOrder.quantity)
	suite.Equal("local-1", suite.client.createOrder.clientID)
}

func (suite *BinanceConnectorTestSuite) TestCreateMarketOrderDerivesFillPrice() {
	suite.client.createOrder.response = &binance.CreateOrderResponse{
		Symbol:                   "XRPUSDT",
		OrderID:                  7,
		Price:                    "0",
		ExecutedQuantity:         "10",
		CummulativeQuoteQuantity: "5.5",
		Status:                   binance.OrderStatusTypeFilled,
	}

	order, err := suite.connector.CreateOrder(context.Background(), OrderRequest{
		Symbol: "XRPUSDT", Action: types.ActionSell, Type: types.OrderTypeMarket, Amount: decimal.NewFromInt(10),
	})
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusFilled, order.Status)
	suite.True(order.Price.Equal(decimal.RequireFromString("0.55")))
	suite.Equal(binance.SideTypeSell, suite.client.createOrder.side)
}

func (suite *BinanceConnectorTestSuite) TestCreateOrderRejections() {
	_, err := suite.connector.CreateOrder(context.Background(), OrderRequest{
		Symbol: "XRPUSDT", Action: types.ActionBuy, Type: types.OrderTypeStop, Amount: decimal.NewFromInt(1),
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderType))

	_, err = suite.connector.CreateOrder(context.Background(), OrderRequest{
		Symbol: "XRPUSDT", Action: types.ActionBuy, Type: types.OrderTypeMarket, Amount: decimal.Zero,
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	suite.client.createOrder.err = stderrors.New("insufficient balance")
	_, err = suite.connector.CreateOrder(context.Background(), OrderRequest{
		Symbol: "XRPUSDT", Action: types.ActionBuy, Type: types.OrderTypeMarket, Amount: decimal.NewFromInt(1),
	})
	suite.True(errors.HasCode(err, errors.ErrCodeOrderRejected))
	suite.False(errors.IsRetryable(err))
}

func (suite *BinanceConnectorTestSuite) TestFetchBalanceSkipsEmpty() {
	suite.client.account.account = &binance.Account{Balances: []binance.Balance{
		{Asset: "USDT", Free: "100.5", Locked: "0.5"},
		{Asset: "BTC", Free: "0", Locked: "0"},
	}}

	balances, err := suite.connector.FetchBalance(context.Background())
	suite.Require().NoError(err)
	suite.Len(balances, 1)
	suite.True(balances["USDT"].Total().Equal(decimal.NewFromInt(101)))
}

func (suite *BinanceConnectorTestSuite) TestFetchTickersAndMarkets() {
	suite.client.prices.prices = []*binance.SymbolPrice{{Symbol: "XRPUSDT", Price: "0.61"}}

	tickers, err := suite.connector.FetchTickers(context.Background(), []string{"XRPUSDT"})
	suite.Require().NoError(err)
	suite.True(tickers["XRPUSDT"].Last.Equal(decimal.RequireFromString("0.61")))
	suite.Equal([]string{"XRPUSDT"}, suite.client.prices.symbols)

	suite.client.exchangeInfo.info = &binance.ExchangeInfo{Symbols: []binance.Symbol{{
		Symbol:     "XRPUSDT",
		BaseAsset:  "XRP",
		QuoteAsset: "USDT",
		Filters: []map[string]interface{}{
			{"filterType": "LOT_SIZE", "minQty": "0.1", "maxQty": "9000000", "stepSize": "0.1"},
		},
	}}}

	markets, err := suite.connector.FetchMarkets(context.Background(), []string{"XRPUSDT"})
	suite.Require().NoError(err)
	suite.True(markets["XRPUSDT"].LotStep.Equal(decimal.RequireFromString("0.1")))
	suite.Equal("XRP", markets["XRPUSDT"].Base)
}

func (suite *BinanceConnectorTestSuite) TestTradesAndOrders() {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.client.trades.trades = []*binance.TradeV3{{
		ID: 1, OrderID: 42, Price: "0.5", Quantity: "10", Commission: "0.01", Time: since.Add(time.Minute).UnixMilli(), IsBuyer: true,
	}}

	trades, err := suite.connector.FetchMyTrades(context.Background(), "XRPUSDT", since)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(types.ActionBuy, trades[0].Action)
	suite.Equal("42", trades[0].OrderID)
	suite.Equal(since.UnixMilli(), suite.client.trades.startTime)

	suite.client.openOrders.orders = []*binance.Order{{Symbol: "XRPUSDT", OrderID: 9, Status: binance.OrderStatusTypePartiallyFilled, ExecutedQuantity: "1", Price: "0.4"}}

	orders, err := suite.connector.FetchOpenOrders(context.Background())
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusSubmitted, orders[0].Status)

	suite.Require().NoError(suite.connector.CancelOrder(context.Background(), "XRPUSDT", "9"))
	suite.Equal(int64(9), suite.client.cancelOrder.orderID)

	suite.True(errors.HasCode(suite.connector.CancelOrder(context.Background(), "XRPUSDT", "abc"), errors.ErrCodeInvalidParameter))
}

func (suite *BinanceConnectorTestSuite) TestProviderRegistry() {
	info, err := GetProviderInfo("binance-paper")
	suite.Require().NoError(err)
	suite.True(info.IsPaperTrading)

	_, err = GetProviderInfo("kraken")
	suite.Error(err)

	schema, err := GetProviderConfigSchema("binance-live")
	suite.Require().NoError(err)
	suite.Contains(schema, "apiKey")

	_, err = NewConnector(ProviderBinanceLive, BinanceProviderConfig{})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
