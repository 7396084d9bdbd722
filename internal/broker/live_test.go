package broker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/retry"
	tradingprovider "github.com/rxtech-lab/argo-quant/internal/trading/provider"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/rxtech-lab/argo-quant/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// orderRequest matches the requests accepted by fn.
type orderRequest func(tradingprovider.OrderRequest) bool

func (m orderRequest) Matches(x any) bool {
	req, ok := x.(tradingprovider.OrderRequest)

	return ok && m(req)
}

func (m orderRequest) String() string {
	return "matches order request"
}

type LiveBrokerTestSuite struct {
	suite.Suite
	ctx       context.Context
	connector *mocks.MockConnector
	broker    *LiveBroker
	asset     types.Asset
	now       time.Time
}

func TestLiveBrokerSuite(t *testing.T) {
	suite.Run(t, new(LiveBrokerTestSuite))
}

func (suite *LiveBrokerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	ctrl := gomock.NewController(suite.T())
	suite.connector = mocks.NewMockConnector(ctrl)
	suite.connector.EXPECT().Name().Return("BINANCE").AnyTimes()
	suite.asset = types.NewAsset("BTC/USDT", "BINANCE", time.Minute)
	suite.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	suite.broker = suite.newBroker(false)
}

func (suite *LiveBrokerTestSuite) newBroker(cancelOnShutdown bool) *LiveBroker {
	config := DefaultLiveConfig()
	config.Retry = retry.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	}
	config.CancelOnShutdown = cancelOnShutdown

	b, err := NewLiveBroker(suite.connector, nil, config, logger.NewNopLogger(),
		WithClock(func() time.Time { return suite.now }))
	suite.Require().NoError(err)

	suite.connector.EXPECT().FetchMarkets(gomock.Any(), []string{"BTCUSDT"}).Return(map[string]tradingprovider.Market{
		"BTCUSDT": {
			Symbol:  "BTCUSDT",
			Base:    "BTC",
			Quote:   "USDT",
			MinQty:  d("0.001"),
			MaxQty:  d("100"),
			LotStep: d("0.001"),
		},
	}, nil)
	suite.expectBalance("1000")

	suite.Require().NoError(b.Initialize(suite.ctx, []types.Asset{suite.asset}))
	suite.True(b.Cash().Equal(d("1000")))

	return b
}

func (suite *LiveBrokerTestSuite) expectBalance(usdt string) {
	suite.connector.EXPECT().FetchBalance(gomock.Any()).Return(map[string]tradingprovider.Balance{
		"USDT": {Asset: "USDT", Free: d(usdt), Locked: decimal.Zero},
		"BTC":  {Asset: "BTC", Free: d("0"), Locked: decimal.Zero},
	}, nil)
}

func (suite *LiveBrokerTestSuite) expectTicker(last string) {
	suite.connector.EXPECT().FetchTickers(gomock.Any(), []string{"BTCUSDT"}).Return(map[string]tradingprovider.Ticker{
		"BTCUSDT": {Symbol: "BTCUSDT", Last: d(last), Timestamp: suite.now},
	}, nil)
}

func (suite *LiveBrokerTestSuite) expectCreate(remoteID string, match func(tradingprovider.OrderRequest) bool) {
	suite.connector.EXPECT().CreateOrder(gomock.Any(), orderRequest(match)).Return(tradingprovider.RemoteOrder{
		ID:     remoteID,
		Symbol: "BTCUSDT",
		Status: types.OrderStatusSubmitted,
	}, nil)
}

func (suite *LiveBrokerTestSuite) expectTrades(trades ...tradingprovider.Trade) {
	suite.connector.EXPECT().FetchOpenOrders(gomock.Any()).Return([]tradingprovider.RemoteOrder{}, nil)
	suite.connector.EXPECT().FetchMyTrades(gomock.Any(), "BTCUSDT", gomock.Any()).Return(trades, nil)
}

func (suite *LiveBrokerTestSuite) order(action types.Action, size string, orderType types.OrderType) types.Order {
	return types.NewOrder(suite.asset, action, types.DirectionLong, d(size), orderType, suite.now)
}

// buyHalf leaves the broker long 0.5 BTC bought at 100.
func (suite *LiveBrokerTestSuite) buyHalf() types.Order {
	o := suite.order(types.ActionBuy, "0.5", types.OrderTypeLimit)
	o.LimitPrice = optional.Some(d("100"))

	suite.expectCreate("r1", func(req tradingprovider.OrderRequest) bool {
		return req.Type == types.OrderTypeLimit && req.Amount.Equal(d("0.5")) && req.ClientID == o.ID
	})

	submitted, err := suite.broker.Submit(suite.ctx, o)
	suite.Require().NoError(err)
	suite.Equal("r1", submitted.ExchangeOrderID)

	suite.expectTicker("99")
	suite.expectTrades(tradingprovider.Trade{
		ID: "t1", OrderID: "r1", Symbol: "BTCUSDT", Action: types.ActionBuy,
		Price: d("100"), Amount: d("0.5"), Fee: d("0.05"), Timestamp: suite.now.Add(time.Second),
	})
	suite.expectBalance("949.95")

	txs, err := suite.broker.Settle(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Require().Len(txs, 1)
	suite.True(txs[0].Fee.Equal(d("0.05")))

	return submitted
}

func (suite *LiveBrokerTestSuite) TestMarketOrderRoundedToLotStep() {
	suite.expectCreate("r1", func(req tradingprovider.OrderRequest) bool {
		return req.Symbol == "BTCUSDT" && req.Type == types.OrderTypeMarket &&
			req.Amount.Equal(d("0.123")) && req.Price.IsNone()
	})

	o, err := suite.broker.Submit(suite.ctx, suite.order(types.ActionBuy, "0.12345", types.OrderTypeMarket))
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusSubmitted, o.Status)
	suite.True(o.Size.Equal(d("0.123")))
}

func (suite *LiveBrokerTestSuite) TestBelowLotMinimumRejects() {
	_, err := suite.broker.Submit(suite.ctx, suite.order(types.ActionBuy, "0.0004", types.OrderTypeMarket))
	suite.True(errors.HasCode(err, errors.ErrCodeOrderRejected))
}

func (suite *LiveBrokerTestSuite) TestCreateOrderFailureIsNotRetried() {
	suite.connector.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
		Return(tradingprovider.RemoteOrder{}, errors.New(errors.ErrCodeTransport, "connection reset")).Times(1)

	o, err := suite.broker.Submit(suite.ctx, suite.order(types.ActionBuy, "0.5", types.OrderTypeMarket))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderRejected))
	suite.Equal(types.OrderStatusRejected, o.Status)

	rejected := suite.broker.DrainRejections()
	suite.Require().Len(rejected, 1)
	suite.Equal(types.OrderReasonExchange, rejected[0].Reason)
}

func (suite *LiveBrokerTestSuite) TestTradesFillOrders() {
	o := suite.buyHalf()

	filled, ok := suite.broker.Order(o.ID)
	suite.Require().True(ok)
	suite.Equal(types.OrderStatusFilled, filled.Status)
	suite.True(filled.FilledPrice.Equal(d("100")))

	pos, ok := suite.broker.Position(suite.asset)
	suite.Require().True(ok)
	suite.True(pos.Size.Equal(d("0.5")))
	suite.True(suite.broker.Cash().Equal(d("949.95")))
	suite.Empty(suite.broker.OpenOrders())

	suite.True(suite.broker.Equity(map[types.Asset]decimal.Decimal{suite.asset: d("99")}).Equal(d("999.45")))
}

func (suite *LiveBrokerTestSuite) TestPartialFillsAccumulateAndTradesBookOnce() {
	o := suite.order(types.ActionBuy, "0.5", types.OrderTypeLimit)
	o.LimitPrice = optional.Some(d("100"))
	suite.expectCreate("r1", func(req tradingprovider.OrderRequest) bool { return true })

	_, err := suite.broker.Submit(suite.ctx, o)
	suite.Require().NoError(err)

	first := tradingprovider.Trade{
		ID: "t1", OrderID: "r1", Symbol: "BTCUSDT", Action: types.ActionBuy,
		Price: d("100"), Amount: d("0.2"), Fee: decimal.Zero, Timestamp: suite.now.Add(time.Second),
	}

	suite.expectTicker("100")
	suite.connector.EXPECT().FetchOpenOrders(gomock.Any()).
		Return([]tradingprovider.RemoteOrder{{ID: "r1", Symbol: "BTCUSDT", Status: types.OrderStatusSubmitted}}, nil)
	suite.connector.EXPECT().FetchMyTrades(gomock.Any(), "BTCUSDT", gomock.Any()).
		Return([]tradingprovider.Trade{first}, nil)
	suite.expectBalance("980")

	txs, err := suite.broker.Settle(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Len(txs, 1)

	partial, _ := suite.broker.Order(o.ID)
	suite.Equal(types.OrderStatusSubmitted, partial.Status)

	suite.now = suite.now.Add(DefaultPollPeriod)
	suite.expectTicker("100")
	suite.expectTrades(first, tradingprovider.Trade{
		ID: "t2", OrderID: "r1", Symbol: "BTCUSDT", Action: types.ActionBuy,
		Price: d("95"), Amount: d("0.3"), Fee: decimal.Zero, Timestamp: suite.now,
	})
	suite.expectBalance("951.5")

	txs, err = suite.broker.Settle(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Require().Len(txs, 1)
	suite.True(txs[0].Price.Equal(d("95")))

	filled, _ := suite.broker.Order(o.ID)
	suite.Equal(types.OrderStatusFilled, filled.Status)
	suite.True(filled.Size.Equal(d("0.5")))
	// (0.2*100 + 0.3*95) / 0.5
	suite.True(filled.FilledPrice.Equal(d("97")))

	pos, _ := suite.broker.Position(suite.asset)
	suite.True(pos.Size.Equal(d("0.5")))
}

func (suite *LiveBrokerTestSuite) TestVanishedOrderWithoutTradesIsCancelled() {
	o := suite.order(types.ActionBuy, "0.5", types.OrderTypeLimit)
	o.LimitPrice = optional.Some(d("90"))
	suite.expectCreate("r9", func(req tradingprovider.OrderRequest) bool { return true })

	_, err := suite.broker.Submit(suite.ctx, o)
	suite.Require().NoError(err)

	suite.expectTicker("99")
	suite.expectTrades()
	suite.expectBalance("1000")

	_, err = suite.broker.Settle(suite.ctx, nil)
	suite.Require().NoError(err)

	cancelled, _ := suite.broker.Order(o.ID)
	suite.Equal(types.OrderStatusCancelled, cancelled.Status)
	suite.Equal(types.OrderReasonExchange, cancelled.Reason)
}

func (suite *LiveBrokerTestSuite) TestLocalStopTriggersMarketOrder() {
	suite.buyHalf()

	stop := suite.order(types.ActionSell, "0.5", types.OrderTypeStop)
	stop.StopPrice = optional.Some(d("90"))

	held, err := suite.broker.Submit(suite.ctx, stop)
	suite.Require().NoError(err)
	suite.Empty(held.ExchangeOrderID)

	suite.now = suite.now.Add(DefaultPollPeriod)
	suite.expectTicker("89")
	suite.expectCreate("r2", func(req tradingprovider.OrderRequest) bool {
		return req.Type == types.OrderTypeMarket && req.Action == types.ActionSell && req.Amount.Equal(d("0.5"))
	})
	suite.expectTrades(tradingprovider.Trade{
		ID: "t2", OrderID: "r2", Symbol: "BTCUSDT", Action: types.ActionSell,
		Price: d("89"), Amount: d("0.5"), Fee: d("0.04"), Timestamp: suite.now,
	})
	suite.expectBalance("994.41")

	txs, err := suite.broker.Settle(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Require().Len(txs, 1)
	suite.True(txs[0].RealizedPnL.Equal(d("-5.5")))

	triggered, _ := suite.broker.Order(stop.ID)
	suite.Equal(types.OrderStatusFilled, triggered.Status)
	suite.Equal("r2", triggered.ExchangeOrderID)

	_, open := suite.broker.Position(suite.asset)
	suite.False(open)
	suite.True(suite.broker.Cash().Equal(d("994.41")))
}

func (suite *LiveBrokerTestSuite) TestReadsAreRetried() {
	suite.connector.EXPECT().FetchTickers(gomock.Any(), []string{"BTCUSDT"}).
		Return(nil, fmt.Errorf("timeout"))
	suite.expectTicker("99")
	suite.expectBalance("1000")

	o := suite.order(types.ActionBuy, "0.5", types.OrderTypeStop)
	o.StopPrice = optional.Some(d("150"))
	_, err := suite.broker.Submit(suite.ctx, o)
	suite.Require().NoError(err)

	// the failed ticker read and its retry each consume one expectation
	_, err = suite.broker.Settle(suite.ctx, nil)
	suite.Require().NoError(err)
}

func (suite *LiveBrokerTestSuite) TestCancelReachesExchange() {
	o := suite.order(types.ActionBuy, "0.5", types.OrderTypeLimit)
	o.LimitPrice = optional.Some(d("90"))
	suite.expectCreate("r3", func(req tradingprovider.OrderRequest) bool { return true })

	_, err := suite.broker.Submit(suite.ctx, o)
	suite.Require().NoError(err)

	suite.connector.EXPECT().CancelOrder(gomock.Any(), "BTCUSDT", "r3").Return(nil)
	suite.Require().NoError(suite.broker.Cancel(suite.ctx, o.ID, types.OrderReasonStrategy))

	cancelled, _ := suite.broker.Order(o.ID)
	suite.Equal(types.OrderStatusCancelled, cancelled.Status)
}

func (suite *LiveBrokerTestSuite) TestCancelOnShutdown() {
	b := suite.newBroker(true)

	o := suite.order(types.ActionBuy, "0.5", types.OrderTypeLimit)
	o.LimitPrice = optional.Some(d("90"))
	suite.expectCreate("r4", func(req tradingprovider.OrderRequest) bool { return true })

	_, err := b.Submit(suite.ctx, o)
	suite.Require().NoError(err)

	suite.connector.EXPECT().CancelOrder(gomock.Any(), "BTCUSDT", "r4").Return(nil).Times(1)
	suite.Require().NoError(b.Close(suite.ctx))
}
