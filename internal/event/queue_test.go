package event

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/stretchr/testify/suite"
)

type QueueTestSuite struct {
	suite.Suite
	ts time.Time
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}

func (suite *QueueTestSuite) SetupTest() {
	suite.ts = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
}

func (suite *QueueTestSuite) event(symbol string, offset time.Duration) MarketEvent {
	return MarketEvent{Candle: types.Candle{
		Asset:     types.NewAsset(symbol, "BINANCE", time.Minute),
		Timestamp: suite.ts.Add(offset),
	}}
}

func (suite *QueueTestSuite) TestOrdering() {
	q := NewQueue()
	q.Append(suite.event("B", time.Minute))
	q.Append(suite.event("A", 0))
	q.Append(suite.event("C", time.Minute))

	first, ok := q.Next()
	suite.True(ok)
	suite.Equal("A", first.(MarketEvent).Candle.Asset.Symbol)

	second, _ := q.Next()
	suite.Equal("B", second.(MarketEvent).Candle.Asset.Symbol)

	third, _ := q.Next()
	suite.Equal("C", third.(MarketEvent).Candle.Asset.Symbol)

	_, ok = q.Next()
	suite.False(ok)
}

func (suite *QueueTestSuite) TestPopBatch() {
	q := NewQueue()
	q.Append(suite.event("A", 0))
	q.Append(suite.event("B", 0))
	q.Append(suite.event("A", time.Minute))

	batch := q.PopBatch()
	suite.Len(batch, 2)
	suite.Equal(1, q.Len())

	head, ok := q.Peek()
	suite.True(ok)
	suite.Equal(suite.ts.Add(time.Minute), head.GetTime())

	q.Reset()
	suite.Nil(q.PopBatch())
}
