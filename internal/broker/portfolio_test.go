package broker

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PortfolioTestSuite struct {
	suite.Suite
	asset types.Asset
	ts    time.Time
}

func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioTestSuite))
}

func (suite *PortfolioTestSuite) SetupTest() {
	suite.asset = types.NewAsset("BTCUSDT", "BINANCE", time.Minute)
	suite.ts = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *PortfolioTestSuite) tx(action types.Action, direction types.Direction, size, price, fee string) types.Transaction {
	return types.Transaction{
		Asset:     suite.asset,
		Action:    action,
		Direction: direction,
		Size:      d(size),
		Price:     d(price),
		Fee:       d(fee),
		Tax:       decimal.Zero,
		Timestamp: suite.ts,
	}
}

func (suite *PortfolioTestSuite) TestApplyOpensAndCloses() {
	p := NewPortfolio(d("1000"))

	p.Apply(suite.tx(types.ActionBuy, types.DirectionLong, "2", "100", "0.5"))
	suite.True(p.Cash().Equal(d("799.5")))

	pos, ok := p.Position(suite.asset)
	suite.Require().True(ok)
	suite.True(pos.Size.Equal(d("2")))

	closed := p.Apply(suite.tx(types.ActionSell, types.DirectionLong, "2", "150", "0.5"))
	suite.True(closed.RealizedPnL.Equal(d("100")))
	suite.True(p.Cash().Equal(d("1099")))

	_, ok = p.Position(suite.asset)
	suite.False(ok)
	suite.Empty(p.Positions())
}

func (suite *PortfolioTestSuite) TestEquityUsesMarksOrEntry() {
	p := NewPortfolio(d("1000"))
	p.Apply(suite.tx(types.ActionBuy, types.DirectionLong, "2", "100", "0"))

	suite.True(p.Equity(nil).Equal(d("1000")))
	suite.True(p.Equity(map[types.Asset]decimal.Decimal{suite.asset: d("120")}).Equal(d("1040")))

	p.Mark(map[types.Asset]decimal.Decimal{suite.asset: d("120")})

	pos, _ := p.Position(suite.asset)
	suite.True(pos.UnrealizedPnL.Equal(d("40")))
}

func (suite *PortfolioTestSuite) TestShortEquity() {
	p := NewPortfolio(d("1000"))
	p.Apply(suite.tx(types.ActionSell, types.DirectionShort, "2", "100", "0"))

	suite.True(p.Cash().Equal(d("1200")))
	suite.True(p.Equity(map[types.Asset]decimal.Decimal{suite.asset: d("90")}).Equal(d("1020")))
}

func (suite *PortfolioTestSuite) TestPositionsKeepOpeningOrder() {
	p := NewPortfolio(d("10000"))
	other := types.NewAsset("ETHUSDT", "BINANCE", time.Minute)

	p.Apply(suite.tx(types.ActionBuy, types.DirectionLong, "1", "100", "0"))

	eth := suite.tx(types.ActionBuy, types.DirectionLong, "1", "10", "0")
	eth.Asset = other
	p.Apply(eth)

	positions := p.Positions()
	suite.Require().Len(positions, 2)
	suite.Equal(suite.asset, positions[0].Asset)
	suite.Equal(other, positions[1].Asset)
}
