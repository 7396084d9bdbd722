package indicator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
	asset types.Asset
	ts    time.Time
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) SetupTest() {
	suite.asset = types.NewAsset("AAPL", "NASDAQ", time.Minute)
	suite.ts = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
}

func (suite *IndicatorTestSuite) candle(i int, open, high, low, close float64) types.Candle {
	return types.Candle{
		Asset: suite.asset, Open: open, High: high, Low: low, Close: close, Volume: 100,
		Timestamp: suite.ts.Add(time.Duration(i) * time.Minute),
	}
}

func (suite *IndicatorTestSuite) pushCloses(f *Factory, closes ...float64) {
	for i, c := range closes {
		f.OnCandle(suite.candle(i, c, c, c, c))
	}
}

func (suite *IndicatorTestSuite) TestSMAWarmup() {
	src := NewSource("raw", 10)
	f := NewFactory()
	sma := f.SMA(src, 3)

	src.Push(7.2)
	suite.True(sma.Value().IsNone())
	src.Push(6.7)
	suite.True(sma.Value().IsNone())
	src.Push(6.3)
	suite.InDelta(6.733333333, sma.Value().Unwrap(), 1e-9)
	src.Push(7.0)
	suite.InDelta(6.666666667, sma.Value().Unwrap(), 1e-9)

	// history is readable by offset
	suite.InDelta(6.733333333, sma.At(1).Unwrap(), 1e-9)
	suite.True(sma.At(3).IsNone())
	suite.True(sma.At(10).IsNone())
}

func (suite *IndicatorTestSuite) TestMemoization() {
	f := NewFactory()
	closes := f.Candles(suite.asset).Close()

	a := f.SMA(closes, 20)
	b := f.SMA(f.Candles(suite.asset).Close(), 20)
	suite.Same(a, b)

	suite.NotSame(a, f.SMA(closes, 21))
	suite.NotSame(a, f.SMA(closes, 20, WithOwner("other")))
	suite.NotSame(a, f.SMA(closes, 20, WithSize(10)))

	c := f.SMA(closes, 20, WithMemoize(false))
	d := f.SMA(closes, 20, WithMemoize(false))
	suite.NotSame(c, d)
	suite.NotEqual(c.Key(), d.Key())

	suite.Same(f.Candles(suite.asset), f.Candles(suite.asset))
	suite.NotSame(f, NewFactory())
}

func (suite *IndicatorTestSuite) TestEMA() {
	f := NewFactory()
	ema := f.EMA(f.Candles(suite.asset).Close(), 3)

	suite.pushCloses(f, 1, 2, 3)
	suite.InDelta(2.0, ema.Value().Unwrap(), 1e-12)

	f.OnCandle(suite.candle(3, 6, 6, 6, 6))
	suite.InDelta(0.5*6+0.5*2, ema.Value().Unwrap(), 1e-12)
}

func (suite *IndicatorTestSuite) TestRSI() {
	f := NewFactory()
	rsi := f.RSI(f.Candles(suite.asset).Close(), 2)

	suite.pushCloses(f, 10, 11)
	suite.True(rsi.Value().IsNone())

	f.OnCandle(suite.candle(2, 12, 12, 12, 12))
	suite.InDelta(100.0, rsi.Value().Unwrap(), 1e-12)

	f.OnCandle(suite.candle(3, 11, 11, 11, 11))
	// avgGain = (1*1+0)/2 = 0.5, avgLoss = (0*1+1)/2 = 0.5
	suite.InDelta(50.0, rsi.Value().Unwrap(), 1e-12)
}

func (suite *IndicatorTestSuite) TestCrossoverComputesOncePerTick() {
	f := NewFactory()
	closes := f.Candles(suite.asset).Close()
	fast := f.SMA(closes, 1)
	slow := f.SMA(closes, 3)
	cross := f.Crossover(fast, slow)

	suite.pushCloses(f, 10, 10, 10, 10)
	suite.Equal(0.0, cross.Value().Unwrap())

	f.OnCandle(suite.candle(4, 13, 13, 13, 13))
	suite.Equal(1.0, cross.Value().Unwrap())
	suite.Equal(5, cross.Count())

	f.OnCandle(suite.candle(5, 5, 5, 5, 5))
	suite.Equal(-1.0, cross.Value().Unwrap())
}

func (suite *IndicatorTestSuite) TestMACDSharesEMAs() {
	f := NewFactory()
	closes := f.Candles(suite.asset).Close()
	macd := f.MACD(closes, 2, 3, 2)
	ema2 := f.EMA(closes, 2)

	before := f.Len()
	again := f.MACD(closes, 2, 3, 2)
	suite.Equal(before, f.Len())
	suite.Same(macd.Line, again.Line)

	suite.pushCloses(f, 1, 2, 3, 4, 5)
	suite.True(macd.Histogram.Value().IsSome())
	suite.True(ema2.Value().IsSome())

	line := macd.Line.Value().Unwrap()
	suite.InDelta(line-macd.Signal.Value().Unwrap(), macd.Histogram.Value().Unwrap(), 1e-12)
}

func (suite *IndicatorTestSuite) TestATRAndBollinger() {
	f := NewFactory()
	src := f.Candles(suite.asset)
	atr := f.ATR(src, 2)
	bands := f.BollingerBands(src.Close(), 2, 2)

	f.OnCandle(suite.candle(0, 10, 11, 9, 10))
	suite.True(atr.Value().IsNone())
	suite.True(bands.Upper().Value().IsNone())

	f.OnCandle(suite.candle(1, 10, 14, 10, 12))
	// TR0 = 2, TR1 = max(4, |14-10|, |10-10|) = 4
	suite.InDelta(3.0, atr.Value().Unwrap(), 1e-12)
	suite.InDelta(11.0, bands.Middle().Value().Unwrap(), 1e-12)
	suite.InDelta(13.0, bands.Upper().Value().Unwrap(), 1e-12)
	suite.InDelta(9.0, bands.Lower().Value().Unwrap(), 1e-12)
}

// structure feeds a swing high at bar 2, swing low at bar 4, and a break above the high at bar 6.
func (suite *IndicatorTestSuite) structure(f *Factory) {
	bars := [][4]float64{
		{10, 11, 9, 10},
		{10, 12, 10, 11},
		{11, 15, 11, 14}, // swing high 15
		{14, 14, 10, 11},
		{11, 11, 8, 9}, // swing low 8
		{9, 12, 9, 12},
		{12, 17, 12, 16}, // body high 16 > 15: bullish break
		{16, 16, 13, 14},
		{14, 14, 10.5, 11}, // re-enters the demand zone [8, 11]
	}

	for i, b := range bars {
		f.OnCandle(suite.candle(i, b[0], b[1], b[2], b[3]))
	}
}

func (suite *IndicatorTestSuite) TestSwingsBOSAndPoiTouch() {
	f := NewFactory()
	swings := f.Swings(f.Candles(suite.asset), SwingMethodExtrema, 1)
	bos := f.BOS(swings, ReferenceBody)
	poi := f.PoiTouch(bos)

	suite.structure(f)

	all := swings.All()
	suite.Require().GreaterOrEqual(len(all), 2)
	suite.Equal(SwingHigh, all[0].Kind)
	suite.Equal(15.0, all[0].Price)
	suite.Equal(SwingLow, all[1].Kind)
	suite.Equal(8.0, all[1].Price)

	breaks := bos.Breaks()
	suite.Require().Len(breaks, 1)
	suite.Equal(1, breaks[0].Direction)
	suite.Equal(suite.ts.Add(6*time.Minute), breaks[0].Candle.Timestamp)

	touches := poi.Touches()
	suite.Require().Len(touches, 1)
	suite.Equal(1, touches[0].Zone.Direction)
	suite.Equal(8.0, touches[0].Zone.Low)
	suite.Equal(11.0, touches[0].Zone.High)
	suite.Equal(1.0, poi.Value().Unwrap())
	suite.Equal(0, poi.ActiveZones())
}

func (suite *IndicatorTestSuite) TestCandleReferenceMode() {
	f := NewFactory()
	swings := f.Swings(f.Candles(suite.asset), SwingMethodExtrema, 1)
	body := f.BOS(swings, ReferenceBody)
	wick := f.BOS(swings, ReferenceCandle)
	suite.NotSame(body, wick)

	bars := [][4]float64{
		{10, 11, 9, 10},
		{10, 15, 10, 11}, // swing high 15
		{11, 12, 10, 11},
		{11, 16, 11, 12}, // wick above 15, body below
	}

	for i, b := range bars {
		f.OnCandle(suite.candle(i, b[0], b[1], b[2], b[3]))
	}

	suite.Empty(body.Breaks())
	suite.Len(wick.Breaks(), 1)
}

func (suite *IndicatorTestSuite) TestFractalSwings() {
	f := NewFactory()
	swings := f.Swings(f.Candles(suite.asset), SwingMethodFractal, 7)

	bars := [][4]float64{
		{10, 11, 9, 10},
		{10, 12, 10, 11},
		{11, 15, 11, 14},
		{14, 15, 12, 13}, // equal high after the center is allowed
		{13, 13, 11, 12},
	}

	for i, b := range bars {
		f.OnCandle(suite.candle(i, b[0], b[1], b[2], b[3]))
	}

	last, ok := swings.Last(SwingHigh)
	suite.True(ok)
	suite.Equal(suite.ts.Add(2*time.Minute), last.Candle.Timestamp)
}

type fixedHistory struct {
	candles []types.Candle
}

func (h fixedHistory) History(types.Asset) []types.Candle { return h.candles }

func (suite *IndicatorTestSuite) TestBatchModeMatchesWarmup() {
	var candles []types.Candle
	for i, c := range []float64{7.2, 6.7, 6.3, 7.0} {
		candles = append(candles, suite.candle(i, c, c, c, c))
	}

	f := NewFactory(WithMode(ModeBatch, fixedHistory{candles: candles}))
	suite.Equal(ModeBatch, f.Mode())

	sma := f.SMA(f.Candles(suite.asset).Close(), 3)
	_, isBatch := sma.(*batchNode)
	suite.True(isBatch)

	var values []optional.Option[float64]
	for _, c := range candles {
		f.OnCandle(c)
		values = append(values, sma.Value())
	}

	suite.True(values[0].IsNone())
	suite.True(values[1].IsNone())
	suite.InDelta(6.733333333, values[2].Unwrap(), 1e-9)
	suite.InDelta(6.666666667, values[3].Unwrap(), 1e-9)
}

func (suite *IndicatorTestSuite) TestRegistry() {
	r := NewDefaultIndicatorRegistry()
	suite.Equal([]string{"atr", "bollinger", "ema", "macd", "rsi", "sma"}, r.ListIndicators())

	build, err := r.GetIndicator("sma")
	suite.Require().NoError(err)

	f := NewFactory()
	series, err := build(f, suite.asset, map[string]float64{"period": 3})
	suite.NoError(err)
	suite.Same(f.SMA(f.Candles(suite.asset).Close(), 3), series)

	_, err = build(f, suite.asset, map[string]float64{})
	suite.Error(err)
	_, err = build(f, suite.asset, map[string]float64{"period": 1.5})
	suite.Error(err)

	_, err = r.GetIndicator("nope")
	suite.Error(err)
	suite.Error(r.RegisterIndicator("sma", nil))
	suite.NoError(r.RemoveIndicator("sma"))
	suite.Error(r.RemoveIndicator("sma"))
}

func (suite *IndicatorTestSuite) TestIntervalTree() {
	tree := NewIntervalTree()
	for i := 0; i < 50; i++ {
		tree.Insert(Interval{Low: float64(i), High: float64(i) + 2, ID: i})
	}

	hits := tree.Overlapping(10.5, 11)
	suite.Len(hits, 3) // [9,11] [10,12] [11,13]
	suite.Equal(9, hits[0].ID)

	suite.True(tree.Delete(Interval{Low: 10, High: 12, ID: 10}))
	suite.False(tree.Delete(Interval{Low: 10, High: 12, ID: 10}))
	suite.Len(tree.Overlapping(10.5, 11), 2)
	suite.Equal(49, tree.Len())
	suite.Empty(tree.Overlapping(100, 200))
}

func (suite *IndicatorTestSuite) TestRingBuffer() {
	r := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	v, ok := r.Get(0)
	suite.True(ok)
	suite.Equal(5, v)
	suite.Equal([]int{3, 4, 5}, r.Values())

	_, ok = r.Get(3)
	suite.False(ok)
}
