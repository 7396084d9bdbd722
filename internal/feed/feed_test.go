package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/event"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/retry"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/mocks"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const sampleCSV = `date,open,high,low,close,volume
2024-01-02T09:30:00Z,10,11,9,10.5,100
2024-01-02T09:31:00Z,10.5,12,10,11,200
2024-01-02T09:34:00Z,11,11.5,10.5,11.2,150
`

type memoryLoader map[types.Asset][]types.Candle

func (m memoryLoader) Load(_ context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	return clip(m[asset], start, end), nil
}

type recordingSink struct {
	candles []types.Candle
}

func (s *recordingSink) WriteCandles(_ context.Context, candles []types.Candle) error {
	s.candles = append(s.candles, candles...)

	return nil
}

type FeedTestSuite struct {
	suite.Suite
	asset types.Asset
	start time.Time
	log   *logger.Logger
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedTestSuite))
}

func (suite *FeedTestSuite) SetupTest() {
	suite.asset = types.NewAsset("AAPL", "NASDAQ", time.Minute)
	suite.start = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	suite.log = logger.NewNopLogger()
}

func drain(f Feed) []types.Candle {
	q := event.NewQueue()

	var out []types.Candle

	for !f.Exhausted() {
		_ = f.UpdateLatestData(context.Background(), q)

		for _, e := range q.PopBatch() {
			out = append(out, e.(event.MarketEvent).Candle)
		}
	}

	return out
}

func (suite *FeedTestSuite) TestReadCSV() {
	candles, err := ReadCSV(strings.NewReader(sampleCSV), suite.asset)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 3)
	suite.Equal(10.5, candles[0].Close)
	suite.Equal(200.0, candles[1].Volume)
	suite.True(candles[2].Timestamp.Equal(suite.start.Add(4 * time.Minute)))
	suite.Equal(suite.asset, candles[0].Asset)
}

func (suite *FeedTestSuite) TestReadCSVRejectsUnsortedRows() {
	unsorted := `date,open,high,low,close,volume
2024-01-02T09:31:00Z,1,1,1,1,1
2024-01-02T09:30:00Z,1,1,1,1,1
`
	_, err := ReadCSV(strings.NewReader(unsorted), suite.asset)
	suite.True(errors.HasCode(err, errors.ErrCodeOutOfOrderCandle))

	_, err = ReadCSV(strings.NewReader("date,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"), suite.asset)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
}

func (suite *FeedTestSuite) TestCSVRoundTripThroughLoader() {
	candles, err := ReadCSV(strings.NewReader(sampleCSV), suite.asset)
	suite.Require().NoError(err)

	path := filepath.Join(suite.T().TempDir(), "aapl.csv")
	file, err := os.Create(path)
	suite.Require().NoError(err)
	suite.Require().NoError(WriteCSV(file, candles))
	suite.Require().NoError(file.Close())

	loader := NewCSVLoader(map[types.Asset]string{suite.asset: path})
	loaded, err := loader.Load(context.Background(), suite.asset, suite.start.Add(time.Minute), time.Time{})
	suite.Require().NoError(err)
	suite.Equal(candles[1:], loaded)

	_, err = loader.Load(context.Background(), types.NewAsset("MSFT", "NASDAQ", time.Minute), time.Time{}, time.Time{})
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *FeedTestSuite) TestHistoricalFeedForwardFillsInsideSession() {
	candles, err := ReadCSV(strings.NewReader(sampleCSV), suite.asset)
	suite.Require().NoError(err)

	f, err := NewHistoricalFeed(context.Background(), memoryLoader{suite.asset: candles},
		[]types.Asset{suite.asset}, time.Time{}, time.Time{}, clock.DefaultSession(), suite.log)
	suite.Require().NoError(err)
	suite.Equal(2, f.Filled())

	out := drain(f)
	suite.Require().Len(out, 5)

	for i, c := range out {
		suite.True(c.Timestamp.Equal(suite.start.Add(time.Duration(i)*time.Minute)), "bar %d", i)
	}

	suite.Equal(11.0, out[2].Open)
	suite.Equal(11.0, out[3].High)
	suite.Zero(out[3].Volume)
	suite.Len(f.History(suite.asset), 5)
}

func (suite *FeedTestSuite) TestHistoricalFeedDoesNotFillAcrossSessions() {
	dayEnd := time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC)
	candles := []types.Candle{
		mocks.Bar(suite.asset, dayEnd, 1, 1, 1, 1),
		mocks.Bar(suite.asset, dayEnd.Add(10*time.Minute), 2, 2, 2, 2),
	}

	f, err := NewHistoricalFeed(context.Background(), memoryLoader{suite.asset: candles},
		[]types.Asset{suite.asset}, time.Time{}, time.Time{}, clock.DefaultSession(), suite.log)
	suite.Require().NoError(err)
	suite.Zero(f.Filled())
	suite.Len(drain(f), 2)
}

func (suite *FeedTestSuite) TestHistoricalFeedSessionEnd() {
	session, err := clock.ParseSession("UTC", "16:00")
	suite.Require().NoError(err)

	lastBars := time.Date(2024, 1, 2, 15, 57, 0, 0, time.UTC)
	nextDay := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)
	candles := []types.Candle{
		mocks.Bar(suite.asset, lastBars, 1, 1, 1, 1),
		mocks.Bar(suite.asset, lastBars.Add(time.Minute), 2, 2, 2, 2),
		mocks.Bar(suite.asset, nextDay, 3, 3, 3, 3),
	}

	f, err := NewHistoricalFeed(context.Background(), memoryLoader{suite.asset: candles},
		[]types.Asset{suite.asset}, time.Time{}, time.Time{}, session, suite.log)
	suite.Require().NoError(err)
	suite.Zero(f.Filled())

	suite.False(f.SessionEnd(candles[0]))
	suite.True(f.SessionEnd(candles[1]), "15:59 is missing so 15:58 closes the session")
	suite.True(f.SessionEnd(candles[2]), "the last candle of the feed closes its session")

	unknown := mocks.Bar(suite.asset, lastBars.Add(30*time.Second), 1, 1, 1, 1)
	suite.False(f.SessionEnd(unknown))

	other := mocks.Bar(types.NewAsset("MSFT", "NASDAQ", time.Minute), lastBars.Add(time.Minute), 1, 1, 1, 1)
	suite.False(f.SessionEnd(other))
}

func (suite *FeedTestSuite) TestHistoricalFeedEmitsOneTimestampPerCall() {
	other := types.NewAsset("MSFT", "NASDAQ", time.Minute)
	loader := memoryLoader{
		suite.asset: mocks.FromCloses(suite.asset, suite.start, 1, 2, 3),
		other:       mocks.FromCloses(other, suite.start.Add(time.Minute), 10, 20),
	}
	sink := &recordingSink{}

	f, err := NewHistoricalFeed(context.Background(), loader, []types.Asset{suite.asset, other},
		time.Time{}, time.Time{}, clock.DefaultSession(), suite.log, WithSink(sink))
	suite.Require().NoError(err)
	suite.Equal(3, f.Len())

	q := event.NewQueue()
	suite.Require().NoError(f.UpdateLatestData(context.Background(), q))
	suite.Equal(1, q.Len())

	suite.Require().NoError(f.UpdateLatestData(context.Background(), q))
	suite.Equal(3, q.Len())
	suite.False(f.Exhausted())

	suite.Require().NoError(f.UpdateLatestData(context.Background(), q))
	suite.True(f.Exhausted())
	suite.Len(sink.candles, 5)

	var last time.Time

	for q.Len() > 0 {
		e, _ := q.Next()
		suite.False(e.GetTime().Before(last))
		last = e.GetTime()
	}
}

func (suite *FeedTestSuite) TestHistoricalFeedRejectsOutOfOrder() {
	candles := mocks.FromCloses(suite.asset, suite.start, 1, 2)
	candles[0], candles[1] = candles[1], candles[0]

	_, err := NewHistoricalFeed(context.Background(), memoryLoader{suite.asset: candles},
		[]types.Asset{suite.asset}, time.Time{}, time.Time{}, clock.DefaultSession(), suite.log)
	suite.True(errors.HasCode(err, errors.ErrCodeOutOfOrderCandle))

	_, err = NewHistoricalFeed(context.Background(), memoryLoader{}, nil,
		time.Time{}, time.Time{}, clock.DefaultSession(), suite.log)
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoAssets))
}

func (suite *FeedTestSuite) TestReplayIsIdentical() {
	candles := mocks.NewDataGenerator(7).Generate(mocks.GeneratorConfig{
		Asset:        suite.asset,
		StartTime:    suite.start,
		Count:        200,
		InitialPrice: 50,
		Volatility:   0.01,
		VolumeBase:   100,
	})

	build := func() []types.Candle {
		f, err := NewHistoricalFeed(context.Background(), memoryLoader{suite.asset: candles},
			[]types.Asset{suite.asset}, time.Time{}, time.Time{}, clock.DefaultSession(), suite.log)
		suite.Require().NoError(err)

		return drain(f)
	}

	suite.Equal(build(), build())
}

func (suite *FeedTestSuite) TestLiveFeedEmitsOnlyClosedNewCandles() {
	fetcher := mocks.NewMockCandleFetcher(gomock.NewController(suite.T()))
	now := suite.start.Add(3*time.Minute + 30*time.Second)
	sleeps := 0

	f := NewLiveFeed(fetcher, []types.Asset{suite.asset}, DefaultLiveFeedConfig(), suite.log,
		WithNow(func() time.Time { return now }),
		WithSleep(func(context.Context, time.Duration) error { sleeps++; return nil }),
	)

	first := mocks.FromCloses(suite.asset, suite.start.Add(2*time.Minute), 1, 2)
	fetcher.EXPECT().FetchOHLCV(gomock.Any(), suite.asset, suite.start.Add(2*time.Minute), now).Return(first, nil)

	q := event.NewQueue()
	suite.Require().NoError(f.UpdateLatestData(context.Background(), q))
	suite.Equal(1, q.Len(), "the bar opened at 09:33 is still forming")
	suite.Zero(sleeps)

	q.Reset()

	now = suite.start.Add(6*time.Minute + 5*time.Second)
	second := []types.Candle{
		mocks.Bar(suite.asset, suite.start.Add(3*time.Minute), 2, 2, 2, 2),
		mocks.Bar(suite.asset, suite.start.Add(5*time.Minute), 4, 4, 4, 4),
	}
	fetcher.EXPECT().FetchOHLCV(gomock.Any(), suite.asset, suite.start.Add(3*time.Minute), now).Return(second, nil)

	suite.Require().NoError(f.UpdateLatestData(context.Background(), q))
	suite.Equal(1, sleeps)

	var got []types.Candle
	for _, e := range q.PopBatch() {
		got = append(got, e.(event.MarketEvent).Candle)
	}

	for q.Len() > 0 {
		for _, e := range q.PopBatch() {
			got = append(got, e.(event.MarketEvent).Candle)
		}
	}

	suite.Require().Len(got, 3)
	suite.Equal(2.0, got[1].Close, "09:34 is forward filled")
	suite.Zero(got[1].Volume)
	suite.Equal(4.0, got[2].Close)
	suite.False(f.Exhausted())
}

func (suite *FeedTestSuite) TestLiveFeedRetriesTransportErrors() {
	fetcher := mocks.NewMockCandleFetcher(gomock.NewController(suite.T()))
	now := suite.start.Add(2 * time.Minute)

	config := DefaultLiveFeedConfig()
	config.Retry = retry.Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}

	f := NewLiveFeed(fetcher, []types.Asset{suite.asset}, config, suite.log,
		WithNow(func() time.Time { return now }))

	gomock.InOrder(
		fetcher.EXPECT().FetchOHLCV(gomock.Any(), suite.asset, gomock.Any(), now).
			Return(nil, errors.New(errors.ErrCodeTransport, "timeout")).Times(2),
		fetcher.EXPECT().FetchOHLCV(gomock.Any(), suite.asset, gomock.Any(), now).
			Return(mocks.FromCloses(suite.asset, suite.start, 1), nil).Times(1),
	)

	q := event.NewQueue()
	suite.Require().NoError(f.UpdateLatestData(context.Background(), q))
	suite.Equal(1, q.Len())
}

func (suite *FeedTestSuite) TestLiveFeedStopsOnCancelledContext() {
	fetcher := mocks.NewMockCandleFetcher(gomock.NewController(suite.T()))
	f := NewLiveFeed(fetcher, []types.Asset{suite.asset}, DefaultLiveFeedConfig(), suite.log)
	f.polled = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suite.ErrorIs(f.UpdateLatestData(ctx, event.NewQueue()), context.Canceled)
}
