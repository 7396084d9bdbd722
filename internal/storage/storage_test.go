package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/mocks"
	"github.com/stretchr/testify/suite"
)

type StorageTestSuite struct {
	suite.Suite
	store CandleStore
	asset types.Asset
	start time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (suite *StorageTestSuite) SetupTest() {
	store, err := NewCandleStore(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.store = store
	suite.asset = types.NewAsset("XRP/USDT", "BINANCE", time.Minute)
	suite.start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *StorageTestSuite) TearDownTest() {
	suite.NoError(suite.store.Close())
}

func (suite *StorageTestSuite) TestWriteAndReadRange() {
	ctx := context.Background()
	candles := mocks.FromCloses(suite.asset, suite.start, 1, 2, 3, 4, 5)
	suite.Require().NoError(suite.store.WriteCandles(ctx, candles))

	got, err := suite.store.Read(ctx, suite.asset, suite.start.Add(time.Minute), suite.start.Add(3*time.Minute))
	suite.Require().NoError(err)
	suite.Require().Len(got, 3)
	suite.Equal(2.0, got[0].Close)
	suite.Equal(4.0, got[2].Close)
	suite.True(got[0].Timestamp.Equal(suite.start.Add(time.Minute)))
	suite.Equal(suite.asset, got[0].Asset)

	all, err := suite.store.Read(ctx, suite.asset, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Len(all, 5)
}

func (suite *StorageTestSuite) TestTagsSeparateSeries() {
	ctx := context.Background()
	other := types.NewAsset("XRP/USDT", "KUCOIN", time.Minute)
	fiveMin := types.NewAsset("XRP/USDT", "BINANCE", 5*time.Minute)

	suite.Require().NoError(suite.store.WriteCandles(ctx, mocks.FromCloses(suite.asset, suite.start, 1, 2)))
	suite.Require().NoError(suite.store.WriteCandles(ctx, mocks.FromCloses(other, suite.start, 9)))
	suite.Require().NoError(suite.store.WriteCandles(ctx, mocks.FromCloses(fiveMin, suite.start, 7, 8, 9)))

	for asset, want := range map[types.Asset]int{suite.asset: 2, other: 1, fiveMin: 3} {
		n, err := suite.store.Count(ctx, asset)
		suite.Require().NoError(err)
		suite.Equal(want, n, asset.Key())
	}
}

func (suite *StorageTestSuite) TestWriteReplacesSameTimestamp() {
	ctx := context.Background()
	suite.Require().NoError(suite.store.WriteCandles(ctx, mocks.FromCloses(suite.asset, suite.start, 1)))
	suite.Require().NoError(suite.store.WriteCandles(ctx, mocks.FromCloses(suite.asset, suite.start, 2)))

	got, err := suite.store.Read(ctx, suite.asset, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal(2.0, got[0].Close)
}

func (suite *StorageTestSuite) TestExportParquet() {
	ctx := context.Background()
	suite.Require().NoError(suite.store.WriteCandles(ctx, mocks.FromCloses(suite.asset, suite.start, 1, 2, 3)))

	path := filepath.Join(suite.T().TempDir(), "candles.parquet")
	suite.Require().NoError(suite.store.ExportParquet(path))

	info, err := os.Stat(path)
	suite.Require().NoError(err)
	suite.Positive(info.Size())
}
