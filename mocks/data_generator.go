package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// DataGenerator generates deterministic candle series for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	Asset     types.Asset
	StartTime time.Time
	Count     int
	// InitialPrice is the open of the first candle
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns (0.002 = 0.2%)
	Volatility float64
	// Trend is the total drift spread over the series
	Trend          float64
	VolumeBase     float64
	VolumeVariance float64
}

// DefaultConfig returns 10000 one-minute candles of TEST@SIM.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Asset:          types.NewAsset("TEST", "SIM", time.Minute),
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:          10000,
		InitialPrice:   100.0,
		Volatility:     0.002,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates candles following a geometric Brownian motion, one per time unit.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, config.Count)
	price := config.InitialPrice
	ts := config.StartTime.UTC()

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, close) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		open = roundToDecimals(open, 4)
		close = roundToDecimals(close, 4)

		candles[i] = types.Candle{
			Asset:     config.Asset,
			Open:      open,
			High:      math.Max(roundToDecimals(high, 4), math.Max(open, close)),
			Low:       math.Min(roundToDecimals(low, 4), math.Min(open, close)),
			Close:     close,
			Volume:    roundToDecimals(volume, 2),
			Timestamp: ts,
		}

		price = close
		ts = ts.Add(config.Asset.TimeUnit)
	}

	return candles
}

// GenerateMultiAsset generates one series per asset with slightly varied price and volatility.
func (g *DataGenerator) GenerateMultiAsset(assets []types.Asset, baseConfig GeneratorConfig) map[types.Asset][]types.Candle {
	out := make(map[types.Asset][]types.Candle, len(assets))

	for _, asset := range assets {
		config := baseConfig
		config.Asset = asset
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		out[asset] = g.Generate(config)
	}

	return out
}

// Generate10K returns 10000 candles of asset with the default settings and seed 42.
func Generate10K(asset types.Asset) []types.Candle {
	config := DefaultConfig()
	config.Asset = asset

	return NewDataGenerator(42).Generate(config)
}

// FromCloses builds flat candles (open = high = low = close) from a close series.
func FromCloses(asset types.Asset, start time.Time, closes ...float64) []types.Candle {
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		candles[i] = types.Candle{
			Asset:     asset,
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
			Timestamp: start.UTC().Add(time.Duration(i) * asset.TimeUnit),
		}
	}

	return candles
}

// Bar builds one candle at ts.
func Bar(asset types.Asset, ts time.Time, open, high, low, close float64) types.Candle {
	return types.Candle{Asset: asset, Open: open, High: high, Low: low, Close: close, Volume: 1, Timestamp: ts.UTC()}
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
