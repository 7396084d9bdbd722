package mocks

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

func TestDataGenerator_Generate(t *testing.T) {
	config := DefaultConfig()
	config.Count = 100

	candles := NewDataGenerator(42).Generate(config)

	if len(candles) != 100 {
		t.Fatalf("expected 100 candles, got %d", len(candles))
	}

	for i, c := range candles {
		if err := c.Validate(); err != nil {
			t.Errorf("invalid candle at index %d: %v", i, err)
		}

		if c.Asset != config.Asset {
			t.Errorf("expected asset %s at index %d, got %s", config.Asset, i, c.Asset)
		}

		if i > 0 && c.Timestamp.Sub(candles[i-1].Timestamp) != time.Minute {
			t.Errorf("unexpected interval at index %d", i)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10

	a := NewDataGenerator(42).Generate(config)
	b := NewDataGenerator(42).Generate(config)
	c := NewDataGenerator(123).Generate(config)

	same := 0

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("data not reproducible at index %d", i)
		}

		if a[i].Close == c[i].Close {
			same++
		}
	}

	if same == len(a) {
		t.Error("different seeds produced identical data")
	}
}

func TestGenerateMultiAsset(t *testing.T) {
	assets := []types.Asset{
		types.NewAsset("AAPL", "SIM", time.Minute),
		types.NewAsset("MSFT", "SIM", time.Minute),
	}
	config := DefaultConfig()
	config.Count = 50

	out := NewDataGenerator(1).GenerateMultiAsset(assets, config)

	for _, asset := range assets {
		if len(out[asset]) != 50 {
			t.Errorf("expected 50 candles for %s, got %d", asset, len(out[asset]))
		}
	}
}

func TestFromCloses(t *testing.T) {
	asset := types.NewAsset("X", "SIM", 5*time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	candles := FromCloses(asset, start, 1, 2, 3)

	if len(candles) != 3 || candles[2].Close != 3 {
		t.Fatalf("unexpected candles %+v", candles)
	}

	if !candles[2].Timestamp.Equal(start.Add(10 * time.Minute)) {
		t.Errorf("expected third candle at +10m, got %s", candles[2].Timestamp)
	}
}
