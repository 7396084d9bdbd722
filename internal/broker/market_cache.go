package broker

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultLotSizeTTL    = 24 * time.Hour
	DefaultSymbolInfoTTL = 10 * 24 * time.Hour
)

// LotSize bounds the order sizes an exchange accepts for a symbol.
type LotSize struct {
	MinQty decimal.Decimal
	MaxQty decimal.Decimal
	Step   decimal.Decimal
}

// SymbolInfo names the currencies of a symbol.
type SymbolInfo struct {
	Symbol string
	Base   string
	Quote  string
}

// MarketCache keeps exchange metadata with separate lifetimes for lot sizes and symbol info.
type MarketCache struct {
	cache   *ristretto.Cache
	lotTTL  time.Duration
	infoTTL time.Duration
}

func NewMarketCache(lotTTL, infoTTL time.Duration) (*MarketCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create market cache", err)
	}

	return &MarketCache{cache: cache, lotTTL: lotTTL, infoTTL: infoTTL}, nil
}

func (m *MarketCache) LotSize(symbol string) (LotSize, bool) {
	v, ok := m.cache.Get("lot:" + symbol)
	if !ok {
		return LotSize{}, false
	}

	lot, ok := v.(LotSize)

	return lot, ok
}

func (m *MarketCache) SetLotSize(symbol string, lot LotSize) {
	m.cache.SetWithTTL("lot:"+symbol, lot, 1, m.lotTTL)
	m.cache.Wait()
}

func (m *MarketCache) SymbolInfo(symbol string) (SymbolInfo, bool) {
	v, ok := m.cache.Get("info:" + symbol)
	if !ok {
		return SymbolInfo{}, false
	}

	info, ok := v.(SymbolInfo)

	return info, ok
}

func (m *MarketCache) SetSymbolInfo(info SymbolInfo) {
	m.cache.SetWithTTL("info:"+info.Symbol, info, 1, m.infoTTL)
	m.cache.Wait()
}

func (m *MarketCache) Close() {
	m.cache.Close()
}
