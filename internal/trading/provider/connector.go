package tradingprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/strategy"
	"github.com/shopspring/decimal"
)

// Connector is the unified exchange API used by the live broker and the live feed.
// Symbols are exchange-native (XRPUSDT on Binance).
type Connector interface {
	// Name returns the exchange name assets refer to.
	Name() string
	FetchOHLCV(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error)
	FetchTickers(ctx context.Context, symbols []string) (map[string]Ticker, error)
	FetchBalance(ctx context.Context) (map[string]Balance, error)
	CreateOrder(ctx context.Context, req OrderRequest) (RemoteOrder, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	FetchOpenOrders(ctx context.Context) ([]RemoteOrder, error)
	FetchMyTrades(ctx context.Context, symbol string, since time.Time) ([]Trade, error)
	FetchMarkets(ctx context.Context, symbols []string) (map[string]Market, error)
}

type Ticker struct {
	Symbol    string
	Last      decimal.Decimal
	Timestamp time.Time
}

type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Total returns free + locked.
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

type Trade struct {
	ID        string
	OrderID   string
	Symbol    string
	Action    types.Action
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Fee       decimal.Decimal
	Timestamp time.Time
}

// Market carries the symbol metadata needed to size orders.
type Market struct {
	Symbol  string
	Base    string
	Quote   string
	MinQty  decimal.Decimal
	MaxQty  decimal.Decimal
	LotStep decimal.Decimal
}

// OrderRequest is an exchange order. Only MARKET and LIMIT reach the exchange;
// stop and bracket legs are triggered locally by the live broker.
type OrderRequest struct {
	Symbol string
	Action types.Action
	Type   types.OrderType
	Amount decimal.Decimal
	Price  optional.Option[decimal.Decimal]
	// ClientID is echoed back by the exchange.
	ClientID string
}

type RemoteOrder struct {
	ID       string
	ClientID string
	Symbol   string
	Status   types.OrderStatus
	Filled   decimal.Decimal
	Price    decimal.Decimal
}

type ProviderType string

const (
	ProviderBinancePaper ProviderType = "binance-paper"
	ProviderBinanceLive  ProviderType = "binance-live"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBinancePaper: {
		Name:           string(ProviderBinancePaper),
		DisplayName:    "Binance Testnet",
		Description:    "Binance testnet for paper trading without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceLive: {
		Name:           string(ProviderBinanceLive),
		DisplayName:    "Binance Live",
		Description:    "Binance spot trading with real funds",
		IsPaperTrading: false,
	},
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema of a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderBinancePaper, ProviderBinanceLive:
		return strategy.ToJSONSchema(BinanceProviderConfig{})
	default:
		return "", fmt.Errorf("unsupported trading provider: %s", providerName)
	}
}

// NewConnector creates the connector of a provider type.
func NewConnector(providerType ProviderType, config BinanceProviderConfig) (Connector, error) {
	switch providerType {
	case ProviderBinancePaper:
		return NewBinanceConnector(config, true)
	case ProviderBinanceLive:
		return NewBinanceConnector(config, false)
	default:
		return nil, fmt.Errorf("unsupported trading provider: %s", providerType)
	}
}
