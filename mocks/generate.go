package mocks

//go:generate mockgen -destination=./mock_connector.go -package=mocks github.com/rxtech-lab/argo-quant/internal/trading/provider Connector
//go:generate mockgen -destination=./mock_candle_fetcher.go -package=mocks github.com/rxtech-lab/argo-quant/internal/feed CandleFetcher
//go:generate mockgen -destination=./mockbroker/mock_broker.go -package=mockbroker github.com/rxtech-lab/argo-quant/internal/broker Broker
