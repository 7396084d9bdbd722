package tradingprovider

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// BinanceProviderConfig holds the Binance credentials, read from the environment.
type BinanceProviderConfig struct {
	ApiKey    string `env:"BINANCE_API_KEY" json:"apiKey" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `env:"BINANCE_SECRET_KEY" json:"secretKey" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	BaseURL   string `env:"BINANCE_BASE_URL" json:"baseUrl,omitempty" jsonschema:"title=Base URL,description=Overrides the REST endpoint"`
	// RequestsPerMinute bounds every outbound call of the connector.
	RequestsPerMinute int `env:"BINANCE_REQUESTS_PER_MINUTE" envDefault:"1200" json:"requestsPerMinute" validate:"gte=0"`
}

// Validate validates the BinanceProviderConfig struct.
func (c *BinanceProviderConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance provider config", err)
	}

	return nil
}
