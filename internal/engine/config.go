package engine

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/feed"
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/ordermanager"
	"github.com/rxtech-lab/argo-quant/internal/statistics"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	tradingprovider "github.com/rxtech-lab/argo-quant/internal/trading/provider"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	pkgstrategy "github.com/rxtech-lab/argo-quant/pkg/strategy"
	"gopkg.in/yaml.v3"
)

// AssetConfig declares one traded listing.
type AssetConfig struct {
	// Asset is SYMBOL@EXCHANGE, e.g. XRP/USDT@BINANCE.
	Asset    string        `yaml:"asset" json:"asset" jsonschema:"title=Asset,description=SYMBOL@EXCHANGE" validate:"required,contains=@"`
	TimeUnit time.Duration `yaml:"time_unit" json:"time_unit" jsonschema:"title=Time unit,default=1m"`
	// File is the CSV file of the asset when no candle store is configured.
	File string `yaml:"file,omitempty" json:"file,omitempty" jsonschema:"title=CSV file"`
}

type StrategyConfig struct {
	Tag  string `yaml:"tag" json:"tag" jsonschema:"title=Strategy tag" validate:"required"`
	Name string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Instance name"`
	// Assets restricts the strategy to a subset of the configured assets. Empty means all.
	Assets     []string            `yaml:"assets,omitempty" json:"assets,omitempty"`
	Parameters strategy.Parameters `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

type SessionConfig struct {
	Location string `yaml:"location,omitempty" json:"location,omitempty" jsonschema:"title=IANA location,default=UTC"`
	// Close is the HH:MM session close in Location. Empty closes at midnight.
	Close string `yaml:"close,omitempty" json:"close,omitempty" jsonschema:"title=Session close"`
}

// LiveSection configures the exchange side of live mode.
type LiveSection struct {
	Provider tradingprovider.ProviderType `yaml:"provider" json:"provider" jsonschema:"enum=binance-paper,enum=binance-live"`
	Broker   broker.LiveConfig            `yaml:"broker" json:"broker"`
	Feed     feed.LiveFeedConfig          `yaml:"feed" json:"feed"`
	// CandleSource selects a public REST endpoint for candles. Empty polls the trading connector.
	CandleSource CandleSource `yaml:"candle_source" json:"candle_source" jsonschema:"enum=,enum=binance,enum=kucoin,enum=tiingo" validate:"omitempty,oneof=binance kucoin tiingo"`
}

type CandleSource string

const (
	CandleSourceConnector CandleSource = ""
	CandleSourceBinance   CandleSource = "binance"
	CandleSourceKucoin    CandleSource = "kucoin"
	CandleSourceTiingo    CandleSource = "tiingo"
)

// Config is the run configuration loaded from YAML.
type Config struct {
	Assets   []AssetConfig        `yaml:"assets" json:"assets" validate:"required,min=1,dive"`
	FeeModel commission_fee.Model `yaml:"fee_model" json:"fee_model" jsonschema:"title=Fee model,enum=percent,enum=binance,enum=kucoin,enum=interactive_broker,enum=zero_commission"`
	// FeePct is the rate of the percent fee model.
	FeePct float64 `yaml:"fee_pct" json:"fee_pct" validate:"gte=0,lt=1"`
	// Start and End bound the historical range. Both are optional.
	Start           optional.Option[time.Time] `yaml:"-" json:"start"`
	End             optional.Option[time.Time] `yaml:"-" json:"end"`
	InitialFunds    float64                    `yaml:"initial_funds" json:"initial_funds" jsonschema:"title=Initial funds per broker" validate:"gt=0"`
	IntegerSize     bool                       `yaml:"integer_size" json:"integer_size"`
	FixedOrderType  types.OrderType            `yaml:"fixed_order_type" json:"fixed_order_type" jsonschema:"enum=MARKET,enum=LIMIT,enum=TARGET,enum=STOP,enum=BRACKET" validate:"omitempty,oneof=MARKET LIMIT TARGET STOP BRACKET"`
	TargetOrderPct  float64                    `yaml:"target_order_pct" json:"target_order_pct" validate:"gte=0"`
	StopOrderPct    float64                    `yaml:"stop_order_pct" json:"stop_order_pct" validate:"gte=0,lt=1"`
	WithBracket     bool                       `yaml:"with_bracket" json:"with_bracket"`
	IndicatorMode   indicator.Mode             `yaml:"indicator_mode" json:"indicator_mode" jsonschema:"enum=LIVE,enum=BATCH"`
	DBStorage       string                     `yaml:"db_storage,omitempty" json:"db_storage,omitempty" jsonschema:"title=Candle store to read"`
	SaveDBStorage   string                     `yaml:"save_db_storage,omitempty" json:"save_db_storage,omitempty" jsonschema:"title=Candle store to write"`
	CloseAtEndOfDay bool                       `yaml:"close_at_end_of_day" json:"close_at_end_of_day"`
	Statistics      statistics.Tag             `yaml:"statistics" json:"statistics" jsonschema:"enum=default"`
	Strategies      []StrategyConfig           `yaml:"strategies" json:"strategies" validate:"required,min=1,dive"`
	Session         SessionConfig              `yaml:"session" json:"session"`
	ResultsFolder   string                     `yaml:"results_folder,omitempty" json:"results_folder,omitempty"`
	LogLevel        string                     `yaml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Live            LiveSection                `yaml:"live" json:"live"`
}

// DefaultConfig is the base every loaded config is decoded over.
func DefaultConfig() Config {
	return Config{
		FeeModel:      commission_fee.ModelZero,
		InitialFunds:  10000,
		IndicatorMode: indicator.ModeLive,
		Statistics:    statistics.TagDefault,
		LogLevel:      "info",
		Live: LiveSection{
			Provider: tradingprovider.ProviderBinancePaper,
			Broker:   broker.DefaultLiveConfig(),
			Feed:     feed.DefaultLiveFeedConfig(),
		},
	}
}

// UnmarshalYAML reads start and end as optional timestamps.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config

	raw := struct {
		plain `yaml:",inline"`
		Start *time.Time `yaml:"start"`
		End   *time.Time `yaml:"end"`
	}{plain: plain(*c)}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	*c = Config(raw.plain)
	c.Start = optional.None[time.Time]()
	c.End = optional.None[time.Time]()

	if raw.Start != nil {
		c.Start = optional.Some(raw.Start.UTC())
	}

	if raw.End != nil {
		c.End = optional.Some(raw.End.UTC())
	}

	return nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(content []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(content, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(content)
}

// Validate checks the struct tags and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	assets, err := c.ParseAssets()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid asset", err)
	}

	if c.Start.IsSome() && c.End.IsSome() && !c.Start.Unwrap().Before(c.End.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "start %s is not before end %s", c.Start.Unwrap(), c.End.Unwrap())
	}

	if _, err := commission_fee.GetFeeModel(c.FeeModel, c.FeePct); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid fee model", err)
	}

	if _, err := ordermanager.NewDefaultCreator(c.CreatorConfig()); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid order settings", err)
	}

	if _, err := c.ParseSession(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session", err)
	}

	switch c.IndicatorMode {
	case indicator.ModeLive, indicator.ModeBatch, "":
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown indicator mode %q", c.IndicatorMode)
	}

	for _, s := range c.Strategies {
		if _, err := c.StrategyAssets(s, assets); err != nil {
			return err
		}
	}

	return nil
}

// ParseAssets returns the configured assets. A missing time unit means one minute.
func (c *Config) ParseAssets() ([]types.Asset, error) {
	assets := make([]types.Asset, 0, len(c.Assets))
	seen := make(map[types.Asset]struct{}, len(c.Assets))

	for _, a := range c.Assets {
		unit := a.TimeUnit
		if unit == 0 {
			unit = time.Minute
		}

		asset, err := types.ParseAsset(a.Asset, unit)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[asset]; dup {
			return nil, errors.Newf(errors.ErrCodeInvalidAsset, "asset %s declared twice", asset)
		}

		seen[asset] = struct{}{}
		assets = append(assets, asset)
	}

	return assets, nil
}

// StrategyAssets resolves the assets a strategy is bound to.
func (c *Config) StrategyAssets(s StrategyConfig, all []types.Asset) ([]types.Asset, error) {
	if len(s.Assets) == 0 {
		return all, nil
	}

	bound := make([]types.Asset, 0, len(s.Assets))

	for _, name := range s.Assets {
		found := false

		for _, a := range all {
			if strings.EqualFold(a.String(), name) {
				bound = append(bound, a)
				found = true

				break
			}
		}

		if !found {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "strategy %s uses undeclared asset %s", s.Tag, name)
		}
	}

	return bound, nil
}

func (c *Config) ParseSession() (clock.Session, error) {
	return clock.ParseSession(c.Session.Location, c.Session.Close)
}

func (c *Config) CreatorConfig() ordermanager.CreatorConfig {
	return ordermanager.CreatorConfig{
		FixedOrderType: c.FixedOrderType,
		WithBracket:    c.WithBracket,
		TargetOrderPct: c.TargetOrderPct,
		StopOrderPct:   c.StopOrderPct,
	}
}

// CSVFiles maps every asset with a file to its path.
func (c *Config) CSVFiles(assets []types.Asset) map[types.Asset]string {
	files := make(map[types.Asset]string, len(assets))

	for i, a := range c.Assets {
		if a.File != "" && i < len(assets) {
			files[assets[i]] = a.File
		}
	}

	return files
}

// GetConfigSchema returns the JSON schema of Config.
func GetConfigSchema() (string, error) {
	return pkgstrategy.ToJSONSchema(Config{}) //nolint:exhaustruct // Empty config for schema generation
}
