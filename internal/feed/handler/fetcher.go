package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/ratelimit"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one HTTP call.
const DefaultTimeout = 30 * time.Second

// RESTFetcher composes a URLBuilder and a ResponseParser into a candle fetcher.
// Ranges larger than one response are split into consecutive windows.
type RESTFetcher struct {
	client  *http.Client
	builder URLBuilder
	parser  ResponseParser
	limiter *ratelimit.Limiter
	logger  *logger.Logger
}

func NewRESTFetcher(builder URLBuilder, parser ResponseParser, limiter *ratelimit.Limiter, log *logger.Logger) *RESTFetcher {
	if limiter == nil {
		limiter = ratelimit.NewLimiter(0, 0)
	}

	return &RESTFetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		builder: builder,
		parser:  parser,
		limiter: limiter,
		logger:  log.Named("rest_fetcher"),
	}
}

// NewBinanceFetcher fetches Binance klines at 1200 requests per minute.
func NewBinanceFetcher(log *logger.Logger) *RESTFetcher {
	return NewRESTFetcher(NewBinanceURLBuilder(), BinanceParser{}, ratelimit.NewLimiter(1200, time.Minute), log)
}

// NewKucoinFetcher fetches Kucoin candles at 30 requests per 10 seconds.
func NewKucoinFetcher(log *logger.Logger) *RESTFetcher {
	return NewRESTFetcher(NewKucoinURLBuilder(), KucoinParser{}, ratelimit.NewLimiter(30, 10*time.Second), log)
}

// NewTiingoFetcher fetches Tiingo crypto prices.
func NewTiingoFetcher(token string, log *logger.Logger) *RESTFetcher {
	return NewRESTFetcher(NewTiingoURLBuilder(token), TiingoParser{}, ratelimit.NewLimiter(500, time.Hour), log)
}

// WithHTTPClient replaces the HTTP client.
func (f *RESTFetcher) WithHTTPClient(client *http.Client) *RESTFetcher {
	f.client = client

	return f
}

// FetchOHLCV returns the candles of asset within [start, end] sorted ascending.
func (f *RESTFetcher) FetchOHLCV(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	window := time.Duration(f.builder.MaxCandles()) * asset.TimeUnit

	var out []types.Candle

	for from := start; !from.After(end); from = from.Add(window) {
		to := from.Add(window - time.Millisecond)
		if to.After(end) {
			to = end
		}

		candles, err := f.fetchWindow(ctx, asset, from, to)
		if err != nil {
			return nil, err
		}

		for _, c := range candles {
			if c.Timestamp.Before(start) || c.Timestamp.After(end) {
				continue
			}

			if len(out) > 0 && !c.Timestamp.After(out[len(out)-1].Timestamp) {
				continue
			}

			out = append(out, c)
		}
	}

	return out, nil
}

func (f *RESTFetcher) fetchWindow(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error) {
	url, err := f.builder.Build(asset, start, end)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to build request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeTransport, err, "GET %s failed", asset)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, "failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot:
		return nil, errors.Newf(errors.ErrCodeRateLimited, "%s candles rate limited: %d", asset, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.Newf(errors.ErrCodeTransport, "%s candles server error: %d", asset, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		// client errors are not retried; the parser extracts the exchange message
		_, perr := f.parser.Parse(asset, body)

		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, perr, "%s candles request rejected: %d", asset, resp.StatusCode)
	}

	candles, err := f.parser.Parse(asset, body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched candles",
		zap.String("asset", asset.String()),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("count", len(candles)),
	)

	return candles, nil
}
