package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/sigweihq/tipjar/pkg/apiclient"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
	"golang.org/x/time/rate"
)

// ErrThrottled is returned by Refresh when manual refreshes come too fast
var ErrThrottled = errors.New("price refresh throttled")

// PriceSource fetches USD quotes per asset
type PriceSource interface {
	Get(ctx context.Context) (map[types.Asset]float64, error)
}

var _ PriceSource = (*apiclient.PricesClient)(nil)

// Snapshot holds the last good rate per asset. FetchedAt is the time of the last
// successful fetch; Updated records when each asset's rate was last received.
type Snapshot struct {
	Rates     map[types.Asset]float64
	Updated   map[types.Asset]time.Time
	FetchedAt time.Time
}

// Age returns how long ago the snapshot was fetched
func (s Snapshot) Age() time.Duration {
	if s.FetchedAt.IsZero() {
		return 0
	}
	return time.Since(s.FetchedAt)
}

// Available reports whether any rate has ever been fetched
func (s Snapshot) Available() bool {
	return len(s.Rates) > 0
}

// Options configures a Client. Zero values take the package defaults.
type Options struct {
	RefreshInterval time.Duration
	FreshnessWindow time.Duration
	Retry           utils.RetryConfig
	// ManualRefreshBurst and ManualRefreshEvery shape the token bucket for Refresh
	ManualRefreshBurst int
	ManualRefreshEvery time.Duration
	Logger             *slog.Logger
	Metrics            metrics.Recorder
}

// Client caches USD rates and refreshes them in the background.
// Readers never see fetch errors, only missing or stale data.
type Client struct {
	source          PriceSource
	refreshInterval time.Duration
	freshness       time.Duration
	retry           utils.RetryConfig
	limiter         *rate.Limiter
	logger          *slog.Logger
	metrics         metrics.Recorder
	now             func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient creates an oracle over source
func NewClient(source PriceSource, opts Options) *Client {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = constants.PriceRefreshInterval
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = constants.PriceFreshnessWindow
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = utils.RetryConfig{
			MaxAttempts: constants.PriceMaxAttempts,
			BaseDelay:   constants.PriceRetryBaseDelay,
			MaxDelay:    constants.PriceRetryMaxDelay,
		}
	}
	if opts.ManualRefreshBurst <= 0 {
		opts.ManualRefreshBurst = 2
	}
	if opts.ManualRefreshEvery <= 0 {
		opts.ManualRefreshEvery = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		source:          source,
		refreshInterval: opts.RefreshInterval,
		freshness:       opts.FreshnessWindow,
		retry:           opts.Retry,
		limiter:         rate.NewLimiter(rate.Every(opts.ManualRefreshEvery), opts.ManualRefreshBurst),
		logger:          opts.Logger,
		metrics:         metrics.OrNoop(opts.Metrics),
		now:             time.Now,
	}
}

// Rates returns a copy of the last successful snapshot
func (c *Client) Rates() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Rates:     maps.Clone(c.snapshot.Rates),
		Updated:   maps.Clone(c.snapshot.Updated),
		FetchedAt: c.snapshot.FetchedAt,
	}
}

// Rate returns the USD price of one unit of asset and its age.
// ok is false when no rate was ever fetched or the freshness window has elapsed.
func (c *Client) Rate(asset types.Asset) (float64, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	usd, found := c.snapshot.Rates[asset]
	if !found {
		return 0, 0, false
	}
	age := c.now().Sub(c.snapshot.Updated[asset])
	if age > c.freshness {
		return 0, age, false
	}
	return usd, age, true
}

// Refresh fetches prices now. Calls beyond the token bucket return ErrThrottled.
// A failed refresh keeps the previous snapshot, and assets missing from a
// successful response keep their last rate until it goes stale.
func (c *Client) Refresh(ctx context.Context) error {
	if !c.limiter.Allow() {
		return ErrThrottled
	}
	return c.refresh(ctx)
}

func (c *Client) refresh(ctx context.Context) error {
	start := time.Now()

	rates, err := utils.RetryWithConfig(ctx, c.retry, func() (map[types.Asset]float64, error) {
		rates, err := c.source.Get(ctx)
		if err != nil && apiclient.IsRetryable(err) {
			return nil, utils.WrapRetryable(err)
		}
		return rates, err
	})
	c.metrics.ObserveLatency(metrics.EventPriceFetch, time.Since(start), nil)
	if err != nil {
		c.metrics.IncCounter(metrics.EventPriceFetch, map[string]string{metrics.LabelOutcome: "failure"})
		c.logger.Warn("price refresh failed", "error", err)
		return fmt.Errorf("failed to refresh prices: %w", err)
	}

	c.mu.Lock()
	now := c.now()
	next := Snapshot{
		Rates:     maps.Clone(c.snapshot.Rates),
		Updated:   maps.Clone(c.snapshot.Updated),
		FetchedAt: now,
	}
	if next.Rates == nil {
		next.Rates = make(map[types.Asset]float64, len(rates))
		next.Updated = make(map[types.Asset]time.Time, len(rates))
	}
	received := 0
	for asset, usd := range rates {
		if !utils.IsPositiveFinite(usd) {
			c.logger.Warn("dropping unusable rate", "asset", asset, "usd", usd)
			continue
		}
		next.Rates[asset] = usd
		next.Updated[asset] = now
		received++
	}
	c.snapshot = next
	c.mu.Unlock()

	c.metrics.IncCounter(metrics.EventPriceFetch, map[string]string{metrics.LabelOutcome: "success"})
	c.logger.Debug("prices refreshed", "assets", received)
	return nil
}

// Start fetches prices immediately and then on every refresh interval until Stop or ctx is done
func (c *Client) Start(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(runCtx, c.done)
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	_ = c.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.refresh(ctx)
		}
	}
}

// Stop ends background refreshing and waits for the refresher to exit
func (c *Client) Stop() {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
