package oracle

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sigweihq/tipjar/pkg/apiclient"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns responses in order, repeating the last one
type scriptedSource struct {
	mu        sync.Mutex
	responses []sourceResponse
	calls     atomic.Int32
}

type sourceResponse struct {
	rates map[types.Asset]float64
	err   error
}

func (s *scriptedSource) Get(ctx context.Context) (map[types.Asset]float64, error) {
	n := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.responses) {
		n = len(s.responses) - 1
	}
	r := s.responses[n]
	return r.rates, r.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func fastRetry() utils.RetryConfig {
	return utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newTestOracle(source PriceSource, clock *fakeClock) *Client {
	c := NewClient(source, Options{
		Retry:              fastRetry(),
		ManualRefreshBurst: 100,
		ManualRefreshEvery: time.Millisecond,
		Logger:             slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	})
	if clock != nil {
		c.now = clock.Now
	}
	return c
}

func TestClient_NoDataBeforeFirstFetch(t *testing.T) {
	c := newTestOracle(&scriptedSource{}, nil)

	_, _, ok := c.Rate(types.AssetEthereum)
	assert.False(t, ok)
	assert.False(t, c.Rates().Available())
	assert.Zero(t, c.Rates().Age())
}

func TestClient_RefreshStoresRates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	source := &scriptedSource{responses: []sourceResponse{
		{rates: map[types.Asset]float64{types.AssetEthereum: 2500, types.AssetSolana: 150}},
	}}
	c := newTestOracle(source, clock)

	require.NoError(t, c.Refresh(context.Background()))
	clock.Advance(12 * time.Second)

	usd, age, ok := c.Rate(types.AssetEthereum)
	require.True(t, ok)
	assert.Equal(t, 2500.0, usd)
	assert.Equal(t, 12*time.Second, age)

	snap := c.Rates()
	assert.True(t, snap.Available())
	assert.Equal(t, clock.now.Add(-12*time.Second), snap.FetchedAt)

	// the copy is detached from the cache
	snap.Rates[types.AssetEthereum] = 1
	usd, _, _ = c.Rate(types.AssetEthereum)
	assert.Equal(t, 2500.0, usd)
}

func TestClient_DropsUnusableRates(t *testing.T) {
	source := &scriptedSource{responses: []sourceResponse{
		{rates: map[types.Asset]float64{types.AssetEthereum: math.Inf(1), types.AssetSolana: 150}},
	}}
	c := newTestOracle(source, nil)

	require.NoError(t, c.Refresh(context.Background()))

	_, _, ok := c.Rate(types.AssetEthereum)
	assert.False(t, ok)
	usd, _, ok := c.Rate(types.AssetSolana)
	assert.True(t, ok)
	assert.Equal(t, 150.0, usd)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	source := &scriptedSource{responses: []sourceResponse{
		{err: &apiclient.HTTPError{StatusCode: http.StatusBadGateway}},
		{err: utils.WrapRetryable(errors.New("connection reset"))},
		{rates: map[types.Asset]float64{types.AssetSolana: 150}},
	}}
	c := newTestOracle(source, nil)

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(3), source.calls.Load())

	_, _, ok := c.Rate(types.AssetSolana)
	assert.True(t, ok)
}

func TestClient_PermanentFailureIsNotRetried(t *testing.T) {
	source := &scriptedSource{responses: []sourceResponse{
		{err: &apiclient.HTTPError{StatusCode: http.StatusUnauthorized}},
	}}
	c := newTestOracle(source, nil)

	assert.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestClient_FailureKeepsLastSnapshotUntilStale(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	source := &scriptedSource{responses: []sourceResponse{
		{rates: map[types.Asset]float64{types.AssetEthereum: 2500}},
		{err: &apiclient.HTTPError{StatusCode: http.StatusServiceUnavailable}},
	}}
	c := newTestOracle(source, clock)

	require.NoError(t, c.Refresh(context.Background()))

	clock.Advance(time.Minute)
	assert.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(4), source.calls.Load(), "one success then three failed attempts")

	usd, age, ok := c.Rate(types.AssetEthereum)
	require.True(t, ok)
	assert.Equal(t, 2500.0, usd)
	assert.Equal(t, time.Minute, age)

	clock.Advance(5 * time.Minute)
	_, _, ok = c.Rate(types.AssetEthereum)
	assert.False(t, ok, "stale rates are not served")
}

func TestClient_PartialResponseKeepsOtherAssets(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	source := &scriptedSource{responses: []sourceResponse{
		{rates: map[types.Asset]float64{types.AssetEthereum: 2500, types.AssetSolana: 150}},
		{rates: map[types.Asset]float64{types.AssetEthereum: 2600}},
	}}
	c := newTestOracle(source, clock)

	require.NoError(t, c.Refresh(context.Background()))
	clock.Advance(2 * time.Minute)
	require.NoError(t, c.Refresh(context.Background()))

	usd, age, ok := c.Rate(types.AssetEthereum)
	require.True(t, ok)
	assert.Equal(t, 2600.0, usd)
	assert.Zero(t, age)

	usd, age, ok = c.Rate(types.AssetSolana)
	require.True(t, ok, "an asset missing from one response keeps its last rate")
	assert.Equal(t, 150.0, usd)
	assert.Equal(t, 2*time.Minute, age)

	snap := c.Rates()
	assert.Equal(t, clock.now, snap.FetchedAt)
	assert.Equal(t, clock.now.Add(-2*time.Minute), snap.Updated[types.AssetSolana])

	clock.Advance(4 * time.Minute)
	_, _, ok = c.Rate(types.AssetSolana)
	assert.False(t, ok, "the kept rate still goes stale on its own clock")
	_, _, ok = c.Rate(types.AssetEthereum)
	assert.True(t, ok)
}

func TestClient_ManualRefreshIsThrottled(t *testing.T) {
	source := &scriptedSource{responses: []sourceResponse{
		{rates: map[types.Asset]float64{types.AssetEthereum: 2500}},
	}}
	c := NewClient(source, Options{ManualRefreshBurst: 1, ManualRefreshEvery: time.Hour})

	require.NoError(t, c.Refresh(context.Background()))
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrThrottled)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestClient_StartStop(t *testing.T) {
	source := &scriptedSource{responses: []sourceResponse{
		{rates: map[types.Asset]float64{types.AssetEthereum: 2500}},
	}}
	c := NewClient(source, Options{RefreshInterval: 10 * time.Millisecond})

	c.Start(context.Background())
	c.Start(context.Background())

	assert.Eventually(t, func() bool {
		return source.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	c.Stop()
	calls := source.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, source.calls.Load(), "no refreshes after Stop")

	_, _, ok := c.Rate(types.AssetEthereum)
	assert.True(t, ok)

	c.Stop()
}
