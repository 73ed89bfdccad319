package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/flow"
	"github.com/sigweihq/tipjar/pkg/recorder"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

const payer = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type scriptedAdapter struct {
	connectErr error

	mu       sync.Mutex
	conn     *types.WalletConnection
	errs     []error
	amounts  []float64
	finality types.Finality
}

func (a *scriptedAdapter) Chain() types.Chain { return types.ChainEVM }

func (a *scriptedAdapter) Connect(context.Context) (string, error) {
	if a.connectErr != nil {
		return "", a.connectErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conn = &types.WalletConnection{Chain: types.ChainEVM, Address: payer}
	return payer, nil
}

func (a *scriptedAdapter) Connection() (types.WalletConnection, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return types.WalletConnection{}, false
	}
	return *a.conn, true
}

func (a *scriptedAdapter) Transfer(_ context.Context, amount float64) (*types.ChainTransferResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.amounts = append(a.amounts, amount)
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		return nil, err
	}
	finality := a.finality
	if finality == "" {
		finality = types.FinalityConfirmed
	}
	return &types.ChainTransferResult{TxHash: "0xabc", FromAddress: payer, Chain: types.ChainEVM, Finality: finality}, nil
}

func (a *scriptedAdapter) transfers() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.amounts...)
}

type staticRates map[types.Asset]float64

func (s staticRates) Rate(asset types.Asset) (float64, time.Duration, bool) {
	r, ok := s[asset]
	return r, 5 * time.Second, ok
}

type recordLog struct {
	mu      sync.Mutex
	records []types.DonationRecord
}

func (r *recordLog) submit(record types.DonationRecord) {
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
}

func (r *recordLog) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func newTestFlow(t *testing.T, adapter *scriptedAdapter, rates staticRates) (*flow.Controller, *recordLog) {
	t.Helper()
	log := &recordLog{}
	wallet := types.DestinationWallet{
		ID:               "w1",
		Chain:            types.ChainEVM,
		Address:          "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		OwnerDisplayName: "alice",
	}
	ctrl, err := flow.New(wallet, adapter, rates, recorder.Func(log.submit), flow.Options{Network: "testnet"})
	require.NoError(t, err)
	return ctrl, log
}

func TestRunFlowNonInteractive(t *testing.T) {
	adapter := &scriptedAdapter{}
	ctrl, log := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader(""), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{amount: "10", message: "gg", yes: true})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.005}, adapter.transfers())
	assert.Equal(t, 1, log.len())
	assert.Equal(t, "gg", log.records[0].Intent.Message)
	assert.Contains(t, out.String(), "Donation confirmed")
	assert.Contains(t, out.String(), "https://sepolia.etherscan.io/tx/0xabc")
}

func TestRunFlowInteractivePreset(t *testing.T) {
	adapter := &scriptedAdapter{}
	ctrl, log := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader("#2\nthanks\ny\nn\n"), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.0025}, adapter.transfers())
	require.Equal(t, 1, log.len())
	assert.InDelta(t, 5.0, log.records[0].Intent.USDAmount, 1e-9)
	assert.Contains(t, out.String(), "≈ 0.0025 ETH")
	assert.Equal(t, flow.StepSuccess, ctrl.Step())
}

func TestRunFlowReasksInvalidAmount(t *testing.T) {
	adapter := &scriptedAdapter{}
	ctrl, _ := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader("0\n\n4\n\ny\n"), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{})
	require.NoError(t, err, "closed input after success ends the command")

	assert.Contains(t, out.String(), "enter an amount greater than zero")
	assert.Equal(t, []float64{0.002}, adapter.transfers())
}

func TestRunFlowDeclineReviewGoesBack(t *testing.T) {
	adapter := &scriptedAdapter{}
	ctrl, _ := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader("5\n\nn\n"), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{})
	require.ErrorIs(t, err, errNoInput)

	assert.Empty(t, adapter.transfers())
	assert.Equal(t, flow.StepAmount, ctrl.Step())
}

func TestRunFlowRetryAfterFailure(t *testing.T) {
	adapter := &scriptedAdapter{errs: []error{chains.NewWalletError(chains.KindNetworkError, "rpc down", nil)}}
	ctrl, log := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\nr\n"), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{amount: "10"})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.005, 0.005}, adapter.transfers())
	assert.Equal(t, 1, log.len())
	assert.Contains(t, out.String(), "Donation failed")
}

func TestRunFlowRetryFailsAgain(t *testing.T) {
	rpcDown := chains.NewWalletError(chains.KindNetworkError, "rpc down", nil)
	adapter := &scriptedAdapter{errs: []error{rpcDown, rpcDown}}
	ctrl, log := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\nr\nq\n"), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{amount: "10"})
	assert.ErrorIs(t, err, chains.ErrNetworkError)

	assert.Len(t, adapter.transfers(), 2)
	assert.Zero(t, log.len())
	assert.Equal(t, flow.StepFailure, ctrl.Step())
	assert.Equal(t, 2, strings.Count(out.String(), "Donation failed"))
}

func TestStepFailureRetryOutsideFailure(t *testing.T) {
	adapter := &scriptedAdapter{}
	ctrl, _ := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader("r\n"), &out)
	done, err := stepFailure(context.Background(), ctrl, p, &out, donateOptions{})

	assert.True(t, done)
	assert.ErrorIs(t, err, flow.ErrInvalidTransition)
	assert.Empty(t, adapter.transfers())
}

func TestRunFlowFailures(t *testing.T) {
	tests := []struct {
		name      string
		adapter   *scriptedAdapter
		input     string
		opts      donateOptions
		wantErr   error
		wantStep  flow.Step
		transfers int
	}{
		{
			name:      "rejected transfer with --yes",
			adapter:   &scriptedAdapter{errs: []error{chains.ErrUserRejected}},
			opts:      donateOptions{amount: "10", yes: true},
			wantErr:   chains.ErrUserRejected,
			wantStep:  flow.StepFailure,
			transfers: 1,
		},
		{
			name:      "quit after failure",
			adapter:   &scriptedAdapter{errs: []error{chains.ErrInsufficientFunds}},
			input:     "y\nq\n",
			opts:      donateOptions{amount: "10"},
			wantErr:   chains.ErrInsufficientFunds,
			wantStep:  flow.StepFailure,
			transfers: 1,
		},
		{
			name:     "no wallet with --yes",
			adapter:  &scriptedAdapter{connectErr: chains.ErrProviderNotInstalled},
			opts:     donateOptions{amount: "10", yes: true},
			wantErr:  chains.ErrProviderNotInstalled,
			wantStep: flow.StepConnect,
		},
		{
			name:     "no wallet and no retry",
			adapter:  &scriptedAdapter{connectErr: chains.ErrProviderNotInstalled},
			input:    "n\n",
			wantErr:  chains.ErrProviderNotInstalled,
			wantStep: flow.StepConnect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, log := newTestFlow(t, tt.adapter, staticRates{types.AssetEthereum: 2000})

			var out bytes.Buffer
			p := newPrompter(strings.NewReader(tt.input), &out)
			err := runFlow(context.Background(), ctrl, p, &out, tt.opts)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.wantStep, ctrl.Step())
			assert.Len(t, tt.adapter.transfers(), tt.transfers)
			assert.Zero(t, log.len())
		})
	}
}

func TestRunFlowWithoutPrice(t *testing.T) {
	adapter := &scriptedAdapter{}
	ctrl, _ := newTestFlow(t, adapter, staticRates{})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader(""), &out)
	err := runFlow(context.Background(), ctrl, p, &out, donateOptions{amount: "10", yes: true})

	var verr *flow.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, out.String(), flow.PriceUnavailableText)
	assert.Empty(t, adapter.transfers())
}

func TestRunFlowSentFinality(t *testing.T) {
	adapter := &scriptedAdapter{finality: types.FinalitySent}
	ctrl, _ := newTestFlow(t, adapter, staticRates{types.AssetEthereum: 2000})

	var out bytes.Buffer
	p := newPrompter(strings.NewReader(""), &out)
	require.NoError(t, runFlow(context.Background(), ctrl, p, &out, donateOptions{amount: "1", yes: true}))
	assert.Contains(t, out.String(), "Donation sent, not yet confirmed")
}

func TestRunFlowCanceled(t *testing.T) {
	ctrl, _ := newTestFlow(t, &scriptedAdapter{}, staticRates{types.AssetEthereum: 2000})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := runFlow(ctx, ctrl, newPrompter(strings.NewReader(""), &out), &out, donateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPresetIndex(t *testing.T) {
	tests := []struct {
		input string
		idx   int
		ok    bool
	}{
		{"#1", 0, true},
		{"#4", 3, true},
		{"#5", 0, false},
		{"#0", 0, false},
		{"4", 0, false},
		{"#x", 0, false},
	}
	for _, tt := range tests {
		idx, ok := presetIndex(tt.input, 4)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.idx, idx, tt.input)
	}
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, chains.ErrProviderNotInstalled.UserMessage(), describeError(chains.ErrProviderNotInstalled))
	assert.Equal(t, "enter an amount greater than zero", describeError(fmt.Errorf("bad input: %w", utils.ErrInvalidAmount)))
	assert.Equal(t, "boom", describeError(errors.New("boom")))
	assert.Equal(t, "unknown error", describeError(nil))
}
