package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/recorder"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// RateSource supplies the USD price of one unit of an asset and its age
type RateSource interface {
	Rate(asset types.Asset) (usd float64, age time.Duration, ok bool)
}

// Options configures a Controller
type Options struct {
	// Network selects explorer links, "mainnet" or "testnet"
	Network    string
	PresetsUSD []float64
	Logger     *slog.Logger
	Metrics    metrics.Recorder
}

// Controller drives one payer through connect, amount, review and transfer.
// All methods are safe for concurrent use.
type Controller struct {
	id       string
	wallet   types.DestinationWallet
	adapter  chains.SigningAdapter
	rates    RateSource
	recorder recorder.Recorder
	network  string
	presets  []float64
	validate *validator.Validate
	logger   *slog.Logger
	metrics  metrics.Recorder

	mu         sync.Mutex
	step       Step
	conn       *types.WalletConnection
	usdInput   string
	usdAmount  float64
	amountErr  *ValidationError
	message    string
	messageErr *ValidationError
	review     *types.DonationIntent
	result     *types.ChainTransferResult
	lastErr    error

	// set by Reconnect; only Connect clears it
	mustConnect bool
}

// New creates a controller in the connect step. A nil recorder disables recording.
func New(wallet types.DestinationWallet, adapter chains.SigningAdapter, rates RateSource, rec recorder.Recorder, opts Options) (*Controller, error) {
	if adapter == nil {
		return nil, errors.New("signing adapter is required")
	}
	if rates == nil {
		return nil, errors.New("rate source is required")
	}
	if adapter.Chain() != wallet.Chain {
		return nil, fmt.Errorf("adapter chain %s does not match wallet chain %s", adapter.Chain(), wallet.Chain)
	}
	if opts.Network == "" {
		opts.Network = constants.NetworkMainnet
	}
	if len(opts.PresetsUSD) == 0 {
		opts.PresetsUSD = constants.DefaultPresetsUSD
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	id := uuid.NewString()
	return &Controller{
		id:       id,
		wallet:   wallet,
		adapter:  adapter,
		rates:    rates,
		recorder: rec,
		network:  opts.Network,
		presets:  append([]float64(nil), opts.PresetsUSD...),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   opts.Logger.With("flowID", id, "walletID", wallet.ID, "chain", wallet.Chain.String()),
		metrics:  metrics.OrNoop(opts.Metrics),
		step:     StepConnect,
	}, nil
}

// ID returns the flow id used in logs
func (c *Controller) ID() string {
	return c.id
}

// Wallet returns the destination of this flow
func (c *Controller) Wallet() types.DestinationWallet {
	return c.wallet
}

// Step returns the current step
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Connect asks the wallet for the payer's account and moves to the amount step.
// On failure the flow stays in the connect step with the error recorded.
func (c *Controller) Connect(ctx context.Context) (types.WalletConnection, error) {
	c.mu.Lock()
	if c.step != StepConnect {
		step := c.step
		c.mu.Unlock()
		return types.WalletConnection{}, &TransitionError{Action: "connect", From: step}
	}
	c.mu.Unlock()

	address, err := c.adapter.Connect(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepConnect {
		return types.WalletConnection{}, &TransitionError{Action: "connect", From: c.step}
	}
	if err != nil {
		c.lastErr = err
		c.logger.Warn("connect failed", "error", err)
		return types.WalletConnection{}, err
	}

	conn := types.WalletConnection{Chain: c.wallet.Chain, Address: address}
	c.conn = &conn
	c.mustConnect = false
	c.lastErr = nil
	c.transition(StepAmount)
	return conn, nil
}

// SkipToAmount moves to the amount step reusing a connection the wallet already holds
func (c *Controller) SkipToAmount() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepConnect {
		return &TransitionError{Action: "skip to amount", From: c.step}
	}
	if c.mustConnect {
		return ErrNotConnected
	}
	conn, ok := c.adapter.Connection()
	if !ok {
		return ErrNotConnected
	}
	c.conn = &conn
	c.lastErr = nil
	c.transition(StepAmount)
	return nil
}

// SetUSDAmount stores the payer's fiat input. Unusable input is kept as typed and
// the returned ValidationError is also held for display.
func (c *Controller) SetUSDAmount(input string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepAmount {
		return &TransitionError{Action: "set amount", From: c.step}
	}

	c.usdInput = input
	usd, err := utils.ParseUSD(input)
	if err != nil {
		c.usdAmount = 0
		c.amountErr = &ValidationError{Field: FieldAmount, Message: "enter an amount greater than zero"}
		return c.amountErr
	}
	c.usdAmount = usd
	c.amountErr = nil
	return nil
}

// SelectPreset sets the amount to a quick-amount chip value
func (c *Controller) SelectPreset(usd float64) error {
	return c.SetUSDAmount(utils.FormatUSD(usd))
}

// SetMessage stores the optional payer message. Messages over the limit are kept but block Continue.
func (c *Controller) SetMessage(message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepAmount {
		return &TransitionError{Action: "set message", From: c.step}
	}

	c.message = message
	if n := utf8.RuneCountInString(message); n > constants.MaxDonationMessageRunes {
		c.messageErr = &ValidationError{
			Field:   FieldMessage,
			Message: fmt.Sprintf("message is %d characters, the limit is %d", n, constants.MaxDonationMessageRunes),
		}
		return c.messageErr
	}
	c.messageErr = nil
	return nil
}

// Intent returns the current intent with ChainAmount derived from the live rate.
// ChainAmount is 0 while no rate is available.
func (c *Controller) Intent() types.DonationIntent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intentLocked()
}

func (c *Controller) intentLocked() types.DonationIntent {
	intent := types.DonationIntent{
		USDAmount: c.usdAmount,
		Message:   c.message,
	}
	if rate, _, ok := c.rates.Rate(c.wallet.Chain.Asset()); ok {
		intent.ChainAmount = utils.USDToChain(c.usdAmount, rate)
	}
	return intent
}

// Continue freezes the intent and moves to the review step
func (c *Controller) Continue() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepAmount {
		return &TransitionError{Action: "continue", From: c.step}
	}
	if c.amountErr != nil {
		return c.amountErr
	}
	if c.messageErr != nil {
		return c.messageErr
	}

	intent := c.intentLocked()
	if !utils.IsPositiveFinite(intent.USDAmount) {
		return &ValidationError{Field: FieldAmount, Message: "enter an amount greater than zero"}
	}
	if !utils.IsPositiveFinite(intent.ChainAmount) {
		if _, _, ok := c.rates.Rate(c.wallet.Chain.Asset()); !ok {
			return &ValidationError{Field: FieldAmount, Message: "price unavailable, cannot convert to " + c.wallet.Chain.Symbol()}
		}
		return &ValidationError{Field: FieldAmount, Message: "amount is too small"}
	}
	if _, err := utils.ToBaseUnits(intent.ChainAmount, c.wallet.Chain.Decimals()); err != nil {
		return &ValidationError{Field: FieldAmount, Message: "amount is too small"}
	}
	if err := c.validate.Struct(intent); err != nil {
		return &ValidationError{Field: FieldAmount, Message: err.Error()}
	}

	c.review = &intent
	c.transition(StepReview)
	return nil
}

// Review returns the frozen intent for display
func (c *Controller) Review() (ReviewView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.review == nil || c.conn == nil {
		return ReviewView{}, &TransitionError{Action: "review", From: c.step}
	}
	return c.reviewLocked(), nil
}

func (c *Controller) reviewLocked() ReviewView {
	return ReviewView{
		From:        c.conn.Address,
		To:          c.wallet.Address,
		Recipient:   c.wallet.OwnerDisplayName,
		USDAmount:   c.review.USDAmount,
		ChainAmount: c.review.ChainAmount,
		Symbol:      c.wallet.Chain.Symbol(),
		Message:     c.review.Message,
	}
}

// Back returns from review to the amount step. Refused while a transfer is in flight.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.step {
	case StepReview:
		c.review = nil
		c.transition(StepAmount)
		return nil
	case StepConfirming:
		return ErrTransferInFlight
	default:
		return &TransitionError{Action: "go back", From: c.step}
	}
}

// Confirm sends the reviewed intent. A second call while the first is pending returns
// ErrTransferInFlight without touching the wallet. On success the record is handed to
// the recorder and the flow reaches the success step whatever the recorder does.
func (c *Controller) Confirm(ctx context.Context) (*types.ChainTransferResult, error) {
	c.mu.Lock()
	step := c.step
	switch {
	case step == StepConfirming:
		c.mu.Unlock()
		return nil, ErrTransferInFlight
	case step != StepReview && step != StepFailure, c.review == nil:
		c.mu.Unlock()
		return nil, &TransitionError{Action: "confirm", From: step}
	}
	intent := *c.review
	c.lastErr = nil
	c.transition(StepConfirming)
	c.mu.Unlock()

	c.logger.Info("starting transfer",
		"usd", intent.USDAmount,
		"amount", utils.FormatChainAmount(intent.ChainAmount, c.wallet.Chain.Decimals()),
		"to", c.wallet.Address)

	result, err := c.adapter.Transfer(ctx, intent.ChainAmount)
	if err == nil && result == nil {
		err = chains.NewWalletError(chains.KindNetworkError, "the wallet returned no transaction", nil)
	}

	c.mu.Lock()
	if err != nil {
		c.result = nil
		c.lastErr = err
		c.transition(StepFailure)
		c.mu.Unlock()
		c.logger.Warn("transfer failed", "error", err)
		return nil, err
	}

	transfer := *result
	c.result = &transfer
	c.transition(StepSuccess)
	c.mu.Unlock()

	c.logger.Info("transfer completed", "txHash", transfer.TxHash, "finality", transfer.Finality)
	c.submitRecord(types.DonationRecord{
		WalletID: c.wallet.ID,
		Intent:   intent,
		Transfer: transfer,
	})
	return &transfer, nil
}

func (c *Controller) submitRecord(record types.DonationRecord) {
	if c.recorder == nil {
		c.logger.Debug("no recorder configured, skipping donation record", "txHash", record.Transfer.TxHash)
		return
	}
	c.recorder.Submit(record)
}

// RetryTransfer re-sends the same intent after a failure
func (c *Controller) RetryTransfer(ctx context.Context) (*types.ChainTransferResult, error) {
	if step := c.Step(); step != StepFailure {
		if step == StepConfirming {
			return nil, ErrTransferInFlight
		}
		return nil, &TransitionError{Action: "retry", From: step}
	}
	return c.Confirm(ctx)
}

// Abandon leaves a failed transfer and returns to the amount step with the input kept
func (c *Controller) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepFailure {
		return &TransitionError{Action: "abandon", From: c.step}
	}
	c.review = nil
	c.lastErr = nil
	c.transition(StepAmount)
	return nil
}

// StartNew begins another donation after a success, keeping the connection
func (c *Controller) StartNew() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepSuccess {
		return &TransitionError{Action: "start a new donation", From: c.step}
	}
	c.resetIntentLocked()
	c.transition(StepAmount)
	return nil
}

// Reconnect drops the connection from a result step and returns to the connect step
func (c *Controller) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.step.Terminal() {
		return &TransitionError{Action: "reconnect", From: c.step}
	}
	c.conn = nil
	c.mustConnect = true
	c.resetIntentLocked()
	c.transition(StepConnect)
	return nil
}

func (c *Controller) resetIntentLocked() {
	c.usdInput = ""
	c.usdAmount = 0
	c.amountErr = nil
	c.message = ""
	c.messageErr = nil
	c.review = nil
	c.result = nil
	c.lastErr = nil
}

// transition must be called with mu held
func (c *Controller) transition(to Step) {
	from := c.step
	c.step = to
	c.logger.Info("flow transition", "from", from.String(), "to", to.String())
	c.metrics.IncCounter(metrics.EventFlowTransition, map[string]string{
		metrics.LabelChain:   c.wallet.Chain.String(),
		metrics.LabelOutcome: to.String(),
	})
}
