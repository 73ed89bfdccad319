package flow

import (
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// PriceUnavailableText is shown when no fresh rate exists
const PriceUnavailableText = "unable to fetch price"

// ReviewView is the read-only confirmation screen
type ReviewView struct {
	From        string
	To          string
	Recipient   string
	USDAmount   float64
	ChainAmount float64
	Symbol      string
	Message     string
}

// Preset is a quick-amount chip. ChainLabel is empty while no rate is available.
type Preset struct {
	USD        float64
	Label      string
	ChainLabel string
}

// PriceStatus describes the rate behind the conversion
type PriceStatus struct {
	Available bool
	Rate      float64
	Text      string
}

// Snapshot is an immutable view of a flow
type Snapshot struct {
	FlowID      string
	Step        Step
	Wallet      types.DestinationWallet
	Connection  *types.WalletConnection
	USDInput    string
	Intent      types.DonationIntent
	Review      *ReviewView
	Result      *types.ChainTransferResult
	LastError   error
	InputErrors []*ValidationError
	ExplorerURL string
}

// Presets returns the quick-amount chips with a crypto sublabel when a rate is available
func (c *Controller) Presets() []Preset {
	rate, _, ok := c.rates.Rate(c.wallet.Chain.Asset())

	presets := make([]Preset, 0, len(c.presets))
	for _, usd := range c.presets {
		p := Preset{USD: usd, Label: utils.FormatUSD(usd)}
		if ok {
			amount := utils.USDToChain(usd, rate)
			p.ChainLabel = "≈ " + utils.FormatChainAmount(amount, displayDecimals) + " " + c.wallet.Chain.Symbol()
		}
		presets = append(presets, p)
	}
	return presets
}

// displayDecimals bounds sublabel precision
const displayDecimals = 6

// PriceStatus reports whether conversion is possible and how old the rate is
func (c *Controller) PriceStatus() PriceStatus {
	rate, age, ok := c.rates.Rate(c.wallet.Chain.Asset())
	if !ok {
		return PriceStatus{Text: PriceUnavailableText}
	}
	return PriceStatus{Available: true, Rate: rate, Text: utils.FormatAge(age)}
}

// Snapshot returns a copy of the flow state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		FlowID:    c.id,
		Step:      c.step,
		Wallet:    c.wallet,
		USDInput:  c.usdInput,
		Intent:    c.intentLocked(),
		LastError: c.lastErr,
	}
	if c.conn != nil {
		conn := *c.conn
		snap.Connection = &conn
	}
	if c.review != nil && c.conn != nil {
		review := c.reviewLocked()
		snap.Review = &review
	}
	if c.result != nil {
		result := *c.result
		snap.Result = &result
		snap.ExplorerURL = utils.ExplorerTxURL(result.Chain, c.network, result.TxHash)
	}
	if c.amountErr != nil {
		snap.InputErrors = append(snap.InputErrors, c.amountErr)
	}
	if c.messageErr != nil {
		snap.InputErrors = append(snap.InputErrors, c.messageErr)
	}
	return snap
}
