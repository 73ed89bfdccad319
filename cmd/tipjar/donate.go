package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/flow"
	"github.com/sigweihq/tipjar/pkg/recorder"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// donateOptions holds the donate command flags
type donateOptions struct {
	amount    string
	message   string
	yes       bool
	priceWait time.Duration
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var donateFlags donateOptions

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var donateCmd = &cobra.Command{
	Use:   "donate <walletID>",
	Short: "Send a donation to a streamer's wallet",
	Long: `Send a donation to a streamer's wallet.

The flow connects your key, asks for a USD amount and an optional message,
shows a review and sends the transfer once you confirm. ETH transfers wait for
one confirmation. SOL transfers return as soon as the network accepts them.

Keys are read from TIPJAR_EVM_PRIVATE_KEY or TIPJAR_SOLANA_PRIVATE_KEY, or
prompted for without echo.

Examples:
  tipjar donate 6f1c2e
  tipjar donate 6f1c2e --amount 10 --message "great stream" --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDonate,
}

func init() {
	donateCmd.Flags().StringVar(&donateFlags.amount, "amount", "", "amount in USD")
	donateCmd.Flags().StringVar(&donateFlags.message, "message", "", "message shown with the donation")
	donateCmd.Flags().BoolVarP(&donateFlags.yes, "yes", "y", false, "skip prompts and approve the transfer")
	donateCmd.Flags().DurationVar(&donateFlags.priceWait, "price-wait", 10*time.Second, "how long to wait for the first price")
}

func runDonate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts := donateFlags
	if opts.yes && opts.amount == "" {
		return errors.New("--amount is required with --yes")
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	wallet, err := client.Wallets.GetPublic(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

	approver := p.approve
	if opts.yes {
		approver = chains.AutoApprove
	}
	env, release, err := buildEnvironment(ctx, wallet.Chain, p, approver)
	if err != nil {
		return err
	}
	defer release()

	adapter, err := newAdapter(*wallet, env)
	if err != nil {
		return err
	}

	prices := newOracle(client.Prices)
	prices.Start(ctx)
	defer prices.Stop()

	rec := recorder.NewAsyncRecorder(client.Transactions, recorder.Options{
		QueueSize:      cfg.Recorder.QueueSize,
		RequestTimeout: cfg.API.Timeout,
		Logger:         logger,
		Metrics:        metricsRec,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		defer cancel()
		if err := rec.Close(closeCtx); err != nil {
			logger.Warn("donation records still pending", "error", err)
		}
	}()

	ctrl, err := flow.New(*wallet, adapter, prices, rec, flow.Options{
		Network:    cfg.Network,
		PresetsUSD: cfg.Donation.PresetsUSD,
		Logger:     logger,
		Metrics:    metricsRec,
	})
	if err != nil {
		return err
	}

	printWallet(out, *wallet)
	return runFlow(ctx, ctrl, p, out, opts)
}

// runFlow walks the controller until the payer is done
func runFlow(ctx context.Context, ctrl *flow.Controller, p *prompter, out io.Writer, opts donateOptions) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch step := ctrl.Step(); step {
		case flow.StepConnect:
			err = stepConnect(ctx, ctrl, p, out, opts)
		case flow.StepAmount:
			err = stepAmount(ctx, ctrl, p, out, &opts)
		case flow.StepReview:
			err = stepReview(ctx, ctrl, p, out, opts)
		case flow.StepSuccess:
			printResult(out, ctrl.Snapshot())
			if opts.yes {
				return nil
			}
			again, perr := p.yesNo("Send another donation?")
			if perr != nil || !again {
				return ignoreNoInput(perr)
			}
			err = ctrl.StartNew()
		case flow.StepFailure:
			var done bool
			done, err = stepFailure(ctx, ctrl, p, out, opts)
			if done {
				return err
			}
		default:
			return fmt.Errorf("unexpected step %s", step)
		}
		if err != nil {
			return err
		}
	}
}

func stepConnect(ctx context.Context, ctrl *flow.Controller, p *prompter, out io.Writer, opts donateOptions) error {
	fmt.Fprintf(out, "Connecting %s wallet...\n", ctrl.Wallet().Chain.Symbol())
	conn, err := ctrl.Connect(ctx)
	if err == nil {
		fmt.Fprintf(out, "Connected %s\n", conn.Address)
		return nil
	}

	fmt.Fprintf(out, "Could not connect: %s\n", describeError(err))
	if opts.yes {
		return err
	}
	retry, perr := p.yesNo("Try again?")
	if perr != nil {
		return perr
	}
	if !retry {
		return err
	}
	return nil
}

func stepAmount(ctx context.Context, ctrl *flow.Controller, p *prompter, out io.Writer, opts *donateOptions) error {
	symbol := ctrl.Wallet().Chain.Symbol()

	waitForPrice(ctx, ctrl, opts.priceWait)
	if status := ctrl.PriceStatus(); status.Available {
		fmt.Fprintf(out, "1 %s = %s (%s)\n", symbol, utils.FormatUSD(status.Rate), status.Text)
	} else {
		fmt.Fprintf(out, "%s price: %s\n", symbol, status.Text)
	}

	amount, message := opts.amount, opts.message
	opts.amount = ""
	if amount == "" {
		if opts.yes {
			return errors.New("--amount is required with --yes")
		}
		presets := ctrl.Presets()
		for i, preset := range presets {
			fmt.Fprintf(out, "  #%d  %-7s %s\n", i+1, preset.Label, preset.ChainLabel)
		}

		var err error
		amount, err = p.line("Amount in USD (or #preset): ")
		if err != nil {
			return err
		}
		if idx, ok := presetIndex(amount, len(presets)); ok {
			amount = utils.FormatUSD(presets[idx].USD)
		}
		message, err = p.line("Message (optional): ")
		if err != nil {
			return err
		}
	}

	for _, set := range []func() error{
		func() error { return ctrl.SetUSDAmount(amount) },
		func() error { return ctrl.SetMessage(message) },
		ctrl.Continue,
	} {
		if err := set(); err != nil {
			var verr *flow.ValidationError
			if !errors.As(err, &verr) || opts.yes {
				return err
			}
			fmt.Fprintf(out, "  %s\n", verr.Message)
			return nil
		}
	}
	return nil
}

func presetIndex(input string, n int) (int, bool) {
	if !strings.HasPrefix(input, "#") {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimPrefix(input, "#"))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

func stepReview(ctx context.Context, ctrl *flow.Controller, p *prompter, out io.Writer, opts donateOptions) error {
	review, err := ctrl.Review()
	if err != nil {
		return err
	}
	printReview(out, review, ctrl.Wallet().Chain)

	if !opts.yes {
		ok, err := p.yesNo("Confirm donation?")
		if err != nil {
			return err
		}
		if !ok {
			return ctrl.Back()
		}
	}

	fmt.Fprintln(out, "Waiting for the wallet...")
	if _, err := ctrl.Confirm(ctx); errors.Is(err, flow.ErrTransferInFlight) || errors.Is(err, flow.ErrInvalidTransition) {
		return err
	}
	return nil
}

// stepFailure reports the failure and applies the payer's choice. done ends the command.
func stepFailure(ctx context.Context, ctrl *flow.Controller, p *prompter, out io.Writer, opts donateOptions) (bool, error) {
	snap := ctrl.Snapshot()
	fmt.Fprintf(out, "Donation failed: %s\n", describeError(snap.LastError))
	if opts.yes || ctx.Err() != nil {
		return true, snap.LastError
	}

	choice, err := p.line("[r]etry, [e]dit amount, [c]onnect again, [q]uit: ")
	if err != nil {
		return true, err
	}
	switch strings.ToLower(choice) {
	case "r", "retry":
		// a failed retry lands back in StepFailure and is reported on the next pass
		if _, err := ctrl.RetryTransfer(ctx); errors.Is(err, flow.ErrTransferInFlight) || errors.Is(err, flow.ErrInvalidTransition) {
			return true, err
		}
		return false, nil
	case "e", "edit":
		return false, ctrl.Abandon()
	case "c", "connect":
		return false, ctrl.Reconnect()
	default:
		return true, snap.LastError
	}
}

// waitForPrice blocks until a rate is available, wait elapses or ctx is done
func waitForPrice(ctx context.Context, ctrl *flow.Controller, wait time.Duration) {
	if wait <= 0 || ctrl.PriceStatus().Available {
		return
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
			if ctrl.PriceStatus().Available {
				return
			}
		}
	}
}

func printWallet(out io.Writer, wallet types.DestinationWallet) {
	name := wallet.OwnerDisplayName
	if name == "" {
		name = wallet.ID
	}
	fmt.Fprintf(out, "Donating to %s (%s %s)\n", name, wallet.Chain.Symbol(), short(wallet.Address))
}

func printReview(out io.Writer, review flow.ReviewView, chain types.Chain) {
	fmt.Fprintln(out, "\nReview")
	fmt.Fprintf(out, "  From:    %s\n", review.From)
	fmt.Fprintf(out, "  To:      %s\n", review.To)
	fmt.Fprintf(out, "  Amount:  %s %s (%s)\n",
		utils.FormatChainAmount(review.ChainAmount, chain.Decimals()), review.Symbol, utils.FormatUSD(review.USDAmount))
	if review.Message != "" {
		fmt.Fprintf(out, "  Message: %s\n", review.Message)
	}
}

func printResult(out io.Writer, snap flow.Snapshot) {
	result := snap.Result
	if result == nil {
		return
	}
	status := "confirmed"
	if result.Finality == types.FinalitySent {
		status = "sent, not yet confirmed"
	}
	fmt.Fprintf(out, "\nDonation %s\n", status)
	fmt.Fprintf(out, "  Tx: %s\n", result.TxHash)
	if snap.ExplorerURL != "" {
		fmt.Fprintf(out, "  %s\n", snap.ExplorerURL)
	}
}

func ignoreNoInput(err error) error {
	if errors.Is(err, errNoInput) {
		return nil
	}
	return err
}
