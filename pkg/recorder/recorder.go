package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sigweihq/tipjar/pkg/apiclient"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// ErrRecordingFailed is logged when the ledger does not accept a record
var ErrRecordingFailed = errors.New("recording failed")

// Recorder accepts completed donations. Submit never blocks and never reports failure.
type Recorder interface {
	Submit(record types.DonationRecord)
}

// Ledger stores one donation for a wallet
type Ledger interface {
	Submit(ctx context.Context, walletID string, req *types.DonationTransactionRequest) error
}

var _ Ledger = (*apiclient.TransactionsClient)(nil)

// Options configures an AsyncRecorder
type Options struct {
	QueueSize      int
	RequestTimeout time.Duration
	Logger         *slog.Logger
	Metrics        metrics.Recorder
}

// AsyncRecorder posts records from a buffered queue on a single worker
type AsyncRecorder struct {
	ledger  Ledger
	timeout time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder

	queue chan types.DonationRecord
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ Recorder = (*AsyncRecorder)(nil)

// NewAsyncRecorder starts the worker. Close must be called to release it.
func NewAsyncRecorder(ledger Ledger, opts Options) *AsyncRecorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = constants.RecorderQueueSize
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.APITimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &AsyncRecorder{
		ledger:  ledger,
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
		metrics: metrics.OrNoop(opts.Metrics),
		queue:   make(chan types.DonationRecord, opts.QueueSize),
		done:    make(chan struct{}),
	}
	go r.worker()
	return r
}

// Submit implements Recorder. A full queue or a closed recorder drops the record.
func (r *AsyncRecorder) Submit(record types.DonationRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(record, "recorder closed")
		return
	}

	select {
	case r.queue <- record:
	default:
		r.drop(record, "queue full")
	}
}

func (r *AsyncRecorder) drop(record types.DonationRecord, reason string) {
	r.logger.Warn("donation record dropped",
		"reason", reason,
		"walletID", record.WalletID,
		"txHash", record.Transfer.TxHash)
	r.metrics.IncCounter(metrics.EventRecordingDropped, map[string]string{
		metrics.LabelChain: record.Transfer.Chain.String(),
	})
}

func (r *AsyncRecorder) worker() {
	defer close(r.done)
	for record := range r.queue {
		r.record(record)
	}
}

func (r *AsyncRecorder) record(record types.DonationRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	outcome := "success"
	if err := r.ledger.Submit(ctx, record.WalletID, NewTransactionRequest(record)); err != nil {
		outcome = "failure"
		r.logger.Error("failed to record donation",
			"walletID", record.WalletID,
			"txHash", record.Transfer.TxHash,
			"error", fmt.Errorf("%w: %w", ErrRecordingFailed, err))
	} else {
		r.logger.Info("donation recorded", "walletID", record.WalletID, "txHash", record.Transfer.TxHash)
	}
	r.metrics.IncCounter(metrics.EventRecording, map[string]string{
		metrics.LabelChain:   record.Transfer.Chain.String(),
		metrics.LabelOutcome: outcome,
	})
}

// Close stops accepting records and waits for queued ones to be posted, or for ctx
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("recorder did not drain: %w", ctx.Err())
	}
}

// NewTransactionRequest builds the ledger body for a record
func NewTransactionRequest(record types.DonationRecord) *types.DonationTransactionRequest {
	chain := record.Transfer.Chain
	return &types.DonationTransactionRequest{
		Amount:      utils.FormatChainAmount(record.Intent.ChainAmount, chain.Decimals()),
		Message:     record.Intent.Message,
		TxHash:      record.Transfer.TxHash,
		AddressFrom: record.Transfer.FromAddress,
		Currency:    chain.Symbol(),
	}
}

// Func adapts a plain function to Recorder
type Func func(record types.DonationRecord)

// Submit implements Recorder
func (f Func) Submit(record types.DonationRecord) {
	f(record)
}
