package metrics

import "time"

// Event names
const (
	EventWalletConnect    = "wallet_connect"
	EventTransfer         = "transfer"
	EventRecording        = "recording"
	EventRecordingDropped = "recording_dropped"
	EventPriceFetch       = "price_fetch"
	EventFlowTransition   = "flow_transition"
)

// Label keys understood by the recorders
const (
	LabelChain   = "chain"
	LabelOutcome = "outcome"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// OrNoop returns r, or a NoopRecorder when r is nil
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
