package flow

// Step is the position of a donation flow
type Step int

const (
	StepConnect Step = iota
	StepAmount
	StepReview
	// StepConfirming is the only step in which a transfer is in flight
	StepConfirming
	StepSuccess
	StepFailure
)

func (s Step) String() string {
	switch s {
	case StepConnect:
		return "connect"
	case StepAmount:
		return "amount"
	case StepReview:
		return "review"
	case StepConfirming:
		return "confirming"
	case StepSuccess:
		return "success"
	case StepFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the result steps
func (s Step) Terminal() bool {
	return s == StepSuccess || s == StepFailure
}
