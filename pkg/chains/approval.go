package chains

import (
	"context"

	"github.com/sigweihq/tipjar/pkg/types"
)

// ApprovalRequest describes a transfer awaiting the payer's approval
type ApprovalRequest struct {
	Chain  types.Chain
	From   string
	To     string
	Amount string // native units, formatted
	Symbol string
}

// Approver plays the role of a wallet's confirmation popup for key-backed providers.
// Returning false rejects the request as if the payer declined it.
type Approver func(ctx context.Context, req ApprovalRequest) (bool, error)

// AutoApprove approves every request
func AutoApprove(context.Context, ApprovalRequest) (bool, error) {
	return true, nil
}
