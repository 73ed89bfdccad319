package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sigweihq/tipjar/pkg/constants"
)

const healthCheckTimeout = 3 * time.Second

// DialHealthy connects to the first endpoint that answers eth_blockNumber.
// Uses random start position for load balancing across RPC endpoints
func DialHealthy(ctx context.Context, endpoints []string) (*ethclient.Client, string, error) {
	if len(endpoints) == 0 {
		return nil, "", errors.New("no RPC endpoints configured")
	}

	startIdx := rand.Intn(len(endpoints))

	var errs []error
	for i := 0; i < len(endpoints); i++ {
		if i > 0 {
			timer := time.NewTimer(time.Duration(i*constants.DelayBetweenRPCCalls) * time.Millisecond)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, "", ctx.Err()
			case <-timer.C:
			}
		}

		endpoint := endpoints[(startIdx+i)%len(endpoints)]

		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			errs = append(errs, &RPCError{Endpoint: endpoint, Err: err})
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		_, err = client.BlockNumber(checkCtx)
		cancel()
		if err != nil {
			client.Close()
			errs = append(errs, &RPCError{Endpoint: endpoint, Err: err})
			continue
		}

		return client, endpoint, nil
	}

	return nil, "", fmt.Errorf("all RPC endpoints failed: %w", errors.Join(errs...))
}

// decodeReceipt parses a raw eth_getTransactionReceipt result.
// A null result means the transaction is still pending and yields (nil, nil).
func decodeReceipt(raw json.RawMessage) (*ethtypes.Receipt, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	cleaned, err := stripBlockTimestampFromLogs(raw)
	if err != nil {
		return nil, err
	}

	var receipt ethtypes.Receipt
	if err := json.Unmarshal(cleaned, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// stripBlockTimestampFromLogs removes the blockTimestamp field some nodes add to receipt logs
func stripBlockTimestampFromLogs(raw json.RawMessage) ([]byte, error) {
	var receiptMap map[string]interface{}
	if err := json.Unmarshal(raw, &receiptMap); err != nil {
		return nil, err
	}

	logs, ok := receiptMap["logs"].([]interface{})
	if ok {
		for _, log := range logs {
			logMap, ok := log.(map[string]interface{})
			if ok {
				delete(logMap, "blockTimestamp")
			}
		}
	}

	return json.Marshal(receiptMap)
}
