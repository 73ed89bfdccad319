package e2e

import (
	"context"
	"crypto/ecdsa"
	"log/slog"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/suite"

	"github.com/sigweihq/tipjar/pkg/chains"
	"github.com/sigweihq/tipjar/pkg/chains/evm"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/flow"
	"github.com/sigweihq/tipjar/pkg/recorder"
	"github.com/sigweihq/tipjar/pkg/types"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// EVMDonationE2ETestSuite sends a real Sepolia donation through the flow controller
type EVMDonationE2ETestSuite struct {
	suite.Suite
	senderKey *ecdsa.PrivateKey
	client    *ethclient.Client
	logger    *slog.Logger
}

func (s *EVMDonationE2ETestSuite) SetupSuite() {
	s.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	keyHex := os.Getenv("E2E_EVM_PRIVATE_KEY")
	if keyHex == "" {
		s.T().Skip("E2E_EVM_PRIVATE_KEY not set, skipping Sepolia donation tests")
	}

	var err error
	s.senderKey, err = utils.ParseEVMPrivateKey(keyHex)
	s.Require().NoError(err, "Failed to parse sender private key")

	endpoint := os.Getenv("E2E_SEPOLIA_RPC")
	if endpoint == "" {
		endpoint = constants.OfficialEVMRPCEndpoints[constants.NetworkTestnet]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.client, _, err = evm.DialHealthy(ctx, []string{endpoint})
	s.Require().NoError(err, "Failed to connect to Sepolia")

	sender := crypto.PubkeyToAddress(s.senderKey.PublicKey)
	balance, err := s.client.BalanceAt(ctx, sender, nil)
	s.Require().NoError(err)

	minBalance := big.NewInt(1e15) // 0.001 ETH covers the donation and gas
	if balance.Cmp(minBalance) < 0 {
		s.T().Skipf("Insufficient sender balance: has %s wei, needs at least %s", balance, minBalance)
	}
	s.T().Logf("Sender account: %s, balance: %s ETH", sender.Hex(), utils.FromBaseUnits(balance, constants.EtherDecimals))

	s.Require().NoError(evm.InitEVMChains())
}

func (s *EVMDonationE2ETestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *EVMDonationE2ETestSuite) TestDonationReachesRecipient() {
	receiverKey, err := crypto.GenerateKey()
	s.Require().NoError(err)
	receiver := crypto.PubkeyToAddress(receiverKey.PublicKey)

	wallet := types.DestinationWallet{ID: "e2e-evm", Chain: types.ChainEVM, Address: receiver.Hex()}
	env := chains.Environment{
		Network: constants.NetworkTestnet,
		Providers: map[types.Chain]any{
			types.ChainEVM: evm.NewLocalProvider(s.client, s.senderKey, chains.AutoApprove, s.logger),
		},
		Logger: s.logger,
	}
	adapter, err := chains.NewAdapter(wallet, env)
	s.Require().NoError(err)

	var records []types.DonationRecord
	ctrl, err := flow.New(wallet, adapter, fixedRate(2000), recorder.Func(func(r types.DonationRecord) {
		records = append(records, r)
	}), flow.Options{Network: constants.NetworkTestnet, Logger: s.logger})
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	_, err = ctrl.Connect(ctx)
	s.Require().NoError(err)
	s.Require().NoError(ctrl.SetUSDAmount("0.02")) // 0.00001 ETH
	s.Require().NoError(ctrl.SetMessage("e2e donation"))
	s.Require().NoError(ctrl.Continue())

	result, err := ctrl.Confirm(ctx)
	s.Require().NoError(err)
	s.Equal(types.FinalityConfirmed, result.Finality)
	s.Equal(flow.StepSuccess, ctrl.Step())
	s.Require().Len(records, 1)
	s.Equal(result.TxHash, records[0].Transfer.TxHash)
	s.T().Logf("Donation tx: %s", ctrl.Snapshot().ExplorerURL)

	balance, err := s.client.BalanceAt(ctx, common.HexToAddress(wallet.Address), nil)
	s.Require().NoError(err)
	s.Equal(big.NewInt(1e13).String(), balance.String())
}

func TestEVMDonationE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	suite.Run(t, new(EVMDonationE2ETestSuite))
}

// fixedRate serves one USD rate for every asset
type fixedRate float64

func (f fixedRate) Rate(types.Asset) (float64, time.Duration, bool) {
	return float64(f), 0, true
}
