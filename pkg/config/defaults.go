package config

import (
	"github.com/sigweihq/tipjar/pkg/apiclient"
	"github.com/sigweihq/tipjar/pkg/constants"
)

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		Network: constants.NetworkMainnet,
		API: APIConfig{
			URL:     apiclient.DefaultAPIURL,
			Timeout: constants.APITimeout,
		},
		EVM: EVMConfig{
			Confirmations: constants.RequiredConfirmations,
		},
		Prices: PricesConfig{
			RefreshInterval: constants.PriceRefreshInterval,
			FreshnessWindow: constants.PriceFreshnessWindow,
		},
		Recorder: RecorderConfig{
			QueueSize: constants.RecorderQueueSize,
		},
		Donation: DonationConfig{
			PresetsUSD: append([]float64(nil), constants.DefaultPresetsUSD...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
