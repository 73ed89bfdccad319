// Command tipjar sends native-currency donations to a streamer's wallet.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
