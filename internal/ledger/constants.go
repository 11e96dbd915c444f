package ledger

import "time"

const (
	// USDCMainnetMint is the canonical USDC SPL mint
	USDCMainnetMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// USDCDecimals is the number of minor units per USDC (1 USDC = 10^6)
	USDCDecimals = 6

	// ConfirmPollInterval is how often a sent transfer's status is checked
	ConfirmPollInterval = 2 * time.Second

	// ConfirmTimeout bounds how long Transfer waits for confirmation
	ConfirmTimeout = 60 * time.Second
)

// Network represents Solana cluster type
type Network string

const (
	NetworkMainnet Network = "mainnet-beta"
	NetworkDevnet  Network = "devnet"
)

// Solana RPC endpoints
const (
	RPCMainnet = "https://api.mainnet-beta.solana.com"
	RPCDevnet  = "https://api.devnet.solana.com"
)

// EndpointFor returns the public RPC endpoint for a network name.
func EndpointFor(network string) string {
	if Network(network) == NetworkDevnet {
		return RPCDevnet
	}
	return RPCMainnet
}
