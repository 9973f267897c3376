package x402

// CAIP-2 network identifiers for the chains the marketplace settles on.
const (
	NetworkBase          = "eip155:8453"
	NetworkBaseSepolia   = "eip155:84532"
	NetworkPolygon       = "eip155:137"
	NetworkAvalancheFuji = "eip155:43113"
)

// DefaultNetwork is the test network used when no network is configured or the
// configured network is unknown.
const DefaultNetwork = NetworkBaseSepolia

// usdcAssets maps networks to the official Circle USDC contract address.
var usdcAssets = map[string]string{
	NetworkBase:          "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	NetworkBaseSepolia:   "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	NetworkPolygon:       "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
	NetworkAvalancheFuji: "0x5425890298aed601595a70AB815c96711a31Bc65",
}

// AssetFor returns the USDC contract address for a network. Unknown networks
// fall back to the default test network's asset rather than failing, so a
// misconfigured deployment still issues a well-formed challenge.
func AssetFor(network string) (resolved, asset string) {
	if asset, ok := usdcAssets[network]; ok {
		return network, asset
	}
	return DefaultNetwork, usdcAssets[DefaultNetwork]
}
