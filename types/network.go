package types

// Network represents supported blockchain networks
type Network string

const (
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia" // testnet
	NetworkPolygon     Network = "polygon"
	NetworkPolygonAmoy Network = "polygon-amoy" // testnet
)

// DefaultNetworks is the supported set used when configuration does
// not narrow it.
var DefaultNetworks = []Network{
	NetworkBase,
	NetworkBaseSepolia,
	NetworkPolygon,
	NetworkPolygonAmoy,
}

// chainIDs maps a network name to its EVM chain id, used as the
// EIP-712 domain chain id when authorizing payments.
var chainIDs = map[Network]int64{
	NetworkBase:        8453,
	NetworkBaseSepolia: 84532,
	NetworkPolygon:     137,
	NetworkPolygonAmoy: 80002,
}

// ChainID returns the EVM chain id for the network, or false when the
// network is unknown.
func (n Network) ChainID() (int64, bool) {
	id, ok := chainIDs[n]
	return id, ok
}

func (n Network) IsTestnet() bool {
	return n == NetworkBaseSepolia || n == NetworkPolygonAmoy
}

func (n Network) String() string {
	return string(n)
}

// SupportedItem mirrors the x402 supported-kinds discovery shape.
type SupportedItem struct {
	X402Version int    `json:"x402Version"`
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
}

// SupportedResponse lists the payment kinds this client can honor.
type SupportedResponse struct {
	Kinds []SupportedItem `json:"kinds"`
}
