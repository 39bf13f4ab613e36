package networks

import (
	"errors"
	"fmt"
)

// ErrUnknownNetwork indicates a network identifier with no registered
// transaction-service deployment.
var ErrUnknownNetwork = errors.New("unknown network")

// Network describes one transaction-index deployment.
type Network struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	APIBaseURL  string `json:"api_base_url"`
	ChainID     int64  `json:"chain_id"`
}

// Registry holds the static table of supported networks.
type Registry struct {
	networks map[string]*Network
}

// NewRegistry creates a registry with all supported networks.
func NewRegistry() *Registry {
	registry := &Registry{
		networks: make(map[string]*Network),
	}

	supportedNetworks := []*Network{
		{
			ID:          "ethereum",
			DisplayName: "Ethereum Mainnet",
			APIBaseURL:  "https://safe-transaction-mainnet.safe.global",
			ChainID:     1,
		},
		{
			ID:          "sepolia",
			DisplayName: "Sepolia Testnet",
			APIBaseURL:  "https://safe-transaction-sepolia.safe.global",
			ChainID:     11155111,
		},
		{
			ID:          "goerli",
			DisplayName: "Goerli Testnet",
			APIBaseURL:  "https://safe-transaction-goerli.safe.global",
			ChainID:     5,
		},
		{
			ID:          "polygon",
			DisplayName: "Polygon",
			APIBaseURL:  "https://safe-transaction-polygon.safe.global",
			ChainID:     137,
		},
		{
			ID:          "arbitrum",
			DisplayName: "Arbitrum One",
			APIBaseURL:  "https://safe-transaction-arbitrum.safe.global",
			ChainID:     42161,
		},
		{
			ID:          "optimism",
			DisplayName: "Optimism",
			APIBaseURL:  "https://safe-transaction-optimism.safe.global",
			ChainID:     10,
		},
		{
			ID:          "base",
			DisplayName: "Base",
			APIBaseURL:  "https://safe-transaction-base.safe.global",
			ChainID:     8453,
		},
		{
			ID:          "gnosis",
			DisplayName: "Gnosis Chain",
			APIBaseURL:  "https://safe-transaction-gnosis-chain.safe.global",
			ChainID:     100,
		},
		{
			ID:          "bsc",
			DisplayName: "BNB Smart Chain",
			APIBaseURL:  "https://safe-transaction-bsc.safe.global",
			ChainID:     56,
		},
	}

	for _, network := range supportedNetworks {
		registry.networks[network.ID] = network
	}

	return registry
}

// Resolve looks up a network by its identifier.
func (r *Registry) Resolve(networkID string) (*Network, error) {
	network, exists := r.networks[networkID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, networkID)
	}
	return network, nil
}

// Contains reports whether the identifier is registered.
func (r *Registry) Contains(networkID string) bool {
	_, exists := r.networks[networkID]
	return exists
}

// GetAllAsArray returns all registered networks.
func (r *Registry) GetAllAsArray() []*Network {
	networks := make([]*Network, 0, len(r.networks))
	for _, network := range r.networks {
		networks = append(networks, network)
	}
	return networks
}
