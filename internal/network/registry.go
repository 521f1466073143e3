// Package network holds the supported chains, the persisted network
// selection, and the wallet chain-switch flow.
package network

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/agnivade/levenshtein"
	gethmath "github.com/ethereum/go-ethereum/common/math"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// MaxSuggestionDistance is the largest edit distance offered as a "did you mean".
const MaxSuggestionDistance = 3

// NativeCurrency describes a chain's gas token.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// ChainConfig is the wallet_addEthereumChain parameter for a network.
type ChainConfig struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

// Network is a supported chain.
type Network struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	ChainID     string       `json:"chainId"`
	APIID       string       `json:"apiId"`
	ChainConfig *ChainConfig `json:"chainConfig,omitempty"`
}

// ChainIDInt returns the chain id as an integer.
func (n Network) ChainIDInt() *big.Int {
	v, ok := ParseChainID(n.ChainID)
	if !ok {
		return nil
	}
	return v
}

// Registry is an ordered, immutable list of networks. The first is the default.
type Registry struct {
	networks []Network
}

// NewRegistry creates a registry. It panics on an empty list or duplicate ids,
// both of which are programming errors.
func NewRegistry(networks ...Network) *Registry {
	if len(networks) == 0 {
		panic("network: registry needs at least one network")
	}
	seen := make(map[string]bool, len(networks))
	for _, n := range networks {
		if seen[n.ID] {
			panic(fmt.Sprintf("network: duplicate id %q", n.ID))
		}
		seen[n.ID] = true
	}
	return &Registry{networks: append([]Network(nil), networks...)}
}

// Builtin returns the networks swapdesk supports out of the box.
func Builtin() []Network {
	return []Network{
		{
			ID:      "eth",
			Name:    "Ethereum",
			Icon:    "ethereum.svg",
			ChainID: "0x1",
			APIID:   "eth",
		},
		{
			ID:      "polygon",
			Name:    "Polygon",
			Icon:    "polygon.svg",
			ChainID: "0x89",
			APIID:   "polygon",
			ChainConfig: &ChainConfig{
				ChainID:           "0x89",
				ChainName:         "Polygon",
				NativeCurrency:    NativeCurrency{Name: "MATIC", Symbol: "MATIC", Decimals: 18},
				RPCURLs:           []string{"https://polygon-rpc.com/"},
				BlockExplorerURLs: []string{"https://polygonscan.com/"},
			},
		},
		{
			ID:      "base",
			Name:    "Base",
			Icon:    "base.svg",
			ChainID: "0x2105",
			APIID:   "base",
			ChainConfig: &ChainConfig{
				ChainID:           "0x2105",
				ChainName:         "Base",
				NativeCurrency:    NativeCurrency{Name: "ETH", Symbol: "ETH", Decimals: 18},
				RPCURLs:           []string{"https://mainnet.base.org"},
				BlockExplorerURLs: []string{"https://basescan.org"},
			},
		},
	}
}

// DefaultRegistry returns a registry of the built-in networks.
func DefaultRegistry() *Registry {
	return NewRegistry(Builtin()...)
}

// All returns the networks in order.
func (r *Registry) All() []Network {
	return append([]Network(nil), r.networks...)
}

// IDs returns the network ids in order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.networks))
	for i, n := range r.networks {
		ids[i] = n.ID
	}
	return ids
}

// Default returns the first network.
func (r *Registry) Default() Network {
	return r.networks[0]
}

// Lookup finds a network by id (case-insensitive).
func (r *Registry) Lookup(id string) (Network, error) {
	needle := strings.ToLower(strings.TrimSpace(id))
	for _, n := range r.networks {
		if n.ID == needle {
			return n, nil
		}
	}

	err := deskerr.WithDetails(deskerr.ErrUnknownNetwork, map[string]string{"network": id})
	if s := r.suggest(needle); s != "" {
		return Network{}, deskerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", s))
	}
	return Network{}, deskerr.WithSuggestion(err, "supported networks: "+strings.Join(r.IDs(), ", "))
}

// ByChainID finds a network by chain id given in hex or decimal.
func (r *Registry) ByChainID(chainID string) (Network, bool) {
	want, ok := ParseChainID(chainID)
	if !ok {
		return Network{}, false
	}
	for _, n := range r.networks {
		if got := n.ChainIDInt(); got != nil && got.Cmp(want) == 0 {
			return n, true
		}
	}
	return Network{}, false
}

func (r *Registry) suggest(input string) string {
	if input == "" {
		return ""
	}

	best := math.MaxInt
	var suggestion string
	for _, n := range r.networks {
		for _, candidate := range []string{n.ID, strings.ToLower(n.Name)} {
			if d := levenshtein.ComputeDistance(input, candidate); d < best {
				best = d
				suggestion = n.ID
			}
		}
	}

	if best <= MaxSuggestionDistance {
		return suggestion
	}
	return ""
}

// ParseChainID parses a chain id given as 0x-hex or decimal. Empty input is invalid.
func ParseChainID(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	return gethmath.ParseBig256(s)
}
