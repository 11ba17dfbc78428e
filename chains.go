package paybot

import (
	"fmt"
	"strconv"
	"strings"
)

// NetworkType represents the blockchain virtual machine type.
type NetworkType int

const (
	// NetworkTypeUnknown represents an unrecognized network.
	NetworkTypeUnknown NetworkType = iota
	// NetworkTypeEVM represents Ethereum Virtual Machine chains.
	NetworkTypeEVM
	// NetworkTypeSVM represents Solana Virtual Machine chains.
	NetworkTypeSVM
)

// CAIP-2 network identifiers
const (
	// EVM Mainnets
	NetworkBase      = "eip155:8453"
	NetworkPolygon   = "eip155:137"
	NetworkAvalanche = "eip155:43114"
	NetworkEthereum  = "eip155:1"

	// EVM Testnets
	NetworkBaseSepolia   = "eip155:84532"
	NetworkPolygonAmoy   = "eip155:80002"
	NetworkAvalancheFuji = "eip155:43113"
	NetworkSepolia       = "eip155:11155111"

	// Solana networks (using genesis hash as reference per CAIP-2)
	NetworkSolanaMainnet = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	NetworkSolanaDevnet  = "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
)

// DefaultNetwork is used when a payment request names no network.
const DefaultNetwork = NetworkBaseSepolia

// USDCDecimals is the number of decimal places of USDC on every supported chain.
const USDCDecimals = 6

// ChainParameters holds the static parameters of a supported chain.
type ChainParameters struct {
	// Name is the display name.
	Name string

	// ChainID is the numeric EIP-155 chain id (0 for non-EVM chains).
	ChainID int64

	// Network is the CAIP-2 network identifier.
	Network string

	// RPCURL is a public RPC endpoint.
	RPCURL string

	// USDCAddress is the official Circle USDC contract or mint address.
	USDCAddress string

	// ExplorerURL is the block explorer base URL.
	ExplorerURL string

	// Testnet reports whether the chain is a test network.
	Testnet bool

	// Decimals is the number of decimal places for USDC (always 6).
	Decimals uint8
}

// SigningDomain is the EIP-712 domain of a chain's USDC contract.
type SigningDomain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract string
}

// supportedNetworks lists registry keys in declaration order.
var supportedNetworks = []string{
	NetworkBase,
	NetworkPolygon,
	NetworkAvalanche,
	NetworkEthereum,
	NetworkBaseSepolia,
	NetworkPolygonAmoy,
	NetworkAvalancheFuji,
	NetworkSepolia,
	NetworkSolanaMainnet,
	NetworkSolanaDevnet,
}

// USDC addresses and EIP-3009 parameters verified 2025-10-30.
var chainsByNetwork = map[string]ChainParameters{
	NetworkBase: {
		Name:        "Base",
		ChainID:     8453,
		Network:     NetworkBase,
		RPCURL:      "https://mainnet.base.org",
		USDCAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		ExplorerURL: "https://basescan.org",
		Decimals:    6,
	},
	NetworkPolygon: {
		Name:        "Polygon PoS",
		ChainID:     137,
		Network:     NetworkPolygon,
		RPCURL:      "https://polygon-rpc.com",
		USDCAddress: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		ExplorerURL: "https://polygonscan.com",
		Decimals:    6,
	},
	NetworkAvalanche: {
		Name:        "Avalanche C-Chain",
		ChainID:     43114,
		Network:     NetworkAvalanche,
		RPCURL:      "https://api.avax.network/ext/bc/C/rpc",
		USDCAddress: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		ExplorerURL: "https://snowtrace.io",
		Decimals:    6,
	},
	NetworkEthereum: {
		Name:        "Ethereum",
		ChainID:     1,
		Network:     NetworkEthereum,
		RPCURL:      "https://ethereum-rpc.publicnode.com",
		USDCAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		ExplorerURL: "https://etherscan.io",
		Decimals:    6,
	},
	NetworkBaseSepolia: {
		Name:        "Base Sepolia",
		ChainID:     84532,
		Network:     NetworkBaseSepolia,
		RPCURL:      "https://sepolia.base.org",
		USDCAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		ExplorerURL: "https://sepolia.basescan.org",
		Testnet:     true,
		Decimals:    6,
	},
	NetworkPolygonAmoy: {
		Name:        "Polygon Amoy",
		ChainID:     80002,
		Network:     NetworkPolygonAmoy,
		RPCURL:      "https://rpc-amoy.polygon.technology",
		USDCAddress: "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		ExplorerURL: "https://amoy.polygonscan.com",
		Testnet:     true,
		Decimals:    6,
	},
	NetworkAvalancheFuji: {
		Name:        "Avalanche Fuji",
		ChainID:     43113,
		Network:     NetworkAvalancheFuji,
		RPCURL:      "https://api.avax-test.network/ext/bc/C/rpc",
		USDCAddress: "0x5425890298aed601595a70AB815c96711a31Bc65",
		ExplorerURL: "https://testnet.snowtrace.io",
		Testnet:     true,
		Decimals:    6,
	},
	NetworkSepolia: {
		Name:        "Sepolia",
		ChainID:     11155111,
		Network:     NetworkSepolia,
		RPCURL:      "https://ethereum-sepolia-rpc.publicnode.com",
		USDCAddress: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		ExplorerURL: "https://sepolia.etherscan.io",
		Testnet:     true,
		Decimals:    6,
	},
	NetworkSolanaMainnet: {
		Name:        "Solana",
		Network:     NetworkSolanaMainnet,
		RPCURL:      "https://api.mainnet-beta.solana.com",
		USDCAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		ExplorerURL: "https://explorer.solana.com",
		Decimals:    6,
	},
	NetworkSolanaDevnet: {
		Name:        "Solana Devnet",
		Network:     NetworkSolanaDevnet,
		RPCURL:      "https://api.devnet.solana.com",
		USDCAddress: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		ExplorerURL: "https://explorer.solana.com/?cluster=devnet",
		Testnet:     true,
		Decimals:    6,
	},
}

// signingDomainsByNetwork holds EIP-712 domains. Solana chains have none.
var signingDomainsByNetwork = map[string]SigningDomain{
	NetworkBase:          {Name: "USD Coin", Version: "2", ChainID: 8453, VerifyingContract: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"},
	NetworkPolygon:       {Name: "USD Coin", Version: "2", ChainID: 137, VerifyingContract: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"},
	NetworkAvalanche:     {Name: "USD Coin", Version: "2", ChainID: 43114, VerifyingContract: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"},
	NetworkEthereum:      {Name: "USD Coin", Version: "2", ChainID: 1, VerifyingContract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
	NetworkBaseSepolia:   {Name: "USDC", Version: "2", ChainID: 84532, VerifyingContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e"},
	NetworkPolygonAmoy:   {Name: "USDC", Version: "2", ChainID: 80002, VerifyingContract: "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582"},
	NetworkAvalancheFuji: {Name: "USD Coin", Version: "2", ChainID: 43113, VerifyingContract: "0x5425890298aed601595a70AB815c96711a31Bc65"},
	NetworkSepolia:       {Name: "USDC", Version: "2", ChainID: 11155111, VerifyingContract: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"},
}

// LookupChain returns the parameters of a network. The boolean is false for
// unknown networks; no default is substituted.
func LookupChain(network string) (ChainParameters, bool) {
	params, ok := chainsByNetwork[network]
	return params, ok
}

// LookupSigningDomain returns the EIP-712 signing domain of a network.
func LookupSigningDomain(network string) (SigningDomain, bool) {
	domain, ok := signingDomainsByNetwork[network]
	return domain, ok
}

// SupportedNetworks returns the registered CAIP-2 identifiers, mainnets first.
func SupportedNetworks() []string {
	out := make([]string, len(supportedNetworks))
	copy(out, supportedNetworks)
	return out
}

// GetChainConfig returns the chain parameters for a CAIP-2 network identifier.
// Returns an error if the network is not recognized.
func GetChainConfig(network string) (ChainParameters, error) {
	params, ok := LookupChain(network)
	if !ok {
		return ChainParameters{}, fmt.Errorf("%w: %s", ErrInvalidNetwork, network)
	}
	return params, nil
}

// ValidateNetwork validates a CAIP-2 network identifier and returns its type.
// Returns NetworkTypeEVM for EIP-155 chains, NetworkTypeSVM for Solana chains,
// or NetworkTypeUnknown with an error for unrecognized networks.
func ValidateNetwork(network string) (NetworkType, error) {
	if network == "" {
		return NetworkTypeUnknown, fmt.Errorf("%w: network cannot be empty", ErrInvalidNetwork)
	}

	// Parse CAIP-2 format: namespace:reference
	parts := strings.SplitN(network, ":", 2)
	if len(parts) != 2 {
		return NetworkTypeUnknown, fmt.Errorf("%w: invalid CAIP-2 format: %s", ErrInvalidNetwork, network)
	}

	namespace := parts[0]
	reference := parts[1]

	if reference == "" {
		return NetworkTypeUnknown, fmt.Errorf("%w: missing network reference: %s", ErrInvalidNetwork, network)
	}

	switch namespace {
	case "eip155":
		if _, err := strconv.ParseInt(reference, 10, 64); err != nil {
			return NetworkTypeUnknown, fmt.Errorf("%w: invalid EIP-155 chain ID: %s", ErrInvalidNetwork, reference)
		}
		return NetworkTypeEVM, nil
	case "solana":
		if len(reference) < 32 || len(reference) > 44 {
			return NetworkTypeUnknown, fmt.Errorf("%w: invalid Solana genesis hash length: %s", ErrInvalidNetwork, reference)
		}
		return NetworkTypeSVM, nil
	default:
		return NetworkTypeUnknown, fmt.Errorf("%w: unsupported namespace: %s", ErrInvalidNetwork, namespace)
	}
}

// AssetReference formats a token as "<network>/erc20:<contract>".
func AssetReference(network, contract string) string {
	return network + "/erc20:" + contract
}
