// Package validation provides validation utilities for PayBot payment data.
// It validates addresses, amounts, networks (CAIP-2 format), and payment requests.
package validation

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	paybot "github.com/RBKunnela/paybot-sdk"
)

var (
	// evmAddressRegex matches Ethereum-style addresses (0x followed by 40 hex chars)
	evmAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

	// caip2Regex matches CAIP-2 network identifiers (namespace:reference)
	caip2Regex = regexp.MustCompile(`^[a-z0-9]+:[a-zA-Z0-9]+$`)
)

// ValidateBaseUnits validates that an amount string is a valid non-negative integer.
func ValidateBaseUnits(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}
	if _, err := paybot.ParseBaseUnits(amount); err != nil {
		return fmt.Errorf("invalid amount format: %s", amount)
	}
	return nil
}

// ValidateDecimalAmount validates a human-readable decimal amount such as "0.01".
func ValidateDecimalAmount(amount string) error {
	if _, err := paybot.DecimalToBaseUnits(amount); err != nil {
		return err
	}
	return nil
}

// ValidateNetwork validates a CAIP-2 network identifier.
// Returns an error if the network is empty or not in valid CAIP-2 format.
func ValidateNetwork(network string) error {
	if network == "" {
		return fmt.Errorf("network cannot be empty")
	}

	if !caip2Regex.MatchString(network) {
		return fmt.Errorf("invalid CAIP-2 network format: %s (expected namespace:reference)", network)
	}

	_, err := paybot.ValidateNetwork(network)
	return err
}

// ValidateAddress validates an address based on the network type.
func ValidateAddress(address string, network string) error {
	if address == "" {
		return fmt.Errorf("%w: address cannot be empty", paybot.ErrInvalidAddress)
	}

	networkType, err := paybot.ValidateNetwork(network)
	if err != nil {
		return fmt.Errorf("cannot validate address: %w", err)
	}

	switch networkType {
	case paybot.NetworkTypeEVM:
		if !evmAddressRegex.MatchString(address) || !common.IsHexAddress(address) {
			return fmt.Errorf("%w: invalid EVM address format: %s (expected 0x followed by 40 hex characters)", paybot.ErrInvalidAddress, address)
		}
		return nil

	case paybot.NetworkTypeSVM:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("%w: invalid Solana address %s: %v", paybot.ErrInvalidAddress, address, err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported network type for address validation: %d", networkType)
	}
}

// ValidateResource validates the resource URL of a payment.
func ValidateResource(resource string) error {
	if resource == "" {
		return fmt.Errorf("resource URL cannot be empty")
	}
	if _, err := url.Parse(resource); err != nil {
		return fmt.Errorf("invalid resource URL: %w", err)
	}
	return nil
}

// ValidatePaymentRequest validates a payment request whose defaults have been resolved.
func ValidatePaymentRequest(req paybot.PaymentRequest) error {
	if err := ValidateResource(req.Resource); err != nil {
		return fmt.Errorf("invalid payment request: %w", err)
	}

	if err := ValidateDecimalAmount(req.Amount); err != nil {
		return fmt.Errorf("invalid payment request: %w", err)
	}

	if err := ValidateNetwork(req.Network); err != nil {
		return fmt.Errorf("invalid payment request: %w", err)
	}

	if err := ValidateAddress(req.PayTo, req.Network); err != nil {
		return fmt.Errorf("invalid payment request: payTo %w", err)
	}

	if req.Asset == "" {
		return fmt.Errorf("invalid payment request: asset address cannot be empty")
	}

	if err := ValidateAddress(req.Asset, req.Network); err != nil {
		return fmt.Errorf("invalid payment request: asset %w", err)
	}

	return nil
}
