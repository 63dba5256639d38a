package ckpool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrEmptyIdentifier indicates an empty address or username.
	ErrEmptyIdentifier = errors.New("empty identifier")

	// ErrInvalidSegment indicates the identifier cannot be used as a single path segment.
	ErrInvalidSegment = errors.New("identifier is not a valid path segment")
)

// IdentifierValidator checks a payout address or username before it is
// placed in the request path.
type IdentifierValidator func(identifier string) error

// ValidatePathSegment accepts any identifier that renders to exactly one
// path segment. It is the default validator.
func ValidatePathSegment(identifier string) error {
	switch {
	case identifier == "":
		return ErrEmptyIdentifier
	case identifier == "." || identifier == "..":
		return ErrInvalidSegment
	case strings.ContainsAny(identifier, "/\\"):
		return ErrInvalidSegment
	case strings.TrimSpace(identifier) != identifier:
		return ErrInvalidSegment
	}
	return nil
}

// PayoutAddressValidator accepts only addresses valid for the given network.
// Worker suffixes ("address.worker") are accepted and the address part is checked.
func PayoutAddressValidator(params *chaincfg.Params) IdentifierValidator {
	return func(identifier string) error {
		if err := ValidatePathSegment(identifier); err != nil {
			return err
		}

		address, _, _ := strings.Cut(identifier, ".")
		decoded, err := btcutil.DecodeAddress(address, params)
		if err != nil {
			return fmt.Errorf("invalid payout address %q: %w", address, err)
		}
		if !decoded.IsForNet(params) {
			return fmt.Errorf("payout address %q is not for %s", address, params.Name)
		}
		return nil
	}
}
