package ckpool

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
)

func TestValidatePathSegment(t *testing.T) {
	tests := []struct {
		identifier string
		expected   error
	}{
		{"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", nil},
		{"username", nil},
		{"address.worker", nil},
		{"", ErrEmptyIdentifier},
		{".", ErrInvalidSegment},
		{"..", ErrInvalidSegment},
		{"a/b", ErrInvalidSegment},
		{`a\b`, ErrInvalidSegment},
		{"trailing ", ErrInvalidSegment},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			err := ValidatePathSegment(tt.identifier)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestPayoutAddressValidator(t *testing.T) {
	mainnet := PayoutAddressValidator(&chaincfg.MainNetParams)

	tests := []struct {
		name       string
		identifier string
		valid      bool
	}{
		{"bech32 p2wpkh", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", true},
		{"legacy p2pkh", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"with worker suffix", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa.rig1", true},
		{"bad checksum", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t5", false},
		{"username", "satoshi", false},
		{"testnet address", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mainnet(tt.identifier)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
