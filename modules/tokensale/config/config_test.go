package config

import (
	"testing"

	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Token: TokenConfig{
			Address:   "0x00000000000000000000000000000000000000b1",
			Name:      "Sale Token",
			Symbol:    "SALE",
			MaxSupply: "316988658",
			Admin:     "0x0000000000000000000000000000000000000001",
		},
		Sale: SaleConfig{
			Address:    "0x000000000000000000000000000000000000005a",
			Governance: "0x0000000000000000000000000000000000000001",
			Recipient:  "0x000000000000000000000000000000000000000e",
		},
		PaymentAssets: []PaymentAssetConfig{{
			Address:  "0x00000000000000000000000000000000000000d1",
			Name:     "Tether USD",
			Symbol:   "USDT",
			Decimals: 6,
			Cap:      "1000000000",
			Owner:    "0x0000000000000000000000000000000000000001",
		}},
	}
}

func TestGenesis(t *testing.T) {
	t.Parallel()
	genesis, err := validConfig().Genesis()
	require.NoError(t, err)

	maxSupply, err := uint256.FromDecimal("316988658000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, maxSupply, genesis.Token.MaxSupply)
	assert.Equal(t, common.BytesToAddress([]byte{0xb1}), genesis.Token.Address)
	assert.Equal(t, common.BytesToAddress([]byte{0x5a}), genesis.Sale.Address)
	require.Len(t, genesis.PaymentAssets, 1)
	assert.Equal(t, uint256.NewInt(1_000_000_000_000_000), genesis.PaymentAssets[0].Cap)
	assert.Equal(t, uint8(6), genesis.PaymentAssets[0].Decimals)
}

func TestGenesisRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing token address", func(c *Config) { c.Token.Address = "" }},
		{"malformed governance", func(c *Config) { c.Sale.Governance = "0xzz" }},
		{"fractional max supply", func(c *Config) { c.Token.MaxSupply = "1.0000000000000000001" }},
		{"negative cap", func(c *Config) { c.PaymentAssets[0].Cap = "-1" }},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			tc.mutate(&c)
			_, err := c.Genesis()
			assert.ErrorIs(t, err, errs.InvalidArgument)
		})
	}
}
