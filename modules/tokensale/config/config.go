package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/internal/postgres"
	"github.com/gaze-network/token-sale/modules/tokensale/ledger"
	"github.com/gaze-network/token-sale/modules/tokensale/publisher"
	"github.com/gaze-network/token-sale/modules/tokensale/snapshot"
	"github.com/gaze-network/token-sale/modules/tokensale/stabletoken"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gaze-network/token-sale/pkg/decimals"
)

type Config struct {
	Database      string                  `mapstructure:"database"` // Database to store the journal. `postgres` | `memory`
	Postgres      postgres.Config         `mapstructure:"postgres"`
	APIHandlers   []string                `mapstructure:"api_handlers"` // List of API handlers to enable. (e.g. `http`)
	Token         TokenConfig             `mapstructure:"token"`
	Sale          SaleConfig              `mapstructure:"sale"`
	PaymentAssets []PaymentAssetConfig    `mapstructure:"payment_assets"`
	NATS          publisher.Config        `mapstructure:"nats"`
	Webhook       publisher.WebhookConfig `mapstructure:"webhook"`
	Snapshot      SnapshotConfig          `mapstructure:"snapshot"`
}

type TokenConfig struct {
	Address   string `mapstructure:"address"`
	Name      string `mapstructure:"name"`
	Symbol    string `mapstructure:"symbol"`
	MaxSupply string `mapstructure:"max_supply"` // Whole tokens, e.g. "316988658"
	Admin     string `mapstructure:"admin"`
}

type SaleConfig struct {
	Address    string `mapstructure:"address"`
	Governance string `mapstructure:"governance"`
	Recipient  string `mapstructure:"recipient"`
}

type PaymentAssetConfig struct {
	Address  string `mapstructure:"address"`
	Name     string `mapstructure:"name"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals"`
	Cap      string `mapstructure:"cap"` // Whole units
	Owner    string `mapstructure:"owner"`
}

type SnapshotConfig struct {
	snapshot.Config `mapstructure:",squash"`
	OutputDir       string        `mapstructure:"output_dir"` // Used when no bucket is set. Default is ./snapshots
	Interval        time.Duration `mapstructure:"interval"`   // Periodic export while running. Zero disables it.
}

// Genesis converts the configured token, sale and payment assets into the initial state of the service.
func (c Config) Genesis() (usecase.Genesis, error) {
	var (
		genesis usecase.Genesis
		err     error
	)

	genesis.Token = ledger.Config{
		Name:   c.Token.Name,
		Symbol: c.Token.Symbol,
	}
	if genesis.Token.Address, err = parseAddress("token.address", c.Token.Address); err != nil {
		return genesis, err
	}
	if genesis.Token.Admin, err = parseAddress("token.admin", c.Token.Admin); err != nil {
		return genesis, err
	}
	if genesis.Token.MaxSupply, err = decimals.ParseUnits(c.Token.MaxSupply, ledger.Decimals); err != nil {
		return genesis, errors.Wrap(err, "token.max_supply")
	}

	if genesis.Sale.Address, err = parseAddress("sale.address", c.Sale.Address); err != nil {
		return genesis, err
	}
	if genesis.Sale.Governance, err = parseAddress("sale.governance", c.Sale.Governance); err != nil {
		return genesis, err
	}
	if genesis.Sale.Recipient, err = parseAddress("sale.recipient", c.Sale.Recipient); err != nil {
		return genesis, err
	}

	for i, asset := range c.PaymentAssets {
		conf := stabletoken.Config{
			Name:     asset.Name,
			Symbol:   asset.Symbol,
			Decimals: asset.Decimals,
		}
		if conf.Address, err = parseAddress("payment_assets.address", asset.Address); err != nil {
			return genesis, errors.Wrapf(err, "payment asset %d", i)
		}
		if conf.Owner, err = parseAddress("payment_assets.owner", asset.Owner); err != nil {
			return genesis, errors.Wrapf(err, "payment asset %d", i)
		}
		if conf.Cap, err = decimals.ParseUnits(asset.Cap, asset.Decimals); err != nil {
			return genesis, errors.Wrapf(err, "payment asset %d: cap", i)
		}
		genesis.PaymentAssets = append(genesis.PaymentAssets, conf)
	}
	return genesis, nil
}

func parseAddress(field, value string) (common.Address, error) {
	address, err := common.NewAddressFromHex(value)
	if err != nil {
		return common.Address{}, errors.Wrap(err, field)
	}
	return address, nil
}
