// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/iotexproject/iotex-delegation/action/protocol/delegation"
	"github.com/iotexproject/iotex-delegation/action/protocol/staking"
	"github.com/iotexproject/iotex-delegation/db"
	"github.com/iotexproject/iotex-delegation/pkg/log"
	"github.com/iotexproject/iotex-delegation/state"
)

var (
	// Default is the default config
	Default = Config{
		Ledger: Ledger{
			Operator: "",
		},
		DB: db.DefaultConfig,
		Delegation: Delegation{
			DelegationCurrency:     Currency{Ticker: "NCG", DecimalPlaces: 2},
			RewardCurrencies:       []Currency{{Ticker: "NCG", DecimalPlaces: 2}},
			UnbondingPeriod:        50400,
			MaxUnbondLockInEntries: 10,
			MaxRebondGraceEntries:  10,
			SlashFactor:            10,
			SweepInterval:          1,
		},
		Log: log.GlobalConfig{},
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateLedger,
		ValidateDB,
		ValidateDelegation,
	}
)

type (
	// Config is the root config of the ledger
	Config struct {
		Ledger     Ledger           `yaml:"ledger"`
		DB         db.Config        `yaml:"db"`
		Delegation Delegation       `yaml:"delegation"`
		Log        log.GlobalConfig `yaml:"log"`
	}

	// Ledger is the config of the ledger operator
	Ledger struct {
		// Operator is the address allowed to mint, jail, tombstone and slash
		Operator string `yaml:"operator"`
	}

	// Currency is the config of a fungible currency
	Currency struct {
		Ticker        string `yaml:"ticker"`
		DecimalPlaces uint8  `yaml:"decimalPlaces"`
	}

	// Delegation is the policy applied to newly registered delegatees
	Delegation struct {
		DelegationCurrency     Currency   `yaml:"delegationCurrency"`
		RewardCurrencies       []Currency `yaml:"rewardCurrencies"`
		UnbondingPeriod        uint64     `yaml:"unbondingPeriod"`
		MaxUnbondLockInEntries uint32     `yaml:"maxUnbondLockInEntries"`
		MaxRebondGraceEntries  uint32     `yaml:"maxRebondGraceEntries"`
		// SlashFactor is the divisor used when a slash does not name one
		SlashFactor   uint64 `yaml:"slashFactor"`
		SweepInterval uint64 `yaml:"sweepInterval"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config path is not empty, it will read from
// the file and override the default configs. By default, it will apply all validation functions. To bypass validation,
// use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// Currency returns the currency
func (c Currency) Currency() state.Currency {
	return state.NewCurrency(c.Ticker, c.DecimalPlaces)
}

// Policy returns the delegatee policy
func (d Delegation) Policy() delegation.DelegateePolicy {
	rewards := make([]state.Currency, 0, len(d.RewardCurrencies))
	for _, c := range d.RewardCurrencies {
		rewards = append(rewards, c.Currency())
	}
	return delegation.DelegateePolicy{
		DelegationCurrency:     d.DelegationCurrency.Currency(),
		RewardCurrencies:       rewards,
		UnbondingPeriod:        d.UnbondingPeriod,
		MaxUnbondLockInEntries: d.MaxUnbondLockInEntries,
		MaxRebondGraceEntries:  d.MaxRebondGraceEntries,
	}
}

// Staking returns the config of the staking protocol
func (d Delegation) Staking() staking.Config {
	return staking.Config{
		Policy:        d.Policy(),
		SweepInterval: d.SweepInterval,
	}
}

// Currencies returns every currency the ledger serves, the delegation currency first
func (d Delegation) Currencies() []state.Currency {
	currencies := []state.Currency{d.DelegationCurrency.Currency()}
	for _, c := range d.RewardCurrencies {
		cur := c.Currency()
		dup := false
		for _, o := range currencies {
			if o.Ticker == cur.Ticker {
				dup = true
				break
			}
		}
		if !dup {
			currencies = append(currencies, cur)
		}
	}
	return currencies
}

// OperatorAddress returns the address of the ledger operator
func (cfg Config) OperatorAddress() (address.Address, error) {
	addr, err := address.FromString(cfg.Ledger.Operator)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidCfg, "invalid operator address %q: %v", cfg.Ledger.Operator, err)
	}
	return addr, nil
}

// ValidateLedger validates the ledger configs
func ValidateLedger(cfg Config) error {
	_, err := cfg.OperatorAddress()
	return err
}

// ValidateDB validates the db configs
func ValidateDB(cfg Config) error {
	switch cfg.DB.DBType {
	case db.DBMemory:
		return nil
	case db.DBBolt, db.DBPebble:
		if cfg.DB.DbPath == "" {
			return errors.Wrap(ErrInvalidCfg, "db path should not be empty")
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidCfg, "unsupported db type %s", cfg.DB.DBType)
	}
}

// ValidateDelegation validates the delegation configs
func ValidateDelegation(cfg Config) error {
	if err := cfg.Delegation.Policy().Validate(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	if cfg.Delegation.SlashFactor == 0 {
		return errors.Wrap(ErrInvalidCfg, "slash factor should be greater than 0")
	}
	for _, c := range cfg.Delegation.RewardCurrencies {
		if c.Ticker == cfg.Delegation.DelegationCurrency.Ticker && c.DecimalPlaces != cfg.Delegation.DelegationCurrency.DecimalPlaces {
			return errors.Wrapf(ErrInvalidCfg, "currency %s is configured with two precisions", c.Ticker)
		}
	}
	return nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
