// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"

	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/action/protocol/account"
	"github.com/iotexproject/iotex-delegation/action/protocol/delegation"
	"github.com/iotexproject/iotex-delegation/action/protocol/staking"
	"github.com/iotexproject/iotex-delegation/config"
	"github.com/iotexproject/iotex-delegation/db"
	"github.com/iotexproject/iotex-delegation/pkg/log"
	"github.com/iotexproject/iotex-delegation/state/factory"
)

var (
	_configPaths []string
	_privateKey  string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "ledgerctl is a command-line interface for the delegation ledger",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	RootCmd.PersistentFlags().StringSliceVarP(&_configPaths, "config", "c", nil, "config files, later ones override earlier ones")
	RootCmd.PersistentFlags().StringVarP(&_privateKey, "key", "k", "", "hex encoded private key signing the action")

	RootCmd.AddCommand(actionCmds()...)
	RootCmd.AddCommand(_sweepCmd)
	RootCmd.AddCommand(_showCmd)
	RootCmd.AddCommand(_heightCmd)
}

// node is a ledger opened on the configured store
type node struct {
	cfg config.Config
	kv  db.KVStore
	sf  factory.Factory
}

func openNode(ctx context.Context) (*node, error) {
	cfg, err := config.New(_configPaths)
	if err != nil {
		return nil, err
	}
	if err := log.InitLoggers(cfg.Log, nil); err != nil {
		return nil, errors.Wrap(err, "failed to init loggers")
	}
	operator, err := cfg.OperatorAddress()
	if err != nil {
		return nil, err
	}
	kv, err := db.CreateKVStore(cfg.DB, cfg.DB.DbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db")
	}
	sp, err := staking.NewProtocol(operator, cfg.Delegation.Staking())
	if err != nil {
		return nil, err
	}
	registry := protocol.NewRegistry()
	if err := registry.Register(account.ProtocolID, account.NewProtocol(operator, cfg.Delegation.Currencies()...)); err != nil {
		return nil, err
	}
	if err := registry.Register(staking.ProtocolID, sp); err != nil {
		return nil, err
	}
	sf, err := factory.NewFactory(kv, factory.RegistryOption(registry))
	if err != nil {
		return nil, err
	}
	if err := sf.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to start state factory")
	}
	return &node{cfg: cfg, kv: kv, sf: sf}, nil
}

func (n *node) Stop(ctx context.Context) error {
	return n.sf.Stop(ctx)
}

func (n *node) ledger() *delegation.Ledger {
	return delegation.NewReadOnlyLedger(n.sf, account.NewBalanceReader(n.sf))
}

// runBlock commits a block on top of the current height, holding the given action if any
func (n *node) runBlock(ctx context.Context, act action.Action) (*action.Receipt, uint64, error) {
	height, err := n.sf.Height()
	if err != nil {
		return nil, 0, err
	}
	height++
	elps := make([]*action.SealedEnvelope, 0, 1)
	if act != nil {
		sk, err := crypto.HexStringToPrivateKey(_privateKey)
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid private key")
		}
		selp, err := action.Sign(action.NewEnvelope(height, act), sk)
		if err != nil {
			return nil, 0, err
		}
		elps = append(elps, selp)
	}
	ctx = protocol.WithBlockCtx(ctx, protocol.BlockCtx{BlockHeight: height})
	receipts, err := n.sf.RunBlock(ctx, elps)
	if err != nil {
		return nil, 0, err
	}
	log.L().Debug("Ran block.", zap.Uint64("height", height), zap.Int("actions", len(elps)))
	if len(receipts) == 0 {
		return nil, height, nil
	}
	return receipts[0], height, nil
}

func withNode(cmd *cobra.Command, f func(context.Context, *node) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	if err := f(ctx, n); err != nil {
		if stopErr := n.Stop(ctx); stopErr != nil {
			log.L().Error("Failed to stop node.", zap.Error(stopErr))
		}
		return err
	}
	return n.Stop(ctx)
}
