// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-delegation/action"
)

var (
	_slashFactor    string
	_slashJailUntil uint64
	_slashTombstone bool
)

type actionBuilder func(n *node, args []string) (action.Action, error)

func newActionCmd(use, short string, nargs int, build actionBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node) error {
				act, err := build(n, args)
				if err != nil {
					return err
				}
				receipt, height, err := n.runBlock(ctx, act)
				if err != nil {
					return err
				}
				return printReceipt(cmd, receipt, height)
			})
		},
	}
}

func actionCmds() []*cobra.Command {
	slash := newActionCmd("slash DELEGATEE INFRACTION_HEIGHT", "Slash a delegatee for an infraction", 2,
		func(n *node, args []string) (action.Action, error) {
			infraction, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid infraction height %s", args[1])
			}
			factor := _slashFactor
			if factor == "" {
				factor = strconv.FormatUint(n.cfg.Delegation.SlashFactor, 10)
			}
			return action.NewSlash(args[0], infraction, factor, _slashJailUntil, _slashTombstone)
		})
	slash.Flags().StringVar(&_slashFactor, "factor", "", "slash factor, the configured one if empty")
	slash.Flags().Uint64Var(&_slashJailUntil, "jail-until", 0, "jail the delegatee until the height")
	slash.Flags().BoolVar(&_slashTombstone, "tombstone", false, "tombstone the delegatee")

	return []*cobra.Command{
		newActionCmd("register", "Register the signer as a delegatee", 0,
			func(_ *node, _ []string) (action.Action, error) {
				return action.NewRegisterDelegatee(), nil
			}),
		newActionCmd("mint RECIPIENT TICKER AMOUNT", "Mint currency to an account", 3,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewMint(args[0], args[1], args[2])
			}),
		newActionCmd("transfer RECIPIENT TICKER AMOUNT", "Transfer currency to an account", 3,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewTransfer(args[0], args[1], args[2])
			}),
		newActionCmd("delegate DELEGATEE AMOUNT", "Delegate an amount to a delegatee", 2,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewDelegate(args[0], args[1])
			}),
		newActionCmd("undelegate DELEGATEE SHARE", "Undelegate shares from a delegatee", 2,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewUndelegate(args[0], args[1])
			}),
		newActionCmd("redelegate SRC DST SHARE", "Move shares from one delegatee to another", 3,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewRedelegate(args[0], args[1], args[2])
			}),
		newActionCmd("cancel DELEGATEE AMOUNT", "Cancel unbonding and delegate the amount back", 2,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewCancelUnbonding(args[0], args[1])
			}),
		newActionCmd("claim DELEGATEE", "Claim rewards from a delegatee", 1,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewClaimReward(args[0]), nil
			}),
		newActionCmd("reward DELEGATEE TICKER AMOUNT", "Allocate rewards to a delegatee", 3,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewAllocateReward(args[0], args[1], args[2])
			}),
		newActionCmd("jail DELEGATEE UNTIL", "Jail a delegatee until the height", 2,
			func(_ *node, args []string) (action.Action, error) {
				until, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid height %s", args[1])
				}
				return action.NewJail(args[0], until), nil
			}),
		newActionCmd("unjail", "Unjail the signer", 0,
			func(_ *node, _ []string) (action.Action, error) {
				return action.NewUnjail(), nil
			}),
		newActionCmd("tombstone DELEGATEE", "Tombstone a delegatee", 1,
			func(_ *node, args []string) (action.Action, error) {
				return action.NewTombstone(args[0]), nil
			}),
		slash,
	}
}

var _sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Commit an empty block, releasing the matured unbondings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNode(cmd, func(ctx context.Context, n *node) error {
			_, height, err := n.runBlock(ctx, nil)
			if err != nil {
				return err
			}
			set, err := n.ledger().UnbondingSet()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "height: %d\npending unbondings: %d\n", height, set.Len())
			return nil
		})
	},
}

func printReceipt(cmd *cobra.Command, receipt *action.Receipt, height uint64) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "height: %d\nstatus: %d\n", height, receipt.Status)
	if logs := receipt.TransactionLogs(); len(logs) > 0 {
		tb := table.New("Type", "Sender", "Recipient", "Amount").WithWriter(out)
		for _, l := range logs {
			tb.AddRow(l.Type, l.Sender, l.Recipient, l.Amount)
		}
		tb.Print()
	}
	if !receipt.Succeeded() {
		return errors.Errorf("action failed with status %d: %s", receipt.Status, receipt.ExecutionError)
	}
	return nil
}
