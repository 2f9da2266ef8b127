// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/iotexproject/iotex-delegation/action/protocol/account"
	"github.com/iotexproject/iotex-delegation/state"
)

var _showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the committed state of the ledger",
}

var _heightCmd = &cobra.Command{
	Use:   "height",
	Short: "Show the height of the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withNode(cmd, func(_ context.Context, n *node) error {
			height, err := n.sf.Height()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), height)
			return nil
		})
	},
}

func init() {
	_showCmd.AddCommand(
		newShowCmd("delegatee DELEGATEE", "Show the metadata of a delegatee", 1, showDelegatee),
		newShowCmd("delegator DELEGATOR", "Show the delegatees of a delegator", 1, showDelegator),
		newShowCmd("bond DELEGATEE DELEGATOR", "Show the bond of a delegator", 2, showBond),
		newShowCmd("unbonding DELEGATEE DELEGATOR", "Show the unbonding queues of a delegator", 2, showUnbonding),
		newShowCmd("rewards DELEGATEE DELEGATOR", "Show the rewards a claim would pay at the next height", 2, showRewards),
		newShowCmd("balance ACCOUNT TICKER", "Show the balance of an account", 2, showBalance),
	)
}

type showFunc func(cmd *cobra.Command, n *node, addrs []address.Address, args []string) error

func newShowCmd(use, short string, nargs int, show showFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(_ context.Context, n *node) error {
				addrs := make([]address.Address, 0, len(args))
				for _, arg := range args {
					addr, err := address.FromString(arg)
					if err != nil {
						break
					}
					addrs = append(addrs, addr)
				}
				return show(cmd, n, addrs, args)
			})
		},
	}
}

func requireAddrs(addrs []address.Address, n int) error {
	if len(addrs) < n {
		return errors.Errorf("%d addresses expected, %d valid", n, len(addrs))
	}
	return nil
}

func showDelegatee(cmd *cobra.Command, n *node, addrs []address.Address, _ []string) error {
	if err := requireAddrs(addrs, 1); err != nil {
		return err
	}
	m, err := n.ledger().Delegatee(addrs[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "delegatee: %s\n", m.Address())
	fmt.Fprintf(out, "total delegated: %s\n", m.TotalDelegated())
	fmt.Fprintf(out, "total shares: %s\n", m.TotalShares())
	fmt.Fprintf(out, "delegators: %d\n", len(m.Delegators()))
	fmt.Fprintf(out, "unbonding period: %d\n", m.UnbondingPeriod())
	fmt.Fprintf(out, "jailed: %t until %d\n", m.IsJailed(), m.JailedUntil())
	fmt.Fprintf(out, "tombstoned: %t\n", m.IsTombstoned())
	return nil
}

func showDelegator(cmd *cobra.Command, n *node, addrs []address.Address, _ []string) error {
	if err := requireAddrs(addrs, 1); err != nil {
		return err
	}
	m, err := n.ledger().Delegator(addrs[0])
	if err != nil {
		return err
	}
	for _, e := range m.Delegatees() {
		fmt.Fprintln(cmd.OutOrStdout(), e.String())
	}
	return nil
}

func showBond(cmd *cobra.Command, n *node, addrs []address.Address, _ []string) error {
	if err := requireAddrs(addrs, 2); err != nil {
		return err
	}
	bond, err := n.ledger().Bond(addrs[0], addrs[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "share: %s\nlast distribute height: %d\n", bond.Share(), bond.LastDistributeHeight())
	return nil
}

func showUnbonding(cmd *cobra.Command, n *node, addrs []address.Address, _ []string) error {
	if err := requireAddrs(addrs, 2); err != nil {
		return err
	}
	l := n.ledger()
	lockIn, err := l.UnbondLockIn(addrs[0], addrs[1])
	if err != nil {
		return err
	}
	grace, err := l.RebondGrace(addrs[0], addrs[1])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "lock-ins: %d/%d\n", lockIn.Len(), lockIn.MaxEntries())
	if entries := lockIn.Entries(); len(entries) > 0 {
		tb := table.New("Amount", "Initial", "Creation", "Expire").WithWriter(out)
		for _, e := range entries {
			tb.AddRow(e.LockInFAV, e.InitialLockInFAV, e.CreationHeight, e.ExpireHeight)
		}
		tb.Print()
	}
	fmt.Fprintf(out, "rebond graces: %d/%d\n", grace.Len(), grace.MaxEntries())
	if entries := grace.Entries(); len(entries) > 0 {
		tb := table.New("Unbondee", "Amount", "Initial", "Creation", "Expire").WithWriter(out)
		for _, e := range entries {
			tb.AddRow(e.UnbondeeAddress, e.GraceFAV, e.InitialGraceFAV, e.CreationHeight, e.ExpireHeight)
		}
		tb.Print()
	}
	return nil
}

func showRewards(cmd *cobra.Command, n *node, addrs []address.Address, _ []string) error {
	if err := requireAddrs(addrs, 2); err != nil {
		return err
	}
	height, err := n.sf.Height()
	if err != nil {
		return err
	}
	rewards, err := n.ledger().ClaimableRewards(addrs[0], addrs[1], height+1)
	if err != nil {
		return err
	}
	for _, r := range rewards {
		fmt.Fprintln(cmd.OutOrStdout(), r.String())
	}
	return nil
}

func showBalance(cmd *cobra.Command, n *node, addrs []address.Address, args []string) error {
	if err := requireAddrs(addrs, 1); err != nil {
		return err
	}
	var currency *state.Currency
	for _, c := range n.cfg.Delegation.Currencies() {
		if c.Ticker == args[1] {
			c := c
			currency = &c
			break
		}
	}
	if currency == nil {
		return errors.Errorf("unknown currency %s", args[1])
	}
	balance, err := account.Balance(n.sf, addrs[0], *currency)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), balance.String())
	return nil
}
