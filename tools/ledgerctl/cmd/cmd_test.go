// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/test/identityset"
)

func writeConfig(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
ledger:
    operator: %s
db:
    dbType: boltdb
    dbPath: %s
`, identityset.Operator().String(), filepath.Join(dir, "delegation.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(cfgPath string, sk crypto.PrivateKey, args ...string) (string, error) {
	_configPaths = nil
	_privateKey = ""
	buf := new(bytes.Buffer)
	RootCmd.SetOut(buf)
	RootCmd.SetErr(io.Discard)
	flags := []string{"-c", cfgPath}
	if sk != nil {
		flags = append(flags, "--key", sk.HexString())
	}
	RootCmd.SetArgs(append(args, flags...))
	err := RootCmd.Execute()
	return buf.String(), err
}

func TestLedgerctl(t *testing.T) {
	require := require.New(t)
	cfgPath := writeConfig(t)

	var (
		op = identityset.OperatorKey()
		v  = identityset.PrivateKey(0)
		d  = identityset.PrivateKey(1)
		va = identityset.Address(0).String()
		da = identityset.Address(1).String()
	)

	out, err := execute(cfgPath, op, "mint", da, "NCG", "1000")
	require.NoError(err)
	require.Contains(out, "status: 1")
	require.Contains(out, "mint")

	_, err = execute(cfgPath, v, "register")
	require.NoError(err)

	out, err = execute(cfgPath, d, "delegate", va, "500")
	require.NoError(err)
	require.Contains(out, "height: 3")
	require.Contains(out, "5.00 NCG")

	out, err = execute(cfgPath, nil, "show", "delegatee", va)
	require.NoError(err)
	require.Contains(out, "total delegated: 5.00 NCG")
	require.Contains(out, "delegators: 1")

	_, err = execute(cfgPath, d, "undelegate", va, "100")
	require.NoError(err)

	out, err = execute(cfgPath, nil, "show", "unbonding", va, da)
	require.NoError(err)
	require.Contains(out, "lock-ins: 1/10")
	require.Contains(out, "rebond graces: 0/10")

	out, err = execute(cfgPath, nil, "show", "bond", va, da)
	require.NoError(err)
	require.Contains(out, "share: 400")

	// only the operator jails
	_, err = execute(cfgPath, d, "jail", va, "100")
	require.Error(err)
	require.Contains(err.Error(), "status 103")

	out, err = execute(cfgPath, nil, "height")
	require.NoError(err)
	require.Equal("5\n", out)

	out, err = execute(cfgPath, nil, "show", "balance", da, "NCG")
	require.NoError(err)
	require.Equal("5.00 NCG\n", out)

	out, err = execute(cfgPath, nil, "sweep")
	require.NoError(err)
	require.Contains(out, "pending unbondings: 1")

	_, err = execute(cfgPath, nil, "show", "balance", da, "GOLD")
	require.Error(err)

	// rewards deposited at height 7 are claimable from height 8
	out, err = execute(cfgPath, d, "reward", va, "NCG", "100")
	require.NoError(err)
	require.Contains(out, "height: 7")
	out, err = execute(cfgPath, nil, "show", "rewards", va, da)
	require.NoError(err)
	require.Equal("1.00 NCG\n", out)

	// actions need a signer
	_, err = execute(cfgPath, nil, "register")
	require.Error(err)
}
