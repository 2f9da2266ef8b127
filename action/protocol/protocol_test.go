// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/action"
)

type dummyProtocol struct {
	name string
}

func (p *dummyProtocol) Name() string { return p.name }

func (p *dummyProtocol) Validate(context.Context, action.Action, StateReader) error { return nil }

func (p *dummyProtocol) Handle(context.Context, action.Action, StateManager) (*action.Receipt, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	require := require.New(t)
	reg := NewRegistry()
	require.NoError(reg.Register("b", &dummyProtocol{"b"}))
	require.NoError(reg.Register("a", &dummyProtocol{"a"}))
	require.Error(reg.Register("a", &dummyProtocol{"a"}))

	p, ok := reg.Find("a")
	require.True(ok)
	require.Equal("a", p.Name())
	_, ok = reg.Find("c")
	require.False(ok)

	all := reg.All()
	require.Len(all, 2)
	require.Equal("b", all[0].Name())
	require.Equal("a", all[1].Name())
}

func TestStateConfig(t *testing.T) {
	require := require.New(t)
	key := []byte("key")
	cfg, err := CreateStateConfig(NamespaceOption("ns"), KeyOption(key))
	require.NoError(err)
	require.Equal("ns", cfg.Namespace)
	key[0] = 'x'
	require.Equal([]byte("key"), cfg.Key)

	_, err = CreateStateConfig(KeyOption(key))
	require.Error(err)
	_, err = CreateStateConfig(NamespaceOption("ns"))
	require.Error(err)
}

func TestContext(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	_, ok := GetBlockCtx(ctx)
	require.False(ok)
	require.Panics(func() { MustGetActionCtx(ctx) })

	ctx = WithBlockCtx(ctx, BlockCtx{BlockHeight: 7})
	require.Equal(uint64(7), MustGetBlockCtx(ctx).BlockHeight)
	ctx = WithActionCtx(ctx, ActionCtx{Nonce: 3})
	ac, ok := GetActionCtx(ctx)
	require.True(ok)
	require.Equal(uint64(3), ac.Nonce)

	reg := NewRegistry()
	ctx = WithRegistry(ctx, reg)
	got, ok := GetRegistry(ctx)
	require.True(ok)
	require.Equal(reg, got)
}
