// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package lifecycle

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name  string
	trace *[]string
	err   error
}

func (r *recorder) Start(context.Context) error {
	*r.trace = append(*r.trace, "start:"+r.name)
	return r.err
}

func (r *recorder) Stop(context.Context) error {
	*r.trace = append(*r.trace, "stop:"+r.name)
	return nil
}

func TestLifecycle(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	var trace []string
	var lc Lifecycle
	lc.Add(&recorder{name: "db", trace: &trace})
	lc.AddModels(&recorder{name: "factory", trace: &trace}, struct{}{})
	r.NoError(lc.OnStart(ctx))
	r.NoError(lc.OnStop(ctx))
	r.Equal([]string{"start:db", "start:factory", "stop:factory", "stop:db"}, trace)
}

func TestLifecycleWithError(t *testing.T) {
	r := require.New(t)

	var trace []string
	var lc Lifecycle
	failure := errors.New("error")
	lc.AddModels(&recorder{name: "a", trace: &trace, err: failure}, &recorder{name: "b", trace: &trace})
	r.Equal(failure, lc.OnStart(context.Background()))
	r.Equal([]string{"start:a"}, trace)
}

func TestReadiness(t *testing.T) {
	r := require.New(t)

	var ready Readiness
	r.False(ready.IsReady())
	r.Equal(ErrWrongState, ready.TurnOff())

	r.NoError(ready.TurnOn())
	r.True(ready.IsReady())
	r.Equal(ErrWrongState, ready.TurnOn())

	r.NoError(ready.TurnOff())
	r.False(ready.IsReady())
}
