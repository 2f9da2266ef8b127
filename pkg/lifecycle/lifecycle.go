// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides application models' lifecycle management.
package lifecycle

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	_notReady = 0
	_ready    = 1
)

// vars
var (
	ErrWrongState = errors.New("service is in wrong state")
)

type (
	// Model is application model which may require to start and stop in application lifecycle.
	Model interface{}

	// Starter is Model has a Start method.
	Starter interface {
		// Start runs on lifecycle start phase.
		Start(context.Context) error
	}

	// Stopper is Model has a Stop method.
	Stopper interface {
		// Stop runs on lifecycle stop phase.
		Stop(context.Context) error
	}

	// StartStopper is the interface that groups Start and Stop.
	StartStopper interface {
		Starter
		Stopper
	}

	// Lifecycle manages lifecycle for models. Currently a Lifecycle has two phases: Start and Stop.
	Lifecycle struct {
		models []Model
	}

	// Readiness is a thread-safe struct to indicate a service's status
	Readiness struct {
		ready int32
	}
)

// Add adds a model into LifeCycle.
func (lc *Lifecycle) Add(m Model) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into LifeCycle.
func (lc *Lifecycle) AddModels(m ...Model) { lc.models = append(lc.models, m...) }

// OnStart runs models OnStart function if models implmented it. Models are started in the order they were added.
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStop runs models Stop function if models implmented it. Models are stopped in reverse order.
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	for i := len(lc.models) - 1; i >= 0; i-- {
		if stopper, ok := lc.models[i].(Stopper); ok {
			if err := stopper.Stop(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// TurnOn sets the service to ready (can accept service request)
func (r *Readiness) TurnOn() error {
	if atomic.CompareAndSwapInt32(&r.ready, _notReady, _ready) {
		return nil
	}
	return ErrWrongState
}

// TurnOff sets the service to not ready (initial state)
func (r *Readiness) TurnOff() error {
	if atomic.CompareAndSwapInt32(&r.ready, _ready, _notReady) {
		return nil
	}
	return ErrWrongState
}

// IsReady returns whether the service is ready (can accept service request)
func (r *Readiness) IsReady() bool {
	return atomic.LoadInt32(&r.ready) == _ready
}
