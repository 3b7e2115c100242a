// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package consensus

import (
	"context"
	"sync"
)

// taskRegistry tracks the cancellation handles of long-running tasks, keyed
// by purpose. Shutdown signals cancellation; it does not join the tasks.
type taskRegistry struct {
	lock    sync.Mutex
	cancels map[string]context.CancelFunc
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{
		cancels: make(map[string]context.CancelFunc),
	}
}

func (t *taskRegistry) register(name string, cancel context.CancelFunc) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if previous, exists := t.cancels[name]; exists {
		previous()
	}
	t.cancels[name] = cancel
}

func (t *taskRegistry) shutdown() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, cancel := range t.cancels {
		cancel()
	}
	t.cancels = make(map[string]context.CancelFunc)
}
