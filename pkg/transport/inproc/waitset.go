// Copyright 2026 Rostra Robotics GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package inproc

import (
	"errors"
	"time"

	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

const waitPollInterval = time.Millisecond

// WaitSet polls its entities for readiness. After Wait, the Ready slice
// holds each added entity at its index when ready and nil otherwise, so
// callers can dispatch by pointer identity.
type WaitSet struct {
	entities []transport.Waitable
	ready    []transport.Waitable
}

// NewWaitSet creates an empty wait set.
func NewWaitSet() *WaitSet {
	return &WaitSet{}
}

// Add registers an entity and returns its stable index.
func (w *WaitSet) Add(entity transport.Waitable) (int, error) {
	if entity == nil {
		return 0, errors.New("wait set entity must not be nil")
	}

	w.entities = append(w.entities, entity)

	return len(w.entities) - 1, nil
}

// Wait polls until at least one entity is ready or the timeout elapses.
// A zero timeout polls exactly once.
func (w *WaitSet) Wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if w.materialize() {
			return nil
		}

		if !time.Now().Before(deadline) {
			return transport.ErrWaitTimeout
		}

		time.Sleep(waitPollInterval)
	}
}

func (w *WaitSet) materialize() bool {
	if w.ready == nil {
		w.ready = make([]transport.Waitable, len(w.entities))
	}

	w.ready = w.ready[:0]

	anyReady := false

	for _, e := range w.entities {
		if e.Ready() {
			w.ready = append(w.ready, e)
			anyReady = true
		} else {
			w.ready = append(w.ready, nil)
		}
	}

	return anyReady
}

// Ready returns the entity list materialized by the last Wait.
func (w *WaitSet) Ready() []transport.Waitable {
	return w.ready
}
