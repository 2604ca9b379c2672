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
	"sync"
	"time"

	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

// timer is a deadline against the transport clock. It becomes Ready once
// the clock passes the deadline and stays Ready until re-armed or canceled.
type timer struct {
	clock    transport.Clock
	mu       sync.Mutex
	period   time.Duration
	deadline time.Time
	armed    bool
}

func (t *timer) SetPeriod(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.period = d
	t.deadline = t.clock.Now().Add(d)
	t.armed = true
}

func (t *timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.deadline = t.clock.Now().Add(t.period)
	t.armed = true
}

func (t *timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.armed = false
}

func (t *timer) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.armed && !t.clock.Now().Before(t.deadline)
}
