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

package goal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rostra-robotics/rostra/action-core/pkg/goalstate"
	"github.com/rostra-robotics/rostra/action-core/pkg/logger"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
)

// Handle owns one goal's identity and lifecycle state. A handle is created
// by the action server when a goal is accepted and destroyed on expiry or
// server teardown. Handles are not thread-safe; the owning server serializes
// all access.
type Handle struct {
	info        Info
	state       goalstate.State
	log         *zap.SugaredLogger
	initialized bool
}

// NewHandle allocates and initializes a handle in one step.
func NewHandle(info Info) (*Handle, error) {
	h := &Handle{}
	if err := h.Init(info); err != nil {
		return nil, err
	}

	return h, nil
}

// Init sets up the handle for the given goal and puts it in Accepted.
// Initializing an already initialized handle is a programming error and is
// reported distinctly.
func (h *Handle) Init(info Info) error {
	if h == nil {
		return standarderrors.ErrHandleNotInitialized
	}

	if h.initialized {
		return standarderrors.ErrHandleAlreadyInitialized
	}

	h.info = info
	h.state = goalstate.Accepted
	h.log = logger.For(logger.ComponentGoalHandle).With("goal_id", info.GoalID.String())
	h.initialized = true

	return nil
}

// UpdateState advances the goal through the lifecycle table. On an invalid
// (state, event) pair the state is left unchanged and the returned error
// names both offenders.
func (h *Handle) UpdateState(event goalstate.Event) error {
	if h == nil || !h.initialized {
		return standarderrors.ErrHandleNotInitialized
	}

	next := goalstate.Transition(h.state, event)
	if next == goalstate.Unknown {
		return &goalstate.InvalidTransitionError{State: h.state, Event: event}
	}

	h.log.Debugf("goal %s -> %s on %s", h.state, next, event)
	h.state = next

	return nil
}

// Info returns a copy of the goal's identity.
func (h *Handle) Info() (Info, error) {
	if h == nil || !h.initialized {
		return Info{}, standarderrors.ErrHandleNotInitialized
	}

	return h.info, nil
}

// Status returns a copy of the goal's current lifecycle state.
func (h *Handle) Status() (goalstate.State, error) {
	if h == nil || !h.initialized {
		return goalstate.Unknown, standarderrors.ErrHandleNotInitialized
	}

	return h.state, nil
}

// IsActive reports whether the goal is still being tracked for completion.
// An invalid handle reports false alongside the error.
func (h *Handle) IsActive() (bool, error) {
	if h == nil || !h.initialized {
		return false, standarderrors.ErrHandleNotInitialized
	}

	return goalstate.IsActive(h.state), nil
}

// IsCancelable reports whether a cancel request would move the goal to
// Canceling. An invalid handle reports false alongside the error.
func (h *Handle) IsCancelable() (bool, error) {
	if h == nil || !h.initialized {
		return false, standarderrors.ErrHandleNotInitialized
	}

	return goalstate.IsCancelable(h.state), nil
}

// Fini releases the handle. Finalizing a never-initialized or already
// finalized handle is a no-op, so double-Fini is safe. The same storage can
// be re-initialized afterwards and starts over in Accepted.
func (h *Handle) Fini() {
	if h == nil || !h.initialized {
		return
	}

	h.info = Info{}
	h.state = goalstate.Unknown
	h.log = nil
	h.initialized = false
}

// String describes the handle for log output.
func (h *Handle) String() string {
	if h == nil || !h.initialized {
		return "goal<uninitialized>"
	}

	return fmt.Sprintf("goal<%s %s>", h.info.GoalID, h.state)
}
