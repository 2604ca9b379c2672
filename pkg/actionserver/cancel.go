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

package actionserver

import (
	"github.com/rostra-robotics/rostra/action-core/pkg/actionmsgs"
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
)

// resolveCancel computes which tracked goals a cancel request targets.
// It is read-only; applying the CancelGoal event to the selection is the
// caller's separate step.
//
// Policy, by (id, stamp) of the request target:
//  1. id set, stamp zero:  exactly the named goal, if tracked and cancelable.
//  2. id zero, stamp zero: every cancelable goal (bound treated as +inf).
//  3. anything else:       every cancelable goal accepted at or before the
//     bound, plus the explicitly named goal regardless of its stamp.
//
// Selection has set semantics: in case 3 the named goal may also match the
// time bound, and must still appear exactly once. Terminal goals are simply
// excluded from batch selection, never an error.
func resolveCancel(reg *registry, target goal.Info) ([]*goal.Handle, actionmsgs.CancelCode) {
	id := target.GoalID
	stamp := target.AcceptedAt

	if !id.IsZero() && stamp.IsZero() {
		h, ok := reg.find(id)
		if !ok {
			return nil, actionmsgs.CancelCodeUnknownGoalID
		}

		cancelable, err := h.IsCancelable()
		if err != nil || !cancelable {
			return nil, actionmsgs.CancelCodeGoalTerminated
		}

		return []*goal.Handle{h}, actionmsgs.CancelCodeNone
	}

	bound := stamp
	if id.IsZero() && stamp.IsZero() {
		bound = goal.MaxStamp
	}

	var selected []*goal.Handle

	seen := make(map[goal.ID]struct{}, reg.len())

	for _, h := range reg.handles {
		cancelable, err := h.IsCancelable()
		if err != nil || !cancelable {
			continue
		}

		info, err := h.Info()
		if err != nil {
			continue
		}

		matchesBound := info.AcceptedAt.AtOrBefore(bound)
		matchesID := !id.IsZero() && info.GoalID == id

		if !matchesBound && !matchesID {
			continue
		}

		if _, dup := seen[info.GoalID]; dup {
			continue
		}

		seen[info.GoalID] = struct{}{}
		selected = append(selected, h)
	}

	return selected, actionmsgs.CancelCodeNone
}
