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
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
)

// registry is the server's owned collection of goal handles. Insertion
// appends, so iteration order is acceptance order; removal compacts by
// shifting later entries left, preserving the relative order of survivors.
// Goal counts are small and removals batched, so the O(n) shift is fine.
//
// Invariant: no two live entries share a goal ID.
type registry struct {
	handles []*goal.Handle
}

func (r *registry) insert(h *goal.Handle) error {
	info, err := h.Info()
	if err != nil {
		return err
	}

	if r.contains(info.GoalID) {
		return standarderrors.ErrGoalExists
	}

	r.handles = append(r.handles, h)

	return nil
}

func (r *registry) find(id goal.ID) (*goal.Handle, bool) {
	for _, h := range r.handles {
		info, err := h.Info()
		if err != nil {
			continue
		}

		if info.GoalID == id {
			return h, true
		}
	}

	return nil, false
}

func (r *registry) contains(id goal.ID) bool {
	_, ok := r.find(id)

	return ok
}

// removeAt compacts the slice around index i. The caller finalizes the
// handle; the registry only drops its ownership slot.
func (r *registry) removeAt(i int) {
	copy(r.handles[i:], r.handles[i+1:])
	r.handles[len(r.handles)-1] = nil
	r.handles = r.handles[:len(r.handles)-1]
}

func (r *registry) len() int {
	return len(r.handles)
}

// finiAll finalizes every handle and empties the registry.
func (r *registry) finiAll() {
	for i, h := range r.handles {
		h.Fini()
		r.handles[i] = nil
	}

	r.handles = r.handles[:0]
}
