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

// Package goalstate implements the action goal lifecycle state machine.
//
// The transition function is a total, side-effect-free lookup over a fixed
// table. Every other part of the action engine (goal handles, the server
// registry, cancellation resolution, expiry) builds on this exact table, so
// it must never be inferred or shortened: in particular a goal in Canceling
// may still resolve to Succeeded or Aborted, not only to Canceled.
package goalstate

import "fmt"

// State is the lifecycle state of a single action goal.
type State int8

const (
	// Unknown is the sentinel returned for invalid transitions.
	// It is never a resting state of a tracked goal.
	Unknown State = iota
	// Accepted means the server has taken responsibility for the goal
	// but execution has not started yet.
	Accepted
	// Executing means the goal is actively being worked on.
	Executing
	// Canceling means cancellation was requested; the executor must still
	// confirm the outcome with Succeed, Abort or Canceled.
	Canceling
	// Succeeded is the terminal state of a goal that completed normally.
	Succeeded
	// Canceled is the terminal state of a goal whose cancellation was confirmed.
	Canceled
	// Aborted is the terminal state of a goal the executor gave up on.
	Aborted

	numStates
)

// Event is an input to the goal transition function. Events are not persisted.
type Event int8

const (
	// EventExecute starts execution of an accepted goal.
	EventExecute Event = iota
	// EventCancelGoal requests cancellation of an active goal.
	EventCancelGoal
	// EventSucceed marks a goal as completed successfully.
	EventSucceed
	// EventAbort marks a goal as aborted by the executor.
	EventAbort
	// EventCanceled confirms that a canceling goal was in fact canceled.
	EventCanceled

	numEvents
)

// transitions is the canonical goal lifecycle table. Rows are states,
// columns are events. The zero value Unknown marks invalid pairs.
var transitions = [numStates][numEvents]State{
	Accepted: {
		EventExecute:    Executing,
		EventCancelGoal: Canceling,
	},
	Executing: {
		EventCancelGoal: Canceling,
		EventSucceed:    Succeeded,
		EventAbort:      Aborted,
	},
	Canceling: {
		EventSucceed:  Succeeded,
		EventAbort:    Aborted,
		EventCanceled: Canceled,
	},
}

// Transition applies the goal lifecycle table to (state, event) and returns
// the successor state. It is total: any pair outside the table, including
// out-of-range values, yields Unknown.
func Transition(state State, event Event) State {
	if state < 0 || state >= numStates || event < 0 || event >= numEvents {
		return Unknown
	}

	return transitions[state][event]
}

// IsActive reports whether the state still tracks an unfinished goal.
func IsActive(state State) bool {
	switch state {
	case Accepted, Executing, Canceling:
		return true
	}

	return false
}

// IsTerminal reports whether the goal's outcome is fixed.
func IsTerminal(state State) bool {
	switch state {
	case Succeeded, Canceled, Aborted:
		return true
	}

	return false
}

// IsCancelable reports whether a cancel request would be honored in this
// state, i.e. whether Transition(state, EventCancelGoal) reaches Canceling.
func IsCancelable(state State) bool {
	return Transition(state, EventCancelGoal) == Canceling
}

// IsValid reports whether s is a real resting state (Unknown excluded).
func IsValid(s State) bool {
	return s > Unknown && s < numStates
}

// String returns the canonical lower-case label for the state.
func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Accepted:
		return "accepted"
	case Executing:
		return "executing"
	case Canceling:
		return "canceling"
	case Succeeded:
		return "succeeded"
	case Canceled:
		return "canceled"
	case Aborted:
		return "aborted"
	}

	return fmt.Sprintf("state(%d)", int8(s))
}

// String returns the canonical label for the event.
func (e Event) String() string {
	switch e {
	case EventExecute:
		return "execute"
	case EventCancelGoal:
		return "cancel_goal"
	case EventSucceed:
		return "succeed"
	case EventAbort:
		return "abort"
	case EventCanceled:
		return "canceled"
	}

	return fmt.Sprintf("event(%d)", int8(e))
}

// InvalidTransitionError reports a (state, event) pair the lifecycle table
// does not allow. State is left unchanged by the caller when this is returned.
type InvalidTransitionError struct {
	State State
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("goal state %s does not accept event %s", e.State, e.Event)
}
