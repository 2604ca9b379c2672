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

package lifecycle

// State is a lifecycle state identified by both a numeric id and a label.
// Primary states are resting states; transition states are passed through
// while a transition's callback work is in flight.
type State struct {
	ID    uint8  `json:"id"`
	Label string `json:"label"`
}

// Primary states.
var (
	// Unknown is the sentinel for lookups that matched nothing. It is the
	// machine's state before initialization and never a registered state.
	Unknown      = State{ID: 0, Label: "unknown"}
	Unconfigured = State{ID: 1, Label: "unconfigured"}
	Inactive     = State{ID: 2, Label: "inactive"}
	Active       = State{ID: 3, Label: "active"}
	Finalized    = State{ID: 4, Label: "finalized"}
)

// Transition states.
var (
	Configuring     = State{ID: 10, Label: "configuring"}
	CleaningUp      = State{ID: 11, Label: "cleaningup"}
	ShuttingDown    = State{ID: 12, Label: "shuttingdown"}
	Activating      = State{ID: 13, Label: "activating"}
	Deactivating    = State{ID: 14, Label: "deactivating"}
	ErrorProcessing = State{ID: 15, Label: "errorprocessing"}
)

// Transition connects a start state to a goal state under an id and label.
// Labels may repeat across different start states (e.g. "shutdown"); ids
// are unique machine-wide.
type Transition struct {
	ID    uint8  `json:"id"`
	Label string `json:"label"`
	Start State  `json:"start_state"`
	Goal  State  `json:"goal_state"`
}

// Canonical transition ids.
const (
	TransitionConfigure            uint8 = 1
	TransitionCleanUp              uint8 = 2
	TransitionActivate             uint8 = 3
	TransitionDeactivate           uint8 = 4
	TransitionUnconfiguredShutdown uint8 = 5
	TransitionInactiveShutdown     uint8 = 6
	TransitionActiveShutdown       uint8 = 7

	TransitionOnConfigureSuccess  uint8 = 10
	TransitionOnConfigureFailure  uint8 = 11
	TransitionOnConfigureError    uint8 = 12
	TransitionOnCleanupSuccess    uint8 = 20
	TransitionOnCleanupFailure    uint8 = 21
	TransitionOnCleanupError      uint8 = 22
	TransitionOnActivateSuccess   uint8 = 30
	TransitionOnActivateFailure   uint8 = 31
	TransitionOnActivateError     uint8 = 32
	TransitionOnDeactivateSuccess uint8 = 40
	TransitionOnDeactivateFailure uint8 = 41
	TransitionOnDeactivateError   uint8 = 42
	TransitionOnShutdownSuccess   uint8 = 50
	TransitionOnShutdownError     uint8 = 52
	TransitionOnErrorSuccess      uint8 = 60
	TransitionOnErrorFailure      uint8 = 61
)

// defaultStates is the canonical node lifecycle state set.
func defaultStates() []State {
	return []State{
		Unconfigured, Inactive, Active, Finalized,
		Configuring, CleaningUp, ShuttingDown,
		Activating, Deactivating, ErrorProcessing,
	}
}

// defaultTransitions is the canonical node lifecycle transition set,
// including the success/failure/error completions and error recovery.
func defaultTransitions() []Transition {
	return []Transition{
		{ID: TransitionConfigure, Label: "configure", Start: Unconfigured, Goal: Configuring},
		{ID: TransitionOnConfigureSuccess, Label: "configure_success", Start: Configuring, Goal: Inactive},
		{ID: TransitionOnConfigureFailure, Label: "configure_failure", Start: Configuring, Goal: Unconfigured},
		{ID: TransitionOnConfigureError, Label: "configure_error", Start: Configuring, Goal: ErrorProcessing},

		{ID: TransitionActivate, Label: "activate", Start: Inactive, Goal: Activating},
		{ID: TransitionOnActivateSuccess, Label: "activate_success", Start: Activating, Goal: Active},
		{ID: TransitionOnActivateFailure, Label: "activate_failure", Start: Activating, Goal: Inactive},
		{ID: TransitionOnActivateError, Label: "activate_error", Start: Activating, Goal: ErrorProcessing},

		{ID: TransitionDeactivate, Label: "deactivate", Start: Active, Goal: Deactivating},
		{ID: TransitionOnDeactivateSuccess, Label: "deactivate_success", Start: Deactivating, Goal: Inactive},
		{ID: TransitionOnDeactivateFailure, Label: "deactivate_failure", Start: Deactivating, Goal: Active},
		{ID: TransitionOnDeactivateError, Label: "deactivate_error", Start: Deactivating, Goal: ErrorProcessing},

		{ID: TransitionCleanUp, Label: "cleanup", Start: Inactive, Goal: CleaningUp},
		{ID: TransitionOnCleanupSuccess, Label: "cleanup_success", Start: CleaningUp, Goal: Unconfigured},
		{ID: TransitionOnCleanupFailure, Label: "cleanup_failure", Start: CleaningUp, Goal: Inactive},
		{ID: TransitionOnCleanupError, Label: "cleanup_error", Start: CleaningUp, Goal: ErrorProcessing},

		{ID: TransitionUnconfiguredShutdown, Label: "shutdown", Start: Unconfigured, Goal: ShuttingDown},
		{ID: TransitionInactiveShutdown, Label: "shutdown", Start: Inactive, Goal: ShuttingDown},
		{ID: TransitionActiveShutdown, Label: "shutdown", Start: Active, Goal: ShuttingDown},
		{ID: TransitionOnShutdownSuccess, Label: "shutdown_success", Start: ShuttingDown, Goal: Finalized},
		{ID: TransitionOnShutdownError, Label: "shutdown_error", Start: ShuttingDown, Goal: ErrorProcessing},

		{ID: TransitionOnErrorSuccess, Label: "error_success", Start: ErrorProcessing, Goal: Unconfigured},
		{ID: TransitionOnErrorFailure, Label: "error_failure", Start: ErrorProcessing, Goal: Finalized},
	}
}
