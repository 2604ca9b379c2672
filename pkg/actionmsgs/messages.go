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

// Package actionmsgs holds the message structs exchanged over the five
// action sub-endpoints. Application payloads (goal, result, feedback bodies)
// stay opaque to the engine and travel as raw JSON.
package actionmsgs

import (
	json "github.com/goccy/go-json"

	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/goalstate"
)

// CancelCode is the outcome of cancellation resolution.
type CancelCode int8

const (
	// CancelCodeNone means the request was processed normally. An empty
	// selection with this code simply means nothing matched.
	CancelCodeNone CancelCode = iota
	// CancelCodeRejected means the server is configured to refuse all
	// cancel requests.
	CancelCodeRejected
	// CancelCodeUnknownGoalID means the explicitly named goal is not
	// tracked by the server.
	CancelCodeUnknownGoalID
	// CancelCodeGoalTerminated means the explicitly named goal exists but
	// already reached a terminal state.
	CancelCodeGoalTerminated
)

// String returns a short label for the code.
func (c CancelCode) String() string {
	switch c {
	case CancelCodeNone:
		return "none"
	case CancelCodeRejected:
		return "rejected"
	case CancelCodeUnknownGoalID:
		return "unknown_goal_id"
	case CancelCodeGoalTerminated:
		return "goal_terminated"
	}

	return "invalid"
}

// SendGoalRequest asks the server to take on a new goal. The client may
// propose an ID; a zero ID makes the server assign one. Any client-side
// stamp is advisory and replaced by the server clock on acceptance.
type SendGoalRequest struct {
	GoalID goal.ID         `json:"goal_id"`
	Goal   json.RawMessage `json:"goal,omitempty"`
}

// SendGoalResponse reports whether the goal was accepted and, if so, the
// server-side acceptance stamp.
type SendGoalResponse struct {
	Accepted bool       `json:"accepted"`
	Stamp    goal.Stamp `json:"stamp"`
}

// CancelGoalRequest targets goals for cancellation. A zero GoalID and/or a
// zero AcceptedAt widen the match per the resolution policy.
type CancelGoalRequest struct {
	GoalInfo goal.Info `json:"goal_info"`
}

// CancelGoalResponse lists the goals that transitioned to Canceling.
type CancelGoalResponse struct {
	Code           CancelCode  `json:"return_code"`
	GoalsCanceling []goal.Info `json:"goals_canceling"`
}

// GetResultRequest asks for the terminal result of a goal.
type GetResultRequest struct {
	GoalID goal.ID `json:"goal_id"`
}

// GetResultResponse carries the goal's terminal status and result body.
type GetResultResponse struct {
	Status goalstate.State `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// FeedbackMessage is published by the server while a goal executes.
type FeedbackMessage struct {
	GoalID   goal.ID         `json:"goal_id"`
	Feedback json.RawMessage `json:"feedback,omitempty"`
}

// GoalStatus pairs a goal's identity with its current lifecycle state.
type GoalStatus struct {
	Info   goal.Info       `json:"goal_info"`
	Status goalstate.State `json:"status"`
}

// GoalStatusArray is the status-topic payload: one entry per tracked goal,
// in acceptance order.
type GoalStatusArray struct {
	Statuses []GoalStatus `json:"status_list"`
}
