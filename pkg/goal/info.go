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

// Info identifies one goal together with the time the server accepted it.
// AcceptedAt is stamped by the server clock at acceptance; a client-supplied
// stamp is advisory only and superseded. Immutable after creation.
type Info struct {
	GoalID     ID    `json:"goal_id"     yaml:"goalId"`
	AcceptedAt Stamp `json:"accepted_at" yaml:"acceptedAt"`
}
