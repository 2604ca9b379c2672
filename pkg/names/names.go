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

// Package names derives the five canonical sub-endpoint names of an action
// from its base name. Pure string formatting; shells consume these when
// constructing their transport endpoints.
package names

import (
	"errors"
	"strings"
)

// ErrEmptyActionName is returned when the base action name is empty.
var ErrEmptyActionName = errors.New("action name must not be empty")

const (
	goalServiceSuffix   = "/_action/send_goal"
	cancelServiceSuffix = "/_action/cancel_goal"
	resultServiceSuffix = "/_action/get_result"
	feedbackTopicSuffix = "/_action/feedback"
	statusTopicSuffix   = "/_action/status"
)

// ActionNames bundles the derived endpoint names of one action.
type ActionNames struct {
	GoalService   string
	CancelService string
	ResultService string
	FeedbackTopic string
	StatusTopic   string
}

// Derive computes all five endpoint names from the base action name.
// Trailing slashes on the base name are rejected so that derived names
// never contain empty path segments.
func Derive(action string) (ActionNames, error) {
	if action == "" {
		return ActionNames{}, ErrEmptyActionName
	}

	if strings.HasSuffix(action, "/") {
		return ActionNames{}, errors.New("action name must not end with a slash: " + action)
	}

	return ActionNames{
		GoalService:   action + goalServiceSuffix,
		CancelService: action + cancelServiceSuffix,
		ResultService: action + resultServiceSuffix,
		FeedbackTopic: action + feedbackTopicSuffix,
		StatusTopic:   action + statusTopicSuffix,
	}, nil
}

// GoalService returns the goal service name for the action.
func GoalService(action string) (string, error) {
	n, err := Derive(action)

	return n.GoalService, err
}

// CancelService returns the cancel service name for the action.
func CancelService(action string) (string, error) {
	n, err := Derive(action)

	return n.CancelService, err
}

// ResultService returns the result service name for the action.
func ResultService(action string) (string, error) {
	n, err := Derive(action)

	return n.ResultService, err
}

// FeedbackTopic returns the feedback topic name for the action.
func FeedbackTopic(action string) (string, error) {
	n, err := Derive(action)

	return n.FeedbackTopic, err
}

// StatusTopic returns the status topic name for the action.
func StatusTopic(action string) (string, error) {
	n, err := Derive(action)

	return n.StatusTopic, err
}
