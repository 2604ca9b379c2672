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
	"errors"
	"time"

	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

// DefaultResultTimeout is how long terminal goals are retained before an
// expiry sweep may reclaim them.
const DefaultResultTimeout = 15 * time.Minute

// Options configure one action server instance.
type Options struct {
	// ActionName is the base action name; the five endpoint names are
	// derived from it.
	ActionName string

	// ResultTimeout bounds result retention for terminal goals.
	// Negative: never expire. Zero: expire on the next sweep. Positive:
	// expire once a terminal goal's age exceeds the timeout.
	ResultTimeout time.Duration

	// RejectCancelRequests makes ProcessCancelRequest refuse every request
	// with CancelCodeRejected instead of resolving it.
	RejectCancelRequests bool

	// Clock stamps goal acceptance and drives expiry. Defaults to the
	// system wall clock.
	Clock transport.Clock
}

// DefaultOptions returns the standard server options for an action.
func DefaultOptions(actionName string) Options {
	return Options{
		ActionName:    actionName,
		ResultTimeout: DefaultResultTimeout,
		Clock:         transport.SystemClock{},
	}
}

func (o *Options) validate() error {
	if o.ActionName == "" {
		return errors.New("action name must not be empty")
	}

	if o.Clock == nil {
		o.Clock = transport.SystemClock{}
	}

	return nil
}
