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
	"time"

	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/metrics"
)

// recomputeExpiryTimer re-arms the expiry timer to fire when the next
// terminal goal crosses the retention threshold. With nothing pending expiry
// (no handles, no terminal handles, or infinite retention) the timer is
// canceled instead.
func (s *Server) recomputeExpiryTimer() {
	timeout := s.opts.ResultTimeout
	if timeout < 0 {
		s.expiryTimer.Cancel()

		return
	}

	now := goal.StampFromTime(s.opts.Clock.Now()).Nanoseconds()

	var (
		terminal     int
		minRemaining time.Duration
	)

	for _, h := range s.reg.handles {
		active, err := h.IsActive()
		if err != nil || active {
			continue
		}

		info, err := h.Info()
		if err != nil {
			continue
		}

		age := time.Duration(now - info.AcceptedAt.Nanoseconds())

		remaining := timeout - age
		if terminal == 0 || remaining < minRemaining {
			minRemaining = remaining
		}

		terminal++
	}

	if terminal == 0 {
		s.expiryTimer.Cancel()

		return
	}

	period := minRemaining
	if period > timeout {
		// Clock regression made an age negative; fall back to the full
		// retention window.
		period = timeout
	}

	if period < 0 {
		period = 0
	}

	s.expiryTimer.SetPeriod(period)
}

// ExpireGoals sweeps the registry and reclaims terminal goals whose age
// strictly exceeds the result timeout. At most capacity goals are reclaimed
// per sweep when capacity is positive; leftovers stay tracked for the next
// sweep. Active goals are never touched, and a negative timeout makes the
// sweep a no-op. The removed goals' infos are returned in acceptance order.
func (s *Server) ExpireGoals(capacity int) ([]goal.Info, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	timeout := s.opts.ResultTimeout
	if timeout < 0 {
		s.expiryTimer.Cancel()

		return nil, nil
	}

	now := goal.StampFromTime(s.opts.Clock.Now()).Nanoseconds()

	var expired []goal.Info

	i := 0
	for i < s.reg.len() {
		h := s.reg.handles[i]

		active, err := h.IsActive()
		if err != nil || active {
			i++

			continue
		}

		info, err := h.Info()
		if err != nil {
			i++

			continue
		}

		age := time.Duration(now - info.AcceptedAt.Nanoseconds())
		if age <= timeout {
			i++

			continue
		}

		if capacity > 0 && len(expired) >= capacity {
			// Output buffer full; the rest expires on a later sweep.
			break
		}

		expired = append(expired, info)
		h.Fini()
		s.reg.removeAt(i)
	}

	if len(expired) > 0 {
		s.log.Infof("expired %d goal(s)", len(expired))
		metrics.AddGoalsExpired(metrics.ComponentActionServer, s.opts.ActionName, len(expired))
		metrics.SetTrackedGoals(metrics.ComponentActionServer, s.opts.ActionName, s.reg.len())
	}

	s.recomputeExpiryTimer()
	metrics.ObserveSweepTime(metrics.ComponentActionServer, s.opts.ActionName, time.Since(start))

	return expired, nil
}

// NotifyGoalDone performs the bookkeeping owed after a goal reaches a
// terminal state: the expiry timer is recomputed so the new terminal goal
// is scheduled for reclamation, and the status topic reflects the change.
func (s *Server) NotifyGoalDone() error {
	if err := s.Validate(); err != nil {
		return err
	}

	s.recomputeExpiryTimer()

	return s.PublishStatus()
}
