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

// Package actionserver implements the server side of the action protocol:
// goal intake and acceptance, cancellation resolution, status/feedback
// publication and timer-driven expiry of terminal goals.
//
// A Server instance is not thread-safe. All operations are synchronous and
// expected to run on one control goroutine; callers that share a server
// across goroutines must serialize access themselves. Handles returned by
// GoalHandles are transient views: they are invalidated by the next
// mutating operation (AcceptNewGoal, ExpireGoals, Fini) and must not be
// retained across one.
package actionserver

import (
	"errors"
	"fmt"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/rostra-robotics/rostra/action-core/pkg/actionmsgs"
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/goalstate"
	"github.com/rostra-robotics/rostra/action-core/pkg/logger"
	"github.com/rostra-robotics/rostra/action-core/pkg/metrics"
	"github.com/rostra-robotics/rostra/action-core/pkg/names"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

// Server owns the three request/response services, the two publishers and
// the expiry timer of one action, plus the goal registry.
type Server struct {
	opts Options

	goalService   transport.Service
	cancelService transport.Service
	resultService transport.Service
	feedbackPub   transport.Publisher
	statusPub     transport.Publisher
	expiryTimer   transport.Timer

	reg registry

	// Wait-set bookkeeping: index of each endpoint within the shared
	// wait set, -1 until AddToWaitSet ran.
	goalIdx, cancelIdx, resultIdx, timerIdx int

	log   *zap.SugaredLogger
	valid bool
}

// ServerReady reports, per server endpoint, whether it became ready in the
// last wait.
type ServerReady struct {
	GoalRequest   bool
	CancelRequest bool
	ResultRequest bool
	ExpiryTimer   bool
}

// NewServer constructs the server shell, creating all endpoints through the
// factory. If any endpoint fails to construct, everything built so far is
// torn down best-effort and the original error is returned.
func NewServer(factory transport.EndpointFactory, opts Options) (*Server, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	endpointNames, err := names.Derive(opts.ActionName)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		log:       logger.For(logger.ComponentActionServer).With("action", opts.ActionName),
		goalIdx:   -1,
		cancelIdx: -1,
		resultIdx: -1,
		timerIdx:  -1,
	}

	fail := func(stage string, cause error) (*Server, error) {
		s.teardown()

		return nil, fmt.Errorf("creating %s: %w", stage, cause)
	}

	if s.goalService, err = factory.NewService(endpointNames.GoalService); err != nil {
		return fail("goal service", err)
	}

	if s.cancelService, err = factory.NewService(endpointNames.CancelService); err != nil {
		return fail("cancel service", err)
	}

	if s.resultService, err = factory.NewService(endpointNames.ResultService); err != nil {
		return fail("result service", err)
	}

	if s.feedbackPub, err = factory.NewPublisher(endpointNames.FeedbackTopic); err != nil {
		return fail("feedback publisher", err)
	}

	if s.statusPub, err = factory.NewPublisher(endpointNames.StatusTopic); err != nil {
		return fail("status publisher", err)
	}

	if s.expiryTimer, err = factory.NewTimer(); err != nil {
		return fail("expiry timer", err)
	}

	s.expiryTimer.Cancel()
	s.valid = true
	s.log.Infof("action server ready (result timeout %s)", opts.ResultTimeout)

	return s, nil
}

// teardown closes whatever endpoints exist. Errors are logged, never
// returned, so they cannot mask the construction error that triggered it.
func (s *Server) teardown() {
	closers := []interface{ Close() error }{
		s.goalService, s.cancelService, s.resultService,
		s.feedbackPub, s.statusPub,
	}

	for _, c := range closers {
		if c == nil {
			continue
		}

		if err := c.Close(); err != nil {
			s.log.Warnf("teardown: %v", err)
		}
	}

	if s.expiryTimer != nil {
		s.expiryTimer.Cancel()
	}
}

// Validate reports why the server cannot be used, or nil. Side-effect-free,
// so callers may probe before acting.
func (s *Server) Validate() error {
	if s == nil || !s.valid {
		return standarderrors.ErrServerInvalid
	}

	if s.goalService == nil || s.cancelService == nil || s.resultService == nil ||
		s.feedbackPub == nil || s.statusPub == nil || s.expiryTimer == nil {
		return fmt.Errorf("%w: endpoint missing", standarderrors.ErrServerInvalid)
	}

	return nil
}

// IsValid reports whether the server is usable.
func (s *Server) IsValid() bool {
	return s.Validate() == nil
}

// TakeGoalRequest returns the next pending goal request, or
// transport.ErrWouldBlock when none is pending.
func (s *Server) TakeGoalRequest() (transport.RequestHeader, actionmsgs.SendGoalRequest, error) {
	var (
		header transport.RequestHeader
		req    actionmsgs.SendGoalRequest
	)

	if err := s.Validate(); err != nil {
		return header, req, err
	}

	err := s.goalService.TakeRequest(&header, &req)

	return header, req, err
}

// SendGoalResponse answers a goal request. Rejections are counted; no
// handle exists for them.
func (s *Server) SendGoalResponse(header transport.RequestHeader, resp actionmsgs.SendGoalResponse) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if !resp.Accepted {
		metrics.IncGoalsRejected(metrics.ComponentActionServer, s.opts.ActionName)
	}

	return s.goalService.SendResponse(header, resp)
}

// AcceptNewGoal allocates and registers a handle for the goal, stamped with
// the server clock. Call it only after the application-level handler decided
// to accept; rejected requests must never reach this point. The returned
// handle stays owned by the registry.
func (s *Server) AcceptNewGoal(id goal.ID) (*goal.Handle, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if id.IsZero() {
		return nil, errors.New("goal ID must not be zero")
	}

	if s.reg.contains(id) {
		return nil, standarderrors.ErrGoalExists
	}

	info := goal.Info{
		GoalID:     id,
		AcceptedAt: goal.StampFromTime(s.opts.Clock.Now()),
	}

	h, err := goal.NewHandle(info)
	if err != nil {
		return nil, err
	}

	if err := s.reg.insert(h); err != nil {
		h.Fini()

		return nil, err
	}

	s.log.Infof("accepted goal %s", id)
	metrics.IncGoalsAccepted(metrics.ComponentActionServer, s.opts.ActionName)
	metrics.SetTrackedGoals(metrics.ComponentActionServer, s.opts.ActionName, s.reg.len())

	return h, nil
}

// TakeCancelRequest returns the next pending cancel request, or
// transport.ErrWouldBlock when none is pending.
func (s *Server) TakeCancelRequest() (transport.RequestHeader, actionmsgs.CancelGoalRequest, error) {
	var (
		header transport.RequestHeader
		req    actionmsgs.CancelGoalRequest
	)

	if err := s.Validate(); err != nil {
		return header, req, err
	}

	err := s.cancelService.TakeRequest(&header, &req)

	return header, req, err
}

// ProcessCancelRequest resolves the request against the registry and moves
// every selected goal to Canceling. The response lists the transitioned
// goals in acceptance order.
func (s *Server) ProcessCancelRequest(req actionmsgs.CancelGoalRequest) (actionmsgs.CancelGoalResponse, error) {
	var resp actionmsgs.CancelGoalResponse

	if err := s.Validate(); err != nil {
		return resp, err
	}

	if s.opts.RejectCancelRequests {
		resp.Code = actionmsgs.CancelCodeRejected
		metrics.IncCancelRequests(metrics.ComponentActionServer, s.opts.ActionName, resp.Code.String())

		return resp, nil
	}

	selected, code := resolveCancel(&s.reg, req.GoalInfo)
	resp.Code = code

	for _, h := range selected {
		if err := h.UpdateState(goalstate.EventCancelGoal); err != nil {
			// The resolver only selects cancelable goals; a failure here
			// means the registry changed underneath us.
			metrics.IncTransitionErrors(metrics.ComponentActionServer, s.opts.ActionName)

			return actionmsgs.CancelGoalResponse{}, err
		}

		info, err := h.Info()
		if err != nil {
			return actionmsgs.CancelGoalResponse{}, err
		}

		resp.GoalsCanceling = append(resp.GoalsCanceling, info)
	}

	s.log.Debugf("cancel request resolved: code=%s selected=%d", code, len(resp.GoalsCanceling))
	metrics.IncCancelRequests(metrics.ComponentActionServer, s.opts.ActionName, code.String())

	return resp, nil
}

// SendCancelResponse answers a cancel request.
func (s *Server) SendCancelResponse(header transport.RequestHeader, resp actionmsgs.CancelGoalResponse) error {
	if err := s.Validate(); err != nil {
		return err
	}

	return s.cancelService.SendResponse(header, resp)
}

// TakeResultRequest returns the next pending result request, or
// transport.ErrWouldBlock when none is pending.
func (s *Server) TakeResultRequest() (transport.RequestHeader, actionmsgs.GetResultRequest, error) {
	var (
		header transport.RequestHeader
		req    actionmsgs.GetResultRequest
	)

	if err := s.Validate(); err != nil {
		return header, req, err
	}

	err := s.resultService.TakeRequest(&header, &req)

	return header, req, err
}

// SendResultResponse answers a result request. The result body comes from
// the application; the engine does not store results.
func (s *Server) SendResultResponse(header transport.RequestHeader, resp actionmsgs.GetResultResponse) error {
	if err := s.Validate(); err != nil {
		return err
	}

	return s.resultService.SendResponse(header, resp)
}

// PublishFeedback publishes execution feedback for a tracked goal.
func (s *Server) PublishFeedback(msg actionmsgs.FeedbackMessage) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if !s.reg.contains(msg.GoalID) {
		return standarderrors.ErrUnknownGoal
	}

	return s.feedbackPub.Publish(msg)
}

// StatusSnapshot returns the status of every tracked goal in acceptance
// order. The result is deep-copied so callers cannot alias registry state.
func (s *Server) StatusSnapshot() (actionmsgs.GoalStatusArray, error) {
	var arr actionmsgs.GoalStatusArray

	if err := s.Validate(); err != nil {
		return arr, err
	}

	statuses := make([]actionmsgs.GoalStatus, 0, s.reg.len())

	for _, h := range s.reg.handles {
		info, err := h.Info()
		if err != nil {
			continue
		}

		state, err := h.Status()
		if err != nil {
			continue
		}

		statuses = append(statuses, actionmsgs.GoalStatus{Info: info, Status: state})
	}

	if err := deepcopy.Copy(&arr.Statuses, statuses); err != nil {
		return actionmsgs.GoalStatusArray{}, err
	}

	return arr, nil
}

// PublishStatus publishes the current status snapshot on the status topic.
func (s *Server) PublishStatus() error {
	arr, err := s.StatusSnapshot()
	if err != nil {
		return err
	}

	return s.statusPub.Publish(arr)
}

// GoalExists reports whether a goal with the given ID is tracked.
func (s *Server) GoalExists(id goal.ID) bool {
	if s.Validate() != nil {
		return false
	}

	return s.reg.contains(id)
}

// GoalHandles returns the tracked handles in acceptance order. The slice and
// the handles it points to are only valid until the next mutating operation.
func (s *Server) GoalHandles() ([]*goal.Handle, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([]*goal.Handle, len(s.reg.handles))
	copy(out, s.reg.handles)

	return out, nil
}

// NumGoals returns the number of tracked goals.
func (s *Server) NumGoals() int {
	if s.Validate() != nil {
		return 0
	}

	return s.reg.len()
}

// AddToWaitSet registers the server's readiness-relevant endpoints with the
// wait set and remembers their indices for ReadyEntities.
func (s *Server) AddToWaitSet(ws transport.WaitSet) error {
	if err := s.Validate(); err != nil {
		return err
	}

	var err error

	if s.goalIdx, err = ws.Add(s.goalService); err != nil {
		return err
	}

	if s.cancelIdx, err = ws.Add(s.cancelService); err != nil {
		return err
	}

	if s.resultIdx, err = ws.Add(s.resultService); err != nil {
		return err
	}

	if s.timerIdx, err = ws.Add(s.expiryTimer); err != nil {
		return err
	}

	return nil
}

// ReadyEntities inspects the wait set's materialized ready list and reports
// which of this server's endpoints became ready, by pointer identity. This
// lets the caller dispatch to the matching take call without re-deriving
// indices.
func (s *Server) ReadyEntities(ws transport.WaitSet) ServerReady {
	var ready ServerReady

	if s.Validate() != nil {
		return ready
	}

	entities := ws.Ready()

	at := func(idx int) transport.Waitable {
		if idx < 0 || idx >= len(entities) {
			return nil
		}

		return entities[idx]
	}

	ready.GoalRequest = at(s.goalIdx) == transport.Waitable(s.goalService)
	ready.CancelRequest = at(s.cancelIdx) == transport.Waitable(s.cancelService)
	ready.ResultRequest = at(s.resultIdx) == transport.Waitable(s.resultService)
	ready.ExpiryTimer = at(s.timerIdx) == transport.Waitable(s.expiryTimer)

	return ready
}

// Fini tears the server down: every tracked handle is finalized and every
// endpoint closed. Partial failures are accumulated into one error so that
// reclamation never stops at the first problem. The server is invalid
// afterwards.
func (s *Server) Fini() error {
	if err := s.Validate(); err != nil {
		return err
	}

	s.valid = false
	s.reg.finiAll()
	s.expiryTimer.Cancel()

	errs := []error{
		s.goalService.Close(),
		s.cancelService.Close(),
		s.resultService.Close(),
		s.feedbackPub.Close(),
		s.statusPub.Close(),
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("error(s) occurred during action server cleanup: %w", err)
	}

	s.log.Info("action server finalized")

	return nil
}
