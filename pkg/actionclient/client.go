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

// Package actionclient implements the client side of the action protocol:
// sending goal, cancel and result requests and taking their responses plus
// the feedback and status streams.
//
// A Client instance is not thread-safe; like the server it expects one
// control goroutine. The narrow exception is that concurrent Send* calls
// are tolerated when the transport serializes its shared request queue,
// which the inproc transport does.
package actionclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"go.uber.org/zap"

	"github.com/rostra-robotics/rostra/action-core/pkg/actionmsgs"
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/logger"
	"github.com/rostra-robotics/rostra/action-core/pkg/names"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

const (
	// DefaultPendingTTL bounds how long an in-flight request stays
	// correlatable before its tracking entry is culled.
	DefaultPendingTTL = 30 * time.Second

	pendingCullInterval = 10 * time.Second

	// DefaultSendRetries bounds retries of transient send failures.
	DefaultSendRetries = 3
)

// Options configure one action client instance.
type Options struct {
	// ActionName is the base action name; endpoint names derive from it.
	ActionName string

	// PendingTTL is how long sequence-number tracking entries live.
	PendingTTL time.Duration

	// SendRetries bounds retries when the transport transiently refuses a
	// send (e.g. a full queue). Zero disables retrying.
	SendRetries uint64
}

// DefaultOptions returns the standard client options for an action.
func DefaultOptions(actionName string) Options {
	return Options{
		ActionName:  actionName,
		PendingTTL:  DefaultPendingTTL,
		SendRetries: DefaultSendRetries,
	}
}

// Client owns the three request/response clients and the two subscriptions
// of one action.
type Client struct {
	opts Options

	goalClient   transport.Client
	cancelClient transport.Client
	resultClient transport.Client
	feedbackSub  transport.Subscription
	statusSub    transport.Subscription

	// In-flight goal and result requests by sequence number, TTL-culled so
	// abandoned requests do not leak tracking entries.
	pendingGoals   *expiremap.ExpireMap[int64, goal.ID]
	pendingResults *expiremap.ExpireMap[int64, goal.ID]

	goalIdx, cancelIdx, resultIdx, feedbackIdx, statusIdx int

	log   *zap.SugaredLogger
	valid bool
}

// ClientReady reports, per client endpoint, whether it became ready in the
// last wait.
type ClientReady struct {
	GoalResponse   bool
	CancelResponse bool
	ResultResponse bool
	Feedback       bool
	Status         bool
}

// NewClient constructs the client shell, creating all endpoints through the
// factory. A failure mid-construction tears down what exists and returns
// the original error.
func NewClient(factory transport.EndpointFactory, opts Options) (*Client, error) {
	if opts.ActionName == "" {
		return nil, errors.New("action name must not be empty")
	}

	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}

	endpointNames, err := names.Derive(opts.ActionName)
	if err != nil {
		return nil, err
	}

	c := &Client{
		opts:           opts,
		pendingGoals:   expiremap.NewEx[int64, goal.ID](pendingCullInterval, opts.PendingTTL),
		pendingResults: expiremap.NewEx[int64, goal.ID](pendingCullInterval, opts.PendingTTL),
		log:            logger.For(logger.ComponentActionClient).With("action", opts.ActionName),
		goalIdx:        -1,
		cancelIdx:      -1,
		resultIdx:      -1,
		feedbackIdx:    -1,
		statusIdx:      -1,
	}

	fail := func(stage string, cause error) (*Client, error) {
		c.teardown()

		return nil, fmt.Errorf("creating %s: %w", stage, cause)
	}

	if c.goalClient, err = factory.NewClient(endpointNames.GoalService); err != nil {
		return fail("goal client", err)
	}

	if c.cancelClient, err = factory.NewClient(endpointNames.CancelService); err != nil {
		return fail("cancel client", err)
	}

	if c.resultClient, err = factory.NewClient(endpointNames.ResultService); err != nil {
		return fail("result client", err)
	}

	if c.feedbackSub, err = factory.NewSubscription(endpointNames.FeedbackTopic); err != nil {
		return fail("feedback subscription", err)
	}

	if c.statusSub, err = factory.NewSubscription(endpointNames.StatusTopic); err != nil {
		return fail("status subscription", err)
	}

	c.valid = true
	c.log.Info("action client ready")

	return c, nil
}

func (c *Client) teardown() {
	closers := []interface{ Close() error }{
		c.goalClient, c.cancelClient, c.resultClient,
		c.feedbackSub, c.statusSub,
	}

	for _, cl := range closers {
		if cl == nil {
			continue
		}

		if err := cl.Close(); err != nil {
			c.log.Warnf("teardown: %v", err)
		}
	}
}

// Validate reports why the client cannot be used, or nil.
func (c *Client) Validate() error {
	if c == nil || !c.valid {
		return standarderrors.ErrClientInvalid
	}

	if c.goalClient == nil || c.cancelClient == nil || c.resultClient == nil ||
		c.feedbackSub == nil || c.statusSub == nil {
		return fmt.Errorf("%w: endpoint missing", standarderrors.ErrClientInvalid)
	}

	return nil
}

// IsValid reports whether the client is usable.
func (c *Client) IsValid() bool {
	return c.Validate() == nil
}

// sendWithRetry retries transient send failures with exponential backoff.
// A closed endpoint is permanent and fails immediately.
func (c *Client) sendWithRetry(endpoint transport.Client, payload any) (int64, error) {
	var seq int64

	op := func() error {
		var err error

		seq, err = endpoint.SendRequest(payload)
		if errors.Is(err, transport.ErrEndpointClosed) {
			return backoff.Permanent(err)
		}

		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.opts.SendRetries)

	if err := backoff.Retry(op, policy); err != nil {
		return 0, err
	}

	return seq, nil
}

// SendGoalRequest submits a goal request and returns its sequence number.
// The request must carry a non-zero goal ID; the in-flight request is
// tracked so the response can be correlated.
func (c *Client) SendGoalRequest(req actionmsgs.SendGoalRequest) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	if req.GoalID.IsZero() {
		return 0, errors.New("goal ID must not be zero")
	}

	seq, err := c.sendWithRetry(c.goalClient, req)
	if err != nil {
		return 0, err
	}

	c.pendingGoals.Set(seq, req.GoalID)
	c.log.Debugf("goal request sent: goal=%s seq=%d", req.GoalID, seq)

	return seq, nil
}

// TakeGoalResponse returns the next pending goal response, or
// transport.ErrWouldBlock when none is pending.
func (c *Client) TakeGoalResponse() (transport.RequestHeader, actionmsgs.SendGoalResponse, error) {
	var (
		header transport.RequestHeader
		resp   actionmsgs.SendGoalResponse
	)

	if err := c.Validate(); err != nil {
		return header, resp, err
	}

	err := c.goalClient.TakeResponse(&header, &resp)

	return header, resp, err
}

// GoalForSequence correlates a response sequence number with the goal ID of
// the request that produced it. The entry may have been culled by TTL.
func (c *Client) GoalForSequence(seq int64) (goal.ID, bool) {
	if c.Validate() != nil {
		return goal.ZeroID, false
	}

	if id, ok := c.pendingGoals.Load(seq); ok {
		return *id, true
	}

	if id, ok := c.pendingResults.Load(seq); ok {
		return *id, true
	}

	return goal.ZeroID, false
}

// SendCancelRequest submits a cancel request and returns its sequence
// number. Zero ID and/or stamp widen the request per the server's
// resolution policy.
func (c *Client) SendCancelRequest(req actionmsgs.CancelGoalRequest) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	return c.sendWithRetry(c.cancelClient, req)
}

// TakeCancelResponse returns the next pending cancel response, or
// transport.ErrWouldBlock when none is pending.
func (c *Client) TakeCancelResponse() (transport.RequestHeader, actionmsgs.CancelGoalResponse, error) {
	var (
		header transport.RequestHeader
		resp   actionmsgs.CancelGoalResponse
	)

	if err := c.Validate(); err != nil {
		return header, resp, err
	}

	err := c.cancelClient.TakeResponse(&header, &resp)

	return header, resp, err
}

// SendResultRequest asks for a goal's result and returns the sequence
// number; the in-flight request is tracked for correlation.
func (c *Client) SendResultRequest(req actionmsgs.GetResultRequest) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	if req.GoalID.IsZero() {
		return 0, errors.New("goal ID must not be zero")
	}

	seq, err := c.sendWithRetry(c.resultClient, req)
	if err != nil {
		return 0, err
	}

	c.pendingResults.Set(seq, req.GoalID)

	return seq, nil
}

// TakeResultResponse returns the next pending result response, or
// transport.ErrWouldBlock when none is pending.
func (c *Client) TakeResultResponse() (transport.RequestHeader, actionmsgs.GetResultResponse, error) {
	var (
		header transport.RequestHeader
		resp   actionmsgs.GetResultResponse
	)

	if err := c.Validate(); err != nil {
		return header, resp, err
	}

	err := c.resultClient.TakeResponse(&header, &resp)

	return header, resp, err
}

// TakeFeedback returns the next pending feedback message, or
// transport.ErrWouldBlock when none is pending.
func (c *Client) TakeFeedback() (actionmsgs.FeedbackMessage, error) {
	var msg actionmsgs.FeedbackMessage

	if err := c.Validate(); err != nil {
		return msg, err
	}

	err := c.feedbackSub.Take(&msg)

	return msg, err
}

// TakeStatus returns the next pending status array, or
// transport.ErrWouldBlock when none is pending.
func (c *Client) TakeStatus() (actionmsgs.GoalStatusArray, error) {
	var arr actionmsgs.GoalStatusArray

	if err := c.Validate(); err != nil {
		return arr, err
	}

	err := c.statusSub.Take(&arr)

	return arr, err
}

// AddToWaitSet registers the client's endpoints with the wait set and
// remembers their indices for ReadyEntities.
func (c *Client) AddToWaitSet(ws transport.WaitSet) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var err error

	if c.goalIdx, err = ws.Add(c.goalClient); err != nil {
		return err
	}

	if c.cancelIdx, err = ws.Add(c.cancelClient); err != nil {
		return err
	}

	if c.resultIdx, err = ws.Add(c.resultClient); err != nil {
		return err
	}

	if c.feedbackIdx, err = ws.Add(c.feedbackSub); err != nil {
		return err
	}

	if c.statusIdx, err = ws.Add(c.statusSub); err != nil {
		return err
	}

	return nil
}

// ReadyEntities inspects the wait set's ready list and reports which of
// this client's endpoints became ready, by pointer identity.
func (c *Client) ReadyEntities(ws transport.WaitSet) ClientReady {
	var ready ClientReady

	if c.Validate() != nil {
		return ready
	}

	entities := ws.Ready()

	at := func(idx int) transport.Waitable {
		if idx < 0 || idx >= len(entities) {
			return nil
		}

		return entities[idx]
	}

	ready.GoalResponse = at(c.goalIdx) == transport.Waitable(c.goalClient)
	ready.CancelResponse = at(c.cancelIdx) == transport.Waitable(c.cancelClient)
	ready.ResultResponse = at(c.resultIdx) == transport.Waitable(c.resultClient)
	ready.Feedback = at(c.feedbackIdx) == transport.Waitable(c.feedbackSub)
	ready.Status = at(c.statusIdx) == transport.Waitable(c.statusSub)

	return ready
}

// Fini closes all endpoints, accumulating partial failures into one error.
// The client is invalid afterwards.
func (c *Client) Fini() error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.valid = false

	errs := []error{
		c.goalClient.Close(),
		c.cancelClient.Close(),
		c.resultClient.Close(),
		c.feedbackSub.Close(),
		c.statusSub.Close(),
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("error(s) occurred during action client cleanup: %w", err)
	}

	c.log.Info("action client finalized")

	return nil
}
