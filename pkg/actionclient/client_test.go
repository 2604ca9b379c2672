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

package actionclient_test

import (
	"time"

	json "github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rostra-robotics/rostra/action-core/pkg/actionclient"
	"github.com/rostra-robotics/rostra/action-core/pkg/actionmsgs"
	"github.com/rostra-robotics/rostra/action-core/pkg/actionserver"
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/goalstate"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport/inproc"
)

var _ = Describe("Client", func() {
	var (
		clock *inproc.ManualClock
		bus   *inproc.Transport
		srv   *actionserver.Server
		cl    *actionclient.Client
	)

	BeforeEach(func() {
		clock = inproc.NewManualClock(time.Unix(0, 0))
		bus = inproc.New(inproc.WithClock(clock))

		opts := actionserver.DefaultOptions("/fibonacci")
		opts.Clock = clock

		var err error
		srv, err = actionserver.NewServer(bus, opts)
		Expect(err).NotTo(HaveOccurred())

		cl, err = actionclient.NewClient(bus, actionclient.DefaultOptions("/fibonacci"))
		Expect(err).NotTo(HaveOccurred())
	})

	// serveGoal answers the pending goal request on the server side.
	serveGoal := func(accept bool) {
		header, req, err := srv.TakeGoalRequest()
		Expect(err).NotTo(HaveOccurred())

		resp := actionmsgs.SendGoalResponse{Accepted: accept}

		if accept {
			h, err := srv.AcceptNewGoal(req.GoalID)
			Expect(err).NotTo(HaveOccurred())

			info, err := h.Info()
			Expect(err).NotTo(HaveOccurred())
			resp.Stamp = info.AcceptedAt
		}

		Expect(srv.SendGoalResponse(header, resp)).To(Succeed())
	}

	Describe("construction", func() {
		It("rejects an empty action name", func() {
			_, err := actionclient.NewClient(bus, actionclient.Options{})
			Expect(err).To(HaveOccurred())
		})

		It("reports a nil client as invalid", func() {
			var c *actionclient.Client
			Expect(c.Validate()).To(MatchError(standarderrors.ErrClientInvalid))
			Expect(c.IsValid()).To(BeFalse())
		})

		It("allows several clients for one action", func() {
			c2, err := actionclient.NewClient(bus, actionclient.DefaultOptions("/fibonacci"))
			Expect(err).NotTo(HaveOccurred())
			Expect(c2.IsValid()).To(BeTrue())
		})
	})

	Describe("goal round trip", func() {
		It("correlates the response with the sent goal", func() {
			clock.Set(time.Unix(77, 0))

			id := goal.NewID()
			body, err := json.Marshal(map[string]int{"order": 5})
			Expect(err).NotTo(HaveOccurred())

			seq, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{GoalID: id, Goal: body})
			Expect(err).NotTo(HaveOccurred())

			serveGoal(true)

			header, resp, err := cl.TakeGoalResponse()
			Expect(err).NotTo(HaveOccurred())
			Expect(header.SequenceNumber).To(Equal(seq))
			Expect(resp.Accepted).To(BeTrue())
			Expect(resp.Stamp).To(Equal(goal.Stamp{Sec: 77}))

			got, ok := cl.GoalForSequence(seq)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(id))
		})

		It("rejects the zero goal ID", func() {
			_, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{})
			Expect(err).To(HaveOccurred())
		})

		It("would block with no pending response", func() {
			_, _, err := cl.TakeGoalResponse()
			Expect(err).To(MatchError(transport.ErrWouldBlock))
		})

		It("does not correlate an unknown sequence number", func() {
			_, ok := cl.GoalForSequence(9999)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("cancel round trip", func() {
		It("receives the canceling goals", func() {
			id := goal.NewID()
			_, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{GoalID: id})
			Expect(err).NotTo(HaveOccurred())
			serveGoal(true)

			_, err = cl.SendCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{GoalID: id},
			})
			Expect(err).NotTo(HaveOccurred())

			header, req, err := srv.TakeCancelRequest()
			Expect(err).NotTo(HaveOccurred())

			resp, err := srv.ProcessCancelRequest(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.SendCancelResponse(header, resp)).To(Succeed())

			_, got, err := cl.TakeCancelResponse()
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Code).To(Equal(actionmsgs.CancelCodeNone))
			Expect(got.GoalsCanceling).To(HaveLen(1))
			Expect(got.GoalsCanceling[0].GoalID).To(Equal(id))
		})
	})

	Describe("result round trip", func() {
		It("receives the terminal status and result body", func() {
			id := goal.NewID()
			_, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{GoalID: id})
			Expect(err).NotTo(HaveOccurred())
			serveGoal(true)

			seq, err := cl.SendResultRequest(actionmsgs.GetResultRequest{GoalID: id})
			Expect(err).NotTo(HaveOccurred())

			header, req, err := srv.TakeResultRequest()
			Expect(err).NotTo(HaveOccurred())
			Expect(req.GoalID).To(Equal(id))

			body, err := json.Marshal(map[string][]int{"sequence": {0, 1, 1, 2, 3}})
			Expect(err).NotTo(HaveOccurred())

			Expect(srv.SendResultResponse(header, actionmsgs.GetResultResponse{
				Status: goalstate.Succeeded,
				Result: body,
			})).To(Succeed())

			respHeader, resp, err := cl.TakeResultResponse()
			Expect(err).NotTo(HaveOccurred())
			Expect(respHeader.SequenceNumber).To(Equal(seq))
			Expect(resp.Status).To(Equal(goalstate.Succeeded))
			Expect(resp.Result).To(MatchJSON(body))

			got, ok := cl.GoalForSequence(seq)
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(id))
		})
	})

	Describe("streams", func() {
		var id goal.ID

		BeforeEach(func() {
			id = goal.NewID()
			_, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{GoalID: id})
			Expect(err).NotTo(HaveOccurred())
			serveGoal(true)
		})

		It("delivers feedback", func() {
			body, err := json.Marshal(map[string]int{"progress": 40})
			Expect(err).NotTo(HaveOccurred())

			Expect(srv.PublishFeedback(actionmsgs.FeedbackMessage{
				GoalID:   id,
				Feedback: body,
			})).To(Succeed())

			msg, err := cl.TakeFeedback()
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.GoalID).To(Equal(id))
			Expect(msg.Feedback).To(MatchJSON(body))
		})

		It("delivers status arrays", func() {
			Expect(srv.PublishStatus()).To(Succeed())

			arr, err := cl.TakeStatus()
			Expect(err).NotTo(HaveOccurred())
			Expect(arr.Statuses).To(HaveLen(1))
			Expect(arr.Statuses[0].Info.GoalID).To(Equal(id))
			Expect(arr.Statuses[0].Status).To(Equal(goalstate.Accepted))
		})

		It("would block with nothing published", func() {
			_, err := cl.TakeFeedback()
			Expect(err).To(MatchError(transport.ErrWouldBlock))

			_, err = cl.TakeStatus()
			Expect(err).To(MatchError(transport.ErrWouldBlock))
		})
	})

	Describe("readiness", func() {
		It("reports exactly the endpoints with pending data", func() {
			ws := inproc.NewWaitSet()
			Expect(cl.AddToWaitSet(ws)).To(Succeed())

			Expect(ws.Wait(0)).To(MatchError(transport.ErrWaitTimeout))

			id := goal.NewID()
			_, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{GoalID: id})
			Expect(err).NotTo(HaveOccurred())
			serveGoal(true)

			Expect(ws.Wait(time.Second)).To(Succeed())

			ready := cl.ReadyEntities(ws)
			Expect(ready.GoalResponse).To(BeTrue())
			Expect(ready.CancelResponse).To(BeFalse())
			Expect(ready.ResultResponse).To(BeFalse())
			Expect(ready.Feedback).To(BeFalse())
			Expect(ready.Status).To(BeFalse())
		})
	})

	Describe("finalization", func() {
		It("invalidates the client", func() {
			Expect(cl.Fini()).To(Succeed())
			Expect(cl.IsValid()).To(BeFalse())

			_, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{GoalID: goal.NewID()})
			Expect(err).To(MatchError(standarderrors.ErrClientInvalid))

			Expect(cl.Fini()).To(MatchError(standarderrors.ErrClientInvalid))
		})
	})
})
