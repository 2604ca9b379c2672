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

package actionserver_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rostra-robotics/rostra/action-core/pkg/actionmsgs"
	"github.com/rostra-robotics/rostra/action-core/pkg/actionserver"
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/goalstate"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport/inproc"
)

var _ = Describe("Server", func() {
	var (
		clock *inproc.ManualClock
		bus   *inproc.Transport
		srv   *actionserver.Server
	)

	newServer := func(opts actionserver.Options) *actionserver.Server {
		opts.Clock = clock

		s, err := actionserver.NewServer(bus, opts)
		Expect(err).NotTo(HaveOccurred())

		return s
	}

	// acceptAt registers a goal stamped at the given wall time.
	acceptAt := func(t time.Time) (goal.ID, *goal.Handle) {
		clock.Set(t)

		id := goal.NewID()
		h, err := srv.AcceptNewGoal(id)
		Expect(err).NotTo(HaveOccurred())

		return id, h
	}

	// terminate drives a handle from Accepted to Succeeded.
	terminate := func(h *goal.Handle) {
		Expect(h.UpdateState(goalstate.EventExecute)).To(Succeed())
		Expect(h.UpdateState(goalstate.EventSucceed)).To(Succeed())
	}

	BeforeEach(func() {
		clock = inproc.NewManualClock(time.Unix(0, 0))
		bus = inproc.New(inproc.WithClock(clock))
	})

	Describe("construction", func() {
		It("rejects an empty action name", func() {
			_, err := actionserver.NewServer(bus, actionserver.Options{})
			Expect(err).To(HaveOccurred())
		})

		It("rejects a malformed action name", func() {
			_, err := actionserver.NewServer(bus, actionserver.Options{ActionName: "/fib/"})
			Expect(err).To(HaveOccurred())
		})

		It("fails when the action's services are already claimed", func() {
			srv = newServer(actionserver.DefaultOptions("/fibonacci"))

			_, err := actionserver.NewServer(bus, actionserver.DefaultOptions("/fibonacci"))
			Expect(err).To(HaveOccurred())
		})

		It("reports a nil server as invalid", func() {
			var s *actionserver.Server
			Expect(s.Validate()).To(MatchError(standarderrors.ErrServerInvalid))
			Expect(s.IsValid()).To(BeFalse())
		})
	})

	Describe("goal acceptance", func() {
		BeforeEach(func() {
			srv = newServer(actionserver.DefaultOptions("/fibonacci"))
		})

		It("registers the goal stamped with the server clock", func() {
			id, h := acceptAt(time.Unix(42, 7))

			info, err := h.Info()
			Expect(err).NotTo(HaveOccurred())
			Expect(info.GoalID).To(Equal(id))
			Expect(info.AcceptedAt).To(Equal(goal.Stamp{Sec: 42, NSec: 7}))

			state, err := h.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(goalstate.Accepted))

			Expect(srv.GoalExists(id)).To(BeTrue())
			Expect(srv.NumGoals()).To(Equal(1))
		})

		It("rejects the zero goal ID", func() {
			_, err := srv.AcceptNewGoal(goal.ZeroID)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a duplicate goal ID", func() {
			id, _ := acceptAt(time.Unix(1, 0))

			_, err := srv.AcceptNewGoal(id)
			Expect(err).To(MatchError(standarderrors.ErrGoalExists))
			Expect(srv.NumGoals()).To(Equal(1))
		})

		It("returns handles in acceptance order", func() {
			idA, _ := acceptAt(time.Unix(10, 0))
			idB, _ := acceptAt(time.Unix(20, 0))
			idC, _ := acceptAt(time.Unix(30, 0))

			handles, err := srv.GoalHandles()
			Expect(err).NotTo(HaveOccurred())
			Expect(handles).To(HaveLen(3))

			var ids []goal.ID
			for _, h := range handles {
				info, err := h.Info()
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, info.GoalID)
			}

			Expect(ids).To(Equal([]goal.ID{idA, idB, idC}))
		})
	})

	Describe("cancel resolution", func() {
		var (
			idA, idB, idC goal.ID
			hA, hB, hC    *goal.Handle
		)

		canceledIDs := func(resp actionmsgs.CancelGoalResponse) []goal.ID {
			var ids []goal.ID
			for _, info := range resp.GoalsCanceling {
				ids = append(ids, info.GoalID)
			}

			return ids
		}

		BeforeEach(func() {
			srv = newServer(actionserver.DefaultOptions("/fibonacci"))

			idA, hA = acceptAt(time.Unix(10, 0))
			idB, hB = acceptAt(time.Unix(20, 0))
			idC, hC = acceptAt(time.Unix(30, 0))
		})

		It("cancels exactly the named goal", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{GoalID: idB},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeNone))
			Expect(canceledIDs(resp)).To(Equal([]goal.ID{idB}))

			state, err := hB.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(goalstate.Canceling))

			state, err = hA.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(goalstate.Accepted))
		})

		It("reports an untracked named goal", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{GoalID: goal.NewID()},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeUnknownGoalID))
			Expect(resp.GoalsCanceling).To(BeEmpty())
		})

		It("reports a terminal named goal", func() {
			terminate(hA)

			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{GoalID: idA},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeGoalTerminated))
			Expect(resp.GoalsCanceling).To(BeEmpty())
		})

		It("cancels every cancelable goal on the all-zero request", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeNone))
			Expect(canceledIDs(resp)).To(Equal([]goal.ID{idA, idB, idC}))
		})

		It("treats the time bound as inclusive", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{AcceptedAt: goal.Stamp{Sec: 20}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(canceledIDs(resp)).To(Equal([]goal.ID{idA, idB}))
		})

		It("unions the time bound with the named goal", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{GoalID: idC, AcceptedAt: goal.Stamp{Sec: 10}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(canceledIDs(resp)).To(Equal([]goal.ID{idA, idC}))
		})

		It("selects a goal once when it matches both the bound and the ID", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{GoalID: idA, AcceptedAt: goal.Stamp{Sec: 20}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(canceledIDs(resp)).To(Equal([]goal.ID{idA, idB}))
		})

		It("skips terminal goals in batch selection", func() {
			terminate(hB)

			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeNone))
			Expect(canceledIDs(resp)).To(Equal([]goal.ID{idA, idC}))
		})

		It("matches nothing below every acceptance stamp", func() {
			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{
				GoalInfo: goal.Info{AcceptedAt: goal.Stamp{Sec: 5}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeNone))
			Expect(resp.GoalsCanceling).To(BeEmpty())

			state, err := hC.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(goalstate.Accepted))
		})
	})

	Describe("cancel rejection mode", func() {
		It("refuses every request without touching goals", func() {
			opts := actionserver.DefaultOptions("/fibonacci")
			opts.RejectCancelRequests = true
			srv = newServer(opts)

			_, hA := acceptAt(time.Unix(10, 0))

			resp, err := srv.ProcessCancelRequest(actionmsgs.CancelGoalRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Code).To(Equal(actionmsgs.CancelCodeRejected))
			Expect(resp.GoalsCanceling).To(BeEmpty())

			state, err := hA.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(goalstate.Accepted))
		})
	})

	Describe("expiry", func() {
		const timeout = 10 * time.Second

		BeforeEach(func() {
			opts := actionserver.DefaultOptions("/fibonacci")
			opts.ResultTimeout = timeout
			srv = newServer(opts)
		})

		It("retains a terminal goal whose age equals the timeout", func() {
			id, h := acceptAt(time.Unix(100, 0))
			terminate(h)

			clock.Set(time.Unix(110, 0))

			expired, err := srv.ExpireGoals(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(BeEmpty())
			Expect(srv.GoalExists(id)).To(BeTrue())
		})

		It("reclaims a terminal goal one tick past the timeout", func() {
			id, h := acceptAt(time.Unix(100, 0))
			terminate(h)

			clock.Set(time.Unix(110, 1))

			expired, err := srv.ExpireGoals(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(HaveLen(1))
			Expect(expired[0].GoalID).To(Equal(id))
			Expect(srv.GoalExists(id)).To(BeFalse())
			Expect(srv.NumGoals()).To(Equal(0))
		})

		It("never reclaims active goals", func() {
			id, h := acceptAt(time.Unix(100, 0))
			Expect(h.UpdateState(goalstate.EventExecute)).To(Succeed())

			clock.Set(time.Unix(500, 0))

			expired, err := srv.ExpireGoals(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(BeEmpty())
			Expect(srv.GoalExists(id)).To(BeTrue())
		})

		It("never reclaims with a negative timeout", func() {
			opts := actionserver.DefaultOptions("/fib2")
			opts.ResultTimeout = -1
			s2 := newServer(opts)

			clock.Set(time.Unix(100, 0))
			id := goal.NewID()
			h, err := s2.AcceptNewGoal(id)
			Expect(err).NotTo(HaveOccurred())
			terminate(h)

			clock.Set(time.Unix(1e6, 0))

			expired, err := s2.ExpireGoals(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(BeEmpty())
			Expect(s2.GoalExists(id)).To(BeTrue())
		})

		It("reclaims immediately with a zero timeout", func() {
			opts := actionserver.DefaultOptions("/fib3")
			opts.ResultTimeout = 0
			s3 := newServer(opts)

			clock.Set(time.Unix(100, 0))
			id := goal.NewID()
			h, err := s3.AcceptNewGoal(id)
			Expect(err).NotTo(HaveOccurred())
			terminate(h)

			clock.Advance(time.Nanosecond)

			expired, err := s3.ExpireGoals(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(HaveLen(1))
			Expect(s3.GoalExists(id)).To(BeFalse())
		})

		It("bounds a sweep to the given capacity, oldest first", func() {
			idA, hA := acceptAt(time.Unix(10, 0))
			idB, hB := acceptAt(time.Unix(20, 0))
			idC, hC := acceptAt(time.Unix(30, 0))
			terminate(hA)
			terminate(hB)
			terminate(hC)

			clock.Set(time.Unix(1000, 0))

			expired, err := srv.ExpireGoals(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(HaveLen(2))
			Expect(expired[0].GoalID).To(Equal(idA))
			Expect(expired[1].GoalID).To(Equal(idB))
			Expect(srv.NumGoals()).To(Equal(1))
			Expect(srv.GoalExists(idC)).To(BeTrue())

			expired, err = srv.ExpireGoals(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(HaveLen(1))
			Expect(expired[0].GoalID).To(Equal(idC))
			Expect(srv.NumGoals()).To(Equal(0))
		})

		It("preserves survivor order when reclaiming from the middle", func() {
			idA, _ := acceptAt(time.Unix(10, 0))
			_, hB := acceptAt(time.Unix(20, 0))
			idC, _ := acceptAt(time.Unix(30, 0))
			terminate(hB)

			clock.Set(time.Unix(1000, 0))

			expired, err := srv.ExpireGoals(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(expired).To(HaveLen(1))

			handles, err := srv.GoalHandles()
			Expect(err).NotTo(HaveOccurred())
			Expect(handles).To(HaveLen(2))

			infoA, err := handles[0].Info()
			Expect(err).NotTo(HaveOccurred())
			infoC, err := handles[1].Info()
			Expect(err).NotTo(HaveOccurred())

			Expect(infoA.GoalID).To(Equal(idA))
			Expect(infoC.GoalID).To(Equal(idC))
		})

		It("arms the expiry timer when a goal reaches a terminal state", func() {
			ws := inproc.NewWaitSet()
			Expect(srv.AddToWaitSet(ws)).To(Succeed())

			_, h := acceptAt(time.Unix(100, 0))
			terminate(h)
			Expect(srv.NotifyGoalDone()).To(Succeed())

			Expect(ws.Wait(0)).To(MatchError(transport.ErrWaitTimeout))

			clock.Set(time.Unix(111, 0))

			Expect(ws.Wait(0)).To(Succeed())
			ready := srv.ReadyEntities(ws)
			Expect(ready.ExpiryTimer).To(BeTrue())
			Expect(ready.GoalRequest).To(BeFalse())
		})
	})

	Describe("status snapshot", func() {
		BeforeEach(func() {
			srv = newServer(actionserver.DefaultOptions("/fibonacci"))
		})

		It("lists tracked goals in acceptance order", func() {
			idA, hA := acceptAt(time.Unix(10, 0))
			idB, _ := acceptAt(time.Unix(20, 0))
			Expect(hA.UpdateState(goalstate.EventExecute)).To(Succeed())

			arr, err := srv.StatusSnapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(arr.Statuses).To(HaveLen(2))
			Expect(arr.Statuses[0].Info.GoalID).To(Equal(idA))
			Expect(arr.Statuses[0].Status).To(Equal(goalstate.Executing))
			Expect(arr.Statuses[1].Info.GoalID).To(Equal(idB))
			Expect(arr.Statuses[1].Status).To(Equal(goalstate.Accepted))
		})

		It("does not alias registry state", func() {
			_, h := acceptAt(time.Unix(10, 0))

			arr, err := srv.StatusSnapshot()
			Expect(err).NotTo(HaveOccurred())

			Expect(h.UpdateState(goalstate.EventExecute)).To(Succeed())

			Expect(arr.Statuses[0].Status).To(Equal(goalstate.Accepted))
		})

		It("refuses feedback for untracked goals", func() {
			err := srv.PublishFeedback(actionmsgs.FeedbackMessage{GoalID: goal.NewID()})
			Expect(err).To(MatchError(standarderrors.ErrUnknownGoal))
		})
	})

	Describe("finalization", func() {
		BeforeEach(func() {
			srv = newServer(actionserver.DefaultOptions("/fibonacci"))
		})

		It("finalizes every handle and invalidates the server", func() {
			_, h := acceptAt(time.Unix(10, 0))

			Expect(srv.Fini()).To(Succeed())
			Expect(srv.IsValid()).To(BeFalse())

			_, err := h.Info()
			Expect(err).To(MatchError(standarderrors.ErrHandleNotInitialized))

			_, err = srv.AcceptNewGoal(goal.NewID())
			Expect(err).To(MatchError(standarderrors.ErrServerInvalid))
		})

		It("refuses a second finalization", func() {
			Expect(srv.Fini()).To(Succeed())
			Expect(srv.Fini()).To(MatchError(standarderrors.ErrServerInvalid))
		})
	})
})
