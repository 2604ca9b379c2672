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

// Command action-core runs a self-contained action demo: a fibonacci action
// server and client wired over the in-process transport, a lifecycle machine
// gating startup and shutdown, and an HTTP listener exposing metrics and
// health.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rostra-robotics/rostra/action-core/pkg/actionclient"
	"github.com/rostra-robotics/rostra/action-core/pkg/actionmsgs"
	"github.com/rostra-robotics/rostra/action-core/pkg/actionserver"
	"github.com/rostra-robotics/rostra/action-core/pkg/config"
	"github.com/rostra-robotics/rostra/action-core/pkg/goal"
	"github.com/rostra-robotics/rostra/action-core/pkg/goalstate"
	"github.com/rostra-robotics/rostra/action-core/pkg/lifecycle"
	"github.com/rostra-robotics/rostra/action-core/pkg/logger"
	"github.com/rostra-robotics/rostra/action-core/pkg/metrics"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport/inproc"
)

const (
	waitTimeout   = 100 * time.Millisecond
	expiryBatch   = 8
	fibonacciGoal = 10
)

type fibGoal struct {
	Order int `json:"order"`
}

type fibFeedback struct {
	PartialSequence []int64 `json:"partial_sequence"`
}

type fibResult struct {
	Sequence []int64 `json:"sequence"`
}

func main() {
	logger.Initialize()

	log := logger.For(logger.ComponentCore)
	defer func() {
		_ = logger.Sync()
	}()

	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg := config.Default()

	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("loading configuration: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := inproc.New(inproc.WithQueueDepth(cfg.Server.QueueDepth))

	machine, err := startLifecycle(ctx, bus)
	if err != nil {
		log.Fatalf("starting lifecycle: %v", err)
	}

	server, err := actionserver.NewServer(bus, actionserver.Options{
		ActionName:           cfg.Server.ActionName,
		ResultTimeout:        cfg.Server.ResultTimeout.Std(),
		RejectCancelRequests: cfg.Server.RejectCancelRequests,
	})
	if err != nil {
		log.Fatalf("creating action server: %v", err)
	}

	client, err := actionclient.NewClient(bus, actionclient.Options{
		ActionName:  cfg.Server.ActionName,
		PendingTTL:  cfg.Client.PendingTTL.Std(),
		SendRetries: cfg.Client.SendRetries,
	})
	if err != nil {
		log.Fatalf("creating action client: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runServer(ctx, server)
	})

	g.Go(func() error {
		return runClient(ctx, client, log)
	})

	g.Go(func() error {
		return runHTTP(ctx, cfg.HTTP.ListenAddress, log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("run: %v", err)
	}

	stopLifecycle(context.Background(), machine, log)

	if err := client.Fini(); err != nil {
		log.Warnf("client cleanup: %v", err)
	}

	if err := server.Fini(); err != nil {
		log.Warnf("server cleanup: %v", err)
	}

	log.Info("shutdown complete")
}

// startLifecycle walks the machine through configure and activate so serving
// only begins from the active state.
func startLifecycle(ctx context.Context, bus *inproc.Transport) (*lifecycle.Machine, error) {
	pub, err := bus.NewPublisher("/lifecycle/transition_event")
	if err != nil {
		return nil, err
	}

	m := lifecycle.NewMachine(lifecycle.WithNotifications(pub))
	if err := m.InitDefault(); err != nil {
		return nil, err
	}

	steps := []uint8{
		lifecycle.TransitionConfigure,
		lifecycle.TransitionOnConfigureSuccess,
		lifecycle.TransitionActivate,
		lifecycle.TransitionOnActivateSuccess,
	}

	for _, id := range steps {
		if _, err := m.TriggerByID(ctx, id); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// stopLifecycle drives the machine from active to finalized. Failures are
// logged only; shutdown proceeds regardless.
func stopLifecycle(ctx context.Context, m *lifecycle.Machine, log *zap.SugaredLogger) {
	steps := []uint8{
		lifecycle.TransitionActiveShutdown,
		lifecycle.TransitionOnShutdownSuccess,
	}

	for _, id := range steps {
		if _, err := m.TriggerByID(ctx, id); err != nil {
			log.Warnf("lifecycle shutdown: %v", err)

			return
		}
	}
}

// runServer drives the server on a single goroutine: wait for readiness,
// dispatch, repeat. Goals execute synchronously inside the dispatch.
func runServer(ctx context.Context, srv *actionserver.Server) error {
	ws := inproc.NewWaitSet()
	if err := srv.AddToWaitSet(ws); err != nil {
		return err
	}

	results := make(map[goal.ID]json.RawMessage)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := ws.Wait(waitTimeout); err != nil {
			if errors.Is(err, transport.ErrWaitTimeout) {
				continue
			}

			return err
		}

		ready := srv.ReadyEntities(ws)

		if ready.GoalRequest {
			if err := handleGoal(srv, results); err != nil {
				return err
			}
		}

		if ready.CancelRequest {
			header, req, err := srv.TakeCancelRequest()
			if err == nil {
				resp, perr := srv.ProcessCancelRequest(req)
				if perr != nil {
					return perr
				}

				if err := srv.SendCancelResponse(header, resp); err != nil {
					return err
				}
			} else if !errors.Is(err, transport.ErrWouldBlock) {
				return err
			}
		}

		if ready.ResultRequest {
			if err := handleResult(srv, results); err != nil {
				return err
			}
		}

		if ready.ExpiryTimer {
			expired, err := srv.ExpireGoals(expiryBatch)
			if err != nil {
				return err
			}

			for _, info := range expired {
				delete(results, info.GoalID)
			}
		}
	}
}

// handleGoal accepts the pending goal request and executes it to completion,
// publishing per-step feedback.
func handleGoal(srv *actionserver.Server, results map[goal.ID]json.RawMessage) error {
	header, req, err := srv.TakeGoalRequest()
	if err != nil {
		if errors.Is(err, transport.ErrWouldBlock) {
			return nil
		}

		return err
	}

	var g fibGoal
	if err := json.Unmarshal(req.Goal, &g); err != nil || g.Order < 0 {
		return srv.SendGoalResponse(header, actionmsgs.SendGoalResponse{Accepted: false})
	}

	h, err := srv.AcceptNewGoal(req.GoalID)
	if err != nil {
		return srv.SendGoalResponse(header, actionmsgs.SendGoalResponse{Accepted: false})
	}

	info, err := h.Info()
	if err != nil {
		return err
	}

	if err := srv.SendGoalResponse(header, actionmsgs.SendGoalResponse{
		Accepted: true,
		Stamp:    info.AcceptedAt,
	}); err != nil {
		return err
	}

	if err := h.UpdateState(goalstate.EventExecute); err != nil {
		return err
	}

	seq := []int64{0, 1}
	for i := 2; i <= g.Order; i++ {
		seq = append(seq, seq[i-1]+seq[i-2])

		fb, _ := json.Marshal(fibFeedback{PartialSequence: seq})
		if err := srv.PublishFeedback(actionmsgs.FeedbackMessage{
			GoalID:   req.GoalID,
			Feedback: fb,
		}); err != nil {
			return err
		}
	}

	if err := h.UpdateState(goalstate.EventSucceed); err != nil {
		return err
	}

	body, err := json.Marshal(fibResult{Sequence: seq})
	if err != nil {
		return err
	}

	results[req.GoalID] = body

	return srv.NotifyGoalDone()
}

// handleResult answers the pending result request from the computed results.
func handleResult(srv *actionserver.Server, results map[goal.ID]json.RawMessage) error {
	header, req, err := srv.TakeResultRequest()
	if err != nil {
		if errors.Is(err, transport.ErrWouldBlock) {
			return nil
		}

		return err
	}

	resp := actionmsgs.GetResultResponse{Status: goalstate.Unknown}

	if body, ok := results[req.GoalID]; ok {
		resp.Status = goalstate.Succeeded
		resp.Result = body
	}

	return srv.SendResultResponse(header, resp)
}

// runClient sends one fibonacci goal, follows feedback and status, fetches
// the result and then idles until shutdown.
func runClient(ctx context.Context, cl *actionclient.Client, log *zap.SugaredLogger) error {
	ws := inproc.NewWaitSet()
	if err := cl.AddToWaitSet(ws); err != nil {
		return err
	}

	goalID := goal.NewID()

	body, err := json.Marshal(fibGoal{Order: fibonacciGoal})
	if err != nil {
		return err
	}

	if _, err := cl.SendGoalRequest(actionmsgs.SendGoalRequest{
		GoalID: goalID,
		Goal:   body,
	}); err != nil {
		return err
	}

	done := false

	for !done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := ws.Wait(waitTimeout); err != nil {
			if errors.Is(err, transport.ErrWaitTimeout) {
				continue
			}

			return err
		}

		ready := cl.ReadyEntities(ws)

		if ready.GoalResponse {
			_, resp, err := cl.TakeGoalResponse()
			if err != nil && !errors.Is(err, transport.ErrWouldBlock) {
				return err
			}

			if err == nil {
				if !resp.Accepted {
					return errors.New("goal rejected")
				}

				log.Infof("goal %s accepted at %s", goalID, resp.Stamp.Time())

				if _, err := cl.SendResultRequest(actionmsgs.GetResultRequest{GoalID: goalID}); err != nil {
					return err
				}
			}
		}

		if ready.Feedback {
			if fb, err := cl.TakeFeedback(); err == nil {
				var f fibFeedback
				if err := json.Unmarshal(fb.Feedback, &f); err == nil {
					log.Debugf("feedback: %v", f.PartialSequence)
				}
			}
		}

		if ready.Status {
			if arr, err := cl.TakeStatus(); err == nil {
				for _, st := range arr.Statuses {
					log.Debugf("status: goal=%s state=%s", st.Info.GoalID, st.Status)
				}
			}
		}

		if ready.ResultResponse {
			_, resp, err := cl.TakeResultResponse()
			if err != nil && !errors.Is(err, transport.ErrWouldBlock) {
				return err
			}

			if err == nil {
				var r fibResult
				if err := json.Unmarshal(resp.Result, &r); err != nil {
					return err
				}

				log.Infof("result (%s): %v", resp.Status, r.Sequence)

				done = true
			}
		}
	}

	log.Info("demo complete, waiting for shutdown signal")
	<-ctx.Done()

	return ctx.Err()
}

// runHTTP serves metrics and health until the context is canceled.
func runHTTP(ctx context.Context, addr string, log *zap.SugaredLogger) error {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("http shutdown: %v", err)
		}
	}()

	log.Infof("http listening on %s", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
