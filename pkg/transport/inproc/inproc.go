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

// Package inproc is an in-process transport: request/response and topic
// endpoints connected by name inside one process. Payloads are serialized
// through JSON on every hop so that both sides always hold independent
// copies, exactly as they would across a real wire.
//
// Unlike the engine itself, the transport is internally locked: it is the
// external collaborator and may be shared between the goroutines driving a
// server and a client.
package inproc

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rostra-robotics/rostra/action-core/pkg/logger"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

// DefaultQueueDepth bounds every request, response and topic queue.
const DefaultQueueDepth = 16

// Transport connects endpoints created under the same instance by name.
// It implements the shells' EndpointFactory contract.
type Transport struct {
	mu       sync.Mutex
	clock    transport.Clock
	depth    int
	services map[string]*servicePair
	topics   map[string]*topic
	log      *zap.SugaredLogger
}

// Option configures a Transport.
type Option func(*Transport)

// WithQueueDepth overrides the per-endpoint queue depth.
func WithQueueDepth(depth int) Option {
	return func(t *Transport) {
		if depth > 0 {
			t.depth = depth
		}
	}
}

// WithClock supplies the clock used by timers created on this transport.
func WithClock(c transport.Clock) Option {
	return func(t *Transport) {
		if c != nil {
			t.clock = c
		}
	}
}

// New creates an empty in-process transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		clock:    transport.SystemClock{},
		depth:    DefaultQueueDepth,
		services: make(map[string]*servicePair),
		topics:   make(map[string]*topic),
		log:      logger.For(logger.ComponentInprocTransport),
	}

	for _, o := range opts {
		o(t)
	}

	return t
}

func (t *Transport) pair(name string) *servicePair {
	p, ok := t.services[name]
	if !ok {
		p = newServicePair(name, t.depth)
		t.services[name] = p
	}

	return p
}

// NewService claims the answering side of the named service. Only one
// service may exist per name.
func (t *Transport) NewService(name string) (transport.Service, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.pair(name)
	if p.serviceClaimed {
		return nil, fmt.Errorf("service %q already claimed", name)
	}

	p.serviceClaimed = true
	t.log.Debugf("service created: %s", name)

	return &service{pair: p}, nil
}

// NewClient creates a requesting side for the named service.
func (t *Transport) NewClient(name string) (transport.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.pair(name)
	t.log.Debugf("client created: %s", name)

	return &client{pair: p}, nil
}

// NewPublisher creates the sending half of the named topic.
func (t *Transport) NewPublisher(name string) (transport.Publisher, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tp, ok := t.topics[name]
	if !ok {
		tp = &topic{name: name, depth: t.depth}
		t.topics[name] = tp
	}

	t.log.Debugf("publisher created: %s", name)

	return &publisher{topic: tp}, nil
}

// NewSubscription creates a receiving half of the named topic. Every
// subscription gets its own queue.
func (t *Transport) NewSubscription(name string) (transport.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tp, ok := t.topics[name]
	if !ok {
		tp = &topic{name: name, depth: t.depth}
		t.topics[name] = tp
	}

	sub := &subscription{topic: tp, depth: t.depth}
	tp.attach(sub)
	t.log.Debugf("subscription created: %s", name)

	return sub, nil
}

// NewTimer creates a timer driven by the transport's clock.
func (t *Transport) NewTimer() (transport.Timer, error) {
	return &timer{clock: t.clock}, nil
}
