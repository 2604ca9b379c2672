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

package inproc

import (
	"sync"

	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

// topic fans published messages out to every attached subscription. Each
// subscription has its own bounded queue; when one is full the oldest
// message is dropped, keep-last semantics.
type topic struct {
	mu    sync.Mutex
	name  string
	depth int
	subs  []*subscription
}

func (t *topic) attach(sub *subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.subs = append(t.subs, sub)
}

func (t *topic) broadcast(body []byte) {
	t.mu.Lock()
	subs := make([]*subscription, len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, sub := range subs {
		sub.push(body)
	}
}

type publisher struct {
	topic  *topic
	mu     sync.Mutex
	closed bool
}

func (p *publisher) Publish(payload any) error {
	body, err := encode(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return transport.ErrEndpointClosed
	}

	p.topic.broadcast(body)

	return nil
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	return nil
}

type subscription struct {
	topic  *topic
	mu     sync.Mutex
	queue  [][]byte
	depth  int
	closed bool
}

func (s *subscription) push(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if len(s.queue) >= s.depth {
		s.queue = s.queue[1:]
	}

	s.queue = append(s.queue, body)
}

func (s *subscription) Take(payload any) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return transport.ErrEndpointClosed
	}

	if len(s.queue) == 0 {
		s.mu.Unlock()

		return transport.ErrWouldBlock
	}

	body := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	return decode(body, payload)
}

func (s *subscription) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed && len(s.queue) > 0
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.queue = nil

	return nil
}
