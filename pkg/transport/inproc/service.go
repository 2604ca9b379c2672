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
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

type message struct {
	header transport.RequestHeader
	body   []byte
}

// servicePair is the shared state of one request/response channel: a
// request queue feeding the service side and a response queue feeding the
// client side. Queues are bounded; a full queue rejects the send.
type servicePair struct {
	mu             sync.Mutex
	name           string
	depth          int
	requests       []message
	responses      []message
	nextSeq        int64
	serviceClaimed bool
	closed         bool
}

func newServicePair(name string, depth int) *servicePair {
	return &servicePair{name: name, depth: depth}
}

func encode(payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	return body, nil
}

func decode(body []byte, payload any) error {
	if err := json.Unmarshal(body, payload); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}

	return nil
}

// client is the requesting side. Concurrent SendRequest calls from multiple
// goroutines are safe because the pair is locked; everything else follows
// the engine's single-threaded model.
type client struct {
	pair   *servicePair
	closed bool
}

func (c *client) SendRequest(payload any) (int64, error) {
	body, err := encode(payload)
	if err != nil {
		return 0, err
	}

	c.pair.mu.Lock()
	defer c.pair.mu.Unlock()

	if c.closed || c.pair.closed {
		return 0, transport.ErrEndpointClosed
	}

	if len(c.pair.requests) >= c.pair.depth {
		return 0, fmt.Errorf("request queue full on %s", c.pair.name)
	}

	c.pair.nextSeq++
	seq := c.pair.nextSeq

	c.pair.requests = append(c.pair.requests, message{
		header: transport.RequestHeader{SequenceNumber: seq},
		body:   body,
	})

	return seq, nil
}

func (c *client) TakeResponse(header *transport.RequestHeader, payload any) error {
	c.pair.mu.Lock()

	if c.closed || c.pair.closed {
		c.pair.mu.Unlock()

		return transport.ErrEndpointClosed
	}

	if len(c.pair.responses) == 0 {
		c.pair.mu.Unlock()

		return transport.ErrWouldBlock
	}

	msg := c.pair.responses[0]
	c.pair.responses = c.pair.responses[1:]
	c.pair.mu.Unlock()

	*header = msg.header

	return decode(msg.body, payload)
}

// Ready must agree with TakeResponse: a closed pair never reports data.
func (c *client) Ready() bool {
	c.pair.mu.Lock()
	defer c.pair.mu.Unlock()

	return !c.closed && !c.pair.closed && len(c.pair.responses) > 0
}

func (c *client) Close() error {
	c.pair.mu.Lock()
	defer c.pair.mu.Unlock()

	c.closed = true

	return nil
}

// service is the answering side.
type service struct {
	pair   *servicePair
	closed bool
}

func (s *service) TakeRequest(header *transport.RequestHeader, payload any) error {
	s.pair.mu.Lock()

	if s.closed || s.pair.closed {
		s.pair.mu.Unlock()

		return transport.ErrEndpointClosed
	}

	if len(s.pair.requests) == 0 {
		s.pair.mu.Unlock()

		return transport.ErrWouldBlock
	}

	msg := s.pair.requests[0]
	s.pair.requests = s.pair.requests[1:]
	s.pair.mu.Unlock()

	*header = msg.header

	return decode(msg.body, payload)
}

func (s *service) SendResponse(header transport.RequestHeader, payload any) error {
	body, err := encode(payload)
	if err != nil {
		return err
	}

	s.pair.mu.Lock()
	defer s.pair.mu.Unlock()

	if s.closed || s.pair.closed {
		return transport.ErrEndpointClosed
	}

	if len(s.pair.responses) >= s.pair.depth {
		return fmt.Errorf("response queue full on %s", s.pair.name)
	}

	s.pair.responses = append(s.pair.responses, message{header: header, body: body})

	return nil
}

// Ready must agree with TakeRequest: a closed pair never reports data.
func (s *service) Ready() bool {
	s.pair.mu.Lock()
	defer s.pair.mu.Unlock()

	return !s.closed && !s.pair.closed && len(s.pair.requests) > 0
}

func (s *service) Close() error {
	s.pair.mu.Lock()
	defer s.pair.mu.Unlock()

	s.closed = true
	s.pair.serviceClaimed = false

	return nil
}
