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

// Package transport defines the contracts the action engine expects from
// its request/response and publish/subscribe collaborator. The engine never
// looks at wire bytes; payloads cross these interfaces as plain structs and
// the implementation decides how to move them.
//
// All Take* style operations are non-blocking: when no data is pending they
// return ErrWouldBlock, which is a polling condition, not a failure.
package transport

import (
	"errors"
	"time"
)

// ErrWouldBlock signals that no data was pending on a take. Callers polling
// an endpoint must treat it as "try again later", never as an error.
var ErrWouldBlock = errors.New("no data available")

// ErrEndpointClosed signals a take or send on an endpoint that was closed.
var ErrEndpointClosed = errors.New("endpoint closed")

// ErrWaitTimeout signals that a wait elapsed without any entity becoming
// ready.
var ErrWaitTimeout = errors.New("wait timed out")

// RequestHeader correlates a response with the request it answers.
type RequestHeader struct {
	SequenceNumber int64
}

// Waitable is anything a WaitSet can report readiness for.
type Waitable interface {
	// Ready reports whether a take (or, for timers, a fire) would succeed
	// right now.
	Ready() bool
}

// Client is the requesting side of a request/response channel.
type Client interface {
	Waitable

	// SendRequest submits a request payload and returns its sequence number.
	SendRequest(payload any) (int64, error)
	// TakeResponse fills header and payload with the next pending response,
	// or returns ErrWouldBlock.
	TakeResponse(header *RequestHeader, payload any) error
	Close() error
}

// Service is the answering side of a request/response channel.
type Service interface {
	Waitable

	// TakeRequest fills header and payload with the next pending request,
	// or returns ErrWouldBlock.
	TakeRequest(header *RequestHeader, payload any) error
	// SendResponse answers the request identified by header.
	SendResponse(header RequestHeader, payload any) error
	Close() error
}

// Publisher is the sending half of a topic.
type Publisher interface {
	Publish(payload any) error
	Close() error
}

// Subscription is the receiving half of a topic.
type Subscription interface {
	Waitable

	// Take fills payload with the next pending message, or returns
	// ErrWouldBlock.
	Take(payload any) error
	Close() error
}

// Clock supplies the server's notion of now. Goal acceptance stamps and
// expiry ages both come from here, never from client-supplied times.
type Clock interface {
	Now() time.Time
}

// Timer is a one-shot readiness source driven by a Clock. The expiry
// scheduler re-arms it to fire when the next terminal goal crosses the
// retention threshold.
type Timer interface {
	Waitable

	// SetPeriod arms the timer to fire the given duration from now.
	SetPeriod(d time.Duration)
	// Reset re-arms the timer with its current period, starting from now.
	Reset()
	// Cancel disarms the timer. A canceled timer is never Ready.
	Cancel()
}

// WaitSet multiplexes readiness across endpoints. Add returns the index the
// entity occupies; after a Wait the materialized Ready slice holds, at each
// index, the entity itself if it is ready or nil if it is not. Callers
// dispatch by comparing entries against their own endpoints by identity.
type WaitSet interface {
	// Add registers an entity and returns its index. The index is stable
	// for the lifetime of the wait set.
	Add(entity Waitable) (int, error)
	// Wait blocks until at least one entity is ready or the timeout
	// elapses, then materializes the ready list.
	Wait(timeout time.Duration) error
	// Ready returns the entity list materialized by the last Wait:
	// position i holds the added entity if ready, nil otherwise.
	Ready() []Waitable
}

// EndpointFactory creates the endpoints a protocol shell owns. A transport
// implementation hands one to NewServer/NewClient so the shell can build
// its five endpoints and expiry timer by derived name.
type EndpointFactory interface {
	NewService(name string) (Service, error)
	NewClient(name string) (Client, error)
	NewPublisher(name string) (Publisher, error)
	NewSubscription(name string) (Subscription, error)
	NewTimer() (Timer, error)
}

// SystemClock is the default wall-clock implementation.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
