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

// Package lifecycle is the node lifecycle state machine: a linear
// configure/activate/shutdown machine over label+id state pairs with
// runtime-extensible transitions. Unlike the fixed action goal table,
// states and transitions are registered into a growable map, so external
// code can add custom states. Lookups resolve by numeric id or by label;
// anything unregistered resolves to the Unknown sentinel.
//
// A Machine is not thread-safe.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/rostra-robotics/rostra/action-core/pkg/logger"
	"github.com/rostra-robotics/rostra/action-core/pkg/standarderrors"
	"github.com/rostra-robotics/rostra/action-core/pkg/transport"
)

// TransitionEvent is published on the notification topic when a transition
// is triggered.
type TransitionEvent struct {
	Transition Transition `json:"transition"`
	Start      State      `json:"start_state"`
	Goal       State      `json:"goal_state"`
}

// Machine holds the registered states, the growable transition map and the
// executing engine. The engine is rebuilt lazily after registrations.
type Machine struct {
	current State

	statesByID    map[uint8]State
	statesByLabel map[string]State

	// Outgoing transitions keyed by start state id.
	transitions map[uint8][]Transition

	engine *fsm.FSM
	dirty  bool

	notifyPub transport.Publisher
	log       *zap.SugaredLogger
}

// Option configures a Machine.
type Option func(*Machine)

// WithNotifications publishes a TransitionEvent for every triggered
// transition.
func WithNotifications(pub transport.Publisher) Option {
	return func(m *Machine) {
		m.notifyPub = pub
	}
}

// NewMachine creates an empty machine in the Unknown state. Register states
// and transitions (or call InitDefault) and set an initial state before
// triggering.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		current:       Unknown,
		statesByID:    make(map[uint8]State),
		statesByLabel: make(map[string]State),
		transitions:   make(map[uint8][]Transition),
		log:           logger.For(logger.ComponentLifecycle),
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// InitDefault registers the canonical lifecycle states and transitions and
// starts the machine in Unconfigured.
func (m *Machine) InitDefault() error {
	for _, s := range defaultStates() {
		if err := m.RegisterState(s); err != nil {
			return err
		}
	}

	for _, t := range defaultTransitions() {
		if err := m.RegisterTransition(t); err != nil {
			return err
		}
	}

	return m.SetInitialState(Unconfigured)
}

// RegisterState adds a state. The Unknown id and label are reserved, and
// both id and label must be unique.
func (m *Machine) RegisterState(s State) error {
	if s.ID == Unknown.ID || s.Label == Unknown.Label {
		return errors.New("the unknown state is reserved")
	}

	if s.Label == "" {
		return errors.New("state label must not be empty")
	}

	if _, exists := m.statesByID[s.ID]; exists {
		return fmt.Errorf("state id %d already registered", s.ID)
	}

	if _, exists := m.statesByLabel[s.Label]; exists {
		return fmt.Errorf("state label %q already registered", s.Label)
	}

	m.statesByID[s.ID] = s
	m.statesByLabel[s.Label] = s
	m.dirty = true

	return nil
}

// RegisterTransition adds a transition between two registered states. The
// transition id must be unique machine-wide; the label must be unique among
// the start state's outgoing transitions.
func (m *Machine) RegisterTransition(t Transition) error {
	if t.Label == "" {
		return errors.New("transition label must not be empty")
	}

	if _, ok := m.statesByID[t.Start.ID]; !ok {
		return fmt.Errorf("start state %q not registered", t.Start.Label)
	}

	if _, ok := m.statesByID[t.Goal.ID]; !ok {
		return fmt.Errorf("goal state %q not registered", t.Goal.Label)
	}

	for _, existing := range m.allTransitions() {
		if existing.ID == t.ID {
			return fmt.Errorf("transition id %d already registered", t.ID)
		}
	}

	for _, existing := range m.transitions[t.Start.ID] {
		if existing.Label == t.Label {
			return fmt.Errorf("transition %q already registered from state %q", t.Label, t.Start.Label)
		}
	}

	m.transitions[t.Start.ID] = append(m.transitions[t.Start.ID], t)
	m.dirty = true

	return nil
}

// SetInitialState places the machine in a registered state. Only allowed
// while the machine is still Unknown.
func (m *Machine) SetInitialState(s State) error {
	if m.current != Unknown {
		return fmt.Errorf("machine already initialized in state %q", m.current.Label)
	}

	registered, ok := m.statesByID[s.ID]
	if !ok || registered != s {
		return fmt.Errorf("state %q not registered", s.Label)
	}

	m.current = s
	m.dirty = true

	return nil
}

// Current returns the machine's current state.
func (m *Machine) Current() State {
	return m.current
}

// AvailableTransitions returns a copy of the current state's outgoing
// transitions, in registration order.
func (m *Machine) AvailableTransitions() []Transition {
	out := make([]Transition, len(m.transitions[m.current.ID]))
	copy(out, m.transitions[m.current.ID])

	return out
}

// GetTransitionByLabel resolves an outgoing transition of the current state
// by label.
func (m *Machine) GetTransitionByLabel(label string) (Transition, error) {
	for _, t := range m.transitions[m.current.ID] {
		if t.Label == label {
			return t, nil
		}
	}

	return Transition{}, fmt.Errorf("%w: label %q from %q",
		standarderrors.ErrTransitionUnregistered, label, m.current.Label)
}

// GetTransitionByID resolves an outgoing transition of the current state by
// numeric id.
func (m *Machine) GetTransitionByID(id uint8) (Transition, error) {
	for _, t := range m.transitions[m.current.ID] {
		if t.ID == id {
			return t, nil
		}
	}

	return Transition{}, fmt.Errorf("%w: id %d from %q",
		standarderrors.ErrTransitionUnregistered, id, m.current.Label)
}

// TriggerByLabel fires the current state's outgoing transition with the
// given label and returns the new state. Unregistered labels return the
// Unknown state and an error; the machine does not move.
func (m *Machine) TriggerByLabel(ctx context.Context, label string) (State, error) {
	t, err := m.GetTransitionByLabel(label)
	if err != nil {
		return Unknown, err
	}

	return m.trigger(ctx, t)
}

// TriggerByID fires the current state's outgoing transition with the given
// numeric id and returns the new state.
func (m *Machine) TriggerByID(ctx context.Context, id uint8) (State, error) {
	t, err := m.GetTransitionByID(id)
	if err != nil {
		return Unknown, err
	}

	return m.trigger(ctx, t)
}

func (m *Machine) trigger(ctx context.Context, t Transition) (State, error) {
	if m.dirty {
		m.rebuild()
	}

	if err := m.engine.Event(ctx, eventName(t)); err != nil {
		return Unknown, err
	}

	m.current = m.statesByLabel[m.engine.Current()]

	if m.notifyPub != nil {
		event := TransitionEvent{Transition: t, Start: t.Start, Goal: t.Goal}
		if err := m.notifyPub.Publish(event); err != nil {
			m.log.Warnf("publishing transition notification: %v", err)
		}
	}

	return m.current, nil
}

// eventName disambiguates transitions that share a label across different
// start states (e.g. "shutdown").
func eventName(t Transition) string {
	return fmt.Sprintf("%d:%s", t.ID, t.Label)
}

// allTransitions flattens the transition map.
func (m *Machine) allTransitions() []Transition {
	var all []Transition
	for _, ts := range m.transitions {
		all = append(all, ts...)
	}

	return all
}

// rebuild reconstructs the executing engine from the registration map,
// anchored at the current state.
func (m *Machine) rebuild() {
	events := make([]fsm.EventDesc, 0, len(m.transitions))

	for _, ts := range m.transitions {
		for _, t := range ts {
			events = append(events, fsm.EventDesc{
				Name: eventName(t),
				Src:  []string{t.Start.Label},
				Dst:  t.Goal.Label,
			})
		}
	}

	m.engine = fsm.NewFSM(
		m.current.Label,
		fsm.Events(events),
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				m.log.Debugf("lifecycle %s -> %s on %s", e.Src, e.Dst, e.Event)
			},
		},
	)

	m.dirty = false
}
