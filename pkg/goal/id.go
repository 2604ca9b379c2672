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

// Package goal holds the identity, timestamp and handle types for a single
// action goal. A handle's state only ever advances through the transition
// function in pkg/goalstate; direct mutation is not exposed.
package goal

import "github.com/google/uuid"

// ID identifies one goal. Equality is byte-wise. The zero ID is a sentinel
// meaning "unspecified" in cancel requests and is never assigned to a goal.
type ID [16]byte

// ZeroID is the wildcard/unspecified goal ID.
var ZeroID ID

// NewID returns a fresh random goal ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical UUID string form of a goal ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroID, err
	}

	return ID(u), nil
}

// IsZero reports whether the ID is the unspecified sentinel.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// String renders the ID in canonical UUID form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}
