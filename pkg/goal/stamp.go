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

package goal

import (
	"math"
	"time"
)

// Stamp is a normalized (seconds, nanoseconds) timestamp. All comparisons
// go through the single linear nanosecond count to avoid boundary ambiguity
// between the two fields. The zero Stamp is the "unspecified" sentinel in
// cancel requests.
type Stamp struct {
	Sec  int64 `json:"sec"  yaml:"sec"`
	NSec int32 `json:"nsec" yaml:"nsec"`
}

// MaxStamp is the largest stamp whose linear nanosecond count is exactly
// representable: Nanoseconds() == math.MaxInt64, no overflow. The
// cancellation resolver uses it as the +infinity bound for "cancel
// everything" requests.
var MaxStamp = Stamp{
	Sec:  math.MaxInt64 / int64(time.Second),
	NSec: int32(math.MaxInt64 % int64(time.Second)),
}

// NewStamp normalizes sec/nsec so that NSec lands in [0, 1e9).
func NewStamp(sec int64, nsec int64) Stamp {
	sec += nsec / int64(time.Second)
	nsec %= int64(time.Second)

	if nsec < 0 {
		sec--
		nsec += int64(time.Second)
	}

	return Stamp{Sec: sec, NSec: int32(nsec)}
}

// StampFromTime converts a wall-clock time to a Stamp.
func StampFromTime(t time.Time) Stamp {
	return NewStamp(t.Unix(), int64(t.Nanosecond()))
}

// Nanoseconds returns the stamp as a single linear nanosecond count.
func (s Stamp) Nanoseconds() int64 {
	return s.Sec*int64(time.Second) + int64(s.NSec)
}

// IsZero reports whether the stamp is the unspecified sentinel.
func (s Stamp) IsZero() bool {
	return s.Sec == 0 && s.NSec == 0
}

// AtOrBefore reports s <= other on the linear nanosecond scale. The
// cancellation bound is inclusive.
func (s Stamp) AtOrBefore(other Stamp) bool {
	return s.Nanoseconds() <= other.Nanoseconds()
}

// Time converts the stamp back to a wall-clock time.
func (s Stamp) Time() time.Time {
	return time.Unix(s.Sec, int64(s.NSec))
}
