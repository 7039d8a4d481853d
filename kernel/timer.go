//
// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
package kernel

import (
	"github.com/google/schedsim/trace"
)

// systemTimer schedules and cancels per-process timeout interrupts.
// Cancellation is logical: each scheduled timeout carries a generation
// number, and only the generation recorded as pending for its PID is live
// when popped.  Scheduling a new timeout for a PID supersedes any pending
// one, so a process has at most one live timeout.
type systemTimer struct {
	pending map[trace.PID]uint64
	lastGen uint64
}

func newSystemTimer() *systemTimer {
	return &systemTimer{pending: make(map[trace.PID]uint64)}
}

// scheduleInterrupt schedules a TimeOut for pid at now + delay.
func (t *systemTimer) scheduleInterrupt(q *eventQueue, pid trace.PID, delay trace.Duration, now trace.Timestamp) {
	t.lastGen++
	t.pending[pid] = t.lastGen
	q.schedule(&event{
		time:       now + trace.Timestamp(delay),
		kind:       timeOutEvent,
		pid:        pid,
		generation: t.lastGen,
	})
}

// cancelInterrupt marks any pending timeout for pid as cancelled.  The
// event stays in the queue and is discarded when popped.
func (t *systemTimer) cancelInterrupt(pid trace.PID) {
	delete(t.pending, pid)
}

// live reports whether a popped TimeOut is still the pending one for its
// PID.
func (t *systemTimer) live(ev *event) bool {
	gen, ok := t.pending[ev.pid]
	return ok && gen == ev.generation
}

// fired clears the pending record once a live timeout is delivered.
func (t *systemTimer) fired(pid trace.PID) {
	delete(t.pending, pid)
}
