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
	"container/heap"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/trace"
)

// eventKind discriminates the event payload variants.
type eventKind int8

const (
	execveEvent eventKind = iota
	wakeUpEvent
	timeOutEvent
)

func (ek eventKind) String() string {
	switch ek {
	case execveEvent:
		return "EXECVE"
	case wakeUpEvent:
		return "WAKE_UP"
	case timeOutEvent:
		return "TIME_OUT"
	}
	return "UNKNOWN"
}

// event is a future-scheduled action.  Events carry identifiers (PID,
// device ID) and variant tags, never references into kernel state.
type event struct {
	time trace.Timestamp
	seq  uint64
	kind eventKind

	// Execve payload.
	path     string
	priority int

	// WakeUp and TimeOut payload.
	pid    trace.PID
	device trace.DeviceID
	// generation is the timer generation a TimeOut was scheduled under;
	// a mismatch at pop time means the timeout was cancelled.
	generation uint64
}

func (ev *event) String() string {
	switch ev.kind {
	case execveEvent:
		return fmt.Sprintf("%s(%s, prio %d) @%d", ev.kind, ev.path, ev.priority, ev.time)
	case wakeUpEvent:
		return fmt.Sprintf("%s(device %d, %s) @%d", ev.kind, ev.device, ev.pid, ev.time)
	default:
		return fmt.Sprintf("%s(%s, gen %d) @%d", ev.kind, ev.pid, ev.generation, ev.time)
	}
}

// eventHeap orders events by (time ASC, seq ASC).  The insertion sequence
// breaks ties so that equal-timestamp events fire FIFO.
type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

// eventQueue is the simulation's pending-event store.
type eventQueue struct {
	heap       eventHeap
	nextSeq    uint64
	lastPopped trace.Timestamp
}

func newEventQueue() *eventQueue {
	return &eventQueue{}
}

// schedule assigns the event the next insertion sequence number and inserts
// it.  Later insertions at an equal timestamp fire after earlier ones.
func (q *eventQueue) schedule(ev *event) {
	ev.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.heap, ev)
}

// pop removes and returns the minimum event, or nil when the queue is
// empty.  Popped timestamps must never decrease; a decrease means the heap
// ordering broke and the simulation cannot continue.
func (q *eventQueue) pop() (*event, error) {
	if len(q.heap) == 0 {
		return nil, nil
	}
	ev := heap.Pop(&q.heap).(*event)
	if ev.time < q.lastPopped {
		return nil, status.Errorf(codes.Internal, "event ordering violation: popped %s after time %d", ev, q.lastPopped)
	}
	q.lastPopped = ev.time
	return ev, nil
}

func (q *eventQueue) len() int {
	return len(q.heap)
}
