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

	"github.com/google/schedsim/trace"
)

// sjfPolicy is preemptive Shortest-Job-First.  The ready structure is a
// min-heap keyed by the remaining time of each process's current burst,
// with insertion order breaking ties so equal estimates dispatch FIFO.  An
// arrival or wake-up with a strictly shorter current burst than the running
// process preempts it; an equal one does not, keeping behaviour
// deterministic under equal estimates.
type sjfPolicy struct {
	h sjfHeap
}

func (p *sjfPolicy) Name() string { return "SJF" }

func (p *sjfPolicy) Admit(proc *Process) {
	heap.Push(&p.h, &sjfEntry{proc: proc, key: proc.BurstRemaining()})
}

func (p *sjfPolicy) Dispatchable() *Process {
	if len(p.h.entries) == 0 {
		return nil
	}
	return heap.Pop(&p.h).(*sjfEntry).proc
}

func (p *sjfPolicy) ReadyLen() int { return len(p.h.entries) }

func (p *sjfPolicy) Preempts(arriving, running *Process) bool {
	return arriving.BurstRemaining() < running.BurstRemaining()
}

func (p *sjfPolicy) Slice() trace.Duration { return 0 }

// sjfEntry pins the ordering key at admission time.  A READY process does
// not execute, so its remaining time cannot drift while queued.
type sjfEntry struct {
	proc *Process
	key  trace.Duration
	seq  uint64
}

type sjfHeap struct {
	entries []*sjfEntry
	nextSeq uint64
}

func (h sjfHeap) Len() int { return len(h.entries) }

func (h sjfHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if a.key != b.key {
		return a.key < b.key
	}
	return a.seq < b.seq
}

func (h sjfHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *sjfHeap) Push(x interface{}) {
	e := x.(*sjfEntry)
	e.seq = h.nextSeq
	h.nextSeq++
	h.entries = append(h.entries, e)
}

func (h *sjfHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	return e
}
