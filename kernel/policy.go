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
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/trace"
)

// Policy is the pluggable part of scheduling: it owns the ready structure
// and the preemption rule.  The kernel owns everything else — the common
// syscall and interrupt semantics, dispatching, and timeslice bookkeeping —
// and consults the policy at the decision points.
type Policy interface {
	// Name returns the policy's configuration name (FCFS, RR, SJF).
	Name() string
	// Admit adds a READY process to the ready structure.
	Admit(p *Process)
	// Dispatchable removes and returns the next process to run, or nil
	// if none is ready.
	Dispatchable() *Process
	// ReadyLen returns the number of ready processes.
	ReadyLen() int
	// Preempts reports whether a newly-ready arrival should displace the
	// running process.
	Preempts(arriving, running *Process) bool
	// Slice returns the timeslice for preemptive timeslicing, or 0 for
	// policies that run processes until they yield.
	Slice() trace.Duration
}

// NewPolicy constructs the named policy.  slice is only meaningful for RR,
// where it must be positive.
func NewPolicy(name string, slice trace.Duration) (Policy, error) {
	switch strings.ToUpper(name) {
	case "FCFS":
		return &fcfsPolicy{}, nil
	case "RR":
		if slice <= 0 {
			return nil, status.Errorf(codes.InvalidArgument, "RR needs a positive slice, got %d", slice)
		}
		return &rrPolicy{slice: slice}, nil
	case "SJF":
		return &sjfPolicy{}, nil
	}
	return nil, status.Errorf(codes.InvalidArgument, "unknown policy %q (want FCFS, RR, or SJF)", name)
}

// fifoQueue is the arrival-ordered ready queue shared by FCFS and RR.
type fifoQueue struct {
	procs []*Process
}

func (q *fifoQueue) push(p *Process) {
	q.procs = append(q.procs, p)
}

func (q *fifoQueue) pop() *Process {
	if len(q.procs) == 0 {
		return nil
	}
	p := q.procs[0]
	q.procs[0] = nil
	q.procs = q.procs[1:]
	return p
}

func (q *fifoQueue) len() int {
	return len(q.procs)
}
