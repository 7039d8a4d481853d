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
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/profile"
	"github.com/google/schedsim/trace"
	"github.com/google/schedsim/workload"
)

// burst is a process's private copy of one program burst, with the amount
// still to execute.
type burst struct {
	kind      workload.BurstKind
	device    trace.DeviceID
	duration  trace.Duration
	remaining trace.Duration
}

// Process is one admitted program instance: identity, priority, lifecycle
// state, and a cursor over its burst sequence.  Every state change is
// reported to the profiler before SetState returns.
type Process struct {
	pid      trace.PID
	name     string
	priority int
	state    trace.ThreadState
	bursts   []burst
	cursor   int
	prof     *profile.Profile
}

// newProcess creates a READY process from a loaded program and registers it
// with the profiler.  at is the creation time on the profiling axis.
func newProcess(pid trace.PID, prog *workload.Program, priority int, prof *profile.Profile, at trace.Timestamp) (*Process, error) {
	p := &Process{
		pid:      pid,
		name:     prog.Name,
		priority: priority,
		state:    trace.ReadyState,
		bursts:   make([]burst, len(prog.Bursts)),
		prof:     prof,
	}
	for i, b := range prog.Bursts {
		p.bursts[i] = burst{kind: b.Kind, device: b.Device, duration: b.Duration, remaining: b.Duration}
	}
	if err := prof.Register(pid, prog.Name, at); err != nil {
		return nil, err
	}
	return p, nil
}

// PID returns the process identifier.
func (p *Process) PID() trace.PID { return p.pid }

// Name returns the program name the process was loaded from.
func (p *Process) Name() string { return p.name }

// Priority returns the admission priority.
func (p *Process) Priority() int { return p.priority }

// State returns the current lifecycle state.
func (p *Process) State() trace.ThreadState { return p.state }

func (p *Process) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.pid, p.name, p.state)
}

// SetState transitions the process to next, enforcing the lifecycle state
// machine, and notifies the profiler before returning.  at is the
// transition time on the profiling axis.
func (p *Process) SetState(next trace.ThreadState, at trace.Timestamp) error {
	if !p.state.CanTransition(next) {
		return status.Errorf(codes.Internal, "illegal transition %s -> %s for %s", p.state, next, p)
	}
	p.state = next
	return p.prof.OnStateChange(p.pid, next, at)
}

// currentBurst returns the burst under the cursor.
func (p *Process) currentBurst() *burst {
	return &p.bursts[p.cursor]
}

// HasNextInstruction reports whether any burst follows the cursor.
func (p *Process) HasNextInstruction() bool {
	return p.cursor+1 < len(p.bursts)
}

// NextInstruction advances the cursor to the next burst.
func (p *Process) NextInstruction() error {
	if !p.HasNextInstruction() {
		return status.Errorf(codes.Internal, "%s has no next instruction", p)
	}
	p.cursor++
	return nil
}

// BurstRemaining returns the remaining duration of the current burst.  For
// a READY process this is the length of its next CPU service request,
// which is the SJF ordering key.
func (p *Process) BurstRemaining() trace.Duration {
	return p.currentBurst().remaining
}
