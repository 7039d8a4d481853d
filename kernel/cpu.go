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
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/profile"
	"github.com/google/schedsim/trace"
	"github.com/google/schedsim/workload"
)

// trapper is the CPU's path back into the kernel when a burst completes:
// the next burst is an I/O request, or the program is done.
type trapper interface {
	ioRequest(device trace.DeviceID, duration trace.Duration) error
	terminateProcess() error
}

// CPU models the single processor: at most one running process, the
// current accounting mode, and the context-switch counter.  The CPU is in
// user mode only while a process executes its own CPU burst; all kernel
// work, and all event-handler boundaries, are supervisor mode.
type CPU struct {
	clock    *Clock
	prof     *profile.Profile
	current  *Process
	mode     trace.Mode
	switches int
}

func newCPU(clock *Clock, prof *profile.Profile) *CPU {
	return &CPU{clock: clock, prof: prof, mode: trace.SupervisorMode}
}

// Current returns the running process, or nil when idle.
func (c *CPU) Current() *Process { return c.current }

// Idle reports whether no process is running.
func (c *CPU) Idle() bool { return c.current == nil }

// Mode returns the current accounting mode.
func (c *CPU) Mode() trace.Mode { return c.mode }

// Switches returns the number of context switches performed.
func (c *CPU) Switches() int { return c.switches }

// ContextSwitch replaces the running process with next (which may be nil,
// leaving the CPU idle), accounts the switch cost, and returns the
// previously-running process.  The caller is responsible for the states of
// both processes and for re-queueing the outgoing one if appropriate.
func (c *CPU) ContextSwitch(next *Process) *Process {
	c.switches++
	c.clock.LogContextSwitch()
	prev := c.current
	c.current = next
	return prev
}

// setMode transitions the accounting mode, reporting the change to the
// profiler.  A process must be present when mode becomes user.
func (c *CPU) setMode(m trace.Mode) error {
	if m == c.mode {
		return nil
	}
	if m == trace.UserMode && c.current == nil {
		return status.Errorf(codes.Internal, "cannot enter user mode with no running process")
	}
	c.mode = m
	if c.current != nil {
		return c.prof.OnModeChange(c.current.PID(), m, c.clock.SystemNow())
	}
	return nil
}

// ExecuteFor runs the current process's CPU burst for up to t units.  If
// the burst completes within t, the post-burst trap runs (an I/O request if
// another burst follows, termination otherwise) and the unused remainder of
// t is returned; otherwise the full t is consumed and 0 is returned.  On an
// idle CPU the whole span is accounted as system time.
func (c *CPU) ExecuteFor(t trace.Duration, k trapper) (trace.Duration, error) {
	if t <= 0 {
		return 0, nil
	}
	if c.current == nil {
		c.clock.AdvanceSystem(t)
		return 0, nil
	}
	b := c.current.currentBurst()
	if b.kind != workload.CPUBurst {
		return 0, status.Errorf(codes.Internal, "%s scheduled on CPU during %s burst", c.current, b.kind)
	}
	if b.remaining > t {
		if err := c.setMode(trace.UserMode); err != nil {
			return 0, err
		}
		c.clock.AdvanceUser(t)
		b.remaining -= t
		return 0, c.setMode(trace.SupervisorMode)
	}
	r := b.remaining
	if err := c.setMode(trace.UserMode); err != nil {
		return 0, err
	}
	c.clock.AdvanceUser(r)
	b.remaining = 0
	if err := c.setMode(trace.SupervisorMode); err != nil {
		return 0, err
	}
	if err := c.trapBurstEnd(k); err != nil {
		return 0, err
	}
	return t - r, nil
}

// ExecuteToBurstEnd runs the current burst to completion, used when no
// event bounds execution.  The event axis advances with the execution,
// since nothing else can happen in the meantime.
func (c *CPU) ExecuteToBurstEnd(k trapper) (trace.Duration, error) {
	if c.current == nil {
		return 0, status.Errorf(codes.Internal, "ExecuteToBurstEnd on an idle CPU")
	}
	b := c.current.currentBurst()
	if b.kind != workload.CPUBurst {
		return 0, status.Errorf(codes.Internal, "%s scheduled on CPU during %s burst", c.current, b.kind)
	}
	r := b.remaining
	c.clock.AdvanceTo(c.clock.Now() + trace.Timestamp(r))
	if _, err := c.ExecuteFor(r, k); err != nil {
		return 0, err
	}
	return r, nil
}

// trapBurstEnd raises the syscall that follows a completed CPU burst.
func (c *CPU) trapBurstEnd(k trapper) error {
	p := c.current
	if !p.HasNextInstruction() {
		return k.terminateProcess()
	}
	if err := p.NextInstruction(); err != nil {
		return err
	}
	nb := p.currentBurst()
	if nb.kind != workload.IOBurst {
		return status.Errorf(codes.Internal, "%s: CPU burst followed by %s burst", p, nb.kind)
	}
	return k.ioRequest(nb.device, nb.duration)
}
