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
// Package kernel implements the simulation core: a virtual clock, a
// time-ordered event queue, a single CPU, per-device FIFO I/O service, an
// interrupt-scheduling system timer, and the pluggable scheduling policies
// (FCFS, Round-Robin, SJF) that tie them together.  The whole kernel is
// strictly single-threaded: all state changes happen between events, on one
// goroutine.
package kernel

import (
	"github.com/google/schedsim/trace"
)

// Clock holds the simulation's virtual time.  Two views of time coexist:
//
//   - The event axis (Now): the timestamp domain in which events are
//     scheduled.  It advances when the queue delivers an event and when the
//     CPU executes between events.
//   - The accounting counters (SystemTime, UserTime): total virtual time
//     spent, including the configured syscall, interrupt, and
//     context-switch costs.  User execution and idle gaps advance both
//     views; kernel costs advance only the counters.
//
// Profile timestamps are drawn from the accounting axis (SystemNow), so
// kernel overhead is visible in per-process execution history.
type Clock struct {
	now    trace.Timestamp
	system trace.Duration
	user   trace.Duration

	syscallCost trace.Duration
	switchCost  trace.Duration

	syscalls        int
	contextSwitches int
	interrupts      int
}

// NewClock returns a Clock at time zero with the given kernel costs.
func NewClock(syscallCost, switchCost trace.Duration) *Clock {
	return &Clock{syscallCost: syscallCost, switchCost: switchCost}
}

// Now returns the current position on the event axis.
func (c *Clock) Now() trace.Timestamp {
	return c.now
}

// AdvanceTo moves the event axis to t.  The clock never moves backward: a t
// earlier than Now leaves the clock where it is.  Kernel costs advance only
// the accounting counters, never this axis.
func (c *Clock) AdvanceTo(t trace.Timestamp) {
	if t > c.now {
		c.now = t
	}
}

// SystemTime returns the total accounted virtual time.
func (c *Clock) SystemTime() trace.Duration {
	return c.system
}

// SystemNow returns the accounting axis as a timestamp, for profiling.
func (c *Clock) SystemNow() trace.Timestamp {
	return trace.Timestamp(c.system)
}

// UserTime returns the accumulated user-mode execution time.
func (c *Clock) UserTime() trace.Duration {
	return c.user
}

// AdvanceUser accounts n units of user-mode execution, which count toward
// both user and system time.
func (c *Clock) AdvanceUser(n trace.Duration) {
	c.user += n
	c.system += n
}

// AdvanceSystem accounts n units of system time only, e.g. an idle gap.
func (c *Clock) AdvanceSystem(n trace.Duration) {
	c.system += n
}

// LogSyscall accounts the cost of one system call.
func (c *Clock) LogSyscall() {
	c.syscalls++
	c.system += c.syscallCost
}

// LogContextSwitch accounts the cost of one context switch.
func (c *Clock) LogContextSwitch() {
	c.contextSwitches++
	c.system += c.switchCost
}

// LogInterrupt accounts the cost of delivering one interrupt.  Interrupt
// handlers are kernel code, so an interrupt costs the same as a syscall.
func (c *Clock) LogInterrupt() {
	c.interrupts++
	c.system += c.syscallCost
}

// SyscallCount returns the number of syscalls logged.
func (c *Clock) SyscallCount() int { return c.syscalls }

// ContextSwitchCount returns the number of context switches logged.
func (c *Clock) ContextSwitchCount() int { return c.contextSwitches }

// InterruptCount returns the number of interrupts logged.
func (c *Clock) InterruptCount() int { return c.interrupts }

// Utilisation returns user time as a fraction of system time, in [0, 1].
func (c *Clock) Utilisation() float64 {
	if c.system == 0 {
		return 0
	}
	return float64(c.user) / float64(c.system)
}
