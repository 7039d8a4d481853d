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

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/profile"
	"github.com/google/schedsim/trace"
	"github.com/google/schedsim/workload"
)

// ProgramLoader loads program files for EXECVE.  workload.Loader satisfies
// it; tests substitute in-memory tables.
type ProgramLoader interface {
	Load(path string) (*workload.Program, error)
}

type options struct {
	syscallCost trace.Duration
	switchCost  trace.Duration
	traceLevel  int
}

// Option configures a Simulation at construction.
type Option func(o *options) error

// SyscallCost sets the system time charged per syscall and per interrupt.
func SyscallCost(d trace.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return status.Errorf(codes.InvalidArgument, "syscall cost must be non-negative, got %d", d)
		}
		o.syscallCost = d
		return nil
	}
}

// ContextSwitchCost sets the system time charged per context switch.
func ContextSwitchCost(d trace.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return status.Errorf(codes.InvalidArgument, "context switch cost must be non-negative, got %d", d)
		}
		o.switchCost = d
		return nil
	}
}

// TraceLevel sets the trace output bitmask, in [0, 31].
func TraceLevel(level int) Option {
	return func(o *options) error {
		if level < 0 || level > TraceAll {
			return status.Errorf(codes.InvalidArgument, "trace level must be in [0, %d], got %d", TraceAll, level)
		}
		o.traceLevel = level
		return nil
	}
}

// Simulation owns one run: the clock, the event queue, the CPU, the
// devices, the system timer, the process table, the profiler, and the
// scheduling policy.  It is not reusable; build a new one per run.
type Simulation struct {
	name    string
	clock   *Clock
	events  *eventQueue
	cpu     *CPU
	timer   *systemTimer
	devices map[trace.DeviceID]*Device
	procs   map[trace.PID]*Process
	nextPID trace.PID
	policy  Policy
	loader  ProgramLoader
	prof    *profile.Profile
	trace   tracer
}

// New assembles a Simulation around a policy and a program loader.
func New(policy Policy, loader ProgramLoader, opts ...Option) (*Simulation, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	prof := profile.New()
	clock := NewClock(o.syscallCost, o.switchCost)
	return &Simulation{
		name:    fmt.Sprintf("%s_%s", uuid.New(), policy.Name()),
		clock:   clock,
		events:  newEventQueue(),
		cpu:     newCPU(clock, prof),
		timer:   newSystemTimer(),
		devices: make(map[trace.DeviceID]*Device),
		procs:   make(map[trace.PID]*Process),
		nextPID: 1,
		policy:  policy,
		loader:  loader,
		prof:    prof,
		trace:   tracer{level: o.traceLevel},
	}, nil
}

// Name returns the run's unique name.
func (s *Simulation) Name() string { return s.name }

// Profile returns the run's execution profile.  Complete only after Run.
func (s *Simulation) Profile() *profile.Profile { return s.prof }

// ScheduleExecve stages a program admission at the given time.
func (s *Simulation) ScheduleExecve(at trace.Timestamp, path string, priority int) error {
	if at < 0 {
		return status.Errorf(codes.InvalidArgument, "cannot schedule %s at negative time %d", path, at)
	}
	s.events.schedule(&event{
		time:     at,
		kind:     execveEvent,
		path:     path,
		priority: priority,
	})
	return nil
}

// Stage registers a parsed workload: its devices, then its admissions.
func (s *Simulation) Stage(w *workload.Workload) error {
	for _, d := range w.Devices {
		if err := s.MakeDevice(d.ID, d.Name); err != nil {
			return err
		}
	}
	for _, a := range w.Admissions {
		if err := s.ScheduleExecve(a.Start, a.Path, a.Priority); err != nil {
			return err
		}
	}
	return nil
}

// Summary carries a finished run's counters.
type Summary struct {
	RunID           string         `json:"runId"`
	Policy          string         `json:"policy"`
	SystemTime      trace.Duration `json:"systemTime"`
	UserTime        trace.Duration `json:"userTime"`
	ContextSwitches int            `json:"contextSwitches"`
	Syscalls        int            `json:"syscalls"`
	Interrupts      int            `json:"interrupts"`
	// Utilisation is user time over system time, in [0, 1].
	Utilisation float64 `json:"utilisation"`
}

// Run drives the event loop to completion and returns the run summary.
// The loop pops the next event, lets the CPU execute up to the event's
// timestamp (idle gaps become system time; a burst finishing on the way
// traps into the kernel and may dispatch a successor, which then also
// runs), and delivers the event.  With no events left, a busy CPU executes
// burst by burst until everything has terminated.
func (s *Simulation) Run() (*Summary, error) {
	for {
		ev, err := s.events.pop()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			if s.cpu.Idle() {
				break
			}
			if _, err := s.cpu.ExecuteToBurstEnd(s); err != nil {
				return nil, err
			}
			continue
		}
		if ev.kind == timeOutEvent && !s.timer.live(ev) {
			// Cancelled before it could fire; nothing runs and the
			// clock stays put.
			continue
		}
		remaining := trace.Duration(ev.time - s.clock.Now())
		s.clock.AdvanceTo(ev.time)
		for remaining > 0 {
			if s.cpu.Idle() {
				s.clock.AdvanceSystem(remaining)
				break
			}
			remaining, err = s.cpu.ExecuteFor(remaining, s)
			if err != nil {
				return nil, err
			}
		}
		// Executing up to the event can retire the very process the
		// timeout was for; re-check before delivering.
		if ev.kind == timeOutEvent && !s.timer.live(ev) {
			continue
		}
		s.trace.logf(TraceEvents, "deliver %s (system time %d)", ev, s.clock.SystemTime())
		if err := s.deliver(ev); err != nil {
			return nil, err
		}
	}
	if err := s.checkDrained(); err != nil {
		return nil, err
	}
	return &Summary{
		RunID:           s.name,
		Policy:          s.policy.Name(),
		SystemTime:      s.clock.SystemTime(),
		UserTime:        s.clock.UserTime(),
		ContextSwitches: s.cpu.Switches(),
		Syscalls:        s.clock.SyscallCount(),
		Interrupts:      s.clock.InterruptCount(),
		Utilisation:     s.clock.Utilisation(),
	}, nil
}

// deliver dispatches an event payload to its handler.
func (s *Simulation) deliver(ev *event) error {
	switch ev.kind {
	case execveEvent:
		return s.execve(ev.path, ev.priority)
	case wakeUpEvent:
		return s.wakeUp(ev.device, ev.pid)
	case timeOutEvent:
		return s.timeOut(ev.pid)
	}
	return status.Errorf(codes.Internal, "unknown event kind %d", ev.kind)
}

// checkDrained verifies the end-of-run invariants: an idle CPU, empty
// device queues, no ready processes, and a terminated, contiguous profile.
func (s *Simulation) checkDrained() error {
	if !s.cpu.Idle() {
		return status.Errorf(codes.Internal, "run ended with %s on the CPU", s.cpu.Current())
	}
	if n := s.policy.ReadyLen(); n != 0 {
		return status.Errorf(codes.Internal, "run ended with %d processes ready", n)
	}
	for _, d := range s.devices {
		if d.Pending() != 0 {
			return status.Errorf(codes.Internal, "run ended with %d requests in flight on device %d (%s)", d.Pending(), d.ID(), d.Name())
		}
	}
	return s.prof.Check()
}
