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
	"github.com/google/schedsim/trace"
)

// This file holds the syscall and interrupt semantics shared by all
// policies: process admission (EXECVE), I/O requests, termination, device
// registration, wake-ups, and timeouts.  Policy-specific behaviour — the
// ready ordering, preemption, and timeslicing — is consulted through the
// Policy interface.

// MakeDevice registers an I/O device.  Devices are registered at staging
// time, before the clock starts, so registration logs no syscall cost.
func (s *Simulation) MakeDevice(id trace.DeviceID, name string) error {
	if _, ok := s.devices[id]; ok {
		return status.Errorf(codes.InvalidArgument, "device %d (%s) already registered", id, name)
	}
	s.devices[id] = newDevice(id, name)
	s.trace.logf(TraceDevices, "MAKE_DEVICE %d (%s)", id, name)
	return nil
}

// execve loads a program, creates a READY process for it, and admits it.
// A load failure is fatal: the workload named a program that cannot run.
func (s *Simulation) execve(path string, priority int) error {
	s.clock.LogSyscall()
	s.trace.logf(TraceSyscalls, "EXECVE %s prio %d", path, priority)
	prog, err := s.loader.Load(path)
	if err != nil {
		return err
	}
	pid := s.nextPID
	s.nextPID++
	p, err := newProcess(pid, prog, priority, s.prof, s.clock.SystemNow())
	if err != nil {
		return err
	}
	s.procs[pid] = p
	return s.admitReady(p)
}

// ioRequest suspends the running process on a device.  The process's
// pending timeout, if any, is cancelled; the device queues the request and
// a successor is dispatched.  Called from the CPU's post-burst trap with
// the cursor already on the IO burst.
func (s *Simulation) ioRequest(deviceID trace.DeviceID, duration trace.Duration) error {
	s.clock.LogSyscall()
	cur := s.cpu.Current()
	if cur == nil {
		return status.Errorf(codes.Internal, "IO_REQUEST with no running process")
	}
	dev, ok := s.devices[deviceID]
	if !ok {
		return status.Errorf(codes.NotFound, "%s requested unknown device %d", cur, deviceID)
	}
	s.timer.cancelInterrupt(cur.PID())
	if err := cur.SetState(trace.WaitingState, s.clock.SystemNow()); err != nil {
		return err
	}
	wake := dev.requestIO(s.events, duration, cur.PID(), s.clock.Now())
	s.trace.logf(TraceDevices, "IO_REQUEST %s on device %d for %d, wakeup @%d", cur.PID(), deviceID, duration, wake)
	_, err := s.dispatch()
	return err
}

// terminateProcess retires the running process and dispatches a successor.
func (s *Simulation) terminateProcess() error {
	s.clock.LogSyscall()
	cur := s.cpu.Current()
	if cur == nil {
		return status.Errorf(codes.Internal, "TERMINATE_PROCESS with no running process")
	}
	s.trace.logf(TraceSyscalls, "TERMINATE_PROCESS %s", cur.PID())
	s.timer.cancelInterrupt(cur.PID())
	if err := cur.SetState(trace.TerminatedState, s.clock.SystemNow()); err != nil {
		return err
	}
	_, err := s.dispatch()
	return err
}

// wakeUp completes an I/O request: the device retires it, the process's
// cursor moves past the IO burst, and the process rejoins the ready
// structure.  The interrupt cost is charged after the process is READY, so
// handler overhead reads as queueing delay rather than extended waiting.
func (s *Simulation) wakeUp(deviceID trace.DeviceID, pid trace.PID) error {
	dev, ok := s.devices[deviceID]
	if !ok {
		return status.Errorf(codes.NotFound, "wakeup on unknown device %d", deviceID)
	}
	if err := dev.complete(pid); err != nil {
		return err
	}
	p, ok := s.procs[pid]
	if !ok {
		return status.Errorf(codes.Internal, "wakeup for unknown %s", pid)
	}
	if err := p.NextInstruction(); err != nil {
		return err
	}
	if err := p.SetState(trace.ReadyState, s.clock.SystemNow()); err != nil {
		return err
	}
	s.clock.LogInterrupt()
	s.trace.logf(TraceDevices, "WAKE_UP %s from device %d", pid, deviceID)
	return s.admitReady(p)
}

// timeOut handles a timeslice expiry.  Only timeslicing policies accept
// timeouts; anyone else receiving one is misconfigured, fatally.
func (s *Simulation) timeOut(pid trace.PID) error {
	if s.policy.Slice() <= 0 {
		return status.Errorf(codes.Unimplemented, "policy %s cannot handle TIME_OUT", s.policy.Name())
	}
	s.clock.LogInterrupt()
	s.timer.fired(pid)
	cur := s.cpu.Current()
	if cur == nil || cur.PID() != pid {
		// The timeout belonged to a process no longer on the CPU.
		return nil
	}
	if s.policy.ReadyLen() == 0 {
		// Nobody else to run: the process continues with a fresh slice.
		s.timer.scheduleInterrupt(s.events, pid, s.policy.Slice(), s.clock.Now())
		s.trace.logf(TraceDispatch, "TIME_OUT %s: queue empty, fresh slice", pid)
		return nil
	}
	if err := cur.SetState(trace.ReadyState, s.clock.SystemNow()); err != nil {
		return err
	}
	prev, err := s.dispatch()
	if err != nil {
		return err
	}
	if prev != nil {
		s.policy.Admit(prev)
	}
	s.trace.logf(TraceDispatch, "TIME_OUT %s: preempted", pid)
	return nil
}

// admitReady places a READY process under policy control: enqueue, then
// dispatch if the CPU is idle, or preempt if the policy says the newcomer
// displaces the running process.
func (s *Simulation) admitReady(p *Process) error {
	s.policy.Admit(p)
	cur := s.cpu.Current()
	if cur == nil {
		_, err := s.dispatch()
		return err
	}
	if s.policy.Preempts(p, cur) {
		if err := cur.SetState(trace.ReadyState, s.clock.SystemNow()); err != nil {
			return err
		}
		s.policy.Admit(cur)
		_, err := s.dispatch()
		return err
	}
	return nil
}

// dispatch picks the next ready process per policy order, performs the
// context switch (possibly to idle), marks the incoming process RUNNING,
// and starts its timeslice if the policy uses one.  Returns the outgoing
// process.
func (s *Simulation) dispatch() (*Process, error) {
	next := s.policy.Dispatchable()
	if next == nil && s.cpu.Idle() {
		return nil, nil
	}
	prev := s.cpu.ContextSwitch(next)
	if next != nil {
		if err := next.SetState(trace.RunningState, s.clock.SystemNow()); err != nil {
			return prev, err
		}
		if slice := s.policy.Slice(); slice > 0 {
			s.timer.scheduleInterrupt(s.events, next.PID(), slice, s.clock.Now())
		}
		s.trace.logf(TraceDispatch, "dispatch %s", next)
	} else {
		s.trace.logf(TraceDispatch, "dispatch: CPU idle")
	}
	return prev, nil
}
