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
package profile

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/trace"
)

// Interval is one span of a process's execution history: the process held
// state (with the CPU in mode, for RUNNING intervals) from Start until End.
// The terminal interval of a TERMINATED process has End == trace.Unknown.
type Interval struct {
	PID   trace.PID
	State trace.ThreadState
	Mode  trace.Mode
	Start trace.Timestamp
	End   trace.Timestamp
	// treeID is a unique identifier assigned when the interval joins a
	// SpanSet's augmented tree.
	treeID uint64
}

// Open returns true if the interval has no known end.
func (iv *Interval) Open() bool {
	return iv.End == trace.Unknown
}

// Duration returns the interval's length, or 0 for open intervals.
func (iv *Interval) Duration() trace.Duration {
	if iv.Open() {
		return 0
	}
	return trace.Duration(iv.End - iv.Start)
}

func (iv *Interval) String() string {
	end := "-"
	if !iv.Open() {
		end = fmt.Sprintf("%d", iv.End)
	}
	return fmt.Sprintf("%s %s/%s [%d - %s]", iv.PID, iv.State, iv.Mode, iv.Start, end)
}

// record is the per-process history: an interval log plus the
// last-transition cursor from which the next interval will be closed.
type record struct {
	pid       trace.PID
	name      stringID
	created   trace.Timestamp
	lastTime  trace.Timestamp
	state     trace.ThreadState
	mode      trace.Mode
	intervals []*Interval
	done      bool
}

// Profile records the execution history of every process in one simulation
// run.  Records are held in a dense vector indexed by PID: PIDs are small
// monotonic integers.
type Profile struct {
	bank  *stringBank
	procs []*record
}

// New returns an empty Profile.
func New() *Profile {
	return &Profile{bank: newStringBank()}
}

// Register begins the history of a process at its creation: the process is
// READY from at onward.  Registering an already-registered PID is an error.
func (p *Profile) Register(pid trace.PID, name string, at trace.Timestamp) error {
	if pid < 0 {
		return status.Errorf(codes.Internal, "profile: bad %s", pid)
	}
	for int(pid) >= len(p.procs) {
		p.procs = append(p.procs, nil)
	}
	if p.procs[pid] != nil {
		return status.Errorf(codes.Internal, "profile: %s registered twice", pid)
	}
	p.procs[pid] = &record{
		pid:      pid,
		name:     p.bank.stringIDByString(name),
		created:  at,
		lastTime: at,
		state:    trace.ReadyState,
		mode:     trace.SupervisorMode,
	}
	return nil
}

func (p *Profile) record(pid trace.PID) (*record, error) {
	if pid < 0 || int(pid) >= len(p.procs) || p.procs[pid] == nil {
		return nil, status.Errorf(codes.Internal, "profile: %s not registered", pid)
	}
	return p.procs[pid], nil
}

// closeOpen closes the record's open interval at the given time and appends
// it if its duration is strictly positive.  Adjacent READY intervals are
// coalesced: the previous READY interval is extended to span both.
func (r *record) closeOpen(at trace.Timestamp) error {
	if r.done {
		return status.Errorf(codes.Internal, "profile: %s changed after termination", r.pid)
	}
	if at < r.lastTime {
		return status.Errorf(codes.Internal, "profile: %s transition at %d precedes cursor %d", r.pid, at, r.lastTime)
	}
	if at == r.lastTime {
		return nil
	}
	if r.state == trace.ReadyState {
		if n := len(r.intervals); n > 0 {
			if prev := r.intervals[n-1]; prev.State == trace.ReadyState && prev.End == r.lastTime {
				prev.End = at
				r.lastTime = at
				return nil
			}
		}
	}
	r.intervals = append(r.intervals, &Interval{
		PID:   r.pid,
		State: r.state,
		Mode:  r.mode,
		Start: r.lastTime,
		End:   at,
	})
	r.lastTime = at
	return nil
}

// OnStateChange closes the process's open interval at the given time and
// opens a new one in the new state.  Reaching TERMINATED appends the
// open-ended terminal interval; no further changes are accepted.
func (p *Profile) OnStateChange(pid trace.PID, state trace.ThreadState, at trace.Timestamp) error {
	r, err := p.record(pid)
	if err != nil {
		return err
	}
	if err := r.closeOpen(at); err != nil {
		return err
	}
	r.state = state
	if state == trace.TerminatedState {
		r.intervals = append(r.intervals, &Interval{
			PID:   pid,
			State: state,
			Mode:  r.mode,
			Start: at,
			End:   trace.Unknown,
		})
		r.done = true
	}
	return nil
}

// OnModeChange closes the process's open interval at the given time and
// opens a new one in the same state under the new CPU mode.
func (p *Profile) OnModeChange(pid trace.PID, mode trace.Mode, at trace.Timestamp) error {
	r, err := p.record(pid)
	if err != nil {
		return err
	}
	if err := r.closeOpen(at); err != nil {
		return err
	}
	r.mode = mode
	return nil
}

// Name returns the program name the PID was registered with.
func (p *Profile) Name(pid trace.PID) string {
	r, err := p.record(pid)
	if err != nil {
		return "<unknown>"
	}
	name, err := p.bank.stringByID(r.name)
	if err != nil {
		return "<unknown>"
	}
	return name
}

// PIDs returns all registered PIDs in increasing order.
func (p *Profile) PIDs() []trace.PID {
	var pids []trace.PID
	for _, r := range p.procs {
		if r != nil {
			pids = append(pids, r.pid)
		}
	}
	return pids
}

// IntervalsFor returns the interval log of one process, in temporal order.
func (p *Profile) IntervalsFor(pid trace.PID) []*Interval {
	r, err := p.record(pid)
	if err != nil {
		return nil
	}
	return r.intervals
}

// Intervals returns every process's intervals, ordered by PID and then by
// start time.
func (p *Profile) Intervals() []*Interval {
	var ivs []*Interval
	for _, pid := range p.PIDs() {
		ivs = append(ivs, p.IntervalsFor(pid)...)
	}
	return ivs
}

// Check validates the finished profile: every process terminated, and every
// interval log contiguous, non-overlapping, and closed by exactly one
// open-ended terminal interval.
func (p *Profile) Check() error {
	for _, r := range p.procs {
		if r == nil {
			continue
		}
		if !r.done {
			return status.Errorf(codes.Internal, "profile: %s never terminated", r.pid)
		}
		cursor := r.created
		for i, iv := range r.intervals {
			if iv.Start != cursor {
				return status.Errorf(codes.Internal, "profile: %s interval %d starts at %d, want %d", r.pid, i, iv.Start, cursor)
			}
			if iv.Open() {
				if i != len(r.intervals)-1 || iv.State != trace.TerminatedState {
					return status.Errorf(codes.Internal, "profile: %s has a non-terminal open interval", r.pid)
				}
				continue
			}
			if iv.End <= iv.Start {
				return status.Errorf(codes.Internal, "profile: %s interval %d is empty or inverted", r.pid, i)
			}
			cursor = iv.End
		}
	}
	return nil
}
