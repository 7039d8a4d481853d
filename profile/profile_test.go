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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/trace"
)

// span mirrors Interval without the tree bookkeeping, for diffs.
type span struct {
	State trace.ThreadState
	Mode  trace.Mode
	Start trace.Timestamp
	End   trace.Timestamp
}

func spansOf(p *Profile, pid trace.PID) []span {
	var out []span
	for _, iv := range p.IntervalsFor(pid) {
		out = append(out, span{State: iv.State, Mode: iv.Mode, Start: iv.Start, End: iv.End})
	}
	return out
}

func TestProfileRecordsTransitions(t *testing.T) {
	p := New()
	if err := p.Register(1, "prog", 0); err != nil {
		t.Fatalf("Register failed: %s", err)
	}
	p.OnStateChange(1, trace.RunningState, 4)
	p.OnModeChange(1, trace.UserMode, 4)
	p.OnModeChange(1, trace.SupervisorMode, 14)
	p.OnStateChange(1, trace.TerminatedState, 15)
	want := []span{
		{trace.ReadyState, trace.SupervisorMode, 0, 4},
		{trace.RunningState, trace.UserMode, 4, 14},
		{trace.RunningState, trace.SupervisorMode, 14, 15},
		{trace.TerminatedState, trace.SupervisorMode, 15, trace.Unknown},
	}
	if diff := cmp.Diff(want, spansOf(p, 1)); diff != "" {
		t.Errorf("unexpected intervals (-want +got):\n%s", diff)
	}
	if err := p.Check(); err != nil {
		t.Errorf("Check failed on a well-formed profile: %s", err)
	}
}

// A zero-duration closed interval is not appended: the mode flip at the
// same instant leaves no RUNNING/SUPERVISOR sliver.
func TestProfileDropsEmptyIntervals(t *testing.T) {
	p := New()
	p.Register(1, "prog", 0)
	p.OnStateChange(1, trace.RunningState, 4)
	p.OnModeChange(1, trace.UserMode, 4)
	p.OnModeChange(1, trace.SupervisorMode, 9)
	p.OnStateChange(1, trace.TerminatedState, 10)
	for _, iv := range p.IntervalsFor(1) {
		if !iv.Open() && iv.Duration() == 0 {
			t.Errorf("zero-duration interval %s was appended", iv)
		}
	}
}

// Adjacent READY intervals coalesce when the RUNNING span between them
// collapsed to nothing.
func TestProfileCoalescesAdjacentReady(t *testing.T) {
	p := New()
	p.Register(1, "prog", 0)
	p.OnStateChange(1, trace.RunningState, 5)   // READY [0, 5)
	p.OnStateChange(1, trace.ReadyState, 6)     // RUNNING [5, 6)
	p.OnStateChange(1, trace.RunningState, 8)   // READY [6, 8)
	p.OnStateChange(1, trace.ReadyState, 8)     // zero-length RUNNING, dropped
	p.OnStateChange(1, trace.TerminatedState, 9) // READY [8, 9), adjacent to [6, 8)
	want := []span{
		{trace.ReadyState, trace.SupervisorMode, 0, 5},
		{trace.RunningState, trace.SupervisorMode, 5, 6},
		{trace.ReadyState, trace.SupervisorMode, 6, 9},
		{trace.TerminatedState, trace.SupervisorMode, 9, trace.Unknown},
	}
	if diff := cmp.Diff(want, spansOf(p, 1)); diff != "" {
		t.Errorf("unexpected intervals (-want +got):\n%s", diff)
	}
}

func TestProfileRejectsBackwardTransitions(t *testing.T) {
	p := New()
	p.Register(1, "prog", 10)
	err := p.OnStateChange(1, trace.RunningState, 5)
	if err == nil {
		t.Fatal("backward transition succeeded, want error")
	}
	if got := status.Code(err); got != codes.Internal {
		t.Errorf("got error code %s, want %s", got, codes.Internal)
	}
}

func TestProfileRejectsChangesAfterTermination(t *testing.T) {
	p := New()
	p.Register(1, "prog", 0)
	p.OnStateChange(1, trace.RunningState, 1)
	p.OnStateChange(1, trace.TerminatedState, 2)
	if err := p.OnStateChange(1, trace.ReadyState, 3); err == nil {
		t.Fatal("transition after termination succeeded, want error")
	}
}

func TestProfileCheckCatchesUnterminated(t *testing.T) {
	p := New()
	p.Register(1, "prog", 0)
	p.OnStateChange(1, trace.RunningState, 1)
	if err := p.Check(); err == nil {
		t.Fatal("Check passed with a live process, want error")
	}
}

func TestProfileRegisterTwice(t *testing.T) {
	p := New()
	if err := p.Register(1, "prog", 0); err != nil {
		t.Fatalf("Register failed: %s", err)
	}
	if err := p.Register(1, "prog", 0); err == nil {
		t.Fatal("second Register succeeded, want error")
	}
}

func TestWriteCSV(t *testing.T) {
	p := New()
	p.Register(1, "looper", 0)
	p.OnStateChange(1, trace.RunningState, 4)
	p.OnModeChange(1, trace.UserMode, 4)
	p.OnModeChange(1, trace.SupervisorMode, 14)
	p.OnStateChange(1, trace.TerminatedState, 15)
	var sb strings.Builder
	if err := p.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV failed: %s", err)
	}
	want := strings.Join([]string{
		"PID, STATE, MODE, START, END, PROGRAM",
		"001, READY, N/A, 0000000000, 0000000004, looper",
		"001, RUNNING, USER, 0000000004, 0000000014, looper",
		"001, RUNNING, SUPERVISOR, 0000000014, 0000000015, looper",
		"001, TERMINATED, N/A, 0000000015, -, looper",
		"",
	}, "\n")
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("unexpected CSV (-want +got):\n%s", diff)
	}
}

func TestSummaries(t *testing.T) {
	p := New()
	p.Register(1, "prog", 0)
	p.OnStateChange(1, trace.RunningState, 2)
	p.OnModeChange(1, trace.UserMode, 2)
	p.OnModeChange(1, trace.SupervisorMode, 7)
	p.OnStateChange(1, trace.WaitingState, 8)
	p.OnStateChange(1, trace.ReadyState, 12)
	p.OnStateChange(1, trace.RunningState, 13)
	p.OnModeChange(1, trace.UserMode, 13)
	p.OnModeChange(1, trace.SupervisorMode, 16)
	p.OnStateChange(1, trace.TerminatedState, 17)
	got := p.Summaries()
	if len(got) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got))
	}
	want := &ProcessSummary{
		PID:        1,
		Program:    "prog",
		Created:    0,
		Terminated: 17,
		UserTime:   8,
		KernelTime: 2,
		ReadyTime:  3,
		WaitTime:   4,
		Intervals:  8,
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("unexpected summary (-want +got):\n%s", diff)
	}
}

func TestSpanSetQueries(t *testing.T) {
	p := New()
	p.Register(1, "prog", 0)
	p.OnStateChange(1, trace.RunningState, 2)
	p.OnModeChange(1, trace.UserMode, 2)
	p.OnModeChange(1, trace.SupervisorMode, 12)
	p.OnStateChange(1, trace.TerminatedState, 13)
	ss := NewSpanSet(p)
	if got := ss.End(); got != 13 {
		t.Errorf("got end %d, want 13", got)
	}
	if got := ss.TimeInState(1, trace.RunningState, 0, 13); got != 11 {
		t.Errorf("got %d running in [0, 13], want 11", got)
	}
	if got := ss.TimeInState(1, trace.ReadyState, 0, 13); got != 2 {
		t.Errorf("got %d ready in [0, 13], want 2", got)
	}
	// Only [5, 10) of the user span overlaps the window.
	if got := ss.UtilisationIn(5, 10); got != 1.0 {
		t.Errorf("got utilisation %f in [5, 10], want 1.0", got)
	}
	if got := ss.UtilisationIn(0, 2); got != 0 {
		t.Errorf("got utilisation %f in [0, 2], want 0", got)
	}
}
