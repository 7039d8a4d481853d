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
	"github.com/google/schedsim/trace"
)

// ProcessSummary aggregates one process's interval log into per-state
// totals.  UserTime and KernelTime split the running total by CPU mode.
type ProcessSummary struct {
	PID        trace.PID       `json:"pid"`
	Program    string          `json:"program"`
	Created    trace.Timestamp `json:"created"`
	Terminated trace.Timestamp `json:"terminated"`
	UserTime   trace.Duration  `json:"userTime"`
	KernelTime trace.Duration  `json:"kernelTime"`
	ReadyTime  trace.Duration  `json:"readyTime"`
	WaitTime   trace.Duration  `json:"waitTime"`
	Intervals  int             `json:"intervals"`
}

// Summaries computes a summary for every process in the profile, ordered by
// PID.
func (p *Profile) Summaries() []*ProcessSummary {
	var out []*ProcessSummary
	for _, pid := range p.PIDs() {
		s := &ProcessSummary{
			PID:        pid,
			Program:    p.Name(pid),
			Terminated: trace.Unknown,
		}
		ivs := p.IntervalsFor(pid)
		if len(ivs) > 0 {
			s.Created = ivs[0].Start
		}
		for _, iv := range ivs {
			s.Intervals++
			if iv.Open() {
				s.Terminated = iv.Start
				continue
			}
			d := iv.Duration()
			switch iv.State {
			case trace.RunningState:
				if iv.Mode == trace.UserMode {
					s.UserTime += d
				} else {
					s.KernelTime += d
				}
			case trace.ReadyState:
				s.ReadyTime += d
			case trace.WaitingState:
				s.WaitTime += d
			}
		}
		out = append(out, s)
	}
	return out
}
