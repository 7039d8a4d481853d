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
	"github.com/google/schedsim/trace"
)

// rrPolicy is Round-Robin: a FIFO ready queue plus a timeslice.  Every
// entry into RUNNING receives a fresh slice; a process whose slice expires
// while others are ready rejoins the tail.  The timeout mechanics live in
// the kernel (see Simulation.timeOut); the policy contributes the queue and
// the slice length.
type rrPolicy struct {
	fifoQueue
	slice trace.Duration
}

func (p *rrPolicy) Name() string { return "RR" }

func (p *rrPolicy) Admit(proc *Process) { p.push(proc) }

func (p *rrPolicy) Dispatchable() *Process { return p.pop() }

func (p *rrPolicy) ReadyLen() int { return p.len() }

// Preempts is false: RR displaces the running process only on timeout,
// never on arrival.
func (p *rrPolicy) Preempts(arriving, running *Process) bool { return false }

func (p *rrPolicy) Slice() trace.Duration { return p.slice }
