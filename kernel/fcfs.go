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

// fcfsPolicy runs processes to completion in arrival order.  No
// preemption, no timeslicing.
type fcfsPolicy struct {
	fifoQueue
}

func (p *fcfsPolicy) Name() string { return "FCFS" }

func (p *fcfsPolicy) Admit(proc *Process) { p.push(proc) }

func (p *fcfsPolicy) Dispatchable() *Process { return p.pop() }

func (p *fcfsPolicy) ReadyLen() int { return p.len() }

func (p *fcfsPolicy) Preempts(arriving, running *Process) bool { return false }

func (p *fcfsPolicy) Slice() trace.Duration { return 0 }
