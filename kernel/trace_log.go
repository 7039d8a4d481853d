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
	log "github.com/golang/glog"
)

// Trace categories.  The trace level is a bitmask over these; level 0
// silences all trace output.
const (
	// TraceEvents logs every event delivery.
	TraceEvents = 1 << iota
	// TraceSyscalls logs syscall entry.
	TraceSyscalls
	// TraceDispatch logs context switches and dispatch decisions.
	TraceDispatch
	// TraceDevices logs device requests and completions.
	TraceDevices
	// TraceProfile is the profiler bit of the mask; no trace output is
	// gated on it, so setting it alone prints nothing.
	TraceProfile

	// TraceAll enables every category.
	TraceAll = TraceEvents | TraceSyscalls | TraceDispatch | TraceDevices | TraceProfile
)

// tracer gates trace output behind the configured bitmask, writing through
// glog.
type tracer struct {
	level int
}

func (t tracer) logf(bit int, format string, args ...interface{}) {
	if t.level&bit != 0 {
		log.Infof(format, args...)
	}
}
