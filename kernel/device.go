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

// Device is one I/O device.  Requests are serviced strictly FIFO: a request
// arriving while the device is busy starts when the previous one finishes,
// with no idle gap in between.
type Device struct {
	id   trace.DeviceID
	name string
	// freeTime is the earliest time at which a newly-arrived request
	// would start service.
	freeTime trace.Timestamp
	inflight []trace.PID
}

func newDevice(id trace.DeviceID, name string) *Device {
	return &Device{id: id, name: name}
}

// ID returns the device identifier.
func (d *Device) ID() trace.DeviceID { return d.id }

// Name returns the device's display name.
func (d *Device) Name() string { return d.name }

// Pending returns the number of in-flight requests.
func (d *Device) Pending() int { return len(d.inflight) }

// requestIO enqueues an I/O request for pid and schedules its WakeUp at the
// time the device will have served it.  Returns the completion time.
func (d *Device) requestIO(q *eventQueue, duration trace.Duration, pid trace.PID, now trace.Timestamp) trace.Timestamp {
	if d.freeTime <= now {
		d.freeTime = now + trace.Timestamp(duration)
	} else {
		d.freeTime += trace.Timestamp(duration)
	}
	d.inflight = append(d.inflight, pid)
	q.schedule(&event{
		time:   d.freeTime,
		kind:   wakeUpEvent,
		pid:    pid,
		device: d.id,
	})
	return d.freeTime
}

// complete removes pid from the head of the in-flight queue.  Service is
// FIFO, so a WakeUp firing for any other PID means the device queue and the
// event queue disagree.
func (d *Device) complete(pid trace.PID) error {
	if len(d.inflight) == 0 {
		return status.Errorf(codes.Internal, "device %d (%s): wakeup for %s with no requests in flight", d.id, d.name, pid)
	}
	if d.inflight[0] != pid {
		return status.Errorf(codes.Internal, "device %d (%s): wakeup for %s but head of queue is %s", d.id, d.name, pid, d.inflight[0])
	}
	d.inflight = d.inflight[1:]
	return nil
}
