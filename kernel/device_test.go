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
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Back-to-back requests are serviced FIFO with no idle gap: the second
// completion lands a full service time after the first, regardless of when
// it arrived.
func TestDeviceServicesFIFO(t *testing.T) {
	q := newEventQueue()
	d := newDevice(1, "disk")
	if got := d.requestIO(q, 5, 1, 3); got != 8 {
		t.Errorf("first request: got completion %d, want 8", got)
	}
	// Arrives at 5, while the first request is still in service.
	if got := d.requestIO(q, 5, 2, 5); got != 13 {
		t.Errorf("second request: got completion %d, want 13 (8 + 5)", got)
	}
	if got := d.Pending(); got != 2 {
		t.Errorf("got %d in flight, want 2", got)
	}
	if err := d.complete(1); err != nil {
		t.Fatalf("complete(1) failed: %s", err)
	}
	if err := d.complete(2); err != nil {
		t.Fatalf("complete(2) failed: %s", err)
	}
	if got := d.Pending(); got != 0 {
		t.Errorf("got %d in flight after completion, want 0", got)
	}
}

// A request arriving after the device went idle starts service immediately.
func TestDeviceIdleRestartsService(t *testing.T) {
	q := newEventQueue()
	d := newDevice(1, "disk")
	d.requestIO(q, 5, 1, 0)
	if err := d.complete(1); err != nil {
		t.Fatalf("complete failed: %s", err)
	}
	if got := d.requestIO(q, 2, 2, 20); got != 22 {
		t.Errorf("got completion %d, want 22 (no backlog)", got)
	}
}

// Completions must match the FIFO head; anything else means the device and
// event queues disagree.
func TestDeviceCompleteOutOfOrder(t *testing.T) {
	q := newEventQueue()
	d := newDevice(1, "disk")
	d.requestIO(q, 5, 1, 0)
	d.requestIO(q, 5, 2, 0)
	err := d.complete(2)
	if err == nil {
		t.Fatal("complete(2) succeeded with 1 at the head, want error")
	}
	if got := status.Code(err); got != codes.Internal {
		t.Errorf("got error code %s, want %s", got, codes.Internal)
	}
}

func TestDeviceCompleteEmpty(t *testing.T) {
	d := newDevice(1, "disk")
	if err := d.complete(1); err == nil {
		t.Fatal("complete on an empty device succeeded, want error")
	}
}
