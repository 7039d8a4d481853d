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
)

func TestClockAccounting(t *testing.T) {
	c := NewClock(1, 3)
	c.LogSyscall()
	c.AdvanceUser(10)
	c.LogContextSwitch()
	c.AdvanceSystem(5)
	c.LogInterrupt()
	if got := c.UserTime(); got != 10 {
		t.Errorf("got user time %d, want 10", got)
	}
	// 1 syscall + 10 user + 3 switch + 5 idle + 1 interrupt.
	if got := c.SystemTime(); got != 20 {
		t.Errorf("got system time %d, want 20", got)
	}
	if c.SyscallCount() != 1 || c.ContextSwitchCount() != 1 || c.InterruptCount() != 1 {
		t.Errorf("got counts (%d, %d, %d), want (1, 1, 1)",
			c.SyscallCount(), c.ContextSwitchCount(), c.InterruptCount())
	}
	if got, want := c.Utilisation(), 0.5; got != want {
		t.Errorf("got utilisation %f, want %f", got, want)
	}
}

// The event axis never moves backward, even when an event fires late.
func TestClockAdvanceToClamps(t *testing.T) {
	c := NewClock(0, 0)
	c.AdvanceTo(10)
	c.AdvanceTo(4)
	if got := c.Now(); got != 10 {
		t.Errorf("got now %d, want 10", got)
	}
}

func TestClockUtilisationOfEmptyRun(t *testing.T) {
	c := NewClock(1, 3)
	if got := c.Utilisation(); got != 0 {
		t.Errorf("got utilisation %f for an empty run, want 0", got)
	}
}
