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
// Package workload parses the external inputs of the simulator: workload
// configuration files, which declare devices and schedule program
// admissions, and program files, which describe a process as an alternating
// sequence of CPU and I/O bursts.  Parsed programs are immutable and may be
// shared between processes.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/trace"
)

// BurstKind discriminates the two burst variants.
type BurstKind int8

const (
	// CPUBurst is a span of user-mode execution.
	CPUBurst BurstKind = iota
	// IOBurst is a request for service on a device.
	IOBurst
)

func (bk BurstKind) String() string {
	if bk == IOBurst {
		return "IO"
	}
	return "CPU"
}

// Burst is one contiguous CPU or IO operation within a program.  Device is
// only meaningful for IO bursts.
type Burst struct {
	Kind     BurstKind
	Duration trace.Duration
	Device   trace.DeviceID
}

func (b Burst) String() string {
	if b.Kind == IOBurst {
		return fmt.Sprintf("IO %d on device %d", b.Duration, b.Device)
	}
	return fmt.Sprintf("CPU %d", b.Duration)
}

// Program is an ordered burst sequence loaded from a program file.  A valid
// program is non-empty, strictly alternates CPU and IO bursts, and both
// begins and ends with a CPU burst: the lifecycle state machine only
// terminates a process after a CPU burst.
type Program struct {
	// Name identifies the program, typically the base name of its file.
	Name string
	// Bursts is the program body.  Callers must not mutate it.
	Bursts []Burst
}

// ParseProgram reads a program description from r.  Lines are
// whitespace-separated tokens; blank lines and lines starting with '#' are
// ignored.  Recognized directives:
//
//	CPU <duration>
//	IO <duration> <deviceID>
//
// Any other directive, a malformed field, a non-positive duration, or a
// sequence violating the alternation rule is a configuration error.
func ParseProgram(name string, r io.Reader) (*Program, error) {
	p := &Program{Name: name}
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields, ok := contentFields(scanner.Text())
		if !ok {
			continue
		}
		switch fields[0] {
		case "CPU":
			if len(fields) != 2 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: CPU wants 1 argument, got %d", name, lineno, len(fields)-1)
			}
			d, err := parseDuration(name, lineno, fields[1])
			if err != nil {
				return nil, err
			}
			p.Bursts = append(p.Bursts, Burst{Kind: CPUBurst, Duration: d})
		case "IO":
			if len(fields) != 3 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: IO wants 2 arguments, got %d", name, lineno, len(fields)-1)
			}
			d, err := parseDuration(name, lineno, fields[1])
			if err != nil {
				return nil, err
			}
			dev, err := strconv.Atoi(fields[2])
			if err != nil || dev < 0 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: bad device ID %q", name, lineno, fields[2])
			}
			p.Bursts = append(p.Bursts, Burst{Kind: IOBurst, Duration: d, Device: trace.DeviceID(dev)})
		default:
			return nil, status.Errorf(codes.InvalidArgument, "%s:%d: unknown directive %q", name, lineno, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, status.Errorf(codes.NotFound, "reading program %s: %v", name, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadProgram parses the program file at path.  The program's name is the
// path's base name.
func LoadProgram(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "program file %s: %v", path, err)
	}
	defer f.Close()
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	return ParseProgram(name, f)
}

func (p *Program) validate() error {
	if len(p.Bursts) == 0 {
		return status.Errorf(codes.InvalidArgument, "program %s has no bursts", p.Name)
	}
	for i, b := range p.Bursts {
		want := CPUBurst
		if i%2 == 1 {
			want = IOBurst
		}
		if b.Kind != want {
			return status.Errorf(codes.InvalidArgument, "program %s: burst %d is %s, want %s (programs alternate starting with CPU)", p.Name, i, b.Kind, want)
		}
	}
	if p.Bursts[len(p.Bursts)-1].Kind != CPUBurst {
		return status.Errorf(codes.InvalidArgument, "program %s ends with an IO burst", p.Name)
	}
	return nil
}

func parseDuration(name string, lineno int, field string) (trace.Duration, error) {
	d, err := strconv.ParseInt(field, 10, 64)
	if err != nil || d <= 0 {
		return 0, status.Errorf(codes.InvalidArgument, "%s:%d: bad duration %q (want a positive integer)", name, lineno, field)
	}
	return trace.Duration(d), nil
}

// contentFields splits a line into fields, reporting false for blank and
// comment lines.
func contentFields(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}
	return strings.Fields(trimmed), true
}
