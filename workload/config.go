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
package workload

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/google/schedsim/trace"
)

// DeviceDecl declares an I/O device available to the workload.
type DeviceDecl struct {
	ID   trace.DeviceID
	Name string
}

// Admission schedules one program start.  Path is absolute by the time the
// config has been parsed.
type Admission struct {
	Start    trace.Timestamp
	Priority int
	Path     string
}

// Workload is the parsed form of a configuration file: the devices to
// register and the timed list of program admissions, in file order.
type Workload struct {
	Devices    []DeviceDecl
	Admissions []Admission
}

// ParseConfig reads the workload configuration at path.  Recognized
// directives:
//
//	PROGRAM <startTime> <priority> <relative-path>
//	DEVICE <id> <name>
//
// Relative program paths are resolved against the config file's parent
// directory.  Blank lines and '#' comments are ignored; any other directive
// is a configuration error.
func ParseConfig(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "config file %s: %v", path, err)
	}
	defer f.Close()
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "config file %s: %v", path, err)
	}
	return parseConfig(path, dir, f)
}

func parseConfig(name, dir string, r io.Reader) (*Workload, error) {
	w := &Workload{}
	seenDevices := map[trace.DeviceID]bool{}
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		fields, ok := contentFields(scanner.Text())
		if !ok {
			continue
		}
		switch fields[0] {
		case "PROGRAM":
			if len(fields) != 4 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: PROGRAM wants 3 arguments, got %d", name, lineno, len(fields)-1)
			}
			start, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil || start < 0 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: bad start time %q", name, lineno, fields[1])
			}
			prio, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: bad priority %q", name, lineno, fields[2])
			}
			p := fields[3]
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			w.Admissions = append(w.Admissions, Admission{
				Start:    trace.Timestamp(start),
				Priority: prio,
				Path:     p,
			})
		case "DEVICE":
			if len(fields) != 3 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: DEVICE wants 2 arguments, got %d", name, lineno, len(fields)-1)
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil || id < 0 {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: bad device ID %q", name, lineno, fields[1])
			}
			dev := trace.DeviceID(id)
			if seenDevices[dev] {
				return nil, status.Errorf(codes.InvalidArgument, "%s:%d: device %d declared twice", name, lineno, id)
			}
			seenDevices[dev] = true
			w.Devices = append(w.Devices, DeviceDecl{ID: dev, Name: fields[2]})
		default:
			return nil, status.Errorf(codes.InvalidArgument, "%s:%d: unknown directive %q", name, lineno, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, status.Errorf(codes.NotFound, "reading config %s: %v", name, err)
	}
	return w, nil
}
