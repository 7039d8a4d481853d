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
	"fmt"
	"io"

	"github.com/google/schedsim/trace"
)

// csvHeader matches the per-interval line layout below.
const csvHeader = "PID, STATE, MODE, START, END, PROGRAM"

// WriteCSV renders the profile, one line per interval:
//
//	PID, STATE, MODE, START, END, PROGRAM
//
// MODE is N/A except for RUNNING intervals; END is '-' for the open-ended
// terminal interval; PID is zero-padded to width 3 and times to width 10.
func (p *Profile) WriteCSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return err
	}
	for _, pid := range p.PIDs() {
		name := p.Name(pid)
		for _, iv := range p.IntervalsFor(pid) {
			mode := "N/A"
			if iv.State == trace.RunningState {
				mode = iv.Mode.String()
			}
			end := "-"
			if !iv.Open() {
				end = fmt.Sprintf("%010d", iv.End)
			}
			_, err := fmt.Fprintf(w, "%03d, %s, %s, %010d, %s, %s\n",
				int(iv.PID), iv.State, mode, iv.Start, end, name)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
