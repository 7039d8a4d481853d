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
// Package profile records per-process execution history: for every process,
// an append-only sequence of (state, mode, start, end) intervals suitable
// for offline analysis such as Gantt charts and CPU utilisation.  The
// recorder is driven by the kernel's state and mode change notifications;
// rendering (CSV) and windowed queries (SpanSet) read the finished record.
package profile

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// stringID identifies a unique string in a string bank.
type stringID int

// stringBank compacts a set of often-repeated strings, such as program
// names shared by many processes, by giving each unique string a unique
// identifier number.  The simulation is single-threaded, so the bank does
// no locking.
type stringBank struct {
	strings   []string
	stringIDs map[string]stringID
}

func newStringBank() *stringBank {
	return &stringBank{
		stringIDs: make(map[string]stringID),
	}
}

// stringByID returns the string stored in the bank at the provided index,
// or an error if not present.
func (sb *stringBank) stringByID(id stringID) (string, error) {
	if id < 0 || id >= stringID(len(sb.strings)) {
		return "", status.Errorf(codes.NotFound, "string %d not found", id)
	}
	return sb.strings[id], nil
}

// stringIDByString returns the index into the bank for the supplied string,
// adding it to the bank if necessary.
func (sb *stringBank) stringIDByString(str string) stringID {
	if id, ok := sb.stringIDs[str]; ok {
		return id
	}
	id := stringID(len(sb.strings))
	sb.strings = append(sb.strings, str)
	sb.stringIDs[str] = id
	return id
}
