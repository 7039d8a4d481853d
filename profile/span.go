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
	"github.com/Workiva/go-datastructures/augmentedtree"
	"github.com/google/schedsim/trace"
)

// The ID for augmentedtree.Intervals used in queries.  It's not clear from
// augmentedtree's godoc whether query IDs matter, but if they do, best to
// use a reserved one.
const queryID uint64 = 0

// LowAtDimension returns the start timestamp of the interval.  Required to
// support augmentedtree.Interval.
func (iv *Interval) LowAtDimension(d uint64) int64 {
	return int64(iv.Start)
}

// HighAtDimension returns the end timestamp of the interval.  Required to
// support augmentedtree.Interval.
func (iv *Interval) HighAtDimension(d uint64) int64 {
	return int64(iv.End)
}

// OverlapsAtDimension returns true if an interval overlaps this interval at
// the specified dimension.  Required to support augmentedtree.Interval.
func (iv *Interval) OverlapsAtDimension(j augmentedtree.Interval, d uint64) bool {
	return iv.HighAtDimension(d) >= j.LowAtDimension(d) &&
		j.HighAtDimension(d) >= iv.LowAtDimension(d)
}

// ID returns the unique identifier for this interval.  Required to support
// augmentedtree.Interval.
func (iv *Interval) ID() uint64 {
	return iv.treeID
}

// queryInterval is a throwaway interval used as a tree query argument.
type queryInterval struct {
	low, high int64
}

func (q *queryInterval) LowAtDimension(d uint64) int64  { return q.low }
func (q *queryInterval) HighAtDimension(d uint64) int64 { return q.high }
func (q *queryInterval) OverlapsAtDimension(j augmentedtree.Interval, d uint64) bool {
	return q.high >= j.LowAtDimension(d) && j.HighAtDimension(d) >= q.low
}
func (q *queryInterval) ID() uint64 { return queryID }

// SpanSet indexes a finished profile's closed intervals in an interval tree
// for windowed queries: how long a process held a state within a time
// range, or how well-utilised the CPU was over a range.
type SpanSet struct {
	tree augmentedtree.Tree
	end  trace.Timestamp
}

// NewSpanSet builds a SpanSet over all closed intervals of the profile.
func NewSpanSet(p *Profile) *SpanSet {
	ss := &SpanSet{tree: augmentedtree.New(1)}
	nextID := queryID + 1
	for _, iv := range p.Intervals() {
		if iv.Open() {
			if iv.Start > ss.end {
				ss.end = iv.Start
			}
			continue
		}
		iv.treeID = nextID
		nextID++
		ss.tree.Add(iv)
		if iv.End > ss.end {
			ss.end = iv.End
		}
	}
	return ss
}

// End returns the last timestamp covered by any interval in the set.
func (ss *SpanSet) End() trace.Timestamp {
	return ss.end
}

// query returns all closed intervals overlapping [start, end].
func (ss *SpanSet) query(start, end trace.Timestamp) []*Interval {
	found := ss.tree.Query(&queryInterval{low: int64(start), high: int64(end)})
	ivs := make([]*Interval, 0, len(found))
	for _, f := range found {
		ivs = append(ivs, f.(*Interval))
	}
	return ivs
}

// overlap returns how much of iv falls within [start, end].
func overlap(iv *Interval, start, end trace.Timestamp) trace.Duration {
	lo, hi := iv.Start, iv.End
	if lo < start {
		lo = start
	}
	if hi > end {
		hi = end
	}
	if hi <= lo {
		return 0
	}
	return trace.Duration(hi - lo)
}

// TimeInState returns how long pid held the given state within [start, end].
func (ss *SpanSet) TimeInState(pid trace.PID, state trace.ThreadState, start, end trace.Timestamp) trace.Duration {
	var total trace.Duration
	for _, iv := range ss.query(start, end) {
		if iv.PID == pid && iv.State == state {
			total += overlap(iv, start, end)
		}
	}
	return total
}

// UtilisationIn returns the fraction of [start, end] during which some
// process was executing user code.
func (ss *SpanSet) UtilisationIn(start, end trace.Timestamp) float64 {
	if end <= start {
		return 0
	}
	var busy trace.Duration
	for _, iv := range ss.query(start, end) {
		if iv.State == trace.RunningState && iv.Mode == trace.UserMode {
			busy += overlap(iv, start, end)
		}
	}
	return float64(busy) / float64(end-start)
}
