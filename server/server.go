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
// Package server serves a finished simulation run over HTTP, for browsing
// results and feeding offline analysis: the summary, the per-process
// interval log, the profile CSV, and windowed utilisation queries.  The
// server is read-only over an immutable result, so concurrent requests
// need no locking.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/golang/glog"
	"github.com/gorilla/mux"

	"github.com/google/schedsim/kernel"
	"github.com/google/schedsim/profile"
	"github.com/google/schedsim/trace"
)

const err500 = "Internal Server Error"

// Result is one finished run: its summary and its profile.
type Result struct {
	Summary *kernel.Summary
	Profile *profile.Profile
}

// Server exposes a Result over HTTP.
type Server struct {
	result *Result
	spans  *profile.SpanSet
	router *mux.Router
}

var handle = func(r *mux.Router, path string, handler http.HandlerFunc) {
	r.HandleFunc(path, handler)
}

// New builds a Server for the given result.
func New(result *Result) *Server {
	s := &Server{
		result: result,
		spans:  profile.NewSpanSet(result.Profile),
		router: mux.NewRouter(),
	}
	handle(s.router, "/summary", s.handleSummary)
	handle(s.router, "/intervals", s.handleIntervals)
	handle(s.router, "/processes", s.handleProcesses)
	handle(s.router, "/profile.csv", s.handleCSV)
	handle(s.router, "/utilisation", s.handleUtilisation)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// Serve blocks, serving the result on addr.
func (s *Server) Serve(addr string) error {
	log.Infof("serving run %s on %s", s.result.Summary.RunID, addr)
	return http.ListenAndServe(addr, s)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, s.result.Summary)
}

func (s *Server) handleProcesses(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, s.result.Profile.Summaries())
}

// intervalJSON flattens a profile interval for rendering.  End is null for
// the open-ended terminal interval.
type intervalJSON struct {
	PID     trace.PID        `json:"pid"`
	Program string           `json:"program"`
	State   string           `json:"state"`
	Mode    string           `json:"mode"`
	Start   trace.Timestamp  `json:"start"`
	End     *trace.Timestamp `json:"end"`
}

func (s *Server) handleIntervals(w http.ResponseWriter, req *http.Request) {
	ivs := s.result.Profile.Intervals()
	if pidArg := req.URL.Query().Get("pid"); pidArg != "" {
		pid, err := strconv.Atoi(pidArg)
		if err != nil {
			http.Error(w, fmt.Sprintf("bad pid %q", pidArg), http.StatusBadRequest)
			return
		}
		ivs = s.result.Profile.IntervalsFor(trace.PID(pid))
	}
	out := make([]intervalJSON, 0, len(ivs))
	for _, iv := range ivs {
		j := intervalJSON{
			PID:     iv.PID,
			Program: s.result.Profile.Name(iv.PID),
			State:   iv.State.String(),
			Start:   iv.Start,
		}
		if iv.State == trace.RunningState {
			j.Mode = iv.Mode.String()
		} else {
			j.Mode = "N/A"
		}
		if !iv.Open() {
			end := iv.End
			j.End = &end
		}
		out = append(out, j)
	}
	writeJSON(w, out)
}

func (s *Server) handleCSV(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "text/csv")
	if err := s.result.Profile.WriteCSV(w); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
	}
}

func (s *Server) handleUtilisation(w http.ResponseWriter, req *http.Request) {
	start := trace.Timestamp(0)
	end := s.spans.End()
	var err error
	if arg := req.URL.Query().Get("start"); arg != "" {
		if start, err = parseTimestamp(arg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if arg := req.URL.Query().Get("end"); arg != "" {
		if end, err = parseTimestamp(arg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if end < start {
		http.Error(w, fmt.Sprintf("window [%d, %d] is inverted", start, end), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{
		"start":       start,
		"end":         end,
		"utilisation": s.spans.UtilisationIn(start, end),
	})
}

func parseTimestamp(arg string) (trace.Timestamp, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad timestamp %q", arg)
	}
	return trace.Timestamp(n), nil
}
