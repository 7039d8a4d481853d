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
package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/schedsim/kernel"
	"github.com/google/schedsim/profile"
	"github.com/google/schedsim/trace"
)

func testResult(t *testing.T) *Result {
	t.Helper()
	p := profile.New()
	if err := p.Register(1, "looper", 0); err != nil {
		t.Fatalf("Register failed: %s", err)
	}
	p.OnStateChange(1, trace.RunningState, 2)
	p.OnModeChange(1, trace.UserMode, 2)
	p.OnModeChange(1, trace.SupervisorMode, 12)
	p.OnStateChange(1, trace.TerminatedState, 13)
	return &Result{
		Summary: &kernel.Summary{
			RunID:       "test-run",
			Policy:      "FCFS",
			SystemTime:  13,
			UserTime:    10,
			Utilisation: 10.0 / 13.0,
		},
		Profile: p,
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestSummaryEndpoint(t *testing.T) {
	s := New(testResult(t))
	rec := get(t, s, "/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	var summary kernel.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding summary failed: %s", err)
	}
	if summary.RunID != "test-run" || summary.UserTime != 10 {
		t.Errorf("got summary %+v, want run test-run with user time 10", summary)
	}
}

func TestIntervalsEndpoint(t *testing.T) {
	s := New(testResult(t))
	rec := get(t, s, "/intervals?pid=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	var ivs []intervalJSON
	if err := json.NewDecoder(rec.Body).Decode(&ivs); err != nil {
		t.Fatalf("decoding intervals failed: %s", err)
	}
	if len(ivs) != 4 {
		t.Fatalf("got %d intervals, want 4", len(ivs))
	}
	last := ivs[len(ivs)-1]
	if last.State != "TERMINATED" || last.End != nil || last.Mode != "N/A" {
		t.Errorf("got terminal interval %+v, want open-ended TERMINATED with mode N/A", last)
	}
}

func TestIntervalsEndpointBadPID(t *testing.T) {
	s := New(testResult(t))
	if rec := get(t, s, "/intervals?pid=x"); rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCSVEndpoint(t *testing.T) {
	s := New(testResult(t))
	rec := get(t, s, "/profile.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "PID, STATE, MODE, START, END, PROGRAM\n") {
		t.Errorf("CSV missing header, got:\n%s", body)
	}
	if !strings.Contains(body, "001, RUNNING, USER, 0000000002, 0000000012, looper") {
		t.Errorf("CSV missing the user interval, got:\n%s", body)
	}
}

func TestUtilisationEndpoint(t *testing.T) {
	s := New(testResult(t))
	rec := get(t, s, "/utilisation?start=2&end=12")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Start       trace.Timestamp `json:"start"`
		End         trace.Timestamp `json:"end"`
		Utilisation float64         `json:"utilisation"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding utilisation failed: %s", err)
	}
	if resp.Utilisation != 1.0 {
		t.Errorf("got utilisation %f over the user span, want 1.0", resp.Utilisation)
	}
	if rec := get(t, s, "/utilisation?start=9&end=2"); rec.Code != http.StatusBadRequest {
		t.Errorf("inverted window: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
