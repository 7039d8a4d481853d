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
	"github.com/hashicorp/golang-lru/simplelru"
)

// defaultCacheSize bounds the number of parsed programs kept open at once.
const defaultCacheSize = 64

// Loader loads program files, keeping an LRU cache of parsed programs so
// that a workload admitting the same program many times parses it once.
// Cached programs are shared; they are immutable by contract.
type Loader struct {
	cache *simplelru.LRU
	// parses counts cache misses, exposed through Parses.
	parses int
}

// NewLoader creates a Loader with a cache of the given size.  A
// non-positive size selects the default.
func NewLoader(cacheSize int) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	lru, err := simplelru.NewLRU(cacheSize, nil)
	if err != nil {
		return nil, err
	}
	return &Loader{cache: lru}, nil
}

// Load returns the parsed program at path, from cache if present.
func (l *Loader) Load(path string) (*Program, error) {
	if cached, ok := l.cache.Get(path); ok {
		return cached.(*Program), nil
	}
	p, err := LoadProgram(path)
	if err != nil {
		return nil, err
	}
	l.parses++
	l.cache.Add(path, p)
	return p, nil
}

// Parses reports how many programs have been parsed from disk, i.e. cache
// misses.
func (l *Loader) Parses() int {
	return l.parses
}
