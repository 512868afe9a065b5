// Copyright 2024 Palantir Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package view

import (
	"bytes"
)

// captureStack collects output into nested buffers. Writes always go to the
// most recently opened buffer.
type captureStack struct {
	bufs []*bytes.Buffer
}

func (s *captureStack) Write(p []byte) (int, error) {
	if len(s.bufs) == 0 {
		// writes outside any scope are dropped; render always opens one first
		return len(p), nil
	}
	return s.bufs[len(s.bufs)-1].Write(p)
}

func (s *captureStack) push() {
	s.bufs = append(s.bufs, new(bytes.Buffer))
}

func (s *captureStack) pop() string {
	if len(s.bufs) == 0 {
		return ""
	}
	top := s.bufs[len(s.bufs)-1]
	s.bufs = s.bufs[:len(s.bufs)-1]
	return top.String()
}

func (s *captureStack) depth() int {
	return len(s.bufs)
}

// discard drops every open buffer without emitting it.
func (s *captureStack) discard() {
	s.bufs = nil
}
