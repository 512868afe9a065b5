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
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cast"
)

var (
	sanitizePolicyOnce sync.Once
	sanitizePolicy     *bluemonday.Policy
)

// Escape converts value to text and escapes the HTML special characters
// &, <, >, ", and '. Invalid UTF-8 sequences are replaced with U+FFFD.
func Escape(value interface{}) string {
	return html.EscapeString(toText(value))
}

// Sanitize converts value to text and removes markup that is not safe for
// user-generated content, keeping basic formatting elements.
func Sanitize(value interface{}) string {
	sanitizePolicyOnce.Do(func() {
		sanitizePolicy = bluemonday.UGCPolicy()
	})
	return sanitizePolicy.Sanitize(toText(value))
}

func toText(value interface{}) string {
	s, err := cast.ToStringE(value)
	if err != nil {
		s = fmt.Sprint(value)
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}
