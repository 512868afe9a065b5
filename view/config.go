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
	"strings"
)

// Config is a nested configuration tree. Sections are maps and leaves are
// arbitrary values. Paths address nested keys with either '.' or ':' as the
// separator, so "template.views" and "template:views" are equivalent.
type Config map[string]interface{}

// ConfigFromMap converts a decoded document into a Config. Nested maps with
// non-string keys, as produced by gopkg.in/yaml.v2, are converted to
// string-keyed maps.
func ConfigFromMap(m map[string]interface{}) Config {
	c := make(Config, len(m))
	for k, v := range m {
		c[k] = normalize(v)
	}
	return c
}

// Lookup returns the value at path. The second return value is false if any
// segment of the path does not exist.
func (c Config) Lookup(path string) (interface{}, bool) {
	keys := splitPath(path)
	if len(keys) == 0 {
		return nil, false
	}

	var cur interface{} = map[string]interface{}(c)
	for _, k := range keys {
		section, ok := asSection(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = section[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at path, creating intermediate sections as needed. An
// existing non-section value in the middle of the path is replaced.
func (c Config) Set(path string, value interface{}) {
	keys := splitPath(path)
	if len(keys) == 0 {
		return
	}

	section := map[string]interface{}(c)
	for _, k := range keys[:len(keys)-1] {
		next, ok := asSection(section[k])
		if !ok {
			next = make(map[string]interface{})
			section[k] = next
		}
		section = next
	}
	section[keys[len(keys)-1]] = normalize(value)
}

// Delete removes the value at path and reports whether it existed.
func (c Config) Delete(path string) bool {
	keys := splitPath(path)
	if len(keys) == 0 {
		return false
	}

	section := map[string]interface{}(c)
	for _, k := range keys[:len(keys)-1] {
		next, ok := asSection(section[k])
		if !ok {
			return false
		}
		section = next
	}

	last := keys[len(keys)-1]
	if _, ok := section[last]; !ok {
		return false
	}
	delete(section, last)
	return true
}

// Clone returns a deep copy of the section structure. Leaf values are
// shared.
func (c Config) Clone() Config {
	if c == nil {
		return make(Config)
	}
	return Config(cloneSection(c))
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == ':'
	})
}

func asSection(v interface{}) (map[string]interface{}, bool) {
	switch s := v.(type) {
	case map[string]interface{}:
		return s, true
	case Config:
		return s, true
	}
	return nil, false
}

func cloneSection(s map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(s))
	for k, v := range s {
		if sub, ok := asSection(v); ok {
			out[k] = cloneSection(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case Config:
		return map[string]interface{}(ConfigFromMap(v))
	case map[string]interface{}:
		return map[string]interface{}(ConfigFromMap(v))
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, sub := range v {
			m[fmt.Sprint(k)] = normalize(sub)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, sub := range v {
			out[i] = normalize(sub)
		}
		return out
	}
	return v
}
