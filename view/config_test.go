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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestConfigFromMap(t *testing.T) {
	doc := `
template:
  views: ./views
  layout: ./layouts
site:
  title: Example
  links:
    - name: home
      href: /
`
	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m), "failed to unmarshal yaml")

	c := ConfigFromMap(m)

	v, ok := c.Lookup("template.views")
	assert.True(t, ok)
	assert.Equal(t, "./views", v)

	v, ok = c.Lookup("site:title")
	assert.True(t, ok)
	assert.Equal(t, "Example", v)

	links, ok := c.Lookup("site.links")
	require.True(t, ok)
	require.Len(t, links, 1)
	assert.Equal(t, map[string]interface{}{"name": "home", "href": "/"}, links.([]interface{})[0])
}

func TestConfigLookup(t *testing.T) {
	c := Config{
		"a": map[string]interface{}{
			"b": map[string]interface{}{
				"c": 1,
			},
			"leaf": "x",
		},
		"nil": nil,
	}

	tests := map[string]struct {
		Path  string
		Value interface{}
		Found bool
	}{
		"deep":          {"a.b.c", 1, true},
		"colon":         {"a:leaf", "x", true},
		"mixed":         {"a:b.c", 1, true},
		"section":       {"a.b", map[string]interface{}{"c": 1}, true},
		"nilValue":      {"nil", nil, true},
		"missing":       {"a.missing", nil, false},
		"missingRoot":   {"missing", nil, false},
		"throughLeaf":   {"a.leaf.x", nil, false},
		"empty":         {"", nil, false},
		"onlySeparator": {".", nil, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := c.Lookup(test.Path)
			assert.Equal(t, test.Found, ok)
			assert.Equal(t, test.Value, v)
		})
	}
}

func TestConfigSet(t *testing.T) {
	c := Config{
		"a": map[string]interface{}{"leaf": "x"},
	}

	c.Set("a.new", 1)
	c.Set("b:c", 2)
	c.Set("a.leaf.deep", 3)
	c.Set("top", 4)
	c.Set("", 5)

	assert.Equal(t, Config{
		"a": map[string]interface{}{
			"new":  1,
			"leaf": map[string]interface{}{"deep": 3},
		},
		"b":   map[string]interface{}{"c": 2},
		"top": 4,
	}, c)
}

func TestConfigDelete(t *testing.T) {
	c := Config{
		"a": map[string]interface{}{"b": 1, "c": 2},
	}

	assert.True(t, c.Delete("a.b"))
	assert.False(t, c.Delete("a.b"))
	assert.False(t, c.Delete("x.y"))
	assert.False(t, c.Delete(""))
	assert.Equal(t, Config{"a": map[string]interface{}{"c": 2}}, c)
}

func TestConfigClone(t *testing.T) {
	c := Config{
		"a": map[string]interface{}{"b": 1},
	}

	clone := c.Clone()
	clone.Set("a.b", 2)
	clone.Set("z", 3)

	v, _ := c.Lookup("a.b")
	assert.Equal(t, 1, v)
	assert.False(t, c.Delete("z"))

	assert.NotNil(t, Config(nil).Clone())
}
