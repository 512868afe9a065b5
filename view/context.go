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
	"text/template"

	"github.com/pkg/errors"
)

const (
	// BodyBlock is the block that holds the rendered view inside a layout.
	BodyBlock = "body"

	// KeySession is the reserved key that resolves to the session handle.
	KeySession = "session"
)

// reservedVars are template data keys bound by the renderer. Caller
// variables with these names are skipped.
var reservedVars = []string{"view", "app"}

// RenderContext is the state of a single call to Render: the capture stack,
// the blocks defined so far, the open block and the selected layout. It is
// bound into template data as "view" and "app".
type RenderContext struct {
	v      *View
	data   map[string]interface{}
	stack  captureStack
	blocks map[string]string

	active   string
	layout   string
	inLayout bool
}

func newRenderContext(v *View, vars map[string]interface{}) (*RenderContext, []string) {
	rc := &RenderContext{
		v:      v,
		data:   make(map[string]interface{}, len(vars)+len(reservedVars)),
		blocks: make(map[string]string),
		layout: v.layout,
	}
	for _, k := range reservedVars {
		rc.data[k] = rc
	}

	var skipped []string
	bind := func(k string, val interface{}) {
		if isReservedVar(k) {
			skipped = append(skipped, k)
			return
		}
		rc.data[k] = val
	}
	for k, val := range v.shared {
		bind(k, val)
	}
	for k, val := range vars {
		bind(k, val)
	}
	return rc, skipped
}

func isReservedVar(name string) bool {
	for _, k := range reservedVars {
		if k == name {
			return true
		}
	}
	return false
}

// Write appends p to the innermost open capture scope.
func (rc *RenderContext) Write(p []byte) (int, error) {
	return rc.stack.Write(p)
}

// Block opens a capture scope for the named block. Blocks do not nest.
func (rc *RenderContext) Block(name string) error {
	if rc.active != "" {
		return &BlockStateError{Open: rc.active, Name: name, Reason: "cannot open a block while another block is open"}
	}
	if name == "" {
		return &BlockStateError{Reason: "block name must not be empty"}
	}

	rc.active = name
	rc.stack.push()
	return nil
}

// EndBlock closes the open block and stores its output. If name is not
// empty, it must match the open block.
func (rc *RenderContext) EndBlock(name string) error {
	if rc.active == "" {
		return &BlockStateError{Name: name, Reason: "no block is open"}
	}
	if name != "" && name != rc.active {
		return &BlockStateError{Open: rc.active, Name: name, Reason: "mismatched block name"}
	}

	rc.blocks[rc.active] = rc.stack.pop()
	rc.active = ""
	return nil
}

// Content returns the output stored for the named block, or an empty string
// if the block was never defined.
func (rc *RenderContext) Content(name string) string {
	return rc.blocks[name]
}

// HasBlock reports whether the named block was defined.
func (rc *RenderContext) HasBlock(name string) bool {
	_, ok := rc.blocks[name]
	return ok
}

// Extend selects the layout that wraps the view. The layout is resolved
// only after the view finishes.
func (rc *RenderContext) Extend(layout string) error {
	if rc.inLayout {
		return errors.Errorf("cannot extend %q from inside layout %q", layout, rc.layout)
	}
	rc.layout = layout
	return nil
}

// Layout returns the selected layout, if any.
func (rc *RenderContext) Layout() string {
	return rc.layout
}

// Config returns the whole configuration tree when called without a path,
// or the value at path. Missing paths return nil.
func (rc *RenderContext) Config(path ...string) interface{} {
	if len(path) == 0 {
		return rc.v.Config()
	}
	v, _ := rc.v.Get(path[0])
	return v
}

func (rc *RenderContext) Session() interface{} {
	return rc.v.session
}

func (rc *RenderContext) Escape(value interface{}) string {
	return Escape(value)
}

func (rc *RenderContext) funcs() template.FuncMap {
	fm := template.FuncMap{
		"startblock": func(name string) (string, error) {
			return "", rc.Block(name)
		},
		"endblock": func(name ...string) (string, error) {
			var n string
			if len(name) > 0 {
				n = name[0]
			}
			return "", rc.EndBlock(n)
		},
		"content":  rc.Content,
		"hasblock": rc.HasBlock,
		"extend": func(layout string) (string, error) {
			return "", rc.Extend(layout)
		},
		"config": rc.Config,
		"get": func(path string) interface{} {
			v, _ := rc.v.Get(path)
			return v
		},
		"set": func(path string, value interface{}) (string, error) {
			return "", rc.v.Set(path, value)
		},
		"has":      rc.v.Has,
		"session":  rc.Session,
		"escape":   Escape,
		"sanitize": Sanitize,
	}
	for name, fn := range rc.v.funcs {
		if _, exists := fm[name]; !exists {
			fm[name] = fn
		}
	}
	return fm
}

// execute runs one template inside a fresh capture scope and returns its
// output. A block left open at the end of the template is an error.
func (rc *RenderContext) execute(src Source) (string, error) {
	rc.stack.push()
	base := rc.stack.depth()

	if err := rc.v.executor.Execute(&rc.stack, src, rc.data, rc.funcs()); err != nil {
		return "", err
	}
	if rc.active != "" {
		return "", &BlockStateError{Open: rc.active, Reason: "block was not closed before the end of " + src.Name}
	}
	if rc.stack.depth() != base {
		return "", errors.Errorf("unbalanced capture scopes after executing %s", src.Name)
	}
	return rc.stack.pop(), nil
}

// discard drops all captured output and open block state.
func (rc *RenderContext) discard() {
	rc.stack.discard()
	rc.active = ""
}
