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
	"io"
	"text/template"

	"github.com/bluekeyes/templatetree"
	"github.com/pkg/errors"
)

// Executor parses and runs a template source, writing output to w. The
// functions in funcs must be available to the template and are bound to a
// single render.
type Executor interface {
	Execute(w io.Writer, src Source, data interface{}, funcs template.FuncMap) error
}

// TextExecutor executes templates with text/template. Output is not escaped;
// templates call escape explicitly.
type TextExecutor struct{}

func (TextExecutor) Execute(w io.Writer, src Source, data interface{}, funcs template.FuncMap) error {
	factory := func(name string) templatetree.Template[*template.Template] {
		return template.New(name).Funcs(funcs)
	}

	tree, err := templatetree.ParseFiles[*template.Template](src.Files, factory)
	if err != nil {
		return errors.Wrapf(err, "failed to parse template %s", src.Name)
	}
	return tree.ExecuteTemplate(w, src.Name, data)
}
