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
)

// ConfigurationError is returned when the template directories are missing
// or invalid. It is fatal: a View cannot be constructed or rendered.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid view configuration: %s: %s", e.Key, e.Reason)
}

// TemplateNotFoundError is returned when a view name does not resolve to a
// file in the views directory.
type TemplateNotFoundError struct {
	Name string
	Dir  string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q does not exist in %s", e.Name, e.Dir)
}

// LayoutNotFoundError is returned when the selected layout does not resolve
// to a file in the layout directory.
type LayoutNotFoundError struct {
	Name string
	Dir  string
}

func (e *LayoutNotFoundError) Error() string {
	return fmt.Sprintf("layout %q does not exist in %s", e.Name, e.Dir)
}

// BlockStateError reports a block that was opened or closed out of order.
// It always indicates a defect in a template.
type BlockStateError struct {
	// Open is the name of the block that was open when the error occurred,
	// or empty if no block was open.
	Open string
	// Name is the block name passed to the failing call, if any.
	Name   string
	Reason string
}

func (e *BlockStateError) Error() string {
	switch {
	case e.Open != "" && e.Name != "":
		return fmt.Sprintf("block %q: %s (open block is %q)", e.Name, e.Reason, e.Open)
	case e.Open != "":
		return fmt.Sprintf("block %q: %s", e.Open, e.Reason)
	case e.Name != "":
		return fmt.Sprintf("block %q: %s", e.Name, e.Reason)
	default:
		return "block: " + e.Reason
	}
}

// ImmutableKeyError is returned when a caller tries to modify a reserved key.
type ImmutableKeyError struct {
	Key string
}

func (e *ImmutableKeyError) Error() string {
	return fmt.Sprintf("key %q is read-only", e.Key)
}
