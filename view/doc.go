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

// Package view renders text templates with optional layouts and named
// blocks.
//
// A view is a template in the configured views directory. While it runs, a
// view may open and close named blocks and select a layout:
//
//	{{ extend "main" }}
//	{{ startblock "title" }}Home{{ endblock "title" }}
//	<p>Hello, {{ escape .name }}</p>
//
// After the view finishes, the layout runs with the same variables. The view
// output is available as the "body" block:
//
//	<title>{{ content "title" }}</title>
//	<main>{{ content "body" }}</main>
//
// Output is never escaped automatically. Templates call escape on untrusted
// values.
package view
