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
	"context"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/palantir/view-server/metrics"
)

// Store is mapping-style access to configuration values with one reserved,
// read-only key for the session handle.
type Store interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}) error
	Delete(key string) error
	Has(key string) bool
}

// View renders templates from the configured views directory, optionally
// wrapped in a layout from the layout directory.
//
// A View may be used for many renders, but Set, Delete, Extend and Share
// mutate it and must not be called concurrently with Render. Handlers
// typically create one View per request.
type View struct {
	config  Config
	session interface{}
	layout  string
	shared  map[string]interface{}

	executor Executor
	cache    httpcache.Cache
	funcs    template.FuncMap
}

var _ Store = &View{}

type Option func(v *View)

// WithExecutor replaces the default text/template executor.
func WithExecutor(e Executor) Option {
	return func(v *View) {
		v.executor = e
	}
}

// WithCache caches template file contents. The cache may be shared by many
// views.
func WithCache(c httpcache.Cache) Option {
	return func(v *View) {
		v.cache = c
	}
}

// WithFuncs makes additional functions available to templates. Functions
// cannot replace the built-in template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(v *View) {
		if v.funcs == nil {
			v.funcs = make(template.FuncMap)
		}
		for name, fn := range funcs {
			v.funcs[name] = fn
		}
	}
}

// New creates a View from a copy of cfg. It returns a *ConfigurationError if
// the views or layout directory is not configured or does not exist.
func New(cfg Config, session interface{}, opts ...Option) (*View, error) {
	v := &View{
		config:   cfg.Clone(),
		session:  session,
		executor: TextExecutor{},
	}
	for _, opt := range opts {
		opt(v)
	}

	if _, err := v.settings(); err != nil {
		return nil, err
	}
	return v, nil
}

// Extend sets the default layout for renders of this view. Templates may
// still select a different layout with extend.
func (v *View) Extend(layout string) *View {
	v.layout = layout
	return v
}

// Share makes value available as key in the data of every later render of
// this view and its layout. Variables passed to Render take precedence.
func (v *View) Share(key string, value interface{}) *View {
	if v.shared == nil {
		v.shared = make(map[string]interface{})
	}
	v.shared[key] = value
	return v
}

// Render executes the named view with vars and writes the result to w. If
// the view or the View selects a layout, the layout is executed after the
// view and its output is written instead; the view output is available in
// the layout as the "body" block.
//
// Nothing is written to w if rendering fails.
func (v *View) Render(ctx context.Context, w io.Writer, name string, vars map[string]interface{}) error {
	out, err := v.RenderString(ctx, name, vars)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)
	return errors.Wrap(err, "failed to write rendered view")
}

// RenderString is like Render but returns the output.
func (v *View) RenderString(ctx context.Context, name string, vars map[string]interface{}) (string, error) {
	logger := zerolog.Ctx(ctx).With().Str("view", name).Logger()
	start := time.Now()

	rc, skipped := newRenderContext(v, vars)
	if len(skipped) > 0 {
		logger.Debug().Strs("variables", skipped).Msg("Skipping variables that use reserved names")
	}

	out, err := v.render(rc, name)
	metrics.RecordRender(time.Since(start), err)
	if err != nil {
		rc.discard()
		return "", err
	}

	logger.Debug().Str("layout", rc.layout).Int("size", len(out)).Msg("Rendered view")
	return out, nil
}

func (v *View) render(rc *RenderContext, name string) (string, error) {
	s, err := v.settings()
	if err != nil {
		return "", err
	}
	l := &loader{ext: s.Extension, maxSize: s.MaxSize, cache: v.cache}

	src, err := l.Load(s.Views, name)
	if err != nil {
		if err == errNotExist {
			return "", &TemplateNotFoundError{Name: name, Dir: s.Views}
		}
		return "", err
	}

	body, err := rc.execute(src)
	if err != nil {
		return "", errors.Wrapf(err, "failed to render view %s", name)
	}
	if rc.layout == "" {
		return body, nil
	}

	rc.blocks[BodyBlock] = body
	rc.inLayout = true

	src, err = l.Load(s.Layout, rc.layout)
	if err != nil {
		if err == errNotExist {
			return "", &LayoutNotFoundError{Name: rc.layout, Dir: s.Layout}
		}
		return "", err
	}

	out, err := rc.execute(src)
	if err != nil {
		return "", errors.Wrapf(err, "failed to render layout %s", rc.layout)
	}
	return out, nil
}

func (v *View) settings() (Settings, error) {
	s, err := DecodeSettings(v.config)
	if err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Config returns the configuration tree. Changes to the returned value are
// visible to the View.
func (v *View) Config() Config {
	return v.config
}

// Get returns the configuration value at path, or the session handle for the
// reserved "session" key.
func (v *View) Get(path string) (interface{}, bool) {
	if isSessionKey(path) {
		return v.session, true
	}
	return v.config.Lookup(path)
}

// Set stores a configuration value at path. The reserved "session" key
// cannot be set.
func (v *View) Set(path string, value interface{}) error {
	if isSessionKey(path) {
		return &ImmutableKeyError{Key: KeySession}
	}
	v.config.Set(path, value)
	return nil
}

// Delete removes the configuration value at path. Deleting a missing path is
// not an error. The reserved "session" key cannot be deleted.
func (v *View) Delete(path string) error {
	if isSessionKey(path) {
		return &ImmutableKeyError{Key: KeySession}
	}
	v.config.Delete(path)
	return nil
}

func (v *View) Has(path string) bool {
	if isSessionKey(path) {
		return true
	}
	_, ok := v.config.Lookup(path)
	return ok
}

// Session returns the session handle given to New.
func (v *View) Session() interface{} {
	return v.session
}

func isSessionKey(path string) bool {
	return strings.TrimSpace(path) == KeySession
}
