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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	root   string
	views  string
	layout string
}

func newFixture(t *testing.T, views, layouts map[string]string) *fixture {
	root := t.TempDir()
	f := &fixture{
		root:   root,
		views:  filepath.Join(root, "views"),
		layout: filepath.Join(root, "layouts"),
	}
	writeFiles(t, f.views, views)
	writeFiles(t, f.layout, layouts)
	return f
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func (f *fixture) config() Config {
	return Config{
		"template": map[string]interface{}{
			"views":  f.views,
			"layout": f.layout,
		},
	}
}

func (f *fixture) view(t *testing.T, opts ...Option) *View {
	v, err := New(f.config(), nil, opts...)
	require.NoError(t, err, "failed to create view")
	return v
}

func TestNew(t *testing.T) {
	f := newFixture(t, nil, nil)

	t.Run("valid", func(t *testing.T) {
		v, err := New(f.config(), "session")
		require.NoError(t, err)
		assert.Equal(t, "session", v.Session())
	})

	t.Run("missingSection", func(t *testing.T) {
		_, err := New(Config{"site": map[string]interface{}{"title": "x"}}, nil)

		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
		assert.Equal(t, "template", cerr.Key)
	})

	t.Run("missingViews", func(t *testing.T) {
		c := f.config()
		c.Delete("template.views")
		_, err := New(c, nil)

		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
		assert.Equal(t, "template.views", cerr.Key)
	})

	t.Run("missingLayoutDirectory", func(t *testing.T) {
		c := f.config()
		c.Set("template.layout", filepath.Join(f.root, "does-not-exist"))
		_, err := New(c, nil)

		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
		assert.Equal(t, "template.layout", cerr.Key)
	})

	t.Run("layoutIsFile", func(t *testing.T) {
		file := filepath.Join(f.root, "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		c := f.config()
		c.Set("template:layout", file)
		_, err := New(c, nil)

		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
	})

	t.Run("copiesConfig", func(t *testing.T) {
		c := f.config()
		v, err := New(c, nil)
		require.NoError(t, err)

		require.NoError(t, v.Set("template.extension", ".tpl"))
		_, ok := c.Lookup("template.extension")
		assert.False(t, ok, "view modified the caller's configuration")
	})
}

func TestRender(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"hello.tpl":     "Hello, {{ .name }}",
			"plain.html":    "<p>Hello, World!</p>",
			"escaped.html":  "<p>{{ escape .name }}</p>",
			"reserved.html": "{{ if eq .view.Layout \"\" }}ok{{ end }}",
			"nested/a.html": "nested {{ .n }}",
			"config.html":   `{{ config "site.title" }}|{{ with config "site.missing" }}found{{ else }}missing{{ end }}`,
			"custom.html":   `{{ shout .name }}`,
		},
		nil,
	)
	v := f.view(t, WithFuncs(map[string]interface{}{
		"shout": strings.ToUpper,
	}))
	require.NoError(t, v.Set("site.title", "Example"))

	tests := map[string]struct {
		Name   string
		Vars   map[string]interface{}
		Output string
	}{
		"simple": {
			Name:   "hello.tpl",
			Vars:   map[string]interface{}{"name": "World"},
			Output: "Hello, World",
		},
		"noVariables": {
			Name:   "plain.html",
			Output: "<p>Hello, World!</p>",
		},
		"defaultExtension": {
			Name:   "plain",
			Output: "<p>Hello, World!</p>",
		},
		"escape": {
			Name:   "escaped",
			Vars:   map[string]interface{}{"name": `<b>"x"</b>`},
			Output: "<p>&lt;b&gt;&#34;x&#34;&lt;/b&gt;</p>",
		},
		"reservedSkipped": {
			Name:   "reserved",
			Vars:   map[string]interface{}{"view": "shadow", "app": "shadow"},
			Output: "ok",
		},
		"subdirectory": {
			Name:   "nested/a",
			Vars:   map[string]interface{}{"n": 1},
			Output: "nested 1",
		},
		"config": {
			Name:   "config",
			Output: "Example|missing",
		},
		"customFuncs": {
			Name:   "custom",
			Vars:   map[string]interface{}{"name": "quiet"},
			Output: "QUIET",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := v.Render(context.Background(), &buf, test.Name, test.Vars)
			require.NoError(t, err)
			assert.Equal(t, test.Output, buf.String())
		})
	}
}

func TestRenderNotFound(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": "index"}, nil)
	writeFiles(t, f.root, map[string]string{"secret.html": "secret"})
	v := f.view(t)

	for _, name := range []string{"missing.html", "missing", "../secret.html", "", "nested"} {
		var buf bytes.Buffer
		err := v.Render(context.Background(), &buf, name, nil)

		var nf *TemplateNotFoundError
		require.True(t, errors.As(err, &nf), "expected TemplateNotFoundError for %q, got %v", name, err)
		assert.Equal(t, name, nf.Name)
		assert.Empty(t, buf.String(), "output was written for %q", name)
	}
}

func TestRenderLayout(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"home.html":        `{{ extend "main" }}{{ startblock "title" }}Home{{ endblock "title" }}<p>Hello, {{ .name }}</p>`,
			"plain.html":       `<p>plain</p>`,
			"none.html":        `{{ extend "" }}no layout`,
			"missing.html":     `{{ extend "missing" }}body`,
			"sidebar.html":     `{{ extend "main" }}{{ startblock "sidebar" }}side{{ endblock }}body`,
			"override.html":    `{{ extend "main" }}{{ startblock "body" }}ignored{{ endblock }}view`,
			"badlayout.html":   `{{ extend "extends" }}body`,
			"conditional.html": `{{ if .wrap }}{{ extend "main" }}{{ end }}content`,
		},
		map[string]string{
			"main.html":    `<title>{{ content "title" }}</title><main>{{ content "body" }}</main><aside>{{ content "sidebar" }}</aside>`,
			"extends.html": `{{ extend "main" }}`,
		},
	)

	t.Run("withLayout", func(t *testing.T) {
		v := f.view(t)
		var buf bytes.Buffer
		err := v.Render(context.Background(), &buf, "home", map[string]interface{}{"name": "World"})
		require.NoError(t, err)
		assert.Equal(t, "<title>Home</title><main><p>Hello, World</p></main><aside></aside>", buf.String())
	})

	t.Run("optionalBlock", func(t *testing.T) {
		v := f.view(t)
		out, err := v.RenderString(context.Background(), "sidebar", nil)
		require.NoError(t, err)
		assert.Equal(t, "<title></title><main>body</main><aside>side</aside>", out)
	})

	t.Run("bodyIsViewOutput", func(t *testing.T) {
		v := f.view(t)
		out, err := v.RenderString(context.Background(), "override", nil)
		require.NoError(t, err)
		assert.Equal(t, "<title></title><main>view</main><aside></aside>", out)
	})

	t.Run("defaultLayout", func(t *testing.T) {
		v := f.view(t).Extend("main")
		out, err := v.RenderString(context.Background(), "plain", nil)
		require.NoError(t, err)
		assert.Equal(t, "<title></title><main><p>plain</p></main><aside></aside>", out)
	})

	t.Run("clearDefaultLayout", func(t *testing.T) {
		v := f.view(t).Extend("main")
		out, err := v.RenderString(context.Background(), "none", nil)
		require.NoError(t, err)
		assert.Equal(t, "no layout", out)
	})

	t.Run("conditional", func(t *testing.T) {
		v := f.view(t)

		out, err := v.RenderString(context.Background(), "conditional", map[string]interface{}{"wrap": false})
		require.NoError(t, err)
		assert.Equal(t, "content", out)

		out, err = v.RenderString(context.Background(), "conditional", map[string]interface{}{"wrap": true})
		require.NoError(t, err)
		assert.Equal(t, "<title></title><main>content</main><aside></aside>", out)
	})

	t.Run("missingLayout", func(t *testing.T) {
		v := f.view(t)
		var buf bytes.Buffer
		err := v.Render(context.Background(), &buf, "missing", nil)

		var nf *LayoutNotFoundError
		require.True(t, errors.As(err, &nf), "expected LayoutNotFoundError, got %v", err)
		assert.Equal(t, "missing", nf.Name)
		assert.Empty(t, buf.String())
	})

	t.Run("extendFromLayout", func(t *testing.T) {
		v := f.view(t)
		var buf bytes.Buffer
		err := v.Render(context.Background(), &buf, "badlayout", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inside layout")
		assert.Empty(t, buf.String())
	})

	t.Run("blocksDoNotLeak", func(t *testing.T) {
		v := f.view(t)
		_, err := v.RenderString(context.Background(), "home", map[string]interface{}{"name": "World"})
		require.NoError(t, err)

		out, err := v.RenderString(context.Background(), "sidebar", nil)
		require.NoError(t, err)
		assert.Equal(t, "<title></title><main>body</main><aside>side</aside>", out)
	})
}

func TestRenderBlockErrors(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"nested.html":     `before{{ startblock "a" }}x{{ startblock "b" }}y{{ endblock "b" }}{{ endblock "a" }}`,
			"mismatch.html":   `before{{ startblock "a" }}x{{ endblock "b" }}`,
			"noblock.html":    `before{{ endblock "a" }}`,
			"unclosed.html":   `before{{ startblock "a" }}x`,
			"emptyname.html":  `{{ startblock "" }}x{{ endblock }}`,
			"layoutfail.html": `{{ extend "broken" }}view output`,
		},
		map[string]string{
			"broken.html": `layout output{{ endblock "z" }}`,
		},
	)
	v := f.view(t)

	for _, name := range []string{"nested", "mismatch", "noblock", "unclosed", "emptyname", "layoutfail"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			err := v.Render(context.Background(), &buf, name, nil)

			var berr *BlockStateError
			require.True(t, errors.As(err, &berr), "expected BlockStateError, got %v", err)
			assert.Empty(t, buf.String(), "partial output was written")
		})
	}
}

func TestRenderTemplateError(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"syntax.html": `partial {{ if }}`,
			"exec.html":   `partial {{ index .items 5 }}`,
		},
		nil,
	)
	v := f.view(t)

	for _, name := range []string{"syntax", "exec"} {
		var buf bytes.Buffer
		err := v.Render(context.Background(), &buf, name, map[string]interface{}{"items": []int{1}})
		require.Error(t, err, "expected error rendering %s", name)
		assert.Empty(t, buf.String())
	}
}

func TestRenderExtendsHeader(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"_base.html":   `<div>{{ block "inner" . }}default{{ end }}</div>`,
			"child.html":   "{{/* templatetree:extends _base.html */}}{{ define \"inner\" }}child {{ .name }}{{ end }}",
			"noext.html":   "{{/* templatetree:extends _base */}}{{ define \"inner\" }}noext{{ end }}",
			"orphan.html":  "{{/* templatetree:extends _missing.html */}}x",
			"cycle-a.html": "{{/* templatetree:extends cycle-b.html */}}a",
			"cycle-b.html": "{{/* templatetree:extends cycle-a.html */}}b",
		},
		nil,
	)
	v := f.view(t)

	t.Run("child", func(t *testing.T) {
		out, err := v.RenderString(context.Background(), "child", map[string]interface{}{"name": "World"})
		require.NoError(t, err)
		assert.Equal(t, "<div>child World</div>", out)
	})

	t.Run("parentWithoutExtension", func(t *testing.T) {
		out, err := v.RenderString(context.Background(), "noext", nil)
		require.NoError(t, err)
		assert.Equal(t, "<div>noext</div>", out)
	})

	t.Run("missingParent", func(t *testing.T) {
		_, err := v.RenderString(context.Background(), "orphan", nil)

		var nf *TemplateNotFoundError
		require.True(t, errors.As(err, &nf), "expected TemplateNotFoundError, got %v", err)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := v.RenderString(context.Background(), "cycle-a", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})
}

func TestRenderShared(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"page.html": `{{ extend "main" }}{{ .site }}/{{ .title }}`,
		},
		map[string]string{
			"main.html": `[{{ .site }}|{{ .title }}] {{ content "body" }}`,
		},
	)

	v := f.view(t).Share("site", "Example").Share("title", "Default")

	out, err := v.RenderString(context.Background(), "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "[Example|Default] Example/Default", out)

	out, err = v.RenderString(context.Background(), "page", map[string]interface{}{"title": "Custom"})
	require.NoError(t, err)
	assert.Equal(t, "[Example|Custom] Example/Custom", out)

	// a render's variables never become shared
	out, err = v.RenderString(context.Background(), "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "[Example|Default] Example/Default", out)
}

func TestRenderSession(t *testing.T) {
	type session struct {
		User string
	}

	f := newFixture(t, map[string]string{"user.html": `{{ (session).User }}|{{ .view.Session.User }}`}, nil)
	v, err := New(f.config(), &session{User: "alice"})
	require.NoError(t, err)

	out, err := v.RenderString(context.Background(), "user", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice|alice", out)
}

func TestRenderSetFromTemplate(t *testing.T) {
	f := newFixture(t,
		map[string]string{
			"set.html":     `{{ set "page.title" "Set" }}{{ get "page.title" }}`,
			"session.html": `{{ set "session" "x" }}`,
		},
		nil,
	)
	v := f.view(t)

	out, err := v.RenderString(context.Background(), "set", nil)
	require.NoError(t, err)
	assert.Equal(t, "Set", out)

	_, err = v.RenderString(context.Background(), "session", nil)
	var ierr *ImmutableKeyError
	require.True(t, errors.As(err, &ierr), "expected ImmutableKeyError, got %v", err)
}

func TestStore(t *testing.T) {
	f := newFixture(t, nil, nil)
	session := &struct{ ID string }{ID: "abc"}

	v, err := New(f.config(), session)
	require.NoError(t, err)

	t.Run("session", func(t *testing.T) {
		got, ok := v.Get("session")
		assert.True(t, ok)
		assert.Same(t, session, got)
		assert.True(t, v.Has("session"))

		var ierr *ImmutableKeyError
		require.True(t, errors.As(v.Set("session", "other"), &ierr))
		require.True(t, errors.As(v.Delete("session"), &ierr))
		assert.Equal(t, "session", ierr.Key)

		got, _ = v.Get("session")
		assert.Same(t, session, got, "session handle was modified")
	})

	t.Run("config", func(t *testing.T) {
		assert.False(t, v.Has("site"))

		require.NoError(t, v.Set("site:name", "Example"))
		assert.True(t, v.Has("site"))

		got, ok := v.Get("site.name")
		assert.True(t, ok)
		assert.Equal(t, "Example", got)

		require.NoError(t, v.Delete("site"))
		assert.False(t, v.Has("site.name"))
		require.NoError(t, v.Delete("site"), "deleting a missing key failed")
	})

	t.Run("tree", func(t *testing.T) {
		tree := v.Config()
		views, ok := tree.Lookup("template.views")
		assert.True(t, ok)
		assert.Equal(t, f.views, views)
	})
}

func TestRenderCache(t *testing.T) {
	f := newFixture(t, map[string]string{"page.html": "first"}, nil)
	cache := newMemoryCache()
	v := f.view(t, WithCache(cache))

	out, err := v.RenderString(context.Background(), "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out)
	assert.Len(t, cache.items, 1)

	out, err = v.RenderString(context.Background(), "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out)
	assert.Len(t, cache.items, 1)

	writeFiles(t, f.views, map[string]string{"page.html": "second version"})

	out, err = v.RenderString(context.Background(), "page", nil)
	require.NoError(t, err)
	assert.Equal(t, "second version", out, "cached content was used after the file changed")
}

func TestRenderMaxSize(t *testing.T) {
	f := newFixture(t, map[string]string{"big.html": strings.Repeat("x", 2048)}, nil)
	v := f.view(t)
	require.NoError(t, v.Set("template.max_size", "1KB"))

	_, err := v.RenderString(context.Background(), "big", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

type memoryCache struct {
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	b, ok := c.items[key]
	return b, ok
}

func (c *memoryCache) Set(key string, b []byte) {
	c.items[key] = b
}

func (c *memoryCache) Delete(key string) {
	delete(c.items, key)
}
