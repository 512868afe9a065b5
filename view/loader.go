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
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/templatetree"
	"github.com/c2h5oh/datasize"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
)

// Source is a template and the chain of parents it extends, ready to be
// parsed. Files maps template names, as they appear in extends headers, to
// their content.
type Source struct {
	Name  string
	Files map[string]string
}

// errNotExist is returned by the loader when a name does not resolve to a
// regular file. Callers translate it into the appropriate typed error.
var errNotExist = errors.New("template file does not exist")

type loader struct {
	ext     string
	maxSize datasize.ByteSize
	cache   httpcache.Cache
}

// Load reads the template name from dir along with every template it
// extends.
func (l *loader) Load(dir, name string) (Source, error) {
	src := Source{
		Name:  name,
		Files: make(map[string]string),
	}

	if name == "" {
		return src, errNotExist
	}

	next := name
	for next != "" {
		if _, seen := src.Files[next]; seen {
			// leave the cycle for templatetree to report
			break
		}

		b, err := l.read(dir, next)
		if err != nil {
			return src, err
		}

		content := string(b)
		src.Files[next] = content
		next = parseExtends(content)
	}
	return src, nil
}

func (l *loader) read(dir, name string) ([]byte, error) {
	for _, p := range l.candidates(dir, name) {
		b, err := l.readFile(p)
		if err == errNotExist {
			continue
		}
		return b, err
	}
	return nil, errNotExist
}

func (l *loader) readFile(p string) ([]byte, error) {
	fi, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNotExist
		}
		return nil, errors.Wrapf(err, "failed to stat template %s", p)
	}
	if !fi.Mode().IsRegular() {
		return nil, errNotExist
	}
	if l.maxSize > 0 && fi.Size() > int64(l.maxSize) {
		return nil, errors.Errorf("template %s is larger than the maximum size of %s", p, l.maxSize)
	}

	key := fmt.Sprintf("%s:%d:%d", p, fi.Size(), fi.ModTime().UnixNano())
	if l.cache != nil {
		if b, ok := l.cache.Get(key); ok {
			return b, nil
		}
	}

	b, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template %s", p)
	}

	if l.cache != nil {
		l.cache.Set(key, b)
	}
	return b, nil
}

// candidates returns the paths inside dir that may hold the named template,
// in lookup order. Names that would escape dir are cleaned to stay inside
// it. A name not ending in the default extension is tried with it appended
// first, then as given if it has an extension of its own: "v1.2" finds
// "v1.2.html" and "feed.xml" may name a file directly.
func (l *loader) candidates(dir, name string) []string {
	rel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	if rel == "" || !fs.ValidPath(rel) {
		return nil
	}

	var names []string
	switch {
	case l.ext == "" || strings.HasSuffix(rel, l.ext):
		names = []string{rel}
	case path.Ext(rel) != "":
		names = []string{rel + l.ext, rel}
	default:
		names = []string{rel + l.ext}
	}

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, filepath.FromSlash(n))
	}
	return paths
}

// parseExtends returns the parent named in the first line of content, using
// the same header format as templatetree.
func parseExtends(content string) string {
	prefix := "{{/* " + templatetree.CommentTagExtends + " "
	if !strings.HasPrefix(content, prefix) {
		return ""
	}

	rest := content[len(prefix):]
	idx := strings.Index(rest, " */}}")
	if idx < 0 {
		return ""
	}
	return rest[:idx]
}
