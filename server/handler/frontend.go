// Copyright 2018 Palantir Technologies, Inc.
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

package handler

import (
	"net/http"
	"path"
	"strings"
	"text/template"

	"github.com/alexedwards/scs"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"

	"github.com/palantir/view-server/version"
	"github.com/palantir/view-server/view"
)

const (
	DefaultStaticDir = "static"

	SessionKeyVisits = "visits"
)

type FilesConfig struct {
	Static string `yaml:"static"`
}

// Views creates the per-request views used by page handlers. All fields are
// shared by every request; each request gets its own view.View so block and
// layout state never crosses requests.
type Views struct {
	Config   view.Config
	Sessions *scs.Manager
	Cache    httpcache.Cache
	BasePath string

	// Layout is the default layout for rendered pages. Views can override it
	// with extend.
	Layout string
}

func (v *Views) New(r *http.Request) (*view.View, error) {
	var session interface{}
	if v.Sessions != nil {
		session = v.Sessions.Load(r)
	}

	opts := []view.Option{view.WithFuncs(v.funcs())}
	if v.Cache != nil {
		opts = append(opts, view.WithCache(v.Cache))
	}

	vw, err := view.New(v.Config, session, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create view")
	}
	if v.Layout != "" {
		vw.Extend(v.Layout)
	}

	vw.Share("Version", version.GetVersion()).
		Share("Path", r.URL.Path).
		Share("Query", r.URL.Query())

	return vw, nil
}

func (v *Views) funcs() template.FuncMap {
	basePath := v.BasePath
	if basePath == "" {
		basePath = "/"
	}

	return template.FuncMap{
		"resource": func(r string) string {
			return path.Join(basePath, "static", r)
		},
		"url": func(p string) string {
			return path.Join(basePath, p)
		},
		"titlecase": strings.Title,
		"version":   version.GetVersion,
	}
}

func Static(prefix string, c *FilesConfig) http.Handler {
	dir := c.Static
	if dir == "" {
		dir = DefaultStaticDir
	}

	return http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
}
