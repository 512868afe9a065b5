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

package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs"
	"github.com/bluekeyes/hatpear"
	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-baseapp/baseapp/datadog"
	"github.com/pkg/errors"
	"goji.io"
	"goji.io/pat"

	"github.com/palantir/view-server/metrics"
	"github.com/palantir/view-server/server/handler"
	"github.com/palantir/view-server/view"
)

const (
	DefaultSessionLifetime = 24 * time.Hour
	DefaultSessionName     = "view-server"
)

type Server struct {
	config *Config
	base   *baseapp.Server
}

// New instantiates a new Server.
// Callers must then invoke Start to run the Server.
func New(c *Config) (*Server, error) {
	logger := baseapp.NewLogger(baseapp.LoggingConfig{
		Level:  c.Logging.Level,
		Pretty: c.Logging.Text,
	})

	lifetime, _ := time.ParseDuration(c.Sessions.Lifetime)
	if lifetime == 0 {
		lifetime = DefaultSessionLifetime
	}

	publicURL, err := url.Parse(c.Server.PublicURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed parse public URL")
	}
	if publicURL.Scheme == "" || publicURL.Host == "" {
		return nil, errors.Errorf("public URL must contain a scheme and a host: %s", c.Server.PublicURL)
	}

	basePath := strings.TrimSuffix(publicURL.Path, "/")
	forceTLS := publicURL.Scheme == "https"

	if c.Sessions.Key == "" {
		return nil, errors.New("sessions key must be set")
	}

	sessions := scs.NewCookieManager(c.Sessions.Key)
	sessions.Name(DefaultSessionName)
	sessions.Lifetime(lifetime)
	sessions.Persist(true)
	sessions.HttpOnly(true)
	sessions.Secure(forceTLS)

	base, err := baseapp.NewServer(c.Server, baseapp.DefaultParams(logger, "viewserver.")...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize base server")
	}
	metrics.SetRegistry(base.Registry())

	viewConfig := c.ViewConfig()

	// fail at startup instead of on the first request if the template
	// directories are wrong
	settings, err := view.DecodeSettings(viewConfig)
	if err == nil {
		err = settings.Validate()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load view configuration")
	}

	var cache httpcache.Cache
	if settings.CacheSize > 0 {
		lc := lrucache.New(int64(settings.CacheSize), 0)
		metrics.TemplateCacheApproxSize(lc.Size)
		cache = lc
	}

	views := &handler.Views{
		Config:   viewConfig,
		Sessions: sessions,
		Cache:    cache,
		BasePath: basePath,
		Layout:   settings.DefaultLayout,
	}

	var mux *goji.Mux
	if basePath == "" {
		mux = base.Mux()
	} else {
		mux = goji.SubMux()
		base.Mux().Handle(pat.New(basePath+"/*"), mux)
	}

	// API routes
	mux.Handle(pat.Get("/api/health"), handler.Health())
	mux.Handle(pat.Put("/api/preview/:name"), handler.Preview(views))

	// client routes
	mux.Handle(pat.Get("/favicon.ico"), http.RedirectHandler(basePath+"/static/img/favicon.ico", http.StatusFound))
	mux.Handle(pat.Get("/static/*"), handler.Static(basePath+"/static/", &c.Files))
	mux.Handle(pat.Get("/pages/:name"), hatpear.Try(&handler.Page{Views: views}))
	mux.Handle(pat.Get("/"), hatpear.Try(&handler.Index{Views: views}))

	return &Server{
		config: c,
		base:   base,
	}, nil
}

// Start is blocking and long-running
func (s *Server) Start() error {
	if s.config.Datadog.Address != "" {
		if err := datadog.StartEmitter(s.base, s.config.Datadog); err != nil {
			return err
		}
	}
	return s.base.Start()
}
