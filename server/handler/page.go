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
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alexedwards/scs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"goji.io/pat"

	"github.com/palantir/view-server/view"
)

const (
	IndexView = "index"
)

type Index struct {
	Views *Views
}

func (h *Index) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	return renderPage(w, r, h.Views, IndexView, nil)
}

// Page renders the view named by the "name" path parameter.
type Page struct {
	Views *Views
}

func (h *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	name := pat.Param(r, "name")

	// names starting with an underscore are partials and parents that are
	// only meant to be extended
	if name == "" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
		render404(w, name)
		return nil
	}

	return renderPage(w, r, h.Views, name, nil)
}

func renderPage(w http.ResponseWriter, r *http.Request, views *Views, name string, vars map[string]interface{}) error {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	v, err := views.New(r)
	if err != nil {
		return err
	}

	if err := countVisit(w, v.Session()); err != nil {
		logger.Warn().Err(err).Msg("Unable to update visit count")
	}

	out, err := v.RenderString(ctx, name, vars)
	if err != nil {
		var notFound *view.TemplateNotFoundError
		if errors.As(err, &notFound) {
			render404(w, name)
			return nil
		}
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = io.WriteString(w, out)
	return err
}

func countVisit(w http.ResponseWriter, session interface{}) error {
	sess, ok := session.(*scs.Session)
	if !ok {
		return nil
	}

	n, err := sess.GetInt(SessionKeyVisits)
	if err != nil {
		return errors.Wrap(err, "failed to read session")
	}
	return errors.Wrap(sess.PutInt(w, SessionKeyVisits, n+1), "failed to save session")
}

func render404(w http.ResponseWriter, name string) {
	msg := fmt.Sprintf("Not Found: %s\n\nThe page does not exist.", name)
	http.Error(w, msg, http.StatusNotFound)
}
