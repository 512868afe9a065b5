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
	"io"
	"net/http"

	"github.com/palantir/go-baseapp/baseapp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"goji.io/pat"
	"gopkg.in/yaml.v2"

	"github.com/palantir/view-server/server/apierror"
	"github.com/palantir/view-server/version"
	"github.com/palantir/view-server/view"
)

type PreviewResult struct {
	Output  string `json:"output"`
	Version string `json:"version"`
}

// Preview renders a view with variables from the YAML or JSON request body
// and returns the output as JSON.
func Preview(views *Views) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := zerolog.Ctx(ctx)

		name := pat.Param(r, "name")
		logger.Info().Msgf("Attempting to preview view %q", name)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			_ = apierror.WriteAPIError(w, http.StatusInternalServerError, "Unable to read request body")
			return
		}

		var vars map[string]interface{}
		if err := yaml.UnmarshalStrict(body, &vars); err != nil {
			_ = apierror.WriteAPIError(w, http.StatusBadRequest, "Invalid variables", err.Error())
			return
		}

		v, err := views.New(r)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create view")
			_ = apierror.WriteAPIError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		out, err := v.RenderString(ctx, name, view.ConfigFromMap(vars))
		if err != nil {
			_ = apierror.WriteAPIError(w, previewStatus(err), err.Error())
			return
		}

		baseapp.WriteJSON(w, http.StatusOK, &PreviewResult{
			Output:  out,
			Version: version.GetVersion(),
		})
	})
}

func previewStatus(err error) int {
	var (
		templateNotFound *view.TemplateNotFoundError
		configErr        *view.ConfigurationError
	)
	switch {
	case errors.As(err, &templateNotFound):
		return http.StatusNotFound
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
