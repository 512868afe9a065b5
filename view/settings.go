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
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const (
	SectionTemplate = "template"

	DefaultExtension = ".html"
	DefaultMaxSize   = 1 * datasize.MB
	DefaultCacheSize = 8 * datasize.MB
)

// Settings are the typed values of the "template" configuration section.
type Settings struct {
	Views     string `mapstructure:"views"`
	Layout    string `mapstructure:"layout"`
	Extension string `mapstructure:"extension"`

	// DefaultLayout is the layout the server applies to every page. Views
	// select another layout, or none, with extend.
	DefaultLayout string `mapstructure:"default_layout"`

	// MaxSize limits the size of a single template file.
	MaxSize datasize.ByteSize `mapstructure:"max_size"`

	// CacheSize is the capacity of the shared template source cache. A zero
	// value disables caching.
	CacheSize datasize.ByteSize `mapstructure:"cache_size"`
}

// DecodeSettings reads the "template" section of c. It does not check that
// the configured directories exist; see Settings.Validate.
func DecodeSettings(c Config) (Settings, error) {
	s := Settings{
		Extension: DefaultExtension,
		MaxSize:   DefaultMaxSize,
		CacheSize: DefaultCacheSize,
	}

	raw, ok := c.Lookup(SectionTemplate)
	if !ok {
		return s, &ConfigurationError{Key: SectionTemplate, Reason: "section is not configured"}
	}
	if _, ok := asSection(raw); !ok {
		return s, &ConfigurationError{Key: SectionTemplate, Reason: "section must be a mapping"}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to create settings decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return s, &ConfigurationError{Key: SectionTemplate, Reason: err.Error()}
	}

	if s.Extension != "" && !strings.HasPrefix(s.Extension, ".") {
		s.Extension = "." + s.Extension
	}
	return s, nil
}

// Validate checks that the views and layout directories are configured and
// exist.
func (s Settings) Validate() error {
	dirs := []struct {
		key string
		dir string
	}{
		{SectionTemplate + ".views", s.Views},
		{SectionTemplate + ".layout", s.Layout},
	}

	for _, d := range dirs {
		if d.dir == "" {
			return &ConfigurationError{Key: d.key, Reason: "directory is not configured"}
		}

		fi, err := os.Stat(d.dir)
		switch {
		case os.IsNotExist(err):
			return &ConfigurationError{Key: d.key, Reason: "directory " + d.dir + " does not exist"}
		case err != nil:
			return &ConfigurationError{Key: d.key, Reason: err.Error()}
		case !fi.IsDir():
			return &ConfigurationError{Key: d.key, Reason: d.dir + " is not a directory"}
		}
	}
	return nil
}
