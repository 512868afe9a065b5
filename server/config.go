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
	"os"
	"strconv"

	"github.com/palantir/go-baseapp/baseapp"
	"github.com/palantir/go-baseapp/baseapp/datadog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/palantir/view-server/server/handler"
	"github.com/palantir/view-server/view"
)

const (
	DefaultEnvPrefix = "VIEWSERVER_"
)

type Config struct {
	Server   baseapp.HTTPConfig     `yaml:"server"`
	Logging  LoggingConfig          `yaml:"logging"`
	Sessions SessionsConfig         `yaml:"sessions"`
	Files    handler.FilesConfig    `yaml:"files"`
	Datadog  datadog.Config         `yaml:"datadog"`
	View     map[string]interface{} `yaml:"view"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	Text  bool   `yaml:"text" json:"text"`
}

func (c *LoggingConfig) SetValuesFromEnv(prefix string) {
	if v, ok := os.LookupEnv(prefix + "LOG_LEVEL"); ok {
		c.Level = v
	}
	if v, ok := os.LookupEnv(prefix + "LOG_TEXT"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Text = b
		}
	}
}

type SessionsConfig struct {
	Key      string `yaml:"key"`
	Lifetime string `yaml:"lifetime"`
}

// ViewConfig returns the configuration tree given to every view.
func (c *Config) ViewConfig() view.Config {
	return view.ConfigFromMap(c.View)
}

func (c *Config) setViewValuesFromEnv(prefix string) {
	keys := map[string]string{
		"TEMPLATE_VIEWS":     "template.views",
		"TEMPLATE_LAYOUT":    "template.layout",
		"TEMPLATE_EXTENSION": "template.extension",
	}
	tree := view.ConfigFromMap(c.View)
	for env, path := range keys {
		if v, ok := os.LookupEnv(prefix + env); ok {
			tree.Set(path, v)
		}
	}
	c.View = tree
}

func ParseConfig(bytes []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(bytes, &c); err != nil {
		return nil, errors.Wrapf(err, "failed unmarshalling yaml")
	}

	envPrefix := DefaultEnvPrefix
	if v, ok := os.LookupEnv("VIEWSERVER_ENV_PREFIX"); ok {
		envPrefix = v
	}

	c.Server.SetValuesFromEnv(envPrefix)
	c.Logging.SetValuesFromEnv(envPrefix)
	c.setViewValuesFromEnv(envPrefix)

	if v, ok := os.LookupEnv(envPrefix + "SESSIONS_KEY"); ok {
		c.Sessions.Key = v
	}

	return &c, nil
}
