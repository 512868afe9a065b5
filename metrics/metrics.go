// Copyright 2021 Palantir Technologies, Inc.
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

package metrics

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

const (
	MetricsKeyRender       = "view.render"
	MetricsKeyRenderErrors = "view.render.errors"
	MetricsKeyCacheSize    = "view.template_cache.approx_size"
)

var (
	registry metrics.Registry
)

func SetRegistry(r metrics.Registry) {
	registry = r
}

// RecordRender - records the duration of a render in a timer and counts failed renders
func RecordRender(elapsed time.Duration, err error) {
	metrics.GetOrRegisterTimer(MetricsKeyRender, registry).Update(elapsed)
	if err != nil {
		metrics.GetOrRegisterCounter(MetricsKeyRenderErrors, registry).Inc(1)
	}
}

// TemplateCacheApproxSize - registers a gauge with the registry that monitors the approximate template source lrucache memory size
func TemplateCacheApproxSize(sizeFn func() int64) metrics.Gauge {
	return metrics.NewRegisteredFunctionalGauge(MetricsKeyCacheSize, registry, sizeFn)
}
