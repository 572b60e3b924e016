// Copyright 2014 The Cayley Authors. All rights reserved.
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

// Package http serves materialized objects over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cayleygraph/rdfobjects/ldcontext"
	"github.com/cayleygraph/rdfobjects/model"
	"github.com/cayleygraph/rdfobjects/query/compiler"
)

// DefaultLimit is the page size used when a request does not set one.
const DefaultLimit = 100

// Objects is the model served by the API. It is implemented by *model.Model.
type Objects interface {
	List(ctx context.Context, limit, offset int) ([]model.Object, error)
	Get(ctx context.Context, id string) (model.Object, error)
	GetMany(ctx context.Context, ids []string) ([]model.Object, error)
	Query(req compiler.Request) (*compiler.Query, error)
	Lookup(ids ...string) compiler.Request
	Context() *ldcontext.Context
}

var _ Objects = (*model.Model)(nil)

type Config struct {
	// Timeout limits the time spent on a single request if set.
	Timeout time.Duration
	// MaxLimit caps the page size if set.
	MaxLimit int
	// Endpoint is checked by the /ready route if set.
	Endpoint Pinger
}

type API struct {
	config *Config
	model  Objects
}

func NewAPI(m Objects, cfg *Config) *API {
	if cfg == nil {
		cfg = &Config{}
	}
	return &API{config: cfg, model: m}
}

// SetupRoutes returns a handler serving the object API, health checks and metrics.
func SetupRoutes(m Objects, cfg *Config) http.Handler {
	r := httprouter.New()
	api := NewAPI(m, cfg)
	r.OPTIONS("/*path", CORSFunc)
	api.APIv1(r)
	r.HandlerFunc(http.MethodGet, "/health", HandleHealth)
	if api.config.Endpoint != nil {
		r.HandlerFunc(http.MethodGet, "/ready", HandleReady(api.config.Endpoint))
	}
	r.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
