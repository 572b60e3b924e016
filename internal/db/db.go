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

package db

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cayleygraph/quad/voc"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/endpoint"
	"github.com/cayleygraph/rdfobjects/internal/config"
	"github.com/cayleygraph/rdfobjects/internal/decompressor"
	"github.com/cayleygraph/rdfobjects/ldcontext"
	"github.com/cayleygraph/rdfobjects/model"
	"github.com/cayleygraph/rdfobjects/schema"
	"github.com/cayleygraph/rdfobjects/schema/shacl"
)

// Open loads the shapes named in cfg and returns a model backed by the
// configured endpoint.
func Open(ctx context.Context, cfg *config.Config) (*model.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg, names, err := LoadShapes(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := []model.Option{model.WithNames(names)}
	if cfg.NoOrder {
		opts = append(opts, model.WithoutOrder())
	}
	if cfg.TwoPhase {
		opts = append(opts, model.WithTwoPhase())
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, model.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.CacheSize < 0 {
		opts = append(opts, model.WithQueryCache(0))
	} else if cfg.CacheSize > 0 {
		opts = append(opts, model.WithQueryCache(cfg.CacheSize))
	}
	clog.Infof("serving shape %s from %s", reg.MainKey(), cfg.Endpoint)
	return model.New(reg, Endpoint(cfg), opts...), nil
}

// Endpoint creates a SPARQL client for cfg.
func Endpoint(cfg *config.Config) *endpoint.Client {
	c := endpoint.New(cfg.Endpoint)
	c.Timeout = cfg.Timeout
	if len(cfg.Headers) != 0 {
		c.Header = make(http.Header, len(cfg.Headers))
		for k, v := range cfg.Headers {
			c.Header.Set(k, v)
		}
	}
	return c
}

// LoadShapes reads the shape description named in cfg. Compressed files
// are accepted.
func LoadShapes(ctx context.Context, cfg *config.Config) (*schema.Registry, *ldcontext.Context, error) {
	f, err := os.Open(cfg.Shapes)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open shapes: %v", err)
	}
	defer f.Close()
	r, err := decompressor.New(f)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read shapes %q: %v", cfg.Shapes, err)
	}
	format := cfg.ShapesFormat
	if format == "" {
		format = FormatOf(cfg.Shapes)
	}
	return ReadShapes(ctx, r, format, cfg)
}

// ReadShapes reads a shape description in the given format. Prefixes and
// vocabulary from cfg take precedence over the ones of the description.
func ReadShapes(ctx context.Context, r io.Reader, format string, cfg *config.Config) (*schema.Registry, *ldcontext.Context, error) {
	prefixes := make(map[string]string)
	for _, ns := range voc.List() {
		addPrefix(prefixes, ns.Prefix, ns.Full)
	}
	switch format {
	case config.FormatSHACL:
		c := names(prefixes, cfg.Prefixes, cfg.Vocab)
		var main string
		if cfg.MainShape != "" {
			main = string(c.Expand(cfg.MainShape))
		}
		reg, err := shacl.Load(ctx, r, shacl.Options{Main: main})
		if err != nil {
			return nil, nil, err
		}
		return reg, c, nil
	case config.FormatYAML, "":
		doc, err := schema.Decode(r)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range doc.Prefixes {
			addPrefix(prefixes, k, v)
		}
		vocab := cfg.Vocab
		if vocab == "" {
			vocab = doc.Vocab
		}
		if cfg.MainShape != "" {
			doc.Main = cfg.MainShape
		}
		c := names(prefixes, cfg.Prefixes, vocab)
		reg, err := doc.Registry(c)
		if err != nil {
			return nil, nil, err
		}
		return reg, c, nil
	}
	return nil, nil, fmt.Errorf("unknown shapes format %q", format)
}

func addPrefix(m map[string]string, prefix, full string) {
	m[strings.TrimSuffix(prefix, ":")] = full
}

func names(prefixes, extra map[string]string, vocab string) *ldcontext.Context {
	for k, v := range extra {
		addPrefix(prefixes, k, v)
	}
	return ldcontext.New(prefixes, vocab)
}

// FormatOf guesses the shape description format from a file name.
func FormatOf(name string) string {
	name = strings.ToLower(name)
	for _, ext := range []string{".gz", ".bz2"} {
		name = strings.TrimSuffix(name, ext)
	}
	switch filepath.Ext(name) {
	case ".ttl", ".turtle", ".shacl":
		return config.FormatSHACL
	}
	return config.FormatYAML
}
