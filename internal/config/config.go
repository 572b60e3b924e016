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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Shape description formats.
const (
	FormatYAML  = "yaml"
	FormatSHACL = "shacl"
)

// Config defines the behavior of rdfobjects instances.
type Config struct {
	// Endpoint is the URL of the SPARQL query endpoint.
	Endpoint string
	// Headers are added to every endpoint request.
	Headers map[string]string
	Timeout time.Duration

	// Shapes is the path of the shape description.
	Shapes string
	// ShapesFormat is FormatYAML or FormatSHACL. It is guessed from the
	// file extension if empty.
	ShapesFormat string
	// MainShape overrides the main shape of the description.
	MainShape string
	Vocab     string
	Prefixes  map[string]string

	NoOrder  bool
	TwoPhase bool
	MaxDepth int
	// CacheSize is the number of compiled page queries to keep. Zero
	// selects the default size and a negative value disables the cache.
	CacheSize int

	ListenHost string
	ListenPort string
}

type config struct {
	Endpoint     string            `json:"endpoint"`
	Headers      map[string]string `json:"headers,omitempty"`
	Timeout      duration          `json:"timeout"`
	Shapes       string            `json:"shapes"`
	ShapesFormat string            `json:"shapes_format,omitempty"`
	MainShape    string            `json:"main_shape,omitempty"`
	Vocab        string            `json:"vocab,omitempty"`
	Prefixes     map[string]string `json:"prefixes,omitempty"`
	NoOrder      bool              `json:"no_order"`
	TwoPhase     bool              `json:"two_phase"`
	MaxDepth     int               `json:"max_depth"`
	CacheSize    int               `json:"cache_size,omitempty"`
	ListenHost   string            `json:"listen_host"`
	ListenPort   string            `json:"listen_port"`
}

func (c *Config) UnmarshalJSON(data []byte) error {
	var t config
	err := json.Unmarshal(data, &t)
	if err != nil {
		return err
	}
	*c = Config{
		Endpoint:     t.Endpoint,
		Headers:      t.Headers,
		Timeout:      time.Duration(t.Timeout),
		Shapes:       t.Shapes,
		ShapesFormat: t.ShapesFormat,
		MainShape:    t.MainShape,
		Vocab:        t.Vocab,
		Prefixes:     t.Prefixes,
		NoOrder:      t.NoOrder,
		TwoPhase:     t.TwoPhase,
		MaxDepth:     t.MaxDepth,
		CacheSize:    t.CacheSize,
		ListenHost:   t.ListenHost,
		ListenPort:   t.ListenPort,
	}
	return nil
}

func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(config{
		Endpoint:     c.Endpoint,
		Headers:      c.Headers,
		Timeout:      duration(c.Timeout),
		Shapes:       c.Shapes,
		ShapesFormat: c.ShapesFormat,
		MainShape:    c.MainShape,
		Vocab:        c.Vocab,
		Prefixes:     c.Prefixes,
		NoOrder:      c.NoOrder,
		TwoPhase:     c.TwoPhase,
		MaxDepth:     c.MaxDepth,
		CacheSize:    c.CacheSize,
		ListenHost:   c.ListenHost,
		ListenPort:   c.ListenPort,
	})
}

// Validate checks that the config is complete enough to serve objects.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("endpoint is not set")
	case c.Shapes == "":
		return errors.New("shapes file is not set")
	case c.Timeout < 0:
		return fmt.Errorf("negative timeout: %v", c.Timeout)
	case c.MaxDepth < 0:
		return fmt.Errorf("negative max depth: %d", c.MaxDepth)
	}
	switch c.ShapesFormat {
	case "", FormatYAML, FormatSHACL:
	default:
		return fmt.Errorf("unknown shapes format %q", c.ShapesFormat)
	}
	return nil
}

// duration is a time.Duration that satisfies the
// json.UnMarshaler and json.Marshaler interfaces.
type duration time.Duration

// UnmarshalJSON unmarshals a duration according to the following scheme:
//  * If the element is absent the duration is zero.
//  * If the element is parsable as a time.Duration, the parsed value is kept.
//  * If the element is parsable as a number, that number of seconds is kept.
func (d *duration) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*d = 0
		return nil
	}
	text := string(data)
	if s, err := strconv.Unquote(text); err == nil {
		text = s
	}
	t, err := time.ParseDuration(text)
	if err == nil {
		*d = duration(t)
		return nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		*d = duration(time.Duration(i) * time.Second)
		return nil
	}
	// This hack is to get around strconv.ParseFloat
	// not handling e-notation for integers.
	f, err := strconv.ParseFloat(text, 64)
	*d = duration(f * float64(time.Second))
	return err
}

func (d duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Duration(d))), nil
}

// Load reads a JSON-encoded config contained in the given file. A zero value
// config is returned if the filename is empty.
func Load(file string) (*Config, error) {
	config := &Config{}
	if file == "" {
		return config, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("could not open config file %q: %v", file, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	err = dec.Decode(config)
	if err != nil {
		return nil, fmt.Errorf("could not parse config file %q: %v", file, err)
	}
	return config, nil
}
