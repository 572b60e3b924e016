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

package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/model"
)

type SuccessQueryWrapper struct {
	Result interface{} `json:"result"`
}

type ErrorQueryWrapper struct {
	Error string `json:"error"`
}

func WriteError(w io.Writer, err error) error {
	enc := json.NewEncoder(w)
	return enc.Encode(ErrorQueryWrapper{err.Error()})
}

func WriteResult(w io.Writer, result interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(SuccessQueryWrapper{result})
}

func (api *API) contextForRequest(r *http.Request) (context.Context, func()) {
	ctx := r.Context()
	cancel := func() {}
	if api.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, api.config.Timeout)
	}
	return ctx, cancel
}

func writeJSON(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := WriteResult(w, result); err != nil {
		clog.Errorf("could not write response: %v", err)
	}
}

func jsonResponse(w http.ResponseWriter, code int, err interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	WriteError(w, fmt.Errorf("%v", err))
}

// StatusOf maps errors of the model to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case model.IsNotFound(err):
		return http.StatusNotFound
	case model.IsCompilation(err):
		return http.StatusBadRequest
	case model.IsTransport(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorResponse(w http.ResponseWriter, err error) {
	code := StatusOf(err)
	if code >= 500 {
		clog.Errorf("%v", err)
	}
	jsonResponse(w, code, err)
}
