package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/cayleygraph/rdfobjects/query/compiler"
)

func (api *API) APIv1(r *httprouter.Router) {
	r.GET("/api/v1/objects", CORS(LogRequest(api.ServeV1List)))
	r.POST("/api/v1/objects", CORS(LogRequest(api.ServeV1GetMany)))
	r.GET("/api/v1/object", CORS(LogRequest(api.ServeV1Get)))
	r.GET("/api/v1/query", CORS(LogRequest(api.ServeV1Query)))
	r.GET("/api/v1/context", CORS(LogRequest(api.ServeV1Context)))
}

// page reads limit and offset parameters.
func (api *API) page(par url.Values) (limit, offset int, err error) {
	limit = DefaultLimit
	if s := par.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("invalid limit: %q", s)
		}
	}
	if s := par.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("invalid offset: %q", s)
		}
	}
	if api.config.MaxLimit > 0 && limit > api.config.MaxLimit {
		limit = api.config.MaxLimit
	}
	return limit, offset, nil
}

// ServeV1List is the HTTP handler for a page of objects.
func (api *API) ServeV1List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := api.page(r.URL.Query())
	if err != nil {
		jsonResponse(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := api.contextForRequest(r)
	defer cancel()
	objs, err := api.model.List(ctx, limit, offset)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, objs)
}

// ServeV1Get is the HTTP handler for a single object.
func (api *API) ServeV1Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := r.URL.Query().Get("id")
	if id == "" {
		jsonResponse(w, http.StatusBadRequest, "id is not set")
		return
	}
	ctx, cancel := api.contextForRequest(r)
	defer cancel()
	obj, err := api.model.Get(ctx, id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, obj)
}

type getManyRequest struct {
	IDs []string `json:"ids"`
}

// ServeV1GetMany is the HTTP handler for a list of objects by identifier.
func (api *API) ServeV1GetMany(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer r.Body.Close()
	var req getManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := api.contextForRequest(r)
	defer cancel()
	objs, err := api.model.GetMany(ctx, req.IDs)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, objs)
}

type queryResult struct {
	Shape   string            `json:"shape"`
	Accept  string            `json:"accept"`
	Query   string            `json:"query"`
	Aliases map[string]string `json:"aliases"`
}

// ServeV1Query returns the query that would be sent to the endpoint for a
// page, or for a lookup if any id parameters are given.
func (api *API) ServeV1Query(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	par := r.URL.Query()
	var req compiler.Request
	if ids, ok := par["id"]; ok {
		req = api.model.Lookup(ids...)
	} else {
		limit, offset, err := api.page(par)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, err)
			return
		}
		req = compiler.Page(limit, offset)
	}
	q, err := api.model.Query(req)
	if err != nil {
		errorResponse(w, err)
		return
	}
	aliases := make(map[string]string, q.Aliases.Len())
	for name, iri := range q.Aliases.Map() {
		aliases[name] = string(iri)
	}
	writeJSON(w, queryResult{Shape: q.Shape, Accept: q.Accept, Query: q.Text, Aliases: aliases})
}

// ServeV1Context returns the JSON-LD context that expands object keys and
// prefixed identifiers.
func (api *API) ServeV1Context(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, map[string]interface{}{"@context": api.model.Context().Document()})
}
