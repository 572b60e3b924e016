package http

import (
	"context"
	"net/http"
)

// Pinger checks that a backend answers requests. It is implemented by
// *endpoint.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth is a route for handling health checks to the server
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// HandleReady returns a route that reports whether the SPARQL endpoint answers.
func HandleReady(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.Ping(r.Context()); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
