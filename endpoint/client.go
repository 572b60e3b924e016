// Package endpoint talks to a remote SPARQL endpoint using the SPARQL 1.1
// protocol: queries are sent as url-encoded POST forms and responses are
// decoded into quads or result bindings.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/internal/decompressor"
)

const (
	mimeNTriples    = "application/n-triples"
	mimeResultsJSON = "application/sparql-results+json"
	maxErrorBody    = 512
)

var (
	mRequestTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "rdfobjects_endpoint_request_seconds",
		Help: "Duration of requests to the SPARQL endpoint.",
	}, []string{"kind"})
	mRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rdfobjects_endpoint_errors_total",
		Help: "Number of failed requests to the SPARQL endpoint.",
	}, []string{"kind"})
	mQuadsRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rdfobjects_endpoint_quads_total",
		Help: "Number of quads read from the SPARQL endpoint.",
	})
)

// Error is returned when the endpoint cannot be reached or answers with a
// non-successful status.
type Error struct {
	Endpoint string
	Status   int
	// Body is the start of the response body, if any.
	Body string
	Err  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		msg := fmt.Sprintf("endpoint %s: status %d", e.Endpoint, e.Status)
		if e.Body != "" {
			msg += ": " + e.Body
		}
		return msg
	}
	return fmt.Sprintf("endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransport checks if the error was caused by the endpoint or the network.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Client is a SPARQL protocol client.
type Client struct {
	URL string
	// HTTP is the client used for requests, http.DefaultClient if nil.
	HTTP *http.Client
	// Header is added to every request.
	Header http.Header
	// Timeout limits a single request if set.
	Timeout time.Duration
}

// New creates a client for the endpoint at addr.
func New(addr string) *Client {
	return &Client{URL: addr}
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// post sends a query and returns the decompressed response body together
// with its media type. The caller must close the body.
func (c *Client) post(ctx context.Context, query, accept string) (io.ReadCloser, string, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", &Error{Endpoint: c.URL, Err: err}
	}
	for k, vals := range c.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", accept)

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, "", &Error{Endpoint: c.URL, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", &Error{
			Endpoint: c.URL,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
			Err:      errors.New(resp.Status),
		}
	}
	body, err := decompressor.NewReadCloser(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, "", &Error{Endpoint: c.URL, Status: resp.StatusCode, Err: err}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}

// Construct runs a CONSTRUCT or DESCRIBE query and returns the resulting quads.
func (c *Client) Construct(ctx context.Context, query, accept string) ([]quad.Quad, error) {
	if accept == "" {
		accept = mimeNTriples
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	defer func() {
		mRequestTime.WithLabelValues("construct").Observe(time.Since(start).Seconds())
	}()

	body, mt, err := c.post(ctx, query, accept)
	if err != nil {
		mRequestErrors.WithLabelValues("construct").Inc()
		return nil, err
	}
	defer body.Close()
	if mt == "" {
		mt = accept
	}
	quads, err := Decode(body, mt)
	if err != nil {
		mRequestErrors.WithLabelValues("construct").Inc()
		return nil, &Error{Endpoint: c.URL, Err: err}
	}
	mQuadsRead.Add(float64(len(quads)))
	if clog.V(2) {
		clog.Infof("endpoint returned %d quads in %v", len(quads), time.Since(start))
	}
	return quads, nil
}

// Select runs a SELECT query and returns the decoded bindings.
func (c *Client) Select(ctx context.Context, query string) (*Results, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	defer func() {
		mRequestTime.WithLabelValues("select").Observe(time.Since(start).Seconds())
	}()

	body, _, err := c.post(ctx, query, mimeResultsJSON)
	if err != nil {
		mRequestErrors.WithLabelValues("select").Inc()
		return nil, err
	}
	defer body.Close()
	res, err := DecodeResults(body)
	if err != nil {
		mRequestErrors.WithLabelValues("select").Inc()
		return nil, &Error{Endpoint: c.URL, Err: err}
	}
	return res, nil
}

// Ping checks that the endpoint answers a trivial query.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Select(ctx, "SELECT * WHERE { } LIMIT 1")
	return err
}
