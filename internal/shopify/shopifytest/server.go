// Package shopifytest is a fake Admin GraphQL endpoint for tests.
package shopifytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Call is one request received by the fake.
type Call struct {
	Path      string
	Token     string
	Query     string
	Variables map[string]any
}

// Responder produces the status and JSON body for a matched request.
type Responder func(vars map[string]any) (int, any)

type route struct {
	match string
	fn    Responder
}

type Server struct {
	*httptest.Server

	mu     sync.Mutex
	routes []route
	calls  []Call
}

// New starts a fake and closes it with the test.
func New(t testing.TB) *Server {
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle routes requests whose query contains match (e.g. "metafieldsSet").
func (s *Server) Handle(match string, fn Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{match: match, fn: fn})
}

// Data is a Responder returning {"data": data} with 200.
func Data(data any) Responder {
	return func(map[string]any) (int, any) { return http.StatusOK, map[string]any{"data": data} }
}

// Calls returns the requests seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsMatching returns requests whose query contains match.
func (s *Server) CallsMatching(match string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.Contains(c.Query, match) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Path:      r.URL.Path,
		Token:     r.Header.Get("X-Shopify-Access-Token"),
		Query:     req.Query,
		Variables: req.Variables,
	})
	var fn Responder
	for _, rt := range s.routes {
		if strings.Contains(req.Query, rt.match) {
			fn = rt.fn
			break
		}
	}
	s.mu.Unlock()

	if fn == nil {
		http.Error(w, "no fake route for query", http.StatusNotImplemented)
		return
	}
	status, body := fn(req.Variables)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
