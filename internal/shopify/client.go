package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	applog "wishlistapp/internal/log"
)

// Credential authenticates Admin API calls for one shop.
type Credential struct {
	Shop        string
	AccessToken string
}

type Config struct {
	APIVersion string
	// BaseURL replaces https://{shop} when set.
	BaseURL string
	Timeout time.Duration
}

// ErrNotFound is returned when the queried resource resolves to null.
var ErrNotFound = errors.New("shopify: resource not found")

// Error is a failed Admin API call: transport, status, decode or top-level GraphQL errors.
type Error struct {
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("shopify ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// UserError is a field-level validation error returned by a mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "shopify_request_duration_seconds",
		Help:    "Shopify Admin GraphQL call latency by operation and outcome",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

// Client talks to the Admin GraphQL API. Each shop gets its own circuit breaker
// so one failing store does not block the others.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg Config) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2026-04"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breakers:   map[string]*gobreaker.CircuitBreaker[[]byte]{},
	}
}

func (c *Client) endpoint(shop string) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://" + normalizeShop(shop)
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", base, c.cfg.APIVersion)
}

func normalizeShop(shop string) string {
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	return strings.TrimSuffix(shop, "/")
}

func (c *Client) breaker(shop string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[shop]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "shopify:" + shop,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			applog.Event("shopify.breaker.state", map[string]any{"breaker": name, "from": from.String(), "to": to.String()})
		},
	})
	c.breakers[shop] = b
	return b
}

// Execute runs one GraphQL operation and decodes data into out (may be nil).
func (c *Client) Execute(ctx context.Context, cred Credential, op, query string, variables map[string]any, out any) error {
	start := time.Now()
	err := c.execute(ctx, cred, op, query, variables, out)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) execute(ctx context.Context, cred Credential, op, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return &Error{Op: op, Msg: "marshal request", Err: err}
	}

	body, err := c.breaker(cred.Shop).Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(cred.Shop), bytes.NewReader(payload))
		if err != nil {
			return nil, &Error{Op: op, Msg: "create request", Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", cred.AccessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &Error{Op: op, Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &Error{Op: op, Status: resp.StatusCode, Msg: "read response", Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &Error{Op: op, Status: resp.StatusCode, Msg: truncate(string(raw), 256)}
		}
		return raw, nil
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return se
		}
		return &Error{Op: op, Err: err}
	}

	var gr GraphQLResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return &Error{Op: op, Status: http.StatusOK, Msg: "decode response", Err: err}
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return &Error{Op: op, Status: http.StatusOK, Msg: "graphql errors: " + strings.Join(msgs, "; ")}
	}
	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return &Error{Op: op, Status: http.StatusOK, Msg: "decode data", Err: err}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
