package contract

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"

	"github.com/s0up4200/calc-consumer/calculator"
)

// Mock is an http.RoundTripper that answers from a schema instead of a
// producer. Known endpoints get their 200 example, with derived fields
// computed from the query when declared. A derivation that is not finite
// (division by zero) yields the endpoint's first 4xx example instead.
// Unknown endpoints get a 404.
type Mock struct {
	schema       *Schema
	rules        *ruleEngine
	logger       zerolog.Logger
	mu           sync.Mutex
	interactions []calculator.Interaction
}

var _ http.RoundTripper = (*Mock)(nil)

// NewMock creates a mock transport for schema
func NewMock(schema *Schema, logger zerolog.Logger) *Mock {
	return &Mock{
		schema: schema,
		rules:  newRuleEngine(defaultRuleCacheSize),
		logger: logger,
	}
}

// Client returns an *http.Client routed through the mock
func (m *Mock) Client() *http.Client {
	return &http.Client{Transport: m}
}

// RoundTrip synthesizes a response and records the interaction
func (m *Mock) RoundTrip(req *http.Request) (*http.Response, error) {
	query := make(map[string]string)
	for k, v := range req.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	status, body, err := m.answer(req.Method, req.URL.Path, query)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	m.mu.Lock()
	m.interactions = append(m.interactions, calculator.Interaction{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Request: calculator.RequestInfo{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  query,
		},
		Response: calculator.ResponseInfo{
			StatusCode: status,
			Status:     statusLine(status),
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       body,
		},
	})
	m.mu.Unlock()

	m.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).Int("status", status).Msg("Mock answered request")

	return &http.Response{
		Status:        statusLine(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

func (m *Mock) answer(method, path string, query map[string]string) (int, []byte, error) {
	ep, ok := m.schema.Find(method, path)
	if !ok {
		body, err := sjson.SetBytes([]byte(`{}`), "error", fmt.Sprintf("no mock response for %s %s", method, path))
		return http.StatusNotFound, body, err
	}

	if spec, ok := ep.Response(http.StatusOK); ok {
		body, err := m.render(spec, ep, query)
		if err == nil {
			return http.StatusOK, body, nil
		}
		m.logger.Debug().Err(err).Str("endpoint", ep.Key()).Msg("Mock falling back to error response")
	}

	for _, status := range ep.Statuses() {
		if status < 400 {
			continue
		}
		spec, _ := ep.Response(status)
		body, err := example(spec)
		return status, body, err
	}
	return 0, nil, fmt.Errorf("schema declares no usable response for %s", ep.Key())
}

// render builds the example body and overlays derived fields
func (m *Mock) render(spec ResponseSpec, ep *Endpoint, raw map[string]string) ([]byte, error) {
	body, err := example(spec)
	if err != nil || len(spec.Derive) == 0 {
		return body, err
	}

	// Without usable operands there is nothing to derive from; serve the example as is.
	query, _, usable := checkParams(ep, raw)
	if !usable {
		return body, nil
	}

	fields := make([]string, 0, len(spec.Derive))
	for field := range spec.Derive {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value, err := m.rules.eval(spec.Derive[field], ruleEnv{Query: query, Body: map[string]any{}, Status: http.StatusOK})
		if err != nil {
			return nil, err
		}
		if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			return nil, fmt.Errorf("derived field '%s' is not finite", field)
		}
		if body, err = sjson.SetBytes(body, field, value); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// example renders a response's example as a JSON object, keys sorted
func example(spec ResponseSpec) ([]byte, error) {
	body := []byte(`{}`)
	keys := make([]string, 0, len(spec.Example))
	for k := range spec.Example {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		if body, err = sjson.SetBytes(body, k, spec.Example[k]); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Interactions returns a copy of every request the mock has answered
func (m *Mock) Interactions() []calculator.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]calculator.Interaction(nil), m.interactions...)
}

// Clear forgets recorded interactions
func (m *Mock) Clear() {
	m.mu.Lock()
	m.interactions = nil
	m.mu.Unlock()
}

func statusLine(code int) string {
	return strconv.Itoa(code) + " " + http.StatusText(code)
}
