package contract

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed calculator-api.yaml
var defaultSchema []byte

// Param types understood by the validator
const (
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

var knownTypes = map[string]bool{
	TypeNumber:  true,
	TypeInteger: true,
	TypeString:  true,
	TypeBoolean: true,
	TypeObject:  true,
	TypeArray:   true,
}

// Schema is a published producer contract
type Schema struct {
	ID        string     `yaml:"id" json:"id"`
	Version   string     `yaml:"version" json:"version"`
	Endpoints []Endpoint `yaml:"endpoints" json:"endpoints"`
}

// Endpoint describes one method and path of the producer
type Endpoint struct {
	Method    string                  `yaml:"method" json:"method"`
	Path      string                  `yaml:"path" json:"path"`
	Params    []Param                 `yaml:"params" json:"params,omitempty"`
	Responses map[string]ResponseSpec `yaml:"responses" json:"responses"`
}

// Param is a declared query parameter
type Param struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required" json:"required"`
}

// ResponseSpec describes the body expected for one status code
type ResponseSpec struct {
	Required             []string          `yaml:"required" json:"required,omitempty"`
	Properties           map[string]string `yaml:"properties" json:"properties,omitempty"`
	AdditionalProperties bool              `yaml:"additional_properties" json:"additional_properties,omitempty"`
	Rules                []string          `yaml:"rules" json:"rules,omitempty"`
	Derive               map[string]string `yaml:"derive" json:"derive,omitempty"`
	Example              map[string]any    `yaml:"example" json:"example,omitempty"`
}

// DefaultSchema returns the built-in calculator contract
func DefaultSchema() *Schema {
	schema, err := ParseSchema(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("embedded calculator schema is invalid: %v", err))
	}
	return schema
}

// LoadSchema reads a YAML or JSON contract from disk
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return schema, nil
}

// ParseSchema decodes a contract. JSON is accepted since it is valid YAML.
func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	schema.normalize()
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &schema, nil
}

func (s *Schema) normalize() {
	for i := range s.Endpoints {
		ep := &s.Endpoints[i]
		ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
		if ep.Method == "" {
			ep.Method = "GET"
		}
		ep.Path = "/" + strings.Trim(strings.TrimSpace(ep.Path), "/")
	}
}

// Validate checks the schema's structure. Rule expressions are checked by NewValidator.
func (s *Schema) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSchema)
	}
	if len(s.Endpoints) == 0 {
		return fmt.Errorf("%w: %s declares no endpoints", ErrInvalidSchema, s.ID)
	}

	seen := make(map[string]bool)
	for _, ep := range s.Endpoints {
		key := ep.Key()
		if seen[key] {
			return fmt.Errorf("%w: duplicate endpoint %s", ErrInvalidSchema, key)
		}
		seen[key] = true

		for _, p := range ep.Params {
			if p.Name == "" {
				return fmt.Errorf("%w: %s has a parameter without a name", ErrInvalidSchema, key)
			}
			if !knownTypes[p.Type] {
				return fmt.Errorf("%w: %s parameter '%s' has unknown type %q", ErrInvalidSchema, key, p.Name, p.Type)
			}
		}

		if len(ep.Responses) == 0 {
			return fmt.Errorf("%w: %s declares no responses", ErrInvalidSchema, key)
		}
		for status, resp := range ep.Responses {
			code, err := strconv.Atoi(status)
			if err != nil || code < 100 || code > 599 {
				return fmt.Errorf("%w: %s has invalid status %q", ErrInvalidSchema, key, status)
			}
			for field, typ := range resp.Properties {
				if !knownTypes[typ] {
					return fmt.Errorf("%w: %s %s field '%s' has unknown type %q", ErrInvalidSchema, key, status, field, typ)
				}
			}
		}
	}
	return nil
}

// Find returns the endpoint for method and path, ignoring any query string
func (s *Schema) Find(method, path string) (*Endpoint, bool) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	method = strings.ToUpper(method)
	path = "/" + strings.Trim(path, "/")
	for i := range s.Endpoints {
		if s.Endpoints[i].Method == method && s.Endpoints[i].Path == path {
			return &s.Endpoints[i], true
		}
	}
	return nil, false
}

// Key identifies the endpoint as "METHOD /path"
func (e Endpoint) Key() string {
	return e.Method + " " + e.Path
}

// Response returns the spec for a status code
func (e Endpoint) Response(status int) (ResponseSpec, bool) {
	spec, ok := e.Responses[strconv.Itoa(status)]
	return spec, ok
}

// Statuses returns the declared status codes in ascending order
func (e Endpoint) Statuses() []int {
	codes := make([]int, 0, len(e.Responses))
	for status := range e.Responses {
		if code, err := strconv.Atoi(status); err == nil {
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	return codes
}

// Param returns the declared parameter by name
func (e Endpoint) Param(name string) (Param, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}
