package contract

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/s0up4200/calc-consumer/calculator"
)

// AutoRegisterConfig identifies the consumer being described
type AutoRegisterConfig struct {
	ConsumerID      string
	ConsumerVersion string
	Environment     string
	SchemaID        string
	SchemaVersion   string
}

// EndpointUsage is one endpoint a consumer calls and the fields it reads
type EndpointUsage struct {
	Method     string   `json:"method" yaml:"method"`
	Path       string   `json:"path" yaml:"path"`
	UsedFields []string `json:"used_fields" yaml:"used_fields"`
}

// ConsumerUsage describes what a consumer depends on in a producer schema
type ConsumerUsage struct {
	ConsumerID      string          `json:"consumer_id" yaml:"consumer_id"`
	ConsumerVersion string          `json:"consumer_version" yaml:"consumer_version"`
	Environment     string          `json:"environment" yaml:"environment"`
	SchemaID        string          `json:"schema_id" yaml:"schema_id"`
	SchemaVersion   string          `json:"schema_version" yaml:"schema_version"`
	UsedEndpoints   []EndpointUsage `json:"used_endpoints" yaml:"used_endpoints"`
}

// BuildConsumer derives consumer usage from recorded interactions. Endpoints
// appear in order of first use; fields come from successful response bodies.
func BuildConsumer(interactions []calculator.Interaction, cfg AutoRegisterConfig) (*ConsumerUsage, error) {
	if cfg.ConsumerID == "" {
		return nil, fmt.Errorf("consumer ID is required")
	}
	if cfg.SchemaID == "" {
		return nil, fmt.Errorf("schema ID is required")
	}
	if len(interactions) == 0 {
		return nil, ErrNoInteractions
	}

	usage := &ConsumerUsage{
		ConsumerID:      cfg.ConsumerID,
		ConsumerVersion: cfg.ConsumerVersion,
		Environment:     cfg.Environment,
		SchemaID:        cfg.SchemaID,
		SchemaVersion:   cfg.SchemaVersion,
	}

	index := make(map[string]int)
	fields := make(map[string]map[string]bool)
	for _, in := range interactions {
		method := in.Request.Method
		if method == "" {
			method = http.MethodGet
		}
		key := method + " " + in.Request.Path
		if _, ok := index[key]; !ok {
			index[key] = len(usage.UsedEndpoints)
			usage.UsedEndpoints = append(usage.UsedEndpoints, EndpointUsage{Method: method, Path: in.Request.Path})
			fields[key] = make(map[string]bool)
		}

		status := in.Response.StatusCode
		if status < 200 || status >= 300 || !gjson.ValidBytes(in.Response.Body) {
			continue
		}
		gjson.ParseBytes(in.Response.Body).ForEach(func(k, _ gjson.Result) bool {
			fields[key][k.String()] = true
			return true
		})
	}

	for i := range usage.UsedEndpoints {
		ep := &usage.UsedEndpoints[i]
		names := make([]string, 0, len(fields[ep.Method+" "+ep.Path]))
		for name := range fields[ep.Method+" "+ep.Path] {
			names = append(names, name)
		}
		sort.Strings(names)
		ep.UsedFields = names
	}
	return usage, nil
}
