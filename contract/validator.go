package contract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/s0up4200/calc-consumer/calculator"
)

// Validator checks interactions against a local Schema. It implements
// calculator.Interceptor and never returns an error for a decided interaction.
type Validator struct {
	schema *Schema
	rules  *ruleEngine
	logger zerolog.Logger
}

var _ calculator.Interceptor = (*Validator)(nil)

// NewValidator compiles every rule in schema up front
func NewValidator(schema *Schema, logger zerolog.Logger) (*Validator, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrInvalidSchema)
	}

	v := &Validator{
		schema: schema,
		rules:  newRuleEngine(defaultRuleCacheSize),
		logger: logger,
	}
	for _, ep := range schema.Endpoints {
		for _, status := range ep.Statuses() {
			spec, _ := ep.Response(status)
			for _, rule := range append(append([]string(nil), spec.Rules...), deriveExpressions(spec)...) {
				if _, err := v.rules.compile(rule); err != nil {
					if ce, ok := err.(*CompilationError); ok {
						ce.Endpoint = fmt.Sprintf("%s (%d)", ep.Key(), status)
					}
					return nil, err
				}
			}
		}
	}
	return v, nil
}

// Schema returns the contract being enforced
func (v *Validator) Schema() *Schema {
	return v.schema
}

// Validate reports every contract violation of the interaction, in order:
// endpoint, query parameters, status, body fields, rules. Rules are skipped
// only when a parameter or field they read is missing or mistyped.
func (v *Validator) Validate(ctx context.Context, interaction calculator.Interaction) (*calculator.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := interaction.Request
	ep, ok := v.schema.Find(req.Method, req.Path)
	if !ok {
		return invalid(fmt.Sprintf("endpoint %s %s is not defined in schema %s", req.Method, req.Path, v.schema.ID)), nil
	}

	var errs []string
	query, queryErrs, queryUsable := checkParams(ep, req.Query)
	errs = append(errs, queryErrs...)

	status := interaction.Response.StatusCode
	spec, ok := ep.Response(status)
	if !ok {
		errs = append(errs, fmt.Sprintf("response status %d is not declared for %s", status, ep.Key()))
		return result(errs), nil
	}

	body, bodyErrs, bodyUsable := checkBody(spec, interaction.Response.Body)
	errs = append(errs, bodyErrs...)

	// Rules read typed params and fields; extra ones do not get in the way
	if queryUsable && bodyUsable {
		env := ruleEnv{Query: query, Body: body, Status: status}
		for _, rule := range spec.Rules {
			passed, err := v.rules.check(rule, env)
			switch {
			case err != nil:
				errs = append(errs, fmt.Sprintf("rule '%s' could not be evaluated: %v", rule, err))
			case !passed:
				errs = append(errs, fmt.Sprintf("rule '%s' failed", rule))
			}
		}
	}

	out := result(errs)
	v.logger.Debug().
		Str("endpoint", ep.Key()).
		Int("status", status).
		Bool("valid", out.Valid).
		Strs("errors", out.Errors).
		Msg("Validated interaction")
	return out, nil
}

// checkParams validates the query against the declared parameters and
// returns the typed values for rule evaluation
func checkParams(ep *Endpoint, raw map[string]string) (map[string]any, []string, bool) {
	var errs []string
	values := make(map[string]any, len(raw))

	for _, p := range ep.Params {
		s, present := raw[p.Name]
		if !present || s == "" {
			if p.Required {
				errs = append(errs, fmt.Sprintf("missing required query parameter '%s'", p.Name))
			}
			continue
		}
		value, err := coerceParam(p.Type, s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("query parameter '%s' must be %s, got %q", p.Name, p.Type, s))
			continue
		}
		values[p.Name] = value
	}
	usable := len(errs) == 0

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, declared := ep.Param(name); !declared {
			errs = append(errs, fmt.Sprintf("unexpected query parameter '%s'", name))
		}
	}
	return values, errs, usable
}

func coerceParam(typ, s string) (any, error) {
	switch typ {
	case TypeNumber:
		return strconv.ParseFloat(s, 64)
	case TypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		return float64(n), err
	case TypeBoolean:
		return strconv.ParseBool(s)
	default:
		return s, nil
	}
}

// checkBody validates required fields, property types and closedness. The
// body is usable for rules when every required field is present and typed.
func checkBody(spec ResponseSpec, raw []byte) (map[string]any, []string, bool) {
	if len(spec.Required) == 0 && len(spec.Properties) == 0 {
		body, _ := gjson.ParseBytes(raw).Value().(map[string]any)
		if body == nil {
			body = map[string]any{}
		}
		return body, nil, true
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return map[string]any{}, []string{"response body is not a JSON object"}, false
	}

	parsed := gjson.ParseBytes(raw)
	body, _ := parsed.Value().(map[string]any)
	if body == nil {
		body = map[string]any{}
	}

	var errs []string
	for _, field := range spec.Required {
		if !parsed.Get(gjson.Escape(field)).Exists() {
			errs = append(errs, fmt.Sprintf("response missing required field '%s'", field))
		}
	}

	fields := make([]string, 0, len(spec.Properties))
	for field := range spec.Properties {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		value := parsed.Get(gjson.Escape(field))
		if !value.Exists() {
			continue
		}
		if typ := spec.Properties[field]; !matchesType(typ, value) {
			errs = append(errs, fmt.Sprintf("response field '%s' must be %s, got %s", field, typ, describe(value)))
		}
	}
	usable := len(errs) == 0

	if !spec.AdditionalProperties {
		var extra []string
		parsed.ForEach(func(key, _ gjson.Result) bool {
			if _, declared := spec.Properties[key.String()]; !declared {
				extra = append(extra, key.String())
			}
			return true
		})
		sort.Strings(extra)
		for _, field := range extra {
			errs = append(errs, fmt.Sprintf("unexpected response field '%s'", field))
		}
	}
	return body, errs, usable
}

func matchesType(typ string, value gjson.Result) bool {
	switch typ {
	case TypeNumber:
		return value.Type == gjson.Number
	case TypeInteger:
		return value.Type == gjson.Number && value.Float() == math.Trunc(value.Float())
	case TypeString:
		return value.Type == gjson.String
	case TypeBoolean:
		return value.Type == gjson.True || value.Type == gjson.False
	case TypeObject:
		return value.IsObject()
	case TypeArray:
		return value.IsArray()
	default:
		return false
	}
}

func describe(value gjson.Result) string {
	switch {
	case value.IsObject():
		return TypeObject
	case value.IsArray():
		return TypeArray
	case value.Type == gjson.Number:
		return TypeNumber
	case value.Type == gjson.String:
		return TypeString
	case value.Type == gjson.True, value.Type == gjson.False:
		return TypeBoolean
	default:
		return "null"
	}
}

func deriveExpressions(spec ResponseSpec) []string {
	out := make([]string, 0, len(spec.Derive))
	for _, e := range spec.Derive {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func invalid(errs ...string) *calculator.ValidationResult {
	return &calculator.ValidationResult{Valid: false, Errors: errs}
}

func result(errs []string) *calculator.ValidationResult {
	if len(errs) == 0 {
		return &calculator.ValidationResult{Valid: true}
	}
	return invalid(errs...)
}
