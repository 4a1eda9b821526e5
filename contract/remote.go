package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/s0up4200/calc-consumer/calculator"
	"github.com/s0up4200/calc-consumer/logging"
)

// RemoteConfig configures a RemoteValidator
type RemoteConfig struct {
	Address  string
	SchemaID string
	Timeout  time.Duration
}

// RemoteValidator delegates validation to a contract validation service
type RemoteValidator struct {
	http     *resty.Client
	address  string
	schemaID string
	logger   zerolog.Logger
}

var _ calculator.Interceptor = (*RemoteValidator)(nil)

type remoteErrorBody struct {
	Error string `json:"error"`
}

type validateRequest struct {
	SchemaID string         `json:"schema_id"`
	Request  remoteRequest  `json:"request"`
	Response remoteResponse `json:"response"`
}

type remoteRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
}

type remoteResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
}

// NewRemoteValidator connects to the validation service at cfg.Address.
// An unreachable service is reported as calculator.ErrValidatorUnavailable.
func NewRemoteValidator(ctx context.Context, cfg RemoteConfig, logger zerolog.Logger) (*RemoteValidator, error) {
	address := strings.TrimRight(strings.TrimSpace(cfg.Address), "/")
	if address == "" {
		return nil, fmt.Errorf("validation service address is required")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	if cfg.SchemaID == "" {
		return nil, fmt.Errorf("schema ID is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(address).
		SetTimeout(timeout).
		SetLogger(logging.Resty(logger)).
		SetHeader("Accept", "application/json").
		SetError(&remoteErrorBody{})

	rv := &RemoteValidator{
		http:     client,
		address:  address,
		schemaID: cfg.SchemaID,
		logger:   logger,
	}

	if err := rv.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", calculator.ErrValidatorUnavailable, err)
	}
	return rv, nil
}

// TestConnection checks the service health endpoint
func (r *RemoteValidator) TestConnection(ctx context.Context) error {
	resp, err := r.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return remoteError(resp)
	}
	return nil
}

// RegisterSchema uploads the contract under its ID
func (r *RemoteValidator) RegisterSchema(ctx context.Context, schema *Schema) error {
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(schema).
		Post("/v1/schemas")
	if err != nil {
		return fmt.Errorf("register schema %s: %w", schema.ID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("register schema %s: %w", schema.ID, remoteError(resp))
	}

	r.logger.Debug().Str("schema_id", schema.ID).Str("version", schema.Version).Msg("Registered schema with validation service")
	return nil
}

// Validate sends the interaction to the service and returns its verdict
func (r *RemoteValidator) Validate(ctx context.Context, interaction calculator.Interaction) (*calculator.ValidationResult, error) {
	payload := validateRequest{
		SchemaID: r.schemaID,
		Request: remoteRequest{
			Method:  interaction.Request.Method,
			Path:    interaction.Request.RequestURI(),
			Headers: interaction.Request.Headers,
		},
		Response: remoteResponse{
			StatusCode: interaction.Response.StatusCode,
			Headers:    interaction.Response.Headers,
			Body:       decodeBody(interaction.Response.Body),
		},
	}

	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/v1/validate")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calculator.ErrValidatorUnavailable, err)
	}
	if resp.IsError() {
		return nil, remoteError(resp)
	}
	return parseVerdict(resp.Body())
}

// parseVerdict reads {valid, errors}. An answer without a boolean valid
// field decides nothing and is reported as an unavailable validator.
func parseVerdict(raw []byte) (*calculator.ValidationResult, error) {
	body := gjson.ParseBytes(raw)
	valid := body.Get("valid")
	if !gjson.ValidBytes(raw) || !body.IsObject() || !valid.IsBool() {
		return nil, fmt.Errorf("%w: validation service returned no verdict", calculator.ErrValidatorUnavailable)
	}

	out := &calculator.ValidationResult{Valid: valid.Bool()}
	for _, e := range body.Get("errors").Array() {
		out.Errors = append(out.Errors, e.String())
	}
	return out, nil
}

// RegisterConsumer records which endpoints and fields a consumer depends on
func (r *RemoteValidator) RegisterConsumer(ctx context.Context, usage *ConsumerUsage) (*ConsumerUsage, error) {
	var out ConsumerUsage
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(usage).
		SetResult(&out).
		Post("/v1/consumers")
	if err != nil {
		return nil, fmt.Errorf("register consumer %s: %w", usage.ConsumerID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("register consumer %s: %w", usage.ConsumerID, remoteError(resp))
	}
	return &out, nil
}

// decodeBody returns parsed JSON when possible, the raw string otherwise
func decodeBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err == nil {
		return body
	}
	return string(raw)
}

func remoteError(resp *resty.Response) error {
	msg := resp.Status()
	if body, ok := resp.Error().(*remoteErrorBody); ok && body.Error != "" {
		msg = body.Error
	}
	return &RemoteError{StatusCode: resp.StatusCode(), Message: msg}
}
