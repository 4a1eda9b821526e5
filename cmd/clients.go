package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/s0up4200/calc-consumer/calculator"
	"github.com/s0up4200/calc-consumer/config"
	"github.com/s0up4200/calc-consumer/contract"
	"github.com/s0up4200/calc-consumer/store"
)

// session bundles the client for one invocation with whatever records its
// interactions
type session struct {
	client   *calculator.Client
	recorder *contract.Recorder
	store    store.Store
	// validating is false when validation was requested but could not be enabled
	validating bool
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// newSession builds the calculator client. With validate set, a validator is
// attached; failure to build one is reported and the session continues
// without it.
func newSession(ctx context.Context, validate bool, stderr io.Writer) (*session, error) {
	st, err := store.New(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open interaction store: %w", err)
	}

	s := &session{store: st}

	var validator calculator.Interceptor
	if validate {
		validator, err = buildValidator(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: Failed to enable contract validation: %v\n", err)
			fmt.Fprintln(stderr, "Continuing without validation...")
			logger.Debug().Err(err).Msg("Contract validation disabled")
		} else {
			s.validating = true
		}
	}

	opts := []calculator.Option{
		calculator.WithTimeout(cfg.Producer.Timeout),
		calculator.WithParamNames(calculator.ParamNames{
			First:  cfg.Producer.Params.First,
			Second: cfg.Producer.Params.Second,
		}),
	}
	if validator != nil || cfg.Store.Type != store.TypeNone {
		s.recorder = contract.NewRecorder(validator, st, logger)
		opts = append(opts, calculator.WithInterceptor(s.recorder))
	}

	s.client, err = calculator.NewClient(cfg.Producer.URL, logger, opts...)
	if err != nil {
		st.Close()
		return nil, err
	}
	return s, nil
}

// lastVerdict returns the validation result of the most recent call
func (s *session) lastVerdict() *calculator.ValidationResult {
	if s.recorder == nil {
		return nil
	}
	interactions := s.recorder.Interactions()
	if len(interactions) == 0 {
		return nil
	}
	return interactions[len(interactions)-1].ValidationResult
}

// buildValidator creates the interceptor for the configured validator mode
func buildValidator(ctx context.Context) (calculator.Interceptor, error) {
	switch cfg.Validator.EffectiveMode() {
	case config.ModeRemote:
		rv, err := contract.NewRemoteValidator(ctx, contract.RemoteConfig{
			Address:  cfg.Validator.RemoteAddress(),
			SchemaID: cfg.Validator.SchemaID,
			Timeout:  cfg.Producer.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Validator.RegisterSchema {
			schema, err := loadSchema(cfg.Validator.SchemaPath, true)
			if err != nil {
				return nil, err
			}
			if err := rv.RegisterSchema(ctx, schema); err != nil {
				return nil, err
			}
		}
		return rv, nil
	default:
		schema, err := loadSchema(cfg.Validator.SchemaPath, true)
		if err != nil {
			return nil, err
		}
		return contract.NewValidator(schema, logger)
	}
}

// loadSchema reads the contract at path. With fallback set, a missing file
// yields the built-in calculator contract.
func loadSchema(path string, fallback bool) (*contract.Schema, error) {
	if path == "" && fallback {
		return contract.DefaultSchema(), nil
	}
	schema, err := contract.LoadSchema(path)
	if err != nil && fallback && errors.Is(err, os.ErrNotExist) {
		logger.Debug().Str("path", path).Msg("Schema file not found, using built-in calculator contract")
		return contract.DefaultSchema(), nil
	}
	return schema, err
}

// describeError turns a client error into the message shown to the user
func describeError(err error) error {
	var (
		apiErr        *calculator.APIError
		transportErr  *calculator.TransportError
		validationErr *calculator.ValidationError
	)
	switch {
	case errors.As(err, &validationErr):
		return fmt.Errorf("contract validation failed: %v", validationErr.Errors)
	case errors.As(err, &apiErr):
		return errors.New(apiErr.Message)
	case errors.As(err, &transportErr):
		return fmt.Errorf("no response from server. Is the producer running? (%v)", transportErr.Err)
	default:
		return err
	}
}
