package contract

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/calc-consumer/calculator"
	"github.com/s0up4200/calc-consumer/store"
)

// Recorder captures every interaction the client hands to it, optionally
// forwarding to a wrapped interceptor and persisting to a store.
type Recorder struct {
	next         calculator.Interceptor
	store        store.Store
	logger       zerolog.Logger
	mu           sync.Mutex
	interactions []calculator.Interaction
}

var _ calculator.Interceptor = (*Recorder)(nil)

// NewRecorder wraps next, which may be nil to record without validating.
func NewRecorder(next calculator.Interceptor, st store.Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		next:   next,
		store:  st,
		logger: logger,
	}
}

// Validate records the interaction with the wrapped interceptor's verdict
func (r *Recorder) Validate(ctx context.Context, interaction calculator.Interaction) (*calculator.ValidationResult, error) {
	var (
		result *calculator.ValidationResult
		err    error
	)
	if r.next != nil {
		result, err = r.next.Validate(ctx, interaction)
	}
	interaction.ValidationResult = result

	r.mu.Lock()
	r.interactions = append(r.interactions, interaction)
	r.mu.Unlock()

	if r.store != nil {
		if storeErr := r.store.Append(interaction); storeErr != nil {
			r.logger.Warn().Err(storeErr).Str("interaction", interaction.ID).Msg("Failed to persist interaction")
		}
	}
	return result, err
}

// Interactions returns a copy of everything captured so far
func (r *Recorder) Interactions() []calculator.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]calculator.Interaction(nil), r.interactions...)
}

// Clear forgets captured interactions. The store is left untouched.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.interactions = nil
	r.mu.Unlock()
}
