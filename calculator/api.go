package calculator

import (
	"context"
)

// API defines the calculator operations offered by the producer
type API interface {
	// Calculate runs op against the producer with the two operands
	Calculate(ctx context.Context, op Operation, x, y float64) (float64, error)

	// Add returns x + y as computed by the producer
	Add(ctx context.Context, x, y float64) (float64, error)

	// Multiply returns x * y as computed by the producer
	Multiply(ctx context.Context, x, y float64) (float64, error)

	// Divide returns x / y as computed by the producer. A zero divisor is sent as is.
	Divide(ctx context.Context, x, y float64) (float64, error)
}

// Interceptor observes every completed request/response pair and may reject it.
// An error return means the interceptor itself could not decide.
type Interceptor interface {
	Validate(ctx context.Context, interaction Interaction) (*ValidationResult, error)
}

// InterceptorFunc adapts a function to the Interceptor interface
type InterceptorFunc func(ctx context.Context, interaction Interaction) (*ValidationResult, error)

// Validate calls f
func (f InterceptorFunc) Validate(ctx context.Context, interaction Interaction) (*ValidationResult, error) {
	return f(ctx, interaction)
}
