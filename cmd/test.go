package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/calc-consumer/calculator"
)

var testValidate bool

// sampleCall is one known-answer calculation
type sampleCall struct {
	op       calculator.Operation
	x, y     float64
	expected float64
}

var sampleCalls = []sampleCall{
	{calculator.OperationAdd, 5, 3, 8},
	{calculator.OperationMultiply, 6, 7, 42},
	{calculator.OperationDivide, 10, 4, 2.5},
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to the calculator service",
	Long: `Check the producer's health endpoint, then run one known-answer
calculation per operation, one after another, and report each outcome.`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().BoolVar(&testValidate, "validate", false, "validate the sample interactions against the producer contract")
}

func runTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx, testValidate, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(out, "Testing connection to calculator service at %s...\n", cfg.Producer.URL)
	status, err := s.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", describeError(err))
	}
	fmt.Fprintf(out, "✓ Connection successful! (status: %s)\n\n", status)

	// One request at a time; a run never overlaps calls to the producer
	lines := make([]string, 0, len(sampleCalls))
	failures := 0
	for _, sample := range sampleCalls {
		line, ok := runSample(ctx, s.client, sample)
		lines = append(lines, line)
		if !ok {
			failures++
		}
	}

	fmt.Fprintln(out, "Sample calculations:")
	for _, line := range lines {
		fmt.Fprintf(out, "  %s\n", line)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d sample calculations failed", failures, len(sampleCalls))
	}
	return nil
}

func runSample(ctx context.Context, client calculator.API, sample sampleCall) (string, bool) {
	expr := fmt.Sprintf("%s %s %s",
		calculator.FormatNumber(sample.x), sample.op.Symbol(), calculator.FormatNumber(sample.y))

	result, err := client.Calculate(ctx, sample.op, sample.x, sample.y)
	if err != nil {
		logger.Debug().Err(err).Str("operation", sample.op.String()).Msg("Sample calculation failed")
		return fmt.Sprintf("✗ %s: %s [%s]", expr, describeError(err), calculator.Kind(err)), false
	}
	if result != sample.expected {
		return fmt.Sprintf("✗ %s = %s, expected %s", expr,
			calculator.FormatNumber(result), calculator.FormatNumber(sample.expected)), false
	}
	return fmt.Sprintf("✓ %s = %s", expr, calculator.FormatNumber(result)), true
}
