package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/calc-consumer/calculator"
)

var validateFlag bool

func init() {
	for _, op := range calculator.Operations {
		rootCmd.AddCommand(newCalcCommand(op))
	}
}

var calcVerbs = map[calculator.Operation]string{
	calculator.OperationAdd:      "Add two numbers",
	calculator.OperationMultiply: "Multiply two numbers",
	calculator.OperationDivide:   "Divide x by y",
}

// newCalcCommand builds the subcommand for one calculator operation
func newCalcCommand(op calculator.Operation) *cobra.Command {
	c := &cobra.Command{
		Use:   op.String() + " <x> <y>",
		Short: calcVerbs[op] + " using the calculator service",
		Long: calcVerbs[op] + ` using the calculator service and print the result.

Operands starting with a minus sign would be read as flags; pass them after
"--", for example: calc-consumer ` + op.String() + ` -- -6 3`,
		Example: fmt.Sprintf(`  calc-consumer %[1]s 6 3
  calc-consumer %[1]s 6 3 --validate
  calc-consumer %[1]s -- -6 3`, op),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, op, args)
		},
	}
	c.Flags().BoolVar(&validateFlag, "validate", false, "validate the interaction against the producer contract")
	return c
}

func runCalc(cmd *cobra.Command, op calculator.Operation, args []string) error {
	x, errX := strconv.ParseFloat(args[0], 64)
	y, errY := strconv.ParseFloat(args[1], 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("both arguments must be valid numbers")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx, validateFlag, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.client.Calculate(ctx, op, x, y)
	if err != nil {
		logger.Debug().Err(err).Str("kind", calculator.Kind(err).String()).Msg("Calculation failed")
		return describeError(err)
	}

	if s.validating {
		if verdict := s.lastVerdict(); verdict != nil && verdict.Valid {
			fmt.Fprintln(cmd.ErrOrStderr(), "Contract validation passed")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s = %s\n",
		calculator.FormatNumber(x), op.Symbol(), calculator.FormatNumber(y), calculator.FormatNumber(result))
	return nil
}
