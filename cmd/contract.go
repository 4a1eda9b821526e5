package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/calc-consumer/calculator"
	"github.com/s0up4200/calc-consumer/contract"
	"github.com/s0up4200/calc-consumer/store"
)

var (
	clearInteractions bool
	registerUsage     bool
)

// contractCmd groups the contract maintenance commands
var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Inspect the producer contract and recorded interactions",
}

var contractCheckCmd = &cobra.Command{
	Use:   "check [schema]",
	Short: "Load and compile a contract schema",
	Long: `Load a contract schema (YAML or JSON), compile its rules and print a
summary of its endpoints. Without an argument the configured schema path is
used, falling back to the built-in calculator contract.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContractCheck,
}

var contractInteractionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "List or clear recorded interactions",
	Args:  cobra.NoArgs,
	RunE:  runContractInteractions,
}

var contractUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show which endpoints and fields this consumer depends on",
	Long: `Build the consumer's usage of the producer contract from recorded
interactions. With --register the usage is sent to the validation service.`,
	Args: cobra.NoArgs,
	RunE: runContractUsage,
}

func init() {
	rootCmd.AddCommand(contractCmd)
	contractCmd.AddCommand(contractCheckCmd, contractInteractionsCmd, contractUsageCmd)

	contractInteractionsCmd.Flags().BoolVar(&clearInteractions, "clear", false, "delete all recorded interactions")
	contractUsageCmd.Flags().BoolVar(&registerUsage, "register", false, "register the usage with the validation service")
}

func runContractCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path, fallback := cfg.Validator.SchemaPath, true
	if len(args) == 1 {
		path, fallback = args[0], false
	}

	schema, err := loadSchema(path, fallback)
	if err != nil {
		return err
	}
	if _, err := contract.NewValidator(schema, logger); err != nil {
		return err
	}

	fmt.Fprintf(out, "Schema %s (version %s): OK\n", schema.ID, schema.Version)
	for _, ep := range schema.Endpoints {
		params := make([]string, 0, len(ep.Params))
		for _, p := range ep.Params {
			param := p.Name + ":" + p.Type
			if !p.Required {
				param += "?"
			}
			params = append(params, param)
		}
		statuses := make([]string, 0, len(ep.Responses))
		for _, status := range ep.Statuses() {
			statuses = append(statuses, fmt.Sprint(status))
		}
		fmt.Fprintf(out, "  • %-16s params [%s] responses [%s]\n",
			ep.Key(), strings.Join(params, ", "), strings.Join(statuses, ", "))
	}
	return nil
}

// openStore opens the configured store, which must persist something
func openStore() (store.Store, error) {
	if cfg.Store.Type == store.TypeNone {
		return nil, fmt.Errorf("no interaction store configured (set store.type to bbolt)")
	}
	return store.New(cfg.Store.Type, cfg.Store.Path)
}

func runContractInteractions(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if clearInteractions {
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear interactions: %w", err)
		}
		fmt.Fprintln(out, "Recorded interactions cleared.")
		return nil
	}

	interactions, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list interactions: %w", err)
	}
	if len(interactions) == 0 {
		fmt.Fprintln(out, "No interactions recorded.")
		return nil
	}

	fmt.Fprintf(out, "Found %d interactions:\n", len(interactions))
	for _, in := range interactions {
		fmt.Fprintf(out, "• %s %s %s -> %s%s\n",
			in.Timestamp.Format("2006-01-02 15:04:05"),
			in.Request.Method,
			in.Request.RequestURI(),
			in.Response.Status,
			verdictSuffix(in.ValidationResult))
	}
	return nil
}

func verdictSuffix(result *calculator.ValidationResult) string {
	switch {
	case result == nil:
		return ""
	case result.Valid:
		return " [valid]"
	default:
		return fmt.Sprintf(" [invalid: %s]", strings.Join(result.Errors, "; "))
	}
}

func runContractUsage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	interactions, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list interactions: %w", err)
	}

	schemaVersion := ""
	if schema, err := loadSchema(cfg.Validator.SchemaPath, true); err == nil {
		schemaVersion = schema.Version
	}

	usage, err := contract.BuildConsumer(interactions, contract.AutoRegisterConfig{
		ConsumerID:      cfg.Validator.ConsumerID,
		ConsumerVersion: cfg.Validator.ConsumerVersion,
		Environment:     cfg.Validator.Environment,
		SchemaID:        cfg.Validator.SchemaID,
		SchemaVersion:   schemaVersion,
	})
	if err != nil {
		return err
	}

	if registerUsage {
		rv, err := contract.NewRemoteValidator(ctx, contract.RemoteConfig{
			Address:  cfg.Validator.RemoteAddress(),
			SchemaID: cfg.Validator.SchemaID,
			Timeout:  cfg.Producer.Timeout,
		}, logger)
		if err != nil {
			return err
		}
		if _, err := rv.RegisterConsumer(ctx, usage); err != nil {
			return err
		}
		logger.Info().
			Str("consumer", usage.ConsumerID).
			Int("endpoints", len(usage.UsedEndpoints)).
			Msg("Registered consumer usage")
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(usage)
}
