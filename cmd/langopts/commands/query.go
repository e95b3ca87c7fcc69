package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	langopts "github.com/goliatone/go-langopts"
)

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value a key resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := langopts.ParseKey(args[0])
			if err != nil {
				return err
			}
			resolver, err := opts.resolver()
			if err != nil {
				return err
			}
			value, ok := resolver.Get(key)
			if !ok {
				return fmt.Errorf("%w: %s", langopts.ErrNotFound, key.Path())
			}
			return writeJSON(cmd.OutOrStdout(), value)
		},
	}
}

func newLanguagesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages folding is configured for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, err := opts.resolver()
			if err != nil {
				return err
			}
			for _, language := range resolver.SupportedLanguages() {
				fmt.Fprintln(cmd.OutOrStdout(), language)
			}
			return nil
		},
	}
}

type regexReport struct {
	Pattern string           `json:"pattern"`
	Inputs  []regexInputScan `json:"inputs,omitempty"`
}

type regexInputScan struct {
	Text    string           `json:"text"`
	Matches []langopts.Match `json:"matches"`
}

func newRegexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regex [text...]",
		Short: "Compile the fold pattern and optionally match it against text",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := opts.resolver()
			if err != nil {
				return err
			}
			pattern, err := resolver.Regex()
			if err != nil {
				return err
			}
			report := regexReport{Pattern: pattern.String()}
			for _, text := range args {
				matches, err := pattern.FindAll(text)
				if err != nil {
					return fmt.Errorf("match %q: %w", text, err)
				}
				if matches == nil {
					matches = []langopts.Match{}
				}
				report.Inputs = append(report.Inputs, regexInputScan{Text: text, Matches: matches})
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newTraceCmd(opts *rootOptions) *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "trace <key>",
		Short: "Show every scope consulted for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := langopts.ParseKey(args[0])
			if err != nil {
				return err
			}
			resolver, err := opts.resolver()
			if err != nil {
				return err
			}
			trace := resolver.Trace(key)
			if text {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), trace)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), trace)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "print one line per scope instead of JSON")
	return cmd
}

func newEffectiveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "effective",
		Short: "Print every setting as the active language sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, err := opts.resolver()
			if err != nil {
				return err
			}
			settings, err := resolver.Effective()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), settings)
		},
	}
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against the resolved settings",
		Long: `Evaluate an expression with every settings key bound as a variable,
plus language, settings and now. The helpers folds(text, pattern[, flags])
and mask(text[, char]) are available in every engine. Engines: expr
(default), cel, js (only in builds tagged js_eval).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := langopts.NewLRUProgramCache(128)
			if err != nil {
				return err
			}
			helpers := langopts.BuiltinFunctions()
			var evaluator langopts.Evaluator
			switch strings.ToLower(engine) {
			case "", "expr":
				evaluator = langopts.NewExprEvaluator(langopts.ExprWithProgramCache(cache), langopts.ExprWithFunctionRegistry(helpers))
			case "cel":
				evaluator = langopts.NewCELEvaluator(langopts.CELWithProgramCache(cache), langopts.CELWithFunctionRegistry(helpers))
			case "js":
				evaluator = langopts.NewJSEvaluator(langopts.JSWithProgramCache(cache), langopts.JSWithFunctionRegistry(helpers))
				if evaluator == nil {
					return fmt.Errorf("%w: js engine requires a js_eval build", langopts.ErrNoEvaluator)
				}
			default:
				return fmt.Errorf("unknown engine %q", engine)
			}
			resolver, err := opts.resolver(langopts.WithEvaluator(evaluator))
			if err != nil {
				return err
			}
			value, err := resolver.Evaluate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), value)
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "expr", "Expression engine: expr, cel or js")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the settings schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := langopts.Schema(langopts.SchemaFormat(format))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc.Document)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(langopts.SchemaFormatJSONSchema), "Schema format: json-schema or descriptors")
	return cmd
}
