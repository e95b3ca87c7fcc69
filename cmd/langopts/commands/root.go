package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	langopts "github.com/goliatone/go-langopts"
	"github.com/goliatone/go-langopts/internal/logging"
	"github.com/goliatone/go-langopts/loader"
)

const Version = "0.1.0"

type rootOptions struct {
	settings  []string
	defaults  string
	language  string
	logLevel  string
	logFormat string

	logger *zap.Logger
}

// NewRootCommand builds the langopts command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "langopts",
		Short: "Resolve Inline Fold settings the way the editor does",
		Long: `langopts loads editor settings files and answers the same questions the
extension asks: which value applies to a key for the active language, which
languages have folding configured, and which pattern is used to fold.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&opts.settings, "settings", "s", nil, "Settings file, weakest first (repeatable)")
	flags.StringVar(&opts.defaults, "defaults", "", "Defaults file loaded beneath every settings file")
	flags.StringVarP(&opts.language, "language", "l", "", "Language identifier of the active document")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "Log format (console or json)")

	root.AddCommand(
		newGetCmd(opts),
		newLanguagesCmd(opts),
		newRegexCmd(opts),
		newTraceCmd(opts),
		newEffectiveCmd(opts),
		newEvalCmd(opts),
		newSchemaCmd(),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *rootOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

func (o *rootOptions) loader() *loader.Loader {
	opts := []loader.Option{loader.WithLogger(o.log())}
	if o.defaults != "" {
		opts = append(opts, loader.WithDefaultsFile(o.defaults))
	}
	return loader.New(opts...)
}

func (o *rootOptions) resolverOptions(extra ...langopts.Option) []langopts.Option {
	opts := []langopts.Option{
		langopts.WithLogger(langopts.NewZapLogger(o.log())),
		langopts.WithDocumentSource(langopts.NewActiveDocument(o.language)),
	}
	return append(opts, extra...)
}

// resolver loads the settings files once and returns a resolver holding
// the result.
func (o *rootOptions) resolver(extra ...langopts.Option) (*langopts.Resolver, error) {
	if len(o.settings) == 0 && o.defaults == "" {
		return nil, fmt.Errorf("at least one --settings or --defaults file is required")
	}
	snapshot, err := o.loader().Load(o.settings...)
	if err != nil {
		return nil, err
	}
	resolver := langopts.NewResolver(o.resolverOptions(extra...)...)
	resolver.Update(snapshot)
	return resolver, nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
