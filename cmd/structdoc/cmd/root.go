package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twinfer/structdoc/pkg/structdoc"
)

var longRootCmdDescription = `structdoc resolves declarative binary layout definitions (structs,
bitfields, enums, aliases, generic containers and pointers) into sized type trees
and prints them as nested documentation tables.

Flags may also be set through STRUCTDOC_* environment variables or a config file.
`

// app holds what every subcommand shares once flags and config are read.
type app struct {
	v        *viper.Viper
	logger   *slog.Logger
	renderer *structdoc.Renderer
}

// NewRootCmd builds the structdoc command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "structdoc",
		Short:         "Document binary layouts from type definitions.",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.BoolP("debug", "d", false, "turn on debug logging")
	flags.StringSlice("import-path", nil, "directory searched for schema files referenced by relative path")
	flags.String("lang", "en", "language for comments and labels when an entry names none")
	flags.Duration("cache-ttl", 5*time.Minute, "how long loaded schema files are reused")

	for key, flag := range map[string]string{
		"config":       "config",
		"debug":        "debug",
		"import_paths": "import-path",
		"lang":         "lang",
		"cache_ttl":    "cache-ttl",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	a.v.SetEnvPrefix("STRUCTDOC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(newRenderCmd(a), newCheckCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if cfgFile := a.v.GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	level := slog.LevelInfo
	if a.v.GetBool("debug") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a.renderer = structdoc.NewRenderer(
		structdoc.WithLogger(a.logger),
		structdoc.WithCaching(a.v.GetDuration("cache_ttl")),
		structdoc.WithImportPaths(a.v.GetStringSlice("import_paths")...),
		structdoc.WithLanguage(a.v.GetString("lang")),
	)
	a.logger.Debug("Configured renderer", "import_paths", a.v.GetStringSlice("import_paths"), "lang", a.v.GetString("lang"))
	return nil
}
