package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/pysubclasses"
)

var (
	flagModule    string
	flagDirectory string
	flagExcludes  []string
	flagFormat    string
	flagMode      string
	flagNoCache   bool
	flagCachePath string
	flagVerbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		var amb *pysubclasses.AmbiguousClassError
		if errors.As(err, &amb) {
			fmt.Fprintln(os.Stderr, "Specify --module to disambiguate.")
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pysubclasses <class>",
	Short: "Find all subclasses of a Python class, statically",
	Long: "pysubclasses scans a Python source tree without executing it, resolves\n" +
		"imports and aliases across files, and lists every class that inherits\n" +
		"from the given class.",
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return validateMode(flagMode)
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagModule, "module", "m", "", "module path qualifying the class (e.g. pkg.animals)")
	rootCmd.Flags().StringVarP(&flagDirectory, "directory", "d", ".", "root directory of the Python source tree")
	rootCmd.Flags().StringArrayVar(&flagExcludes, "exclude", nil, "glob pattern to skip, relative to the root (repeatable)")
	rootCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text|json|dot")
	rootCmd.Flags().StringVar(&flagMode, "mode", "all", "subclass extent: all|direct")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable the extraction cache")
	rootCmd.Flags().StringVar(&flagCachePath, "cache-path", "", "extraction cache location (default: .pysubclasses.cache.db in the root)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-file diagnostics to stderr")
}

func run(cmd *cobra.Command, args []string) error {
	className := args[0]

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	opts := []pysubclasses.Option{
		pysubclasses.WithLogger(log),
	}
	if len(flagExcludes) > 0 {
		opts = append(opts, pysubclasses.WithExcludes(flagExcludes...))
	}
	if flagNoCache {
		opts = append(opts, pysubclasses.WithCache(false))
	}
	if flagCachePath != "" {
		opts = append(opts, pysubclasses.WithCachePath(flagCachePath))
	}

	eng, err := pysubclasses.New(flagDirectory, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Analyze(context.Background()); err != nil {
		return err
	}

	if flagVerbose {
		for _, perr := range eng.ParseErrors() {
			log.Warn("file skipped or partially analyzed", "error", perr)
		}
		stats := eng.CacheStats()
		log.Debug("analysis complete",
			"classes", eng.ClassCount(),
			"cache_hits", stats.Hits,
			"cache_misses", stats.Misses)
	}

	mode := pysubclasses.ModeAll
	if flagMode == "direct" {
		mode = pysubclasses.ModeDirect
	}

	root, err := eng.ResolveClass(className, flagModule)
	if err != nil {
		return err
	}
	subs, err := eng.FindSubclasses(className, flagModule, mode)
	if err != nil {
		return err
	}

	switch flagFormat {
	case "json":
		return formatJSON(os.Stdout, root, subs)
	case "dot":
		return formatDot(os.Stdout, eng, root, subs)
	default:
		return formatText(os.Stdout, root, subs)
	}
}

func validateFormat(format string) error {
	switch format {
	case "text", "json", "dot":
		return nil
	}
	return fmt.Errorf("invalid format %q: must be text, json, or dot", format)
}

func validateMode(mode string) error {
	switch mode {
	case "all", "direct":
		return nil
	}
	return fmt.Errorf("invalid mode %q: must be all or direct", mode)
}
