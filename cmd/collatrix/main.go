package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/coolbeans/collatrix/pkg/config"
	"github.com/coolbeans/collatrix/pkg/fetch"
	"github.com/coolbeans/collatrix/pkg/logger"
	"github.com/coolbeans/collatrix/pkg/pipeline"
	"github.com/coolbeans/collatrix/pkg/render"
	"github.com/coolbeans/collatrix/pkg/vmr"
	"github.com/coolbeans/collatrix/pkg/watch"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collatrix",
		Short: "Collation matrix builder",
		Long: `Collatrix reads a critical apparatus and produces a reading-by-witness
collation matrix suitable for factorization.

Sources are TEI XML files (any argument ending in .xml) or New Testament
Virtual Manuscript Room indices such as Acts.1.1-5, which are fetched over
HTTP and cached on disk.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("profile", "", "Collation profile (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log per-unit timings")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(matrixCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(profileCmd())

	return rootCmd
}

// addCollationFlags registers the flags that override profile values.
func addCollationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("proportion", "p", 0, "Minimum proportion of units at which a witness must be extant (0 to 1)")
	cmd.Flags().Bool("tfidf", false, "Reweight the matrices by TF-IDF")
	cmd.Flags().String("prefix", "", "Prefix of ambiguous reading numbers in TEI input")
	cmd.Flags().StringSlice("suffixes", []string{}, "Subwitness suffixes to strip from sigla")
	cmd.Flags().StringSlice("trivial", []string{}, "Reading types that get no row of their own")
	cmd.Flags().StringSlice("ignored", []string{}, "Reading types excluded from the matrix")
	cmd.Flags().String("cache-dir", "", "Directory for cached VMR responses")
	cmd.Flags().String("base-url", "", "VMR apparatus endpoint")
}

// loadProfile reads the --profile file, if any, and applies the flags the
// user set explicitly on top of it.
func loadProfile(cmd *cobra.Command) (config.Profile, error) {
	profile := config.Default()
	profilePath, _ := cmd.Flags().GetString("profile")
	if profilePath != "" {
		loaded, err := config.Load(profilePath)
		if err != nil {
			return config.Profile{}, err
		}
		profile = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("proportion") {
		profile.Collation.MinExtantProportion, _ = flags.GetFloat64("proportion")
	}
	if flags.Changed("tfidf") {
		profile.Collation.UseTFIDF, _ = flags.GetBool("tfidf")
	}
	if flags.Changed("prefix") {
		profile.Collation.AmbiguousReadingPrefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("suffixes") {
		profile.Collation.SubwitnessSuffixes, _ = flags.GetStringSlice("suffixes")
	}
	if flags.Changed("trivial") {
		profile.Collation.TrivialReadingTypes, _ = flags.GetStringSlice("trivial")
	}
	if flags.Changed("ignored") {
		profile.Collation.IgnoredReadingTypes, _ = flags.GetStringSlice("ignored")
	}
	if flags.Changed("cache-dir") {
		profile.Fetch.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("base-url") {
		profile.Fetch.BaseURL, _ = flags.GetString("base-url")
	}

	if err := profile.Validate(); err != nil {
		return config.Profile{}, fmt.Errorf("invalid collation settings: %w", err)
	}
	return profile, nil
}

func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return logger.New(logger.Options{Debug: verbose, Quiet: quiet, Writer: cmd.ErrOrStderr()})
}

// newPipeline builds a pipeline from the profile and flags. The VMR client
// is only created when one of the sources needs it.
func newPipeline(cmd *cobra.Command, sources []string) (*pipeline.Pipeline, error) {
	profile, err := loadProfile(cmd)
	if err != nil {
		return nil, err
	}
	consoleLogger := newLogger(cmd)

	var client *vmr.Client
	for _, source := range sources {
		if pipeline.IsFileSource(source) {
			continue
		}
		fetchConfig, err := profile.FetchConfig()
		if err != nil {
			return nil, err
		}
		fetcher, err := fetch.NewFetcher(fetchConfig, consoleLogger)
		if err != nil {
			return nil, err
		}
		cache, err := profile.ApparatusCache()
		if err != nil {
			return nil, err
		}
		client = vmr.NewClient(profile.Fetch.BaseURL, fetcher, cache, consoleLogger)
		break
	}

	return pipeline.New(profile.CollationOptions(), client, consoleLogger)
}

func matrixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix <source>",
		Short: "Build the collation matrix of one source",
		Long: `Read one TEI file or VMR index and write its collation matrix.

The output format follows the extension of --output: .json, .csv, or
.db/.sqlite. Without --output the matrix is printed to the console.

Example:
  collatrix matrix acts.xml -p 0.5 --prefix W --suffixes "*,T,/1,/2" -o acts.json
  collatrix matrix Acts.1.1-5 --tfidf -o acts.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")
			if _, err := render.FormatFor(outputPath); err != nil {
				return err
			}

			collationPipeline, err := newPipeline(cmd, args)
			if err != nil {
				return err
			}

			output, err := collationPipeline.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := render.Write(cmd.Context(), outputPath, output.Tables(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if outputPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Matrix written to: %s\n", outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (.json, .csv, .db or .sqlite)")
	addCollationFlags(cmd)
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <source>...",
		Short: "Build collation matrices of several sources concurrently",
		Long: `Read several TEI files or VMR indices concurrently.

With a .db or .sqlite output every matrix is stored in one database.
Otherwise each matrix is printed to the console in source order.

Example:
  collatrix batch acts1.xml acts2.xml acts3.xml --parallel 2 -o acts.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")
			parallelism, _ := cmd.Flags().GetInt("parallel")

			format, err := render.FormatFor(outputPath)
			if err != nil {
				return err
			}
			if format != render.FormatConsole && format != render.FormatSQLite {
				return fmt.Errorf("batch output must be a .db or .sqlite file, got %q", outputPath)
			}

			collationPipeline, err := newPipeline(cmd, args)
			if err != nil {
				return err
			}

			outputs, err := collationPipeline.RunBatch(cmd.Context(), args, parallelism)
			if err != nil {
				return err
			}

			tableSets := make([]render.Tables, len(outputs))
			for i, output := range outputs {
				tableSets[i] = output.Tables()
			}

			if format == render.FormatSQLite {
				if err := render.WriteSQLite(cmd.Context(), outputPath, tableSets); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d matrices written to: %s\n", len(tableSets), outputPath)
				return nil
			}

			for _, tables := range tableSets {
				if err := render.WriteConsole(cmd.OutOrStdout(), tables); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output database (.db or .sqlite)")
	cmd.Flags().Int("parallel", pipeline.DefaultParallelism, "Number of sources read at once")
	addCollationFlags(cmd)
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <path>...",
		Short: "Rebuild matrices when TEI files change",
		Long: `Watch TEI files, or directories of them, and rebuild the collation
matrix of every file that changes.

With --output-dir each matrix is written to <name>.<format> in that
directory; otherwise it is printed to the console.

Example:
  collatrix watch collations/ --output-dir matrices --format csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output-dir")
			formatName, _ := cmd.Flags().GetString("format")
			formatName = strings.TrimPrefix(strings.ToLower(formatName), ".")
			if outputDir != "" {
				if _, err := render.FormatFor("matrix." + formatName); err != nil {
					return err
				}
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			collationPipeline, err := newPipeline(cmd, nil)
			if err != nil {
				return err
			}
			consoleLogger := newLogger(cmd)

			onChange := func(ctx context.Context, path string) {
				output, err := collationPipeline.Run(ctx, path)
				if err != nil {
					consoleLogger.Error("failed to rebuild matrix", "path", path, "err", err)
					return
				}

				outputPath := ""
				if outputDir != "" {
					name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
					outputPath = filepath.Join(outputDir, name+"."+formatName)
				}
				if err := render.Write(ctx, outputPath, output.Tables(), cmd.OutOrStdout()); err != nil {
					consoleLogger.Error("failed to write matrix", "path", path, "err", err)
					return
				}
				if outputPath != "" {
					consoleLogger.Info("matrix updated", "source", path, "output", outputPath)
				}
			}

			watcher, err := watch.New(watch.Config{Paths: args}, onChange, consoleLogger)
			if err != nil {
				return err
			}
			consoleLogger.Info("watching for changes", "paths", args)
			return watcher.Run(cmd.Context())
		},
	}

	cmd.Flags().String("output-dir", "", "Directory for rebuilt matrices")
	cmd.Flags().String("format", "json", "Output format in --output-dir (json, csv or sqlite)")
	addCollationFlags(cmd)
	return cmd
}

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [path]",
		Short: "Write the default collation profile",
		Long: `Write the default collation profile to path (default collatrix.yaml).
The format follows the extension: .yaml, .yml or .toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "collatrix.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("profile %s already exists", path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile written to: %s\n", path)
			return nil
		},
	}
}
