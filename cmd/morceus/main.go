// Command morceus builds the morphology tables and analyzes Latin words from
// the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/cours-de-latin/morceus"
	"github.com/cours-de-latin/morceus/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "morceus",
	Short: "Latin morphological analyzer",
	Long: `morceus splits Latin word forms into stem and ending and reports every
lemma and grammatical reading that explains them.

Tables are built from .end templates and stem files, or loaded from a
snapshot written by build-tables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, err = config.Load(configPath)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	greedy bool
	strict bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [word...]",
	Short: "Analyze words and print the readings as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

var expandOut string

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand the templates and write one .table file per table",
	RunE:  runExpand,
}

var (
	indexMode string
	indexOut  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Write the end index",
	RunE:  runIndex,
}

var buildOut string

var buildTablesCmd = &cobra.Command{
	Use:   "build-tables",
	Short: "Build the tables and write a snapshot for fast startup",
	RunE:  runBuildTables,
}

var paradigmCmd = &cobra.Command{
	Use:   "paradigm [lemma]",
	Short: "Print every form of a lemma",
	Args:  cobra.ExactArgs(1),
	RunE:  runParadigm,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	analyzeCmd.Flags().BoolVar(&greedy, "greedy", false, "keep only the readings with the longest stem")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "match marked vowel lengths exactly")

	expandCmd.Flags().StringVarP(&expandOut, "out", "o", "tables", "output directory")

	indexCmd.Flags().StringVar(&indexMode, "mode", string(morceus.IndexAll), "tables to index: all, verbs or nouns")
	indexCmd.Flags().StringVarP(&indexOut, "out", "o", "", "output file (default stdout)")

	buildTablesCmd.Flags().StringVarP(&buildOut, "out", "o", "", "snapshot file (default: tables from the config)")

	rootCmd.AddCommand(analyzeCmd, expandCmd, indexCmd, buildTablesCmd, paradigmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type wordResult struct {
	Word       string                      `json:"word"`
	Resolution string                      `json:"resolution"`
	Analyses   []morceus.LatinWordAnalysis `json:"analyses"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	tables, err := cfg.OpenTables(logger)
	if err != nil {
		return err
	}
	c := morceus.NewCruncher(tables)

	opts := cfg.Options
	if cmd.Flags().Changed("greedy") {
		opts.Greedy = greedy
	}
	if cmd.Flags().Changed("strict") {
		opts.VowelLengthSensitive = strict
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	// Tables are read-only, so words are analyzed in parallel.
	results := make([]wordResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, word := range args {
		i, word := i, word
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Resolve(word, opts)
			if err != nil {
				return fmt.Errorf("analyze %q: %w", word, err)
			}
			analyses := res.Analyses
			if analyses == nil {
				analyses = []morceus.LatinWordAnalysis{}
			}
			results[i] = wordResult{Word: word, Resolution: res.Kind.String(), Analyses: analyses}
			logger.Debug("analyzed", zap.String("word", word), zap.Stringer("resolution", res.Kind))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func runExpand(cmd *cobra.Command, args []string) error {
	templates, err := morceus.LoadTemplateDirs(cfg.TemplateDirs...)
	if err != nil {
		return err
	}
	tables, err := morceus.ExpandTemplates(templates)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(expandOut, 0o755); err != nil {
		return err
	}
	for name, table := range tables {
		path := filepath.Join(expandOut, name+".table")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := morceus.WriteTable(f, table); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	logger.Info("expanded templates", zap.Int("tables", len(tables)), zap.String("dir", expandOut))
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	mode, err := morceus.ParseIndexMode(indexMode)
	if err != nil {
		return err
	}
	templates, err := morceus.LoadTemplateDirs(cfg.TemplateDirs...)
	if err != nil {
		return err
	}
	tables, err := morceus.ExpandTemplates(templates)
	if err != nil {
		return err
	}
	rows, _ := morceus.MakeEndIndex(tables, mode)

	if indexOut == "" {
		if err := morceus.WriteEndIndex(cmd.OutOrStdout(), rows); err != nil {
			return err
		}
	} else {
		f, err := os.Create(indexOut)
		if err != nil {
			return err
		}
		if err := morceus.WriteEndIndex(f, rows); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", indexOut, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	logger.Info("wrote end index", zap.String("mode", string(mode)), zap.Int("rows", len(rows)))
	return nil
}

func runBuildTables(cmd *cobra.Command, args []string) error {
	out := buildOut
	if out == "" {
		out = cfg.Tables
	}
	if out == "" {
		return fmt.Errorf("no output: pass --out or set tables in the config")
	}
	tables, err := morceus.BuildTables(cfg.TablesConfig(logger))
	if err != nil {
		return err
	}
	if err := morceus.SaveTablesFile(out, tables); err != nil {
		return err
	}
	logger.Info("wrote tables snapshot", zap.String("path", out), zap.Int("lemmata", len(tables.Lemmata())))
	return nil
}

func runParadigm(cmd *cobra.Command, args []string) error {
	tables, err := cfg.OpenTables(logger)
	if err != nil {
		return err
	}
	cells, ok := tables.Paradigm(args[0])
	if !ok {
		return fmt.Errorf("unknown lemma %q", args[0])
	}
	for _, cell := range cells {
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %v\n", cell.String(), cell.Forms)
	}
	return nil
}
