package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"minipack/internal/analysis"
	"minipack/internal/config"
	"minipack/internal/crawler"
	"minipack/internal/git"
	"minipack/internal/pipeline"
	"minipack/internal/retrieval"
	"minipack/internal/runtime"
	"minipack/internal/storage"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "minipack",
		Short:         "Bundle ES modules into a single self-contained script",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	entryFlag  string
	outDirFlag string
	dbPath     string
	graphOut   string
	focusID    string
	focusHops  int
	bundlePath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "minipack.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&entryFlag, "entry", "e", "", "Entry module, relative to the project root")
	rootCmd.PersistentFlags().StringVarP(&outDirFlag, "out-dir", "o", "", "Output directory for the bundle")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the build manifest database (SQLite)")

	graphCmd.Flags().StringVar(&graphOut, "out", "", "Write the graph as JSON to this file instead of stdout")
	graphCmd.Flags().StringVar(&focusID, "focus", "", "Only include modules near this identity")
	graphCmd.Flags().IntVar(&focusHops, "hops", retrieval.DefaultConfig().MaxHops, "Hop limit for --focus")
	runCmd.Flags().StringVar(&bundlePath, "bundle", "", "Execute an existing bundle file instead of building one")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(unusedCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the configuration, applies flag overrides and sets up
// logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if entryFlag != "" {
		cfg.Project.Entry = entryFlag
	}
	if outDirFlag != "" {
		cfg.Output.Dir = outDirFlag
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Log.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// initStore opens the manifest database when one is configured.
func initStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if cfg.Storage.Path == "" {
		return nil, nil
	}
	return storage.NewSQLiteStore(cfg.Storage.Path)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the bundle for the configured entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		b, err := pipeline.NewBundler(cfg)
		if err != nil {
			return err
		}
		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if store != nil {
			defer store.Close()
			b.WithStore(store)
		}

		fmt.Printf("🚀 Bundling %s...\n", cfg.Project.Entry)
		start := time.Now()
		res, err := b.Build(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("✅ Bundle built in %v. %d modules, %d edges, %d bytes.\n",
			time.Since(start), res.Stats.Modules, res.Stats.Edges, len(res.Text))
		if res.Stats.MostUsed != "" {
			fmt.Printf("  -> Most imported: %s (%d importers)\n", res.Stats.MostUsed, res.Stats.MaxFanIn)
		}
		if store != nil {
			fmt.Printf("  -> %d modules changed since the last build (build %s)\n", len(res.Changed), res.BuildID)
		}
		fmt.Printf("🎉 Wrote %s\n", res.Output)
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the dependency graph of the configured entry as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := pipeline.NewBundler(cfg)
		if err != nil {
			return err
		}
		g, err := b.Graph()
		if err != nil {
			return err
		}
		if focusID != "" {
			if !g.Has(focusID) {
				return fmt.Errorf("module %s is not part of the graph", focusID)
			}
			rc := retrieval.DefaultConfig()
			rc.MaxHops = focusHops
			g = retrieval.Extract(g, []string{focusID}, rc).Graph(g, focusID)
		}

		if graphOut != "" {
			if err := b.Indexer().SaveGraph(g, graphOut); err != nil {
				return err
			}
			fmt.Printf("💾 Saved graph with %d modules to %s\n", g.Len(), graphOut)
			return nil
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the bundle in memory and execute it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		name := bundlePath
		var text string
		if bundlePath != "" {
			data, err := os.ReadFile(bundlePath)
			if err != nil {
				return err
			}
			text = string(data)
		} else {
			b, err := pipeline.NewBundler(cfg)
			if err != nil {
				return err
			}
			if _, text, err = b.Bundle(cfg.Project.Entry); err != nil {
				return err
			}
			name = cfg.Output.File
		}

		res, err := runtime.Execute(name, text, runtime.WithStdout(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		out, err := res.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact [base-ref]",
	Short: "Report bundle modules affected by uncommitted git changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := "HEAD"
		if len(args) > 0 {
			ref = args[0]
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := pipeline.NewBundler(cfg)
		if err != nil {
			return err
		}

		changes, err := git.GetChangedFiles(b.Resolver().Root(), ref)
		if err != nil {
			return fmt.Errorf("failed to get git changes: %w", err)
		}
		if len(changes) == 0 {
			fmt.Println("✅ No changes detected.")
			return nil
		}
		fmt.Printf("📝 Detected %d changed files.\n", len(changes))

		g, err := b.Graph()
		if err != nil {
			return err
		}

		fmt.Println("🔍 Analyzing impact...")
		report, err := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
		if err != nil {
			return err
		}
		var rows [][]string
		for _, m := range report.DirectlyAffected {
			rows = append(rows, []string{m.ID, "changed"})
		}
		for _, m := range report.IndirectlyAffected {
			rows = append(rows, []string{m.ID, "importer"})
		}
		printTable(cmd.OutOrStdout(), []string{"Module", "Impact"}, rows)
		if len(report.Outside) > 0 {
			fmt.Printf("  (%d changed files are not part of the bundle)\n", len(report.Outside))
		}
		if report.EntryAffected {
			fmt.Println("📦 The bundle needs a rebuild.")
		} else {
			fmt.Println("✅ The bundle is unaffected.")
		}
		return nil
	},
}

var unusedCmd = &cobra.Command{
	Use:   "unused",
	Short: "List module files under the project root the entry never reaches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := pipeline.NewBundler(cfg)
		if err != nil {
			return err
		}
		g, err := b.Graph()
		if err != nil {
			return err
		}

		cr := crawler.NewCrawler(cfg.Resolve.Extensions)
		cr.Ignore(filepath.Base(filepath.Clean(cfg.Output.Dir)))
		unused, err := analysis.FindUnused(g, b.Resolver().Root(), cr)
		if err != nil {
			return err
		}
		if len(unused) == 0 {
			fmt.Println("✅ Every module file is reachable from the entry.")
			return nil
		}
		fmt.Printf("🧹 %d module files are not reachable from %s:\n", len(unused), g.Entry)
		for _, id := range unused {
			fmt.Printf("  - %s\n", id)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent builds recorded in the manifest database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := initStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if store == nil {
			return fmt.Errorf("no manifest database configured (use --db or storage.path)")
		}
		defer store.Close()

		builds, err := store.ListBuilds(context.Background(), 20)
		if err != nil {
			return err
		}
		if len(builds) == 0 {
			fmt.Println("No builds recorded yet.")
			return nil
		}
		rows := make([][]string, 0, len(builds))
		for _, bld := range builds {
			rows = append(rows, []string{
				bld.CreatedAt.Format(time.RFC3339), bld.ID, bld.Entry, bld.Output, strconv.Itoa(bld.Modules),
			})
		}
		printTable(cmd.OutOrStdout(), []string{"Created", "Build", "Entry", "Output", "Modules"}, rows)
		return nil
	},
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
