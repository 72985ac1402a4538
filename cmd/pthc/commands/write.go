// Package commands holds the pthc CLI's subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/zcc-tools/pthc/config"
	"github.com/zcc-tools/pthc/internal/simplepp"
	"github.com/zcc-tools/pthc/observability"
	"github.com/zcc-tools/pthc/pth"
)

type writeCmd struct {
	outputPath     string
	initialBuckets int
	strict         bool
	verbose        bool
	noColor        bool
}

// NewWriteCommand builds the "write" subcommand, which lexes a single
// input file and serializes it into a PTH cache.
func NewWriteCommand() *cobra.Command {
	wc := &writeCmd{}

	cmd := &cobra.Command{
		Use:   "write <source-file>",
		Short: "Write a pre-tokenized header cache for a source file",
		Args:  cobra.ExactArgs(1),
		RunE:  wc.run,
	}

	cmd.Flags().StringVarP(&wc.outputPath, "output", "o", "", "Output PTH file path (default: <source-file>.pth)")
	cmd.Flags().IntVar(&wc.initialBuckets, "initial-buckets", 0, "Starting bucket count for on-disk hash tables (0 = config default)")
	cmd.Flags().BoolVar(&wc.strict, "strict", true, "Abort the run on the first imbalanced #if/#endif instead of skipping the file")
	cmd.Flags().BoolVarP(&wc.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&wc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (wc *writeCmd) run(cmd *cobra.Command, args []string) error {
	color.NoColor = wc.noColor //nolint:reassign // intentional override of library global

	sourcePath := args[0]

	outputPath := wc.outputPath
	if outputPath == "" {
		outputPath = sourcePath + ".pth"
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("pthc: %w", err)
	}

	if cmd.Flags().Changed("initial-buckets") {
		cfg.InitialBuckets = wc.initialBuckets
	}

	if cmd.Flags().Changed("strict") {
		cfg.Strict = wc.strict
	}

	level := slog.LevelInfo
	if wc.verbose {
		level = slog.LevelDebug
	}

	logger := observability.NewLogger(level)

	pp, err := simplepp.New(sourcePath)
	if err != nil {
		printErr(err)
		return fmt.Errorf("pthc: %w", err)
	}

	summary, err := pth.CacheTokens(pp, outputPath,
		pth.WithConfig(pth.Config{InitialBuckets: cfg.InitialBuckets, Strict: cfg.Strict}),
		pth.WithLogger(logger),
	)
	if err != nil {
		printErr(err)

		if summary == (pth.RunSummary{}) {
			return fmt.Errorf("pthc: %w", err)
		}
	}

	renderSummary(cmd, outputPath, summary)

	return nil
}

func renderSummary(cmd *cobra.Command, outputPath string, summary pth.RunSummary) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(cmd.OutOrStdout())
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"metric", "value"})
	tbl.AppendRow(table.Row{"output", outputPath})
	tbl.AppendRow(table.Row{"files", summary.FileCount})
	tbl.AppendRow(table.Row{"tokens", summary.TokenCount})
	tbl.AppendRow(table.Row{"identifiers", summary.IdentifierCount})
	tbl.AppendRow(table.Row{"spelling bytes", humanize.Bytes(uint64(summary.SpellingBytes))})
	tbl.AppendRow(table.Row{"output bytes", humanize.Bytes(uint64(summary.OutputBytes))})

	tbl.Render()
}

func printErr(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "pthc: %v\n", err)
}
