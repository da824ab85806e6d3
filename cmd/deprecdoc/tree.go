package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/diagfilter"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/engine"
	"deprecdoc/internal/source"
)

var treeCmd = &cobra.Command{
	Use:   "tree [flags] <file.rst>",
	Short: "Parse one document and dump its doctree",
	Long: `tree parses a single reStructuredText file with the same engine the
extractor uses and prints the resulting document tree. Deprecated markers are
rendered as versionmodified nodes.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().String("format", "pseudoxml", "output format (pseudoxml|json|msgpack)")
	treeCmd.Flags().String("root", "", "corpus root the document belongs to (default: its directory)")
	treeCmd.Flags().String("config", "", "engine configuration file (TOML)")
}

func runTree(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pseudoxml", "json", "msgpack":
	default:
		return fmt.Errorf("unsupported format %q (must be pseudoxml, json or msgpack)", format)
	}
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return fmt.Errorf("failed to get root flag: %w", err)
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if root == "" {
		root = filepath.Dir(path)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	minSeverity, err := diag.SeverityFromLevel(cfg.ReportLevel)
	if err != nil {
		return err
	}

	// Diagnostics are collected and printed as a sorted summary.
	bag := diag.NewBag(maxDiagnostics)
	eng, err := engine.Open(root, engine.Options{
		Config:   &cfg,
		Reporter: diag.NewDedupReporter(diag.ThresholdReporter{Next: diag.BagReporter{Bag: bag}, Min: minSeverity}),
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	doc, parseErr := eng.Parse(cmd.Context(), path)
	if !quiet {
		printDiagnosticSummary(cmd.ErrOrStderr(), bag, eng.Files(), diagfilter.New(cfg.Ignore.Roles, cfg.Ignore.Directives))
	}
	if parseErr != nil {
		return parseErr
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()
	switch format {
	case "json":
		return doctree.WriteJSON(out, doc)
	case "msgpack":
		return doctree.EncodeMsgpack(out, doc)
	default:
		return doctree.WritePseudoXML(out, doc)
	}
}

func printDiagnosticSummary(w io.Writer, bag *diag.Bag, files *source.FileSet, filter *diagfilter.Filter) {
	bag.Sort()
	bag.Dedup()
	var kept []diag.Diagnostic
	for _, d := range bag.Items() {
		if filter.Keep(diag.FormatText(d, files)) {
			kept = append(kept, d)
		}
	}
	_, _ = io.WriteString(w, diag.FormatShort(kept, files))
}
