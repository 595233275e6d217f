package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shadersmith/internal/diag"
	"shadersmith/internal/reflection"
)

var reflectCmd = &cobra.Command{
	Use:   "reflect [flags] <file>",
	Short: "Print the specialization constants of a shader",
	Args:  cobra.ExactArgs(1),
	RunE:  reflectExecution,
}

func init() {
	addOptionFlags(reflectCmd)
	addCacheFlags(reflectCmd)
	reflectCmd.Flags().String("format", "text", "output format (text|json)")
}

func reflectExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	profile, err := s.manifest.Profile()
	if err != nil {
		return err
	}
	opts, err := applyOptionFlags(cmd, profile.Default())
	if err != nil {
		return err
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	art, err := s.builder.BuildFile(cmd.Context(), path, opts)
	if err != nil {
		s.reporter.Report(diag.FromError(err))
		return s.failReported(cmd)
	}
	table, err := reflection.Extract(art.Binary)
	if err != nil {
		s.reporter.Report(diag.FromError(err).WithNote("while reflecting " + s.displayPath(path)))
		return s.failReported(cmd)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	return table.WriteText(out)
}
