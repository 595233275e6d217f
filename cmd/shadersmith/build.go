package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shadersmith/internal/build"
	"shadersmith/internal/diag"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file...]",
	Short: "Compile shaders to SPIR-V",
	Long: `Compile the given shader files, or every [[shader]] entry of shadersmith.toml
when no file is given. Each binary is written next to its source with a .spv suffix
unless --out or the manifest's output key says otherwise.`,
	RunE: buildExecution,
}

func init() {
	addOptionFlags(buildCmd)
	addCacheFlags(buildCmd)
	buildCmd.Flags().StringP("out", "o", "", "output path (single input only)")
	buildCmd.Flags().IntP("jobs", "j", 0, "max parallel builds (0=auto)")
	buildCmd.Flags().Bool("deps", false, "print the dependency list of every shader")
	buildCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	printDeps, err := cmd.Flags().GetBool("deps")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	targets, err := s.targets(cmd, args)
	if err != nil {
		return err
	}

	silent := quiet(cmd) || s.machineOutput()
	useTUI := !silent && shouldUseTUI(uiModeValue)
	var results []build.Result
	if useTUI {
		results, err = buildAllWithUI(cmd.Context(), s, targets, jobs)
	} else {
		results, err = s.builder.BuildAll(cmd.Context(), jobsOf(targets), jobs)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := false
	for i, r := range results {
		if r.Err != nil {
			failed = true
			s.reporter.Report(diag.FromError(r.Err))
			continue
		}
		if err := writeBinary(targets[i].output, r.Artifact.Binary); err != nil {
			failed = true
			s.reporter.Report(diag.NewError(diag.IOWriteOutput, targets[i].output, err.Error()))
			continue
		}
		if !silent && !useTUI {
			fmt.Fprintf(out, "%s -> %s (%d words%s)\n",
				s.displayPath(targets[i].source), s.displayPath(targets[i].output),
				len(r.Artifact.Binary), cachedSuffix(r.Artifact))
		}
		if printDeps && !s.machineOutput() {
			if silent || useTUI {
				fmt.Fprintf(out, "%s:\n", s.displayPath(targets[i].source))
			}
			for _, dep := range r.Artifact.Sources[1:] {
				fmt.Fprintf(out, "  %s\n", s.displayPath(dep))
			}
		}
	}
	s.printTimings(cmd)
	if err := s.flushDiagnostics(cmd); err != nil {
		return err
	}
	if failed {
		return errReported
	}
	return nil
}

func cachedSuffix(a build.Artifact) string {
	if a.Cached {
		return ", cached"
	}
	return ""
}
