package main

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/opalforge/adaptiveplan/internal/vectors"
)

func runVectorsCmd() *cobra.Command {
	var watch, schemaCheck bool
	cmd := &cobra.Command{
		Use:   "run-vectors <dir>",
		Short: "Run every .cdx and .json test vector under a directory against the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := runVectorsOnce(cmd, dir, schemaCheck); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchVectors(cmd, dir, schemaCheck)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run the vector suite whenever a file under the directory changes")
	cmd.Flags().BoolVar(&schemaCheck, "schema-check", false, "fail a run that contains zero recognized vectors")
	return cmd
}

// runVectorsOnce runs the suite once and reports pass/fail per the
// exit-code contract: 0 all pass, 1 at least one vector failed, 2 the
// harness itself could not run (missing directory, and, with
// --schema-check, zero recognized vectors).
func runVectorsOnce(cmd *cobra.Command, dir string, schemaCheck bool) error {
	results, err := vectors.RunDir(dir)
	if err != nil {
		return withExitCode(2, err)
	}
	if schemaCheck && len(results) == 0 {
		return withExitCode(2, fmt.Errorf("run-vectors: no recognized .cdx/.json vectors under %s", dir))
	}

	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
			failed++
		}
		if r.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", status, r.Path, r.Err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", status, r.Path)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d/%d passed\n", len(results)-failed, len(results))
	if failed > 0 {
		return withExitCode(1, fmt.Errorf("run-vectors: %d vector(s) failed", failed))
	}
	return nil
}

// watchVectors re-runs the suite on every filesystem event under dir until
// the process is interrupted. Failures during a watched re-run are reported
// but do not terminate the watch loop — only the initial run's exit code
// propagates to the shell.
func watchVectors(cmd *cobra.Command, dir string, schemaCheck bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return withExitCode(2, err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return withExitCode(2, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s changed, re-running vectors ---\n", event.Name)
			if err := runVectorsOnce(cmd, dir, schemaCheck); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", werr)
		}
	}
}
