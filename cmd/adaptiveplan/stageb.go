package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/scoring"
)

func evaluateStageBCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "evaluate-stage-b <compiled.cdx> <candidates.cdx>",
		Short: "Evaluate Stage B constrained multi-objective candidate selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiledRaw, err := os.ReadFile(args[0])
			if err != nil {
				return withExitCode(2, err)
			}
			compiledNode, err := codex.ParseString(string(compiledRaw))
			if err != nil {
				return withExitCode(2, err)
			}
			req, err := intent.ParseCompiled(compiledNode)
			if err != nil {
				return withExitCode(2, err)
			}

			candidatesRaw, err := os.ReadFile(args[1])
			if err != nil {
				return withExitCode(2, err)
			}
			candidatesNode, err := codex.ParseString(string(candidatesRaw))
			if err != nil {
				return withExitCode(2, err)
			}
			candidates, err := scoring.ParseCandidates(candidatesNode)
			if err != nil {
				return withExitCode(2, err)
			}

			result, _ := scoring.Evaluate(&req.StageB.Optimization, req.StageB.Override, candidates)
			out := codex.Emit(result.ToNode())
			if output == "" {
				if _, err := os.Stdout.Write(out); err != nil {
					return err
				}
			} else if err := os.WriteFile(output, out, 0o644); err != nil {
				return withExitCode(2, err)
			}
			if result.Status != scoring.StatusOK {
				return withExitCode(1, errEvaluationFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "write the Stage B result to this path instead of stdout")
	return cmd
}
