package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/pipeline"
	"github.com/opalforge/adaptiveplan/internal/policy"
	"github.com/opalforge/adaptiveplan/internal/scoring"
)

// errEvaluationFailed carries exit code 1 (a well-formed run that
// concludes in an error envelope, as opposed to a malformed invocation).
var errEvaluationFailed = errors.New("evaluation concluded with an error envelope")

func emitStageCCmd() *cobra.Command {
	var packageOutput, reportOutput string
	cmd := &cobra.Command{
		Use:   "emit-stage-c <compiled.cdx> <stageA.cdx> <stageB.cdx>",
		Short: "Package a successful Stage A/Stage B outcome into a plan package and decision report",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readCompiled(args[0])
			if err != nil {
				return withExitCode(2, err)
			}
			stageA, err := readStageA(args[1])
			if err != nil {
				return withExitCode(2, err)
			}
			stageB, err := readStageB(args[2])
			if err != nil {
				return withExitCode(2, err)
			}

			var report *pipeline.DecisionReport
			var pkg *pipeline.Package
			switch {
			case stageA.Status != policy.StatusOK:
				report = pipeline.NewErrorReport(pipeline.FailedStageA)
			case stageB.Status != scoring.StatusOK:
				report = pipeline.NewErrorReport(pipeline.FailedStageB)
			default:
				var err error
				pkg, report, err = pipeline.EmitStageC(req, stageA, stageB)
				if err != nil {
					return withExitCode(2, err)
				}
			}

			if err := os.WriteFile(reportOutput, codex.Emit(report.ToNode()), 0o644); err != nil {
				return withExitCode(2, err)
			}
			if pkg != nil {
				if err := os.WriteFile(packageOutput, codex.Emit(pkg.ToNode()), 0o644); err != nil {
					return withExitCode(2, err)
				}
			}
			if report.Status == "error" {
				return withExitCode(1, errEvaluationFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&packageOutput, "package-output", "", "path to write the AdaptivePlanPackage")
	cmd.Flags().StringVar(&reportOutput, "decision-report-output", "", "path to write the AdaptiveDecisionReport")
	cmd.MarkFlagRequired("decision-report-output")
	return cmd
}

func readCompiled(path string) (*intent.CompiledRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codex.ParseString(string(raw))
	if err != nil {
		return nil, err
	}
	return intent.ParseCompiled(node)
}

func readStageA(path string) (*policy.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codex.ParseString(string(raw))
	if err != nil {
		return nil, err
	}
	return policy.FromNode(node)
}

func readStageB(path string) (*scoring.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	node, err := codex.ParseString(string(raw))
	if err != nil {
		return nil, err
	}
	return scoring.FromNode(node)
}
