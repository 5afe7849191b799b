package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/policy"
	"github.com/opalforge/adaptiveplan/internal/shacl"
)

func evaluateStageACmd() *cobra.Command {
	var shapesPath, ontologyPath, output string
	cmd := &cobra.Command{
		Use:   "evaluate-stage-a <compiled.cdx> <graph.ttl>",
		Short: "Evaluate Stage A policy selection over a policy graph",
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

			turtleRaw, err := os.ReadFile(args[1])
			if err != nil {
				return withExitCode(2, err)
			}
			triples, err := graph.ParseTurtle(string(turtleRaw))
			if err != nil {
				return withExitCode(2, err)
			}
			g := graph.FromTriples(triples)

			shapes, ontology := readOptional(shapesPath), readOptional(ontologyPath)

			result, _ := policy.Evaluate(req, g, shapes, ontology, shacl.AlwaysConformant{})
			out := codex.Emit(result.ToNode())
			if output == "" {
				if _, err := os.Stdout.Write(out); err != nil {
					return err
				}
			} else if err := os.WriteFile(output, out, 0o644); err != nil {
				return withExitCode(2, err)
			}
			if result.Status != policy.StatusOK {
				return withExitCode(1, errEvaluationFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&shapesPath, "shapes", "", "path to SHACL shapes graph")
	cmd.Flags().StringVar(&ontologyPath, "ontology", "", "path to ontology graph")
	cmd.Flags().StringVar(&output, "output", "", "write the Stage A result to this path instead of stdout")
	return cmd
}

func readOptional(path string) string {
	if path == "" {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(raw)
}
