// Command adaptiveplan drives the Stage A -> Stage B -> Stage C pipeline
// from the command line, structured as a cobra root command with one
// subcommand per driver operation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adaptiveplan",
	Short: "Compile and evaluate adaptive plan intents through the three-stage pipeline",
	Long: `adaptiveplan compiles a declarative AdaptiveFixture into a
CompiledAdaptiveRequest, evaluates it through Stage A (policy) and Stage B
(constrained scoring), and packages the result into a content-hashed
AdaptivePlanPackage with a linked AdaptiveDecisionReport.`,
}

func main() {
	rootCmd.AddCommand(
		compileCmd(),
		evaluateStageACmd(),
		evaluateStageBCmd(),
		emitStageCCmd(),
		runVectorsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCode is attached to an error by a subcommand that knows its failure
// category maps to something other than the default "malformed invocation"
// exit code.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }
func (e *exitCode) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCode{code: code, err: err}
}

func exitCodeFor(err error) int {
	if ec, ok := err.(*exitCode); ok {
		return ec.code
	}
	return 2
}
