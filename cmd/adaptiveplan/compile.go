package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opalforge/adaptiveplan/internal/cache"
	"github.com/opalforge/adaptiveplan/internal/codex"
	"github.com/opalforge/adaptiveplan/internal/intent"
)

// defaultCacheDir locates a per-user cache directory via the standard
// library's platform-specific lookup, mirroring how `go build` and similar
// tools choose a default build-cache location. An empty result (no usable
// user cache directory, e.g. $HOME unset) leaves on-disk persistence off
// rather than failing the command.
func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "adaptiveplan")
}

func compileCmd() *cobra.Command {
	var output, cacheDir string
	cmd := &cobra.Command{
		Use:   "compile <fixture.cdx>",
		Short: "Compile an AdaptiveFixture into a CompiledAdaptiveRequest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return withExitCode(2, err)
			}

			store, err := cache.Open(cacheDir)
			if err != nil {
				return withExitCode(2, err)
			}
			key, err := cache.Key(raw)
			if err != nil {
				return withExitCode(2, err)
			}
			req, hit := store.Get(key)
			if !hit {
				fixture, err := codex.ParseString(string(raw))
				if err != nil {
					return withExitCode(2, err)
				}
				req, err = intent.Compile(fixture)
				if err != nil {
					return withExitCode(2, err)
				}
				if err := store.Put(key, req); err != nil {
					return withExitCode(2, err)
				}
			}

			out := codex.Emit(req.ToNode())
			if output == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
			return os.WriteFile(output, out, 0o644)
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "write the compiled request to this path instead of stdout")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "directory persisting compiled-request cache entries across invocations (empty disables on-disk caching)")
	return cmd
}
