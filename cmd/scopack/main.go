// Command scopack builds distributable SCORM 2004 packages from test
// definition JSON files.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvlad1973/scorm-runtime/internal/packaging"
	"github.com/vvlad1973/scorm-runtime/internal/quiz"
)

func main() {
	root := &cobra.Command{
		Use:           "scopack",
		Short:         "Build SCORM 2004 packages from test definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildCmd(), validateCmd())
	if err := root.Execute(); err != nil {
		log.Fatalf("scopack: %v", err)
	}
}

func loadDefinition(path string) (*quiz.TestDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def quiz.TestDefinition
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &def, nil
}

func validateCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a test definition without building",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(in)
			if err != nil {
				return err
			}
			if err := def.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d topics, mode %s)\n", def.ID, len(def.Topics), def.Mode)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "test.json", "test definition JSON")
	return cmd
}

func buildCmd() *cobra.Command {
	var in, out, endpoint, secret, mediaDir string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a SCORM package zip",
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(in)
			if err != nil {
				return err
			}
			opts := packaging.Options{
				TelemetryEndpoint: endpoint,
				TelemetrySecret:   secret,
			}
			if mediaDir != "" {
				if opts.Media, err = loadMedia(mediaDir); err != nil {
					return err
				}
			}
			pkg, err := packaging.Build(def, opts)
			if err != nil {
				return err
			}
			if out == "" {
				out = def.ID + ".zip"
			}
			if err := os.WriteFile(out, pkg, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(pkg))
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "test.json", "test definition JSON")
	cmd.Flags().StringVar(&out, "out", "", "output zip path (default <id>.zip)")
	cmd.Flags().StringVar(&endpoint, "telemetry-endpoint", "", "collector base URL baked into the package")
	cmd.Flags().StringVar(&secret, "telemetry-secret", "", "pre-shared HMAC secret baked into the package")
	cmd.Flags().StringVar(&mediaDir, "media", "", "directory of media files to inline")
	return cmd
}

// loadMedia inlines every file under dir, keyed by package-relative path.
func loadMedia(dir string) (map[string][]byte, error) {
	media := map[string][]byte{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		media[filepath.ToSlash(filepath.Join("media", rel))] = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return media, nil
}
