package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/futureCreator/patchgate/internal/assets"
	"github.com/futureCreator/patchgate/pkg/version"
)

func newInitCmd() *cobra.Command {
	var user bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default patchgate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := stateDir
			if user {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("getting home dir: %w", err)
				}
				dir = filepath.Join(home, stateDir)
			}
			return runInit(cmd, dir)
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Write ~/.patchgate/config.yaml instead of the project config")
	return cmd
}

func runInit(cmd *cobra.Command, configDir string) error {
	out := cmd.OutOrStdout()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config already exists: %s\n", configPath)
		return nil
	}

	content, err := assets.RenderTemplate("config.yaml", struct{ Version string }{Version: version.Version})
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintln(out, "Set agent.command to the script that prints your assessment result.")
	return nil
}
