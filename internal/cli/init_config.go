package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pagewarden/internal/config"
)

var initConfigForce bool

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "Overwrite an existing file")
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Generate default pagewarden.yaml with comments",
	Long:  "Creates ~/.pagewarden/pagewarden.yaml (or --config) with the development and production\npolicy templates. Edit this file to customize what each mode enables.",
	RunE:  runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := rootConfigPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !initConfigForce {
		return fmt.Errorf("pagewarden.yaml already exists at %s", path)
	}

	content := config.DefaultSettingsYAML()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write pagewarden.yaml: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
