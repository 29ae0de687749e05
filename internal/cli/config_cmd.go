package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as JSON",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	c, err := openControl(rootURL)
	if err != nil {
		return err
	}
	defer c.Close()

	out, err := json.MarshalIndent(c.Config(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
