package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pagewarden/internal/config"
)

func init() {
	rootCmd.AddCommand(modeCmd)
}

var modeCmd = &cobra.Command{
	Use:       "mode development|production",
	Short:     "Store the security mode preference for a page origin",
	Long:      "Writes the securityMode preference to local storage for the origin of --url.\nThe next session opened for that origin picks it up.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(config.Development), string(config.Production)},
	RunE:      runMode,
}

func runMode(cmd *cobra.Command, args []string) error {
	env, ok := config.ParseEnvironment(args[0])
	if !ok {
		return fmt.Errorf("unknown mode %q (want development or production)", args[0])
	}

	c, err := openControl(rootURL)
	if err != nil {
		return err
	}
	defer c.Close()

	switch env {
	case config.Development:
		fmt.Fprintln(cmd.OutOrStdout(), "Switching to DEVELOPMENT mode...")
		err = c.DevelopmentMode()
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Switching to PRODUCTION mode...")
		err = c.ProductionMode()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Stored. Takes effect on the next session.")
	return nil
}
