package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pagewarden/internal/config"
	"github.com/ppiankov/pagewarden/internal/storage"
)

const version = "0.3.0"

// versionInfo describes the build and where this invocation reads its state from.
type versionInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	SettingsPath   string `json:"settings_path"`
	StoragePath    string `json:"storage_path"`
	StorageKey     string `json:"storage_key"`
	TuningEnv      string `json:"tuning_env"`
	AlertThreshold int    `json:"alert_threshold"`
	RedirectURL    string `json:"redirect_url"`
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version, state locations and effective escalation tuning",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	tuning, err := config.LoadTuning()
	if err != nil {
		return err
	}

	info := versionInfo{
		Name:           "pagewarden",
		Version:        version,
		SettingsPath:   rootConfigPath,
		StoragePath:    rootStoragePath,
		StorageKey:     config.StorageKey,
		TuningEnv:      config.EnvPrefix + "_*",
		AlertThreshold: tuning.AlertThreshold,
		RedirectURL:    tuning.RedirectURL,
	}
	if info.SettingsPath == "" {
		info.SettingsPath = config.DefaultSettingsPath()
	}
	if info.StoragePath == "" {
		info.StoragePath = storage.DefaultPath()
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
