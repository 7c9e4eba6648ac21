package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		Run:   runConfigInit,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		Run:   runConfigShow,
	}

	configCmd.AddCommand(initCmd, showCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	if err := config.WriteDefault(path); err != nil {
		exitErr("config init", err)
	}
	output(map[string]any{"ok": true, "path": path}, func() string { return "wrote " + path })
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "********"
	}
	b, err := cfg.Marshal()
	if err != nil {
		exitErr("config show", err)
	}
	fmt.Print(string(b))
}
