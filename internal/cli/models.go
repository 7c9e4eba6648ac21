package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models offered by the configured llm provider",
		Args:  cobra.NoArgs,
		Run:   runModels,
	}

	RootCmd.AddCommand(cmd)
}

func runModels(cmd *cobra.Command, args []string) {
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	models, err := m.ListModels(cmd.Context())
	if err != nil {
		exitErr("list models", err)
	}
	if models == nil {
		models = []string{}
	}
	output(models, func() string { return strings.Join(models, "\n") })
}
