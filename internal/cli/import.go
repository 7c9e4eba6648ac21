package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import records from JSON",
		Long:  "Import records from JSON on stdin. Expects the format produced by export; records already present are skipped.",
		Args:  cobra.NoArgs,
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		exitErr("parse json", err)
	}

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	counts, err := m.Import(cmd.Context(), records)
	if err != nil {
		exitErr("import", err)
	}
	output(counts, func() string { return renderCounts(m.Categories(), counts) })
}
