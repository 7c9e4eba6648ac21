package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Classify and store text",
		Long: "Store text, one record per non-blank line per matched category. " +
			"When a memory model is configured it structures the text first, and its answer " +
			"is replaced by line ingestion if it is not valid. " +
			"Text can be a positional arg or piped via stdin.",
		Run: runIngest,
	}

	cmd.Flags().Bool("structured", false, "Input is JSON with an items or results list")
	cmd.Flags().Bool("model", false, "Require the memory model to structure the input")
	cmd.Flags().Bool("lines", false, "Classify line by line even when a memory model is configured")
	cmd.Flags().Bool("document", false, "Store the input as one chunked document")
	cmd.Flags().String("title", "", "Document title (with --document)")

	cmd.MarkFlagsMutuallyExclusive("structured", "model", "lines", "document")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	structured, _ := cmd.Flags().GetBool("structured")
	useModel, _ := cmd.Flags().GetBool("model")
	lines, _ := cmd.Flags().GetBool("lines")
	document, _ := cmd.Flags().GetBool("document")
	title, _ := cmd.Flags().GetString("title")

	text, err := readInput(args)
	if err != nil {
		exitErr("ingest", err)
	}
	if strings.TrimSpace(text) == "" {
		exitErr("ingest", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	if document {
		records, err := m.IngestDocument(cmd.Context(), title, text)
		if err != nil {
			exitErr("ingest document", err)
		}
		output(records, func() string { return renderRecords(records) })
		return
	}

	var counts map[string]int
	switch {
	case structured:
		counts, err = m.IngestStructured(cmd.Context(), text)
	case useModel:
		counts, err = m.IngestWithModel(cmd.Context(), text)
	case lines:
		counts, err = m.IngestLines(cmd.Context(), text)
	default:
		var fellBack bool
		counts, fellBack, err = m.IngestAuto(cmd.Context(), text)
		if fellBack {
			fmt.Fprintln(os.Stderr, warnStyle.Render("warning: memory model answer was not valid, ingested line by line"))
		}
	}
	if err != nil {
		exitErr("ingest", err)
	}
	output(counts, func() string { return renderCounts(m.Categories(), counts) })
}
