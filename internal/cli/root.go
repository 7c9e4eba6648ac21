// Package cli implements the memstore CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/llm"
	"github.com/rcliao/memstore/internal/logging"
	"github.com/rcliao/memstore/internal/memory"
	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/store"
	"github.com/rcliao/memstore/internal/tokenizer"
)

// SQLiteFile is the database file name used by the sqlite backend inside the
// store directory.
const SQLiteFile = "memstore.db"

var (
	configPath  string
	dirFlag     string
	backendFlag string
	formatFlag  string
	verbose     bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memstore",
	Short: "Local categorized memory store",
	Long: "A local note store. Text in, categorized records out. " +
		"Lines are classified by keyword into categories and kept in one JSON file per category.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if formatFlag != "json" && formatFlag != "text" {
			return fmt.Errorf("invalid --format %q (must be json or text)", formatFlag)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./memstore.yaml or ~/.config/memstore/memstore.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Store directory (overrides store.dir)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Store backend: json or sqlite (overrides store.backend)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dirFlag != "" {
		cfg.Store.Dir = dirFlag
	}
	if backendFlag != "" {
		cfg.Store.Backend = backendFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case store.BackendSQLite:
		return store.NewSQLiteStore(filepath.Join(cfg.Store.Dir, SQLiteFile), logger)
	default:
		return store.NewFileStore(cfg.Store.Dir, logger)
	}
}

// openManager loads configuration and builds a manager over the configured
// store and generator.
func openManager(ctx context.Context) (*memory.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(verbose)

	newID, err := model.NewIDGenerator(cfg.Store.IDScheme)
	if err != nil {
		return nil, err
	}
	gen, err := llm.New(llm.Options{
		Provider:  cfg.LLM.Provider,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	s, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	m, err := memory.NewManager(ctx, s,
		memory.WithCategories(cfg.Categories),
		memory.WithLogger(logger),
		memory.WithGenerator(gen, cfg.LLM.ChatModel, cfg.LLM.MemoryModel),
		memory.WithQuarantine(cfg.Store.QuarantineCorrupt),
		memory.WithTokenizer(tokenizer.NewTiktoken(cfg.Context.Encoding, logger)),
		memory.WithContextBudget(cfg.Context.Budget),
		memory.WithIDGenerator(newID),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, w := range m.Warnings() {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w))
	}
	return m, nil
}

// readInput joins args, or reads stdin when there are none and it is not a
// terminal.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

// output prints v as indented JSON, or text() when --format text is set.
func output(v any, text func() string) {
	if formatFlag == "text" && text != nil {
		fmt.Println(text())
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
