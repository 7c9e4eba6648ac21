package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/memory"
)

// Stats adds store location details to the manager's counts.
type Stats struct {
	Dir       string `json:"dir"`
	Backend   string `json:"backend"`
	SizeBytes int64  `json:"size_bytes"`
	*memory.Stats
}

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Args:  cobra.NoArgs,
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer m.Close()

	st := Stats{Dir: cfg.Store.Dir, Backend: cfg.Store.Backend, SizeBytes: dirSize(cfg.Store.Dir), Stats: m.Stats()}

	output(st, func() string {
		lines := []string{
			dimStyle.Render(fmt.Sprintf("%s (%s, %d bytes)", st.Dir, st.Backend, st.SizeBytes)),
		}
		for _, c := range st.Categories {
			lines = append(lines, fmt.Sprintf("%-16s %s", c.Category, countStyle.Render(fmt.Sprint(c.Count))))
		}
		lines = append(lines, fmt.Sprintf("%-16s %s", "total", countStyle.Render(fmt.Sprint(st.TotalRecords))))
		return strings.Join(lines, "\n")
	})
}

func dirSize(dir string) int64 {
	var size int64
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
