package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/whatshtml/internal/index"
)

func doctorCmd(gf *globalFlags) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, output root and history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			a, err := gf.load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg := a.cfg

			fmt.Fprintln(out, "=== Config ===")
			rows := [][]string{
				{"Output root", cfg.OutputRoot, dirStatus(cfg.OutputRoot)},
				{"Default name", cfg.DefaultName, ""},
				{"Language", cfg.Lang, ""},
				{"Markers", fmt.Sprintf("%d", len(cfg.Markers)), ""},
				{"Log", cfg.Log.Level + "/" + cfg.Log.Format, ""},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value", "Status"}, rows, nil))

			fmt.Fprintln(out, "\n=== History ===")
			if !cfg.History {
				fmt.Fprintln(out, "  Disabled (history = false)")
				return nil
			}
			fmt.Fprintf(out, "  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "  Status: NOT FOUND (created by the first export)")
				return nil
			}

			db, err := a.openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			if prune {
				n, err := index.PruneMissing(db)
				if err != nil {
					return fmt.Errorf("prune: %w", err)
				}
				fmt.Fprintf(out, "  Pruned %d export(s) whose document is gone\n", n)
			}

			stats, err := index.Summary(db)
			if err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			version, _ := db.SchemaVersion()
			fmt.Fprintf(out, "  Schema:   v%s\n", version)
			fmt.Fprintf(out, "  Exports:  %s\n", humanize.Comma(int64(stats.Exports)))
			fmt.Fprintf(out, "  Messages: %s\n", humanize.Comma(int64(stats.Messages)))

			checkFTS(out, db, stats.Messages)
			checkDocuments(out, db)

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Fprintf(out, "\n=== DB Size: %s ===\n", humanize.IBytes(uint64(info.Size())))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Forget exports whose HTML document no longer exists")

	return cmd
}

func checkFTS(out io.Writer, db *index.DB, messages int) {
	fmt.Fprintln(out, "\n=== FTS5 ===")
	var ftsCount int
	if err := db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount); err != nil {
		fmt.Fprintf(out, "  FTS5 error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "  FTS5 entries: %d\n", ftsCount)
	if ftsCount == messages {
		fmt.Fprintln(out, "  Status: OK (synced)")
	} else {
		fmt.Fprintf(out, "  Status: MISMATCH (messages=%d, fts=%d)\n", messages, ftsCount)
	}
}

// checkDocuments reports recorded exports whose HTML has been moved or deleted.
func checkDocuments(out io.Writer, db *index.DB) {
	exports, err := db.ListExports("", 0)
	if err != nil {
		fmt.Fprintf(out, "  list exports: %v\n", err)
		return
	}
	var rows [][]string
	for _, e := range exports {
		if _, err := os.Stat(e.DocumentPath); err != nil {
			rows = append(rows, []string{shortID(e.ExportID), e.Name, e.DocumentPath})
		}
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(out, "\n=== Missing documents (%d, run with --prune to forget) ===\n", len(rows))
	fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Document"}, rows, nil))
}

func dirStatus(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "NOT FOUND (created on export)"
	case !info.IsDir():
		return "NOT A DIRECTORY"
	default:
		return "OK"
	}
}
