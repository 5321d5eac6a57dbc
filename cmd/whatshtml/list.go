package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/search"
	"github.com/Zuo-Peng/whatshtml/internal/tui"
)

func listCmd(gf *globalFlags) *cobra.Command {
	var filter, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse recorded exports, newest first",
		Long: `Opens a TUI panel showing every recorded export, newest first. Typing searches
the message text of the listed exports. When stdout is not a terminal a table
is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := gf.load()
			if err != nil {
				return err
			}
			db, err := a.openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			if stdoutIsTerminal() {
				return tui.Browse(db, tui.ModeList, "", search.Options{Export: filter, Since: since, Limit: limit})
			}

			exports, err := db.ListExports(filter, limit)
			if err != nil {
				return err
			}
			if len(exports) == 0 {
				fmt.Fprintln(os.Stderr, "No exports recorded yet.")
				return nil
			}
			writeExportTable(cmd.OutOrStdout(), exports, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only exports whose name or primary participant contains this")
	cmd.Flags().StringVar(&since, "since", "", "Only exports created since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}

func writeExportTable(w io.Writer, exports []index.ExportRow, now time.Time) {
	rows := make([][]string, 0, len(exports))
	for _, e := range exports {
		rows = append(rows, []string{
			shortID(e.ExportID),
			e.Name,
			e.PrimaryName,
			humanize.Comma(int64(e.MessageCount)),
			humanize.Comma(int64(e.AttachmentCount)),
			humanize.IBytes(uint64(max(e.Size, 0))),
			relativeTime(e.CreatedAt, now),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Name", "Primary", "Messages", "Attachments", "Size", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// relativeTime renders a stored timestamp as "3 days ago", falling back to
// the raw value when it does not parse.
func relativeTime(stamp string, now time.Time) string {
	ts, err := time.Parse(index.TimeLayout, stamp)
	if err != nil {
		return stamp
	}
	return humanize.RelTime(ts, now, "ago", "from now")
}
