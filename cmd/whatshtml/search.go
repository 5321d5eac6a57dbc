package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/whatshtml/internal/search"
	"github.com/Zuo-Peng/whatshtml/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

// tsvField flattens s so it fits in one tab-separated column.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd(gf *globalFlags) *cobra.Command {
	var opts search.Options

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across exported chats",
		Long: `Search the text of every recorded export using FTS5. On a terminal this opens
the interactive browser; when piped, output is TSV for fzf integration:
  exportId, msgId, createdAt, name, sender, snippet

Example:
  whatshtml search "$*" | fzf --ansi --delimiter='\t' --with-nth=3.. \
    --preview 'whatshtml preview {1} --hit {2} --query {q}' \
    --bind 'enter:execute(whatshtml open {1})'`,
		Args: cobra.ExactArgs(1),
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
				return tui.Browse(db, tui.ModeSearch, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			writeTSV(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "", "Filter by export name (substring)")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "Filter by sender display name")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Only exports created since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Show every matching message, not just the best per export")

	return cmd
}

func writeTSV(w io.Writer, results []search.Result) {
	for _, r := range results {
		// first two fields stay plain for fzf {1} {2}
		fmt.Fprintf(w, "%s\t%d\t%s%s%s\t%s%s%s\t%s\t%s\n",
			r.ExportID,
			r.MsgID,
			sColorDim, r.CreatedAt, sColorReset,
			sColorBlue, tsvField(r.Name), sColorReset,
			tsvField(r.Sender),
			colorizeSnippet(tsvField(r.Snippet)),
		)
	}
}
