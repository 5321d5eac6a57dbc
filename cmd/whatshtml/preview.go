package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/whatshtml/internal/parse"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
	"github.com/Zuo-Peng/whatshtml/internal/render"
)

func previewCmd(gf *globalFlags) *cobra.Command {
	var opts render.Options

	cmd := &cobra.Command{
		Use:   "preview <exportId|transcript.txt>",
		Short: "Print a recorded export or a transcript to the terminal",
		Long: `Renders a conversation as coloured terminal text. The argument is either an
export ID (or unique prefix) from history, or a path to a .txt transcript,
which is parsed without writing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := gf.load()
			if err != nil {
				return err
			}
			if opts.Width == 0 {
				opts.Width = terminalWidth()
			}

			var out string
			if strings.EqualFold(filepath.Ext(args[0]), ".txt") {
				parsed, err := parse.NewParser(a.logger).ParseFile(args[0])
				if err != nil {
					return err
				}
				reg := participant.Build(parsed.Senders)
				reg.ApplyIdentity(parsed.Messages)
				out = render.RenderMessages(filepath.Base(args[0]), parsed.Messages, opts)
			} else {
				db, err := a.openHistory()
				if err != nil {
					return err
				}
				defer db.Close()

				out, _, err = render.RenderExport(db, args[0], opts)
				if err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.HitMsgID, "hit", -1, "Message ID to highlight")
	cmd.Flags().IntVar(&opts.Context, "context", 10, "Messages before/after hit to show")
	cmd.Flags().StringVar(&opts.Query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Wrap width (default terminal width)")

	return cmd
}
