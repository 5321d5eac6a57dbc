package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/whatshtml/internal/open"
)

func openCmd(gf *globalFlags) *cobra.Command {
	var hitMsgID int
	var transcript bool

	cmd := &cobra.Command{
		Use:   "open <exportId>",
		Short: "Open a recorded export in the browser",
		Long: `Opens the export's HTML document with $BROWSER or the system opener. With
--transcript the copied transcript is opened in $EDITOR instead, at the line
of the --hit message.`,
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

			return open.OpenExport(db, args[0], hitMsgID, transcript)
		},
	}

	cmd.Flags().IntVar(&hitMsgID, "hit", -1, "Message ID to jump to (with --transcript)")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "Open the transcript copy in $EDITOR")

	return cmd
}
