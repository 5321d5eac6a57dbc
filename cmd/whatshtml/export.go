package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/whatshtml/internal/export"
	"github.com/Zuo-Peng/whatshtml/internal/logging"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
	"github.com/Zuo-Peng/whatshtml/internal/scan"
	"github.com/Zuo-Peng/whatshtml/internal/tui"
)

type exportFlags struct {
	name         string
	participants string
	primary      string
	output       string
	yes          bool
	noHistory    bool
}

func exportCmd(gf *globalFlags) *cobra.Command {
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "export <transcript.txt|chat.zip|dir> [attachments...]",
		Short: "Convert a WhatsApp chat export into an HTML document",
		Long: `Reads the exported transcript and its attachments, asks for the export
name and participant settings, and writes <output>/<name>/<name>.html with the
attachments copied next to it.

Inputs may be the .txt transcript, the .zip WhatsApp produces, a directory, or
loose attachment files. With --yes (or when not attached to a terminal) no
questions are asked: --name, --participants and --primary supply the answers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := gf.load()
			if err != nil {
				return err
			}
			return runExport(cmd.OutOrStdout(), a, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Export name (default from config)")
	cmd.Flags().StringVar(&f.participants, "participants", "", "YAML file with participant names and colors")
	cmd.Flags().StringVar(&f.primary, "primary", "", "Display name of the participant shown on the left")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output root directory (default from config)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Do not prompt, use flags and defaults")
	cmd.Flags().BoolVar(&f.noHistory, "no-history", false, "Do not record this export in history")

	return cmd
}

func runExport(out io.Writer, a *app, f exportFlags, paths []string) error {
	cfg := a.cfg
	logger := a.logger

	collab, err := newCollaborator(f, logger)
	if err != nil {
		return err
	}

	in, err := scan.Collect(paths)
	if errors.Is(err, scan.ErrNoTranscript) {
		return err
	}
	if err != nil {
		return &export.IOError{Op: "read inputs", Path: paths[0], Err: err}
	}
	defer func() {
		if cerr := in.Cleanup(); cerr != nil {
			logger.Warn("Failed to remove extraction directory", logging.Err(cerr))
		}
	}()
	for _, ignored := range in.Ignored {
		logger.Warn("Ignoring extra transcript", logging.F("file", ignored))
	}

	outputRoot := cfg.OutputRoot
	if f.output != "" {
		outputRoot = f.output
	}
	defaultName := cfg.DefaultName
	if f.name != "" {
		defaultName = f.name
	}
	exp := export.New(export.Options{
		OutputRoot:  outputRoot,
		DefaultName: defaultName,
		Lang:        cfg.Lang,
		FaviconURL:  cfg.FaviconURL,
		Markers:     cfg.Markers,
		Colors: participant.Colors{
			Primary:   cfg.Colors.Primary,
			Secondary: cfg.Colors.Secondary,
			Fallback:  cfg.Colors.Fallback,
		},
	}, logger)

	if cfg.History && !f.noHistory {
		db, err := a.openHistory()
		if err != nil {
			logger.Warn("Export history disabled for this run", logging.Err(err))
		} else {
			defer db.Close()
			exp.WithHistory(db)
		}
	}

	res, err := exp.Run(in, collab)
	if export.IsCancelled(err) {
		fmt.Fprintln(out, "Export cancelled, nothing was written.")
		return nil
	}
	if err != nil {
		return err
	}

	printReport(out, res)
	return nil
}

// newCollaborator picks the terminal wizard for interactive runs and fixed
// answers from flags otherwise.
func newCollaborator(f exportFlags, logger logging.Logger) (export.Collaborator, error) {
	var overrides *participant.Overrides
	if f.participants != "" {
		o, err := participant.LoadOverrides(f.participants)
		if err != nil {
			return nil, fmt.Errorf("participants file: %w", err)
		}
		overrides = o
	}

	// a participants file or --primary means the answers are already known
	if !f.yes && isInteractive() && overrides == nil && f.primary == "" {
		return &tui.Wizard{}, nil
	}
	return export.StaticCollaborator{
		Name:      f.name,
		Primary:   f.primary,
		Overrides: overrides,
		Logger:    logger,
	}, nil
}

func printReport(w io.Writer, res *export.Result) {
	fmt.Fprintf(w, "Export created: %s\n", res.Manifest.DocumentPath)
	fmt.Fprintf(w, "  Messages:     %d\n", res.Messages)
	fmt.Fprintf(w, "  Participants: %d\n", res.Participants)

	att := res.Attachments
	fmt.Fprintf(w, "  Attachments:  %d (images %d, audio %d, video %d, documents %d, contacts %d)\n",
		att.Total(), len(att.Images), len(att.Audio), len(att.Video), len(att.Documents), len(att.Contacts))
	if len(att.Unknown) > 0 {
		fmt.Fprintf(w, "  Unclassified: %d\n", len(att.Unknown))
	}
	if res.Inline.Resolved > 0 || res.Inline.Unresolved > 0 {
		fmt.Fprintf(w, "  Inline:       %d linked", res.Inline.Resolved)
		if res.Inline.Unresolved > 0 {
			fmt.Fprintf(w, ", %d without filename", res.Inline.Unresolved)
		}
		if res.Inline.Missing > 0 {
			fmt.Fprintf(w, ", %d not supplied", res.Inline.Missing)
		}
		fmt.Fprintln(w)
	}
	if res.Links > 0 {
		fmt.Fprintf(w, "  Links:        %d\n", res.Links)
	}
	if res.Discarded > 0 {
		fmt.Fprintf(w, "  Skipped lines: %d\n", res.Discarded)
	}
	if res.Recorded {
		fmt.Fprintf(w, "  History ID:   %s\n", shortID(res.ID))
	}
}
