// Package export runs one conversion from transcript and attachments to an
// HTML document laid out under the output root.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Zuo-Peng/whatshtml/internal/attach"
	"github.com/Zuo-Peng/whatshtml/internal/fileutil"
	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/layout"
	"github.com/Zuo-Peng/whatshtml/internal/links"
	"github.com/Zuo-Peng/whatshtml/internal/logging"
	"github.com/Zuo-Peng/whatshtml/internal/media"
	"github.com/Zuo-Peng/whatshtml/internal/parse"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
	"github.com/Zuo-Peng/whatshtml/internal/render"
	"github.com/Zuo-Peng/whatshtml/internal/scan"
)

// DefaultName is suggested when no export name is configured.
const DefaultName = "chat_export"

// Options configure an Exporter.
type Options struct {
	OutputRoot  string
	DefaultName string
	Lang        string
	FaviconURL  string
	Markers     []string
	Colors      participant.Colors
}

// Exporter holds configuration only; every run's state lives in its Plan,
// so one Exporter can serve several runs.
type Exporter struct {
	opts    Options
	logger  logging.Logger
	history *index.DB
	now     func() time.Time
	newID   func() string
}

func New(opts Options, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = "."
	}
	if opts.DefaultName == "" {
		opts.DefaultName = DefaultName
	}
	return &Exporter{
		opts:   opts,
		logger: logger.With(logging.F("component", "exporter")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithHistory records every successful export in db.
func (e *Exporter) WithHistory(db *index.DB) *Exporter {
	e.history = db
	return e
}

// Plan is a prepared run: the transcript is parsed and the user's choices
// are in, but nothing has been written yet.
type Plan struct {
	Inputs   *scan.Inputs
	Parsed   *parse.ParseResult
	Registry *participant.Registry
	Manifest layout.Manifest
}

// Result summarizes a finished export.
type Result struct {
	ID           string
	Manifest     layout.Manifest
	Messages     int
	Participants int
	Discarded    int
	Attachments  media.Categorized
	Inline       attach.Stats
	Links        int
	Identity     participant.Stats
	Recorded     bool
}

// Prepare parses the transcript and asks collab for the export name and
// participant settings. It touches nothing on disk, so a cancelled prompt
// leaves no trace.
func (e *Exporter) Prepare(in *scan.Inputs, collab Collaborator) (*Plan, error) {
	if in == nil || in.Transcript == "" {
		return nil, scan.ErrNoTranscript
	}

	parsed, err := parse.NewParser(e.logger).ParseFile(in.Transcript)
	if err != nil {
		return nil, ioError("read transcript", in.Transcript, err)
	}
	if len(parsed.Messages) == 0 {
		e.logger.Warn("Transcript has no recognizable messages",
			logging.F("file", in.Transcript),
			logging.F("lines", parsed.Lines))
	}

	reg := participant.Build(parsed.Senders)
	reg.SetDefaultColors(e.opts.Colors)

	name, err := collab.ExportName(e.opts.DefaultName)
	if err != nil {
		return nil, err
	}
	manifest, err := layout.New(e.opts.OutputRoot, name)
	if err != nil {
		return nil, err
	}

	if err := collab.ConfigureParticipants(reg); err != nil {
		return nil, err
	}

	return &Plan{
		Inputs:   in,
		Parsed:   parsed,
		Registry: reg,
		Manifest: manifest,
	}, nil
}

// Export writes the prepared plan to disk. Any filesystem failure is
// returned as an *IOError and no success is reported; the extraction
// directories of the plan's inputs are removed either way.
func (e *Exporter) Export(p *Plan) (res *Result, err error) {
	m := p.Manifest
	log := e.logger.With(logging.F("export", m.Name))

	defer func() {
		if cerr := p.Inputs.Cleanup(); cerr != nil {
			log.Warn("Failed to remove extraction directory", logging.Err(cerr))
		}
	}()

	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return nil, ioError("create output root", m.Root, err)
	}
	lock := flock.New(m.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, ioError("acquire lock", m.LockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrBusy, m.Name)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			log.Warn("Failed to release export lock", logging.Err(uerr))
		}
		os.Remove(m.LockPath())
	}()

	if err := os.MkdirAll(m.AttachmentsDir, 0o755); err != nil {
		return nil, ioError("create output directory", m.AttachmentsDir, err)
	}

	messages := p.Parsed.Messages
	res = &Result{
		ID:           e.newID(),
		Manifest:     m,
		Messages:     len(messages),
		Participants: p.Registry.Len(),
		Discarded:    p.Parsed.Discarded,
	}

	resolver := attach.NewResolver(log, e.opts.Markers)
	res.Attachments, res.Inline, err = resolver.Resolve(messages, p.Inputs.Attachments, m.AttachmentsDir)
	if err != nil {
		return nil, ioError("copy attachments", m.AttachmentsDir, err)
	}

	// history keeps plain text, so snapshot before links become markup
	var plain []parse.Message
	if e.history != nil {
		plain = append([]parse.Message(nil), messages...)
	}

	res.Links = links.NewRewriter(e.opts.FaviconURL).RewriteMessages(messages)
	res.Identity = p.Registry.ApplyIdentity(messages)
	if res.Identity.Unknown > 0 {
		log.Warn("Messages from senders outside the participant list",
			logging.F("count", res.Identity.Unknown))
	}

	doc, err := render.NewHTMLRenderer(e.opts.Lang).Render(messages, m)
	if err != nil {
		return nil, ioError("render document", m.DocumentPath, err)
	}
	if err := fileutil.WriteFileAtomic(m.DocumentPath, doc, 0o644); err != nil {
		return nil, ioError("write document", m.DocumentPath, err)
	}

	transcriptCopy := m.TranscriptCopyPath(p.Inputs.Transcript)
	if err := fileutil.CopyFile(p.Inputs.Transcript, transcriptCopy); err != nil {
		return nil, ioError("copy transcript", transcriptCopy, err)
	}

	log.Info("Export written",
		logging.F("document", m.DocumentPath),
		logging.F("messages", res.Messages),
		logging.F("attachments", res.Attachments.Total()),
		logging.F("links", res.Links))

	if e.history != nil {
		p.Registry.ApplyIdentity(plain)
		rec := index.Record{
			ExportID:     res.ID,
			Name:         m.Name,
			DocumentPath: m.DocumentPath,
			OutputDir:    m.OutputDir,
			Transcript:   p.Inputs.Transcript,
			CreatedAt:    e.now(),
			PrimaryName:  p.Registry.PrimaryName(),
			Participants: res.Participants,
			Attachments:  res.Attachments.Total(),
			Messages:     plain,
		}
		if herr := index.RecordExport(e.history, rec); herr != nil {
			log.Warn("Failed to record export history", logging.Err(herr))
		} else {
			res.Recorded = true
		}
	}

	return res, nil
}

// Run prepares and exports in one go.
func (e *Exporter) Run(in *scan.Inputs, collab Collaborator) (*Result, error) {
	p, err := e.Prepare(in, collab)
	if err != nil {
		return nil, err
	}
	return e.Export(p)
}
