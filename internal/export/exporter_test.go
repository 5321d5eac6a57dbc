package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/whatshtml/internal/index"
	"github.com/Zuo-Peng/whatshtml/internal/layout"
	"github.com/Zuo-Peng/whatshtml/internal/logging"
	"github.com/Zuo-Peng/whatshtml/internal/media"
	"github.com/Zuo-Peng/whatshtml/internal/participant"
	"github.com/Zuo-Peng/whatshtml/internal/scan"
)

const scenario = "01.01.23 9:05 - Alice: Hi\n01.01.23 9:06 - Bob: (file attached)\nphoto.jpg\n"

type fixture struct {
	root   string
	inputs *scan.Inputs
}

func newFixture(t *testing.T, transcript string, attachments ...string) fixture {
	t.Helper()
	src := t.TempDir()
	chat := filepath.Join(src, "chat.txt")
	require.NoError(t, os.WriteFile(chat, []byte(transcript), 0o644))

	in := &scan.Inputs{Transcript: chat}
	for _, name := range attachments {
		p := filepath.Join(src, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
		in.Attachments = append(in.Attachments, p)
	}
	return fixture{root: filepath.Join(t.TempDir(), "out"), inputs: in}
}

func (f fixture) exporter(opts Options) *Exporter {
	opts.OutputRoot = f.root
	e := New(opts, logging.NewNopLogger())
	e.newID = func() string { return "test-id" }
	e.now = func() time.Time { return time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

type cancelCollaborator struct {
	atName bool
}

func (c cancelCollaborator) ExportName(string) (string, error) {
	if c.atName {
		return "", ErrCancelled
	}
	return "Family", nil
}

func (c cancelCollaborator) ConfigureParticipants(*participant.Registry) error {
	return ErrCancelled
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture(t, scenario, "photo.jpg")
	res, err := f.exporter(Options{}).Run(f.inputs, StaticCollaborator{Name: "Family"})
	require.NoError(t, err)

	m := res.Manifest
	assert.Equal(t, filepath.Join(f.root, "Family", "Family.html"), m.DocumentPath)
	assert.Equal(t, 2, res.Messages)
	assert.Equal(t, 2, res.Participants)
	assert.Equal(t, 1, res.Inline.Resolved)
	assert.Len(t, res.Attachments.Images, 1)
	assert.Equal(t, participant.Stats{Left: 1, Right: 1}, res.Identity)
	assert.False(t, res.Recorded)

	assert.FileExists(t, filepath.Join(m.AttachmentsDir, "photo.jpg"))
	assert.FileExists(t, filepath.Join(m.AttachmentsDir, "chat.txt"))
	assert.NoFileExists(t, m.LockPath())

	data, err := os.ReadFile(m.DocumentPath)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "<h1>Family</h1>")
	assert.Equal(t, 2, strings.Count(doc, `<div class="message `))
	assert.Less(t, strings.Index(doc, ">Alice<"), strings.Index(doc, ">Bob<"))
	assert.NotContains(t, doc, "(file attached)")
	assert.Contains(t, doc, `<img src="attachments/photo.jpg" alt="Image">`)
	assert.Contains(t, doc, `<div class="message left" style="background-color: #add8e6">`)
	assert.Contains(t, doc, `<div class="message right" style="background-color: #90ee90">`)
}

func TestRun_ZeroMessages(t *testing.T) {
	f := newFixture(t, "this is not a chat\nat all\n")
	res, err := f.exporter(Options{}).Run(f.inputs, StaticCollaborator{Name: "Empty"})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Messages)
	assert.Equal(t, 2, res.Discarded)

	data, err := os.ReadFile(res.Manifest.DocumentPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Empty</h1>")
	assert.Equal(t, 0, strings.Count(string(data), `<div class="message `))
}

func TestRun_LinksAndIdentity(t *testing.T) {
	f := newFixture(t, "01.01.23 9:05 - alice: see https://go.dev/doc\n01.01.23 9:06 - bob: ok\n")
	collab := StaticCollaborator{
		Name:    "Links",
		Primary: "Bobby",
		Overrides: &participant.Overrides{Participants: map[string]participant.Override{
			"bob": {Name: "Bobby", Color: "#ffd700"},
		}},
	}
	res, err := f.exporter(Options{}).Run(f.inputs, collab)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Links)

	data, err := os.ReadFile(res.Manifest.DocumentPath)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, `href="https://go.dev/doc"`)
	assert.Contains(t, doc, `<div class="message left" style="background-color: #ffd700">`)
	assert.Contains(t, doc, `<div class="sender">Bobby</div>`)
	assert.Contains(t, doc, `<div class="message right" style="background-color: #90ee90">`)
}

func TestPrepare_CancelledWritesNothing(t *testing.T) {
	for _, atName := range []bool{true, false} {
		f := newFixture(t, scenario)
		_, err := f.exporter(Options{}).Run(f.inputs, cancelCollaborator{atName: atName})

		assert.True(t, IsCancelled(err))
		assert.False(t, IsIO(err))
		assert.NoDirExists(t, f.root)
	}
}

func TestPrepare_EmptyName(t *testing.T) {
	f := newFixture(t, scenario)
	e := f.exporter(Options{DefaultName: " "})
	_, err := e.Prepare(f.inputs, StaticCollaborator{})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestPrepare_DefaultName(t *testing.T) {
	f := newFixture(t, scenario)
	p, err := f.exporter(Options{}).Prepare(f.inputs, StaticCollaborator{})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, p.Manifest.Name)
	assert.Equal(t, []string{"Alice", "Bob"}, p.Registry.Keys())
}

func TestPrepare_MissingTranscript(t *testing.T) {
	e := New(Options{}, nil)
	_, err := e.Prepare(&scan.Inputs{Transcript: filepath.Join(t.TempDir(), "gone.txt")}, StaticCollaborator{})
	assert.True(t, IsIO(err))

	_, err = e.Prepare(&scan.Inputs{}, StaticCollaborator{})
	assert.ErrorIs(t, err, scan.ErrNoTranscript)
}

func TestExport_OutputRootIsAFile(t *testing.T) {
	f := newFixture(t, scenario)
	require.NoError(t, os.WriteFile(f.root, []byte("x"), 0o644))

	_, err := f.exporter(Options{}).Run(f.inputs, StaticCollaborator{Name: "X"})
	require.Error(t, err)
	assert.True(t, IsIO(err))
}

func TestExport_MissingAttachmentSource(t *testing.T) {
	f := newFixture(t, scenario)
	f.inputs.Attachments = []string{filepath.Join(t.TempDir(), "vanished.jpg")}

	_, err := f.exporter(Options{}).Run(f.inputs, StaticCollaborator{Name: "X"})
	require.Error(t, err)
	assert.True(t, IsIO(err))
	assert.NoFileExists(t, filepath.Join(f.root, "X", "X.html"))
}

func TestExport_Busy(t *testing.T) {
	f := newFixture(t, scenario)
	e := f.exporter(Options{})
	p, err := e.Prepare(f.inputs, StaticCollaborator{Name: "Locked"})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(f.root, 0o755))
	held := flock.New(p.Manifest.LockPath())
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	_, err = e.Export(p)
	assert.ErrorIs(t, err, ErrBusy)
	assert.NoDirExists(t, p.Manifest.OutputDir)
}

func TestExport_CleansExtractionDirs(t *testing.T) {
	f := newFixture(t, scenario)
	tmp := t.TempDir()
	extract := filepath.Join(tmp, "extract")
	require.NoError(t, os.MkdirAll(extract, 0o755))
	f.inputs.TempDirs = []string{extract}

	_, err := f.exporter(Options{}).Run(f.inputs, StaticCollaborator{Name: "X"})
	require.NoError(t, err)
	assert.NoDirExists(t, extract)
}

func TestExport_RecordsHistory(t *testing.T) {
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	f := newFixture(t, scenario+"01.01.23 9:07 - Alice: https://example.com\n", "photo.jpg")
	res, err := f.exporter(Options{}).WithHistory(db).Run(f.inputs, StaticCollaborator{Name: "Hist"})
	require.NoError(t, err)
	assert.True(t, res.Recorded)

	e, err := db.GetExport("test-id")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Hist", e.Name)
	assert.Equal(t, "Alice", e.PrimaryName)
	assert.Equal(t, 1, e.AttachmentCount)
	assert.Equal(t, "2023-01-01T12:00:00Z", e.CreatedAt)

	msgs, err := db.GetMessages("test-id")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, string(media.Image), msgs[1].Kind)
	assert.Equal(t, "photo.jpg", msgs[1].Text)
	assert.True(t, msgs[1].IsRight)
	assert.Equal(t, "https://example.com", msgs[2].Text)
}

func TestExporter_RunsAreIndependent(t *testing.T) {
	f1 := newFixture(t, scenario)
	f2 := newFixture(t, scenario)
	e := New(Options{OutputRoot: t.TempDir()}, nil)

	p1, err := e.Prepare(f1.inputs, StaticCollaborator{Name: "One", Primary: "Bob"})
	require.NoError(t, err)
	p2, err := e.Prepare(f2.inputs, StaticCollaborator{Name: "Two"})
	require.NoError(t, err)

	assert.Equal(t, "Bob", p1.Registry.PrimaryName())
	assert.Equal(t, "Alice", p2.Registry.PrimaryName())
}

func TestIOError(t *testing.T) {
	err := ioError("write document", "/x/y.html", os.ErrPermission)
	assert.Equal(t, "write document /x/y.html: permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.True(t, IsIO(err))
	assert.False(t, IsIO(ErrBusy))
	assert.ErrorIs(t, ErrEmptyName, layout.ErrEmptyName)
}
