package index

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/whatshtml/internal/media"
	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "sub", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(t *testing.T, id, name string, n int) Record {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	doc := filepath.Join(dir, name+".html")
	require.NoError(t, os.WriteFile(doc, []byte("<html></html>"), 0o644))

	msgs := make([]parse.Message, n)
	for i := range msgs {
		msgs[i] = parse.Message{
			Timestamp: "01.01.23 9:0" + fmt.Sprint(i%10),
			Sender:    []string{"Alice", "Bob"}[i%2],
			Content:   fmt.Sprintf("message number %d", i),
			IsRight:   i%2 == 1,
			Line:      i + 1,
		}
	}
	return Record{
		ExportID:     id,
		Name:         name,
		DocumentPath: doc,
		OutputDir:    dir,
		Transcript:   "chat.txt",
		CreatedAt:    time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		PrimaryName:  "Alice",
		Participants: 2,
		Messages:     msgs,
	}
}

func TestOpenDB_SchemaVersion(t *testing.T) {
	db := openTestDB(t)
	ver, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, ver)
}

func TestRecordExport_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord(t, "0f8c7a8e-aaaa", "Family", 3)
	rec.Messages[1].Content = ""
	rec.Messages[1].Attachment = &parse.Attachment{Filename: "photo.jpg", Kind: media.Image}
	require.NoError(t, RecordExport(db, rec))

	e, err := db.GetExport("0f8c7a8e-aaaa")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Family", e.Name)
	assert.Equal(t, 3, e.MessageCount)
	assert.Equal(t, 2, e.ParticipantCount)
	assert.Equal(t, "2023-01-01T10:00:00Z", e.CreatedAt)
	assert.Equal(t, int64(len("<html></html>")), e.Size)

	msgs, err := db.GetMessages(e.ExportID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Alice", msgs[0].Sender)
	assert.False(t, msgs[0].IsRight)
	assert.True(t, msgs[1].IsRight)
	assert.Equal(t, "image", msgs[1].Kind)
	assert.Equal(t, "photo.jpg", msgs[1].Text)
	assert.Equal(t, "text", msgs[2].Kind)
}

func TestRecordExport_ReplacesSameDocument(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord(t, "first", "Family", 2)
	require.NoError(t, RecordExport(db, rec))

	rec.ExportID = "second"
	rec.Messages = rec.Messages[:1]
	require.NoError(t, RecordExport(db, rec))

	s, err := Summary(db)
	require.NoError(t, err)
	assert.Equal(t, Stats{Exports: 1, Messages: 1}, s)

	e, err := db.GetExport("first")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestGetExport_Prefix(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, RecordExport(db, testRecord(t, "abc123", "One", 1)))
	require.NoError(t, RecordExport(db, testRecord(t, "abd456", "Two", 1)))

	e, err := db.GetExport("abc")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "One", e.Name)

	_, err = db.GetExport("ab")
	assert.Error(t, err)

	e, err = db.GetExport("zzz")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestListExports(t *testing.T) {
	db := openTestDB(t)
	older := testRecord(t, "a", "Holiday", 1)
	newer := testRecord(t, "b", "Work", 1)
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	require.NoError(t, RecordExport(db, older))
	require.NoError(t, RecordExport(db, newer))

	all, err := db.ListExports("", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Work", all[0].Name)

	filtered, err := db.ListExports("holi", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Holiday", filtered[0].Name)
}

func TestGetMessagesWindow(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, RecordExport(db, testRecord(t, "w", "Window", 20)))

	msgs, hitIdx, start, total, err := db.GetMessagesWindow("w", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
	assert.Equal(t, 8, start)
	assert.Len(t, msgs, 5)
	assert.Equal(t, 2, hitIdx)
	assert.Equal(t, 10, msgs[hitIdx].MsgID)

	msgs, hitIdx, start, _, err = db.GetMessagesWindow("w", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Len(t, msgs, 4)
	assert.Equal(t, 0, hitIdx)

	msgs, hitIdx, _, _, err = db.GetMessagesWindow("w", -1, 3)
	require.NoError(t, err)
	assert.Len(t, msgs, 20)
	assert.Equal(t, -1, hitIdx)
}

func TestPruneMissing(t *testing.T) {
	db := openTestDB(t)
	keep := testRecord(t, "keep", "Keep", 1)
	gone := testRecord(t, "gone", "Gone", 1)
	require.NoError(t, RecordExport(db, keep))
	require.NoError(t, RecordExport(db, gone))
	require.NoError(t, os.Remove(gone.DocumentPath))

	n, err := PruneMissing(db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := Summary(db)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Exports)
}
