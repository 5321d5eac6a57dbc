package index

import (
	"fmt"
	"os"
	"time"

	"github.com/Zuo-Peng/whatshtml/internal/parse"
)

// TimeLayout is how created_at is stored.
const TimeLayout = "2006-01-02T15:04:05Z"

// Record is one finished export as it is written to history.
type Record struct {
	ExportID     string
	Name         string
	DocumentPath string
	OutputDir    string
	Transcript   string
	CreatedAt    time.Time
	PrimaryName  string
	Participants int
	Attachments  int
	Messages     []parse.Message
}

type Stats struct {
	Exports  int
	Messages int
	Pruned   int
}

func (s Stats) String() string {
	return fmt.Sprintf("exports=%d messages=%d pruned=%d", s.Exports, s.Messages, s.Pruned)
}

// RecordExport stores rec, replacing any earlier export written to the same
// document path.
func RecordExport(db *DB, rec Record) error {
	var size int64
	if fi, err := os.Stat(rec.DocumentPath); err == nil {
		size = fi.Size()
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM messages WHERE export_id IN (SELECT export_id FROM exports WHERE document_path = ?)",
		rec.DocumentPath,
	); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE document_path = ?", rec.DocumentPath); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO exports (export_id, name, document_path, output_dir, transcript, created_at,
		                      primary_name, message_count, participant_count, attachment_count, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ExportID,
		rec.Name,
		rec.DocumentPath,
		rec.OutputDir,
		rec.Transcript,
		rec.CreatedAt.UTC().Format(TimeLayout),
		rec.PrimaryName,
		len(rec.Messages),
		rec.Participants,
		rec.Attachments,
		size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (export_id, msg_id, ts, sender, is_right, kind, text, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range rec.Messages {
		kind, text := "text", m.Content
		if m.Attachment != nil {
			kind = string(m.Attachment.Kind)
			if text == "" {
				text = m.Attachment.Filename
			} else {
				text += " " + m.Attachment.Filename
			}
		}
		if _, err := stmt.Exec(rec.ExportID, i, m.Timestamp, m.Sender, m.IsRight, kind, text, m.Line); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PruneMissing removes exports whose document no longer exists on disk.
func PruneMissing(db *DB) (int, error) {
	exports, err := db.ListExports("", 0)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, e := range exports {
		if _, err := os.Stat(e.DocumentPath); err == nil {
			continue
		}
		if err := db.DeleteExport(e.ExportID); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

// Summary returns the current history counts.
func Summary(db *DB) (Stats, error) {
	var s Stats
	var err error
	if s.Exports, err = db.ExportCount(); err != nil {
		return s, err
	}
	if s.Messages, err = db.MessageCount(); err != nil {
		return s, err
	}
	return s, nil
}
