package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS exports (
    export_id         TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    document_path     TEXT NOT NULL,
    output_dir        TEXT NOT NULL,
    transcript        TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL DEFAULT '',
    primary_name      TEXT NOT NULL DEFAULT '',
    message_count     INTEGER NOT NULL DEFAULT 0,
    participant_count INTEGER NOT NULL DEFAULT 0,
    attachment_count  INTEGER NOT NULL DEFAULT 0,
    size              INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS exports_document ON exports(document_path);

CREATE TABLE IF NOT EXISTS messages (
    export_id   TEXT NOT NULL,
    msg_id      INTEGER NOT NULL,
    ts          TEXT NOT NULL DEFAULT '',
    sender      TEXT NOT NULL DEFAULT '',
    is_right    INTEGER NOT NULL DEFAULT 0,
    kind        TEXT NOT NULL DEFAULT 'text',
    text        TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (export_id, msg_id)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;
`

// DB is the export history store.
type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion is bumped whenever the stored message text changes shape.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

// SchemaVersion returns the version recorded in the database.
func (d *DB) SchemaVersion() (string, error) {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	return ver, err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ExportRow struct {
	ExportID         string
	Name             string
	DocumentPath     string
	OutputDir        string
	Transcript       string
	CreatedAt        string
	PrimaryName      string
	MessageCount     int
	ParticipantCount int
	AttachmentCount  int
	Size             int64
}

type MessageRow struct {
	ExportID   string
	MsgID      int
	Ts         string
	Sender     string
	IsRight    bool
	Kind       string
	Text       string
	LineNumber int
}

const exportColumns = `export_id, name, document_path, output_dir, transcript, created_at,
	primary_name, message_count, participant_count, attachment_count, size`

func scanExport(row interface{ Scan(...any) error }) (*ExportRow, error) {
	var e ExportRow
	err := row.Scan(&e.ExportID, &e.Name, &e.DocumentPath, &e.OutputDir, &e.Transcript, &e.CreatedAt,
		&e.PrimaryName, &e.MessageCount, &e.ParticipantCount, &e.AttachmentCount, &e.Size)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetExport looks an export up by full ID or unique ID prefix. It returns
// nil, nil when nothing matches.
func (d *DB) GetExport(id string) (*ExportRow, error) {
	if id == "" {
		return nil, nil
	}
	rows, err := d.db.Query(
		"SELECT "+exportColumns+" FROM exports WHERE export_id = ? OR export_id LIKE ? ORDER BY export_id = ? DESC LIMIT 2",
		id, id+"%", id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []*ExportRow
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(found) == 0:
		return nil, nil
	case found[0].ExportID == id || len(found) == 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("export id prefix %q is ambiguous", id)
	}
}

// ListExports returns exports, newest first. limit <= 0 means no limit.
func (d *DB) ListExports(filter string, limit int) ([]ExportRow, error) {
	if limit <= 0 {
		limit = -1
	}
	query := "SELECT " + exportColumns + " FROM exports"
	var args []any
	if filter != "" {
		query += " WHERE name LIKE ? OR primary_name LIKE ?"
		args = append(args, "%"+filter+"%", "%"+filter+"%")
	}
	query += " ORDER BY created_at DESC, export_id LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (d *DB) DeleteExport(exportID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE export_id = ?", exportID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE export_id = ?", exportID); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) ExportCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM exports").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

const messageColumns = "export_id, msg_id, ts, sender, is_right, kind, text, line_number"

func scanMessage(rows *sql.Rows) (MessageRow, error) {
	var m MessageRow
	err := rows.Scan(&m.ExportID, &m.MsgID, &m.Ts, &m.Sender, &m.IsRight, &m.Kind, &m.Text, &m.LineNumber)
	return m, err
}

func (d *DB) GetMessages(exportID string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE export_id = ? ORDER BY msg_id",
		exportID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []MessageRow
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessagesWindow returns a window of messages around a hit message.
// startPos is the number of messages before the returned window and
// totalCount the number of messages in the export. A negative hitMsgID
// returns every message.
func (d *DB) GetMessagesWindow(exportID string, hitMsgID, context int) (msgs []MessageRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE export_id = ?", exportID,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// msg_id is dense from 0, so it is also the position
	hitPos := -1
	if hitMsgID >= 0 && hitMsgID < totalCount {
		hitPos = hitMsgID
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = max(hitPos-context, 0)
		endPos := min(hitPos+context+1, totalCount)
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE export_id = ? ORDER BY msg_id LIMIT ? OFFSET ?",
		exportID, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	var result []MessageRow
	localHitIdx := -1
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, -1, 0, 0, err
		}
		if m.MsgID == hitMsgID {
			localHitIdx = len(result)
		}
		result = append(result, m)
	}
	return result, localHitIdx, startPos, totalCount, rows.Err()
}
