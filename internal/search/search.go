package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/whatshtml/internal/index"
)

type Result struct {
	ExportID  string
	MsgID     int
	CreatedAt string
	Name      string
	Sender    string
	Ts        string
	Snippet   string
	Kind      string
	Rank      float64
}

type Options struct {
	Query  string
	Export string // "" = all, else export name substring
	Sender string // "" = all, else exact sender display name
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
	All    bool // keep every hit instead of the best one per export
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 || len(lower) != len(text) {
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Search finds messages matching opts.Query across recorded exports. FTS5
// is used unless the query contains CJK, which unicode61 cannot segment.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	origLimit := opts.Limit
	if !opts.All {
		opts.Limit = origLimit * 3
	}

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}
	if opts.All {
		return results, nil
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ExportID] {
			continue
		}
		seen[r.ExportID] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// ListAll returns one result per export, newest first, pointing at the
// export's first message.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	exports, err := db.ListExports(opts.Export, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}

	results := make([]Result, 0, len(exports))
	for _, e := range exports {
		if opts.Since != "" && e.CreatedAt < opts.Since {
			continue
		}
		results = append(results, Result{
			ExportID:  e.ExportID,
			MsgID:     -1,
			CreatedAt: e.CreatedAt,
			Name:      e.Name,
			Sender:    e.PrimaryName,
			Snippet:   fmt.Sprintf("%d messages, %d participants", e.MessageCount, e.ParticipantCount),
			Kind:      "export",
		})
	}
	return results, nil
}

func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Export != "" {
		conditions = append(conditions, "e.name LIKE ?")
		args = append(args, "%"+opts.Export+"%")
	}
	if opts.Sender != "" {
		conditions = append(conditions, "m.sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Since != "" {
		conditions = append(conditions, "e.created_at >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []any{opts.Query}
	c, a := filters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			m.export_id,
			m.msg_id,
			e.created_at,
			e.name,
			m.sender,
			m.ts,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			m.kind,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN exports e ON m.export_id = e.export_id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"m.text LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	c, a := filters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			m.export_id,
			m.msg_id,
			e.created_at,
			e.name,
			m.sender,
			m.ts,
			m.text,
			m.kind
		FROM messages m
		JOIN exports e ON m.export_id = e.export_id
		WHERE %s
		ORDER BY e.created_at DESC, m.msg_id
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.ExportID, &r.MsgID, &r.CreatedAt, &r.Name,
			&r.Sender, &r.Ts, &fullText, &r.Kind,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ExportID, &r.MsgID, &r.CreatedAt, &r.Name,
			&r.Sender, &r.Ts, &r.Snippet, &r.Kind, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
