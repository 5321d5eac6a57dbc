package parse

import "regexp"

// Dialect describes how header lines of one transcript flavour look. Header
// must capture exactly three groups: timestamp, sender and content.
type Dialect struct {
	Name   string
	Header *regexp.Regexp
}

// AndroidDMY matches "DD.MM.YY H:MM - Sender: text". The hour may have one or
// two digits; the sender is the shortest run before the first ": ".
var AndroidDMY = Dialect{
	Name:   "android-dmy",
	Header: regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{2} \d{1,2}:\d{2}) - (.+?): (.+)$`),
}

// DefaultDialects is the table consulted when a Parser is built without one.
var DefaultDialects = []Dialect{AndroidDMY}

// match tries each dialect in order and returns the captured fields.
func match(dialects []Dialect, line string) (ts, sender, content string, ok bool) {
	for _, d := range dialects {
		if m := d.Header.FindStringSubmatch(line); m != nil {
			return m[1], m[2], m[3], true
		}
	}
	return "", "", "", false
}
