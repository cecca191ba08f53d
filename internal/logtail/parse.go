package logtail

import (
	"sort"
	"strings"

	"github.com/go-logfmt/logfmt"
)

// Entry is one parsed logrus text-formatter line.
type Entry struct {
	Time      string
	Level     string
	Component string
	Message   string
	Error     string
	Fields    []Field // remaining key=value pairs, sorted by key
	Raw       string
}

// Field is an extra structured key=value pair.
type Field struct {
	Key   string
	Value string
}

// Parse splits a logrus text line (time="..." level=info msg="..." k=v) into
// its parts. Lines that do not look like logrus output come back with only
// Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	pairs, ok := splitPairs(line)
	if !ok {
		entry.Message = line
		return entry
	}

	for _, p := range pairs {
		switch p.Key {
		case "time":
			entry.Time = p.Value
		case "level":
			entry.Level = strings.ToLower(p.Value)
		case "msg":
			entry.Message = p.Value
		case "component":
			entry.Component = p.Value
		case "error":
			entry.Error = p.Value
		default:
			entry.Fields = append(entry.Fields, p)
		}
	}
	if entry.Level == "" {
		return Entry{Raw: line, Message: line}
	}
	sort.Slice(entry.Fields, func(i, j int) bool { return entry.Fields[i].Key < entry.Fields[j].Key })
	return entry
}

// ParseLines parses every line.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, len(lines))
	for i, l := range lines {
		out[i] = Parse(l)
	}
	return out
}

// AtLeast reports whether the entry's level is at or above min.
// Unparsed lines always pass.
func (e Entry) AtLeast(min string) bool {
	if e.Level == "" {
		return true
	}
	return levelRank(e.Level) >= levelRank(min)
}

func levelRank(level string) int {
	switch strings.ToLower(level) {
	case "trace":
		return 0
	case "debug":
		return 1
	case "info":
		return 2
	case "warning", "warn":
		return 3
	case "error":
		return 4
	case "fatal":
		return 5
	case "panic":
		return 6
	default:
		return 2
	}
}

// splitPairs decodes line as a single logfmt record. Keys without a value
// are kept with an empty value.
func splitPairs(line string) ([]Field, bool) {
	dec := logfmt.NewDecoder(strings.NewReader(line))
	if !dec.ScanRecord() {
		return nil, false
	}
	var pairs []Field
	for dec.ScanKeyval() {
		pairs = append(pairs, Field{Key: string(dec.Key()), Value: string(dec.Value())})
	}
	if dec.Err() != nil {
		return nil, false
	}
	return pairs, len(pairs) > 0
}
