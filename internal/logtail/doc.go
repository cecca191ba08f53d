// Package logtail reads the tail of the dashboard's own log file and parses
// logrus text-formatter lines for display in the TUI log view.
//
// # Reading
//
// Read holds at most twice maxLines lines while scanning, so large files are
// never held in memory in full. A maxLines of zero or less returns every
// line; a missing file returns no lines and no error, which is the normal
// state before anything has been logged. Tail combines Read and ParseLines.
//
// # Parsing
//
// Parse decodes each line with go-logfmt, which reads the output of
// logrus.TextFormatter with colours disabled:
//
//	time="2026-03-04 08:00:00" level=warning msg="refresh failed" component=sync error="..."
//
// The well-known keys (time, level, msg, component, error) get their own
// fields; everything else is kept in Fields sorted by key. Lines that are
// not logrus output are returned with Message set to the raw line so the
// view can still show them.
package logtail
