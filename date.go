package tutorchat

import (
	"time"

	"github.com/nkovalenko/tutorchat/internal/dateutil"
)

// DefaultDateFormat is the metadata timestamp format used when none is
// configured.
const DefaultDateFormat = "DD.MM.YYYY HH:mm:ss"

// filenamePrefix and filenameTimeLayout build suggested export filenames.
const (
	filenamePrefix     = "estimation_"
	filenameTimeLayout = "20060102_150405"
)

// ExportFilename suggests a download filename for an export rendered at t.
func ExportFilename(t time.Time) string {
	return filenamePrefix + t.UTC().Format(filenameTimeLayout) + ".pdf"
}

// metaTimestamp formats the metadata date line. Preset names ("iso",
// "european", "timestamp", ...) expand first; an invalid format string
// falls back to DefaultDateFormat rather than failing the render.
func metaTimestamp(t time.Time, format string) string {
	if format == "" {
		format = DefaultDateFormat
	}
	goFmt, err := dateutil.ParseDateFormat(dateutil.ResolvePreset(format))
	if err != nil {
		goFmt, _ = dateutil.ParseDateFormat(DefaultDateFormat)
	}
	return t.UTC().Format(goFmt)
}
