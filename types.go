package tutorchat

import (
	"log/slog"
	"time"
)

// Input contains the parameters for one feedback export.
type Input struct {
	Feedback    string    // Model-generated feedback markup (required)
	Score       string    // Optional score; empty means no score line
	GeneratedAt time.Time // Render timestamp; zero means time.Now in UTC
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout    time.Duration
	fontDirs   []string
	codeTheme  string
	dateFormat string
	styleDir   string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the PDF generation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("tutorchat: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithFontDirs overrides the ordered candidate directories scanned for the
// export font family.
func WithFontDirs(dirs ...string) Option {
	return func(s *Service) {
		s.cfg.fontDirs = dirs
	}
}

// WithCodeTheme selects the chroma style used for preformatted blocks.
// Unknown names fall back to the default palette.
func WithCodeTheme(name string) Option {
	return func(s *Service) {
		s.cfg.codeTheme = name
	}
}

// WithDateFormat sets the metadata timestamp format using date tokens
// (e.g. "DD.MM.YYYY HH:mm:ss"). Invalid formats fall back to the default.
func WithDateFormat(format string) Option {
	return func(s *Service) {
		s.cfg.dateFormat = format
	}
}

// WithStyleDir points the renderer at a directory holding a print.css
// stylesheet override, appended after the built-in styles.
func WithStyleDir(dir string) Option {
	return func(s *Service) {
		s.cfg.styleDir = dir
	}
}

// WithLogger sets the logger for font resolution and degradation warnings.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}
