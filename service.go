package tutorchat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nkovalenko/tutorchat/internal/assets"
)

// Service orchestrates the feedback-to-PDF rendering pipeline: markup tree,
// font resolution, styles, block rendering, document assembly, and the
// Chrome print engine. The renderer itself is synchronous and stateless per
// call; only the font resolution result is cached across calls.
type Service struct {
	cfg    serviceConfig
	log    *slog.Logger
	fonts  *FontResolver
	parser feedbackParser
	pdf    pdfConverter
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithFontDirs).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:    defaultTimeout,
			codeTheme:  defaultCodeTheme,
			dateFormat: DefaultDateFormat,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = slog.Default()
	}
	s.fonts = NewFontResolver(s.cfg.fontDirs, s.log)

	// Create pipeline stages if not injected (e.g., by tests)
	if s.parser == nil {
		s.parser = newMarkupParser()
	}
	if s.pdf == nil {
		s.pdf = newRodConverter(s.cfg.timeout)
	}

	return s
}

// Export renders the feedback document and returns the PDF as bytes.
// No failure inside the rendering pipeline is fatal: a missing font degrades
// to the fallback family, and an unparseable feedback string degrades to a
// single escaped plain-text paragraph. The only input error is empty
// feedback.
func (s *Service) Export(ctx context.Context, input Input) ([]byte, error) {
	if strings.TrimSpace(input.Feedback) == "" {
		return nil, ErrEmptyFeedback
	}

	font, capability := s.fonts.Resolve()
	if capability == CapabilityLatinOnly {
		s.log.Warn("rendering with reduced glyph coverage", "capability", string(capability))
	}
	sheet := buildStyles(font)

	blocks, err := s.feedbackBlocks(ctx, input.Feedback)
	if err != nil {
		return nil, err
	}

	at := input.GeneratedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	story := buildStory(metaTimestamp(at, s.cfg.dateFormat), input.Score, blocks)

	htmlContent := storyHTML(story, sheet, font, s.cfg.codeTheme, s.overrideCSS())

	pdfBytes, err := s.pdf.ToPDF(ctx, htmlContent)
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	return pdfBytes, nil
}

// feedbackBlocks parses the feedback markup and renders its top-level
// blocks. A parse failure degrades to one escaped plain-text paragraph
// holding the original input; only context cancellation is returned as an
// error.
func (s *Service) feedbackBlocks(ctx context.Context, feedback string) ([]LayoutUnit, error) {
	tree, err := s.parser.Parse(ctx, feedback)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn("feedback markup unparseable; rendering as plain text", "error", err)
		return []LayoutUnit{ParagraphUnit{Markup: escapeMarkup(feedback), Role: RoleBody}}, nil
	}
	return feedbackUnits(tree), nil
}

// overrideCSS loads the configured stylesheet override, if any. A missing
// or unreadable override degrades to the built-in styles with a warning.
func (s *Service) overrideCSS() string {
	if s.cfg.styleDir == "" {
		return ""
	}
	css, err := assets.LoadOverride(s.cfg.styleDir, "print")
	if err != nil {
		s.log.Warn("style override unavailable", "dir", s.cfg.styleDir, "error", err)
		return ""
	}
	return css
}

// Close releases resources (headless Chrome browser).
func (s *Service) Close() error {
	if s.pdf != nil {
		return s.pdf.Close()
	}
	return nil
}
