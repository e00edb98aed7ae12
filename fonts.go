package tutorchat

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/freetype/truetype"
)

// FontCapability records what glyph coverage the resolved font guarantees.
type FontCapability string

const (
	// CapabilityFull means the primary font family was found; full script
	// coverage (including Cyrillic) is available.
	CapabilityFull FontCapability = "full"

	// CapabilityLatinOnly means the renderer fell back to a built-in font
	// with no guaranteed non-Latin glyph coverage.
	CapabilityLatinOnly FontCapability = "latin-only"
)

// FontVariant identifies one face of the export font family.
type FontVariant int

const (
	VariantRegular FontVariant = iota
	VariantBold
	VariantItalic
	VariantBoldItalic
)

func (v FontVariant) String() string {
	switch v {
	case VariantBold:
		return "bold"
	case VariantItalic:
		return "italic"
	case VariantBoldItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// FontHandle is a resolved, registered font identity. When Fallback is set,
// Files is empty and Family names a built-in Latin-only font.
type FontHandle struct {
	Family   string
	Files    map[FontVariant]string
	Fallback bool
}

// Primary export font family and its on-disk variant files.
const exportFontFamily = "Export Sans"

// fallbackFontFamily is always available to the layout engine but has no
// guaranteed Cyrillic coverage.
const fallbackFontFamily = "Helvetica"

var fontVariantFiles = []struct {
	variant  FontVariant
	filename string
}{
	{VariantRegular, "LiberationSans-Regular.ttf"},
	{VariantBold, "LiberationSans-Bold.ttf"},
	{VariantItalic, "LiberationSans-Italic.ttf"},
	{VariantBoldItalic, "LiberationSans-BoldItalic.ttf"},
}

// defaultFontDirs are scanned in order for the export font family.
var defaultFontDirs = []string{
	"/usr/share/fonts/liberation-fonts",
	"/usr/share/fonts/truetype/liberation",
	"/usr/share/fonts",
}

// FontResolver locates and registers the export font family once per
// process. Resolution is guarded so concurrent callers observe a single
// registered-or-not state without racing on file I/O.
type FontResolver struct {
	dirs []string
	log  *slog.Logger

	mu         sync.Mutex
	handle     *FontHandle
	capability FontCapability
}

// NewFontResolver creates a resolver scanning dirs in order. Empty dirs
// selects the default search locations.
func NewFontResolver(dirs []string, log *slog.Logger) *FontResolver {
	if len(dirs) == 0 {
		dirs = defaultFontDirs
	}
	if log == nil {
		log = slog.Default()
	}
	return &FontResolver{dirs: dirs, log: log}
}

// Resolve returns the registered font identity and its capability. The first
// call scans the search directories; later calls return the cached result.
func (r *FontResolver) Resolve() (FontHandle, FontCapability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle != nil {
		return *r.handle, r.capability
	}

	files := make(map[FontVariant]string, len(fontVariantFiles))
	for _, fv := range fontVariantFiles {
		for _, dir := range r.dirs {
			candidate := filepath.Join(dir, fv.filename)
			if err := registerFontFile(candidate); err != nil {
				if !os.IsNotExist(err) {
					r.log.Warn("failed to register font", "path", candidate, "error", err)
				}
				continue
			}
			files[fv.variant] = candidate
			break
		}
	}

	if _, ok := files[VariantRegular]; !ok {
		r.log.Warn("no export font found; falling back", "font", fallbackFontFamily, "capability", CapabilityLatinOnly)
		r.handle = &FontHandle{Family: fallbackFontFamily, Fallback: true}
		r.capability = CapabilityLatinOnly
		return *r.handle, r.capability
	}

	r.handle = &FontHandle{Family: exportFontFamily, Files: files}
	r.capability = CapabilityFull
	return *r.handle, r.capability
}

// registerFontFile verifies that the candidate is a loadable TrueType file.
// A file that exists but cannot be parsed counts as not found so the scan
// continues to the next directory.
func registerFontFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := truetype.Parse(data); err != nil {
		return err
	}
	return nil
}
