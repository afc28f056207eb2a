package render

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Font roles used by the section renderers. Sizes follow the panel
// design; bold variants use the bold typeface file.
const (
	fontHeaderTitle   = "header_title"
	fontCircuitName   = "circuit_name"
	fontScheduleTitle = "schedule_title"
	fontScheduleRow   = "schedule_row"
	fontScheduleBold  = "schedule_row_bold"
	fontResultsTitle  = "results_title"
	fontResultsYear   = "results_year"
	fontResultsRow    = "results_row"
	fontStatsValue    = "circuit_stats_value"
	fontIconSmall     = "icon_small"
)

type fontSpec struct {
	size float64
	bold bool
	icon bool
}

var fontSpecs = map[string]fontSpec{
	fontHeaderTitle:   {size: 36, bold: true},
	fontCircuitName:   {size: 18, bold: true},
	fontScheduleTitle: {size: 24, bold: true},
	fontScheduleRow:   {size: 20},
	fontScheduleBold:  {size: 20, bold: true},
	fontResultsTitle:  {size: 18, bold: true},
	fontResultsYear:   {size: 36, bold: true},
	fontResultsRow:    {size: 16},
	fontStatsValue:    {size: 14, bold: true},
	fontIconSmall:     {size: 14, icon: true},
}

// System substitutes probed when the bundled typeface is absent. The
// first entry of each list is the conventional Debian location; extra
// paths keep the loader portable.
var (
	systemRegularPaths = []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
	}
	systemBoldPaths = []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	}
	systemIconPaths = []string{
		"/usr/share/fonts/truetype/ancient-scripts/Symbola_hint.ttf",
		"/usr/share/fonts/truetype/symbola/Symbola.ttf",
	}
)

// Fonts resolves typeface files and caches the parsed fonts, which are
// read-only and shareable. Faces are minted fresh per Face call because
// an opentype face carries unsynchronized glyph scratch buffers; two
// renders must never draw through the same face. Loading never fails: a
// missing file falls back to a system substitute and finally to the
// embedded bitmap face.
type Fonts struct {
	dir string
	log *zap.Logger

	mu     sync.Mutex
	parsed map[string]*opentype.Font
	failed map[string]bool
}

// NewFonts creates a loader rooted at dir (expects TitilliumWeb-Regular.ttf
// and TitilliumWeb-Bold.ttf inside).
func NewFonts(dir string, logger *zap.Logger) *Fonts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fonts{
		dir:    dir,
		log:    logger,
		parsed: make(map[string]*opentype.Font),
		failed: make(map[string]bool),
	}
}

// Face returns a freshly minted face for a named role; the caller owns
// it for the duration of one render. Unknown roles get the regular face
// at 16pt rather than an error.
func (f *Fonts) Face(role string) font.Face {
	spec, ok := fontSpecs[role]
	if !ok {
		spec = fontSpec{size: 16}
	}

	if spec.icon {
		return f.newFace(systemIconPaths, nil, spec.size)
	}
	if spec.bold {
		return f.newFace([]string{filepath.Join(f.dir, "TitilliumWeb-Bold.ttf")}, systemBoldPaths, spec.size)
	}
	return f.newFace([]string{filepath.Join(f.dir, "TitilliumWeb-Regular.ttf")}, systemRegularPaths, spec.size)
}

func (f *Fonts) newFace(primary, fallback []string, size float64) font.Face {
	paths := append(append([]string{}, primary...), fallback...)
	for _, path := range paths {
		parsed := f.parsedFont(path)
		if parsed == nil {
			continue
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			f.log.Warn("face creation failed", zap.String("path", path), zap.Error(err))
			continue
		}
		return face
	}

	f.log.Warn("no scalable font available, using embedded bitmap face",
		zap.Float64("size", size))
	return basicfont.Face7x13
}

// parsedFont loads and parses a font file once; later calls reuse the
// parsed font, which is immutable and safe to share.
func (f *Fonts) parsedFont(path string) *opentype.Font {
	f.mu.Lock()
	defer f.mu.Unlock()

	if parsed, ok := f.parsed[path]; ok {
		return parsed
	}
	if f.failed[path] {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		f.failed[path] = true
		return nil
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		f.log.Warn("unusable font file", zap.String("path", path), zap.Error(err))
		f.failed[path] = true
		return nil
	}
	f.parsed[path] = parsed
	return parsed
}
