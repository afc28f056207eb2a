package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// countryCodes maps the country names appearing in race data to
// ISO-3166 alpha-2 codes (lowercase) used by the flag asset files.
var countryCodes = map[string]string{
	"Australia":            "au",
	"Austria":              "at",
	"Azerbaijan":           "az",
	"Bahrain":              "bh",
	"Belgium":              "be",
	"Brazil":               "br",
	"Canada":               "ca",
	"China":                "cn",
	"France":               "fr",
	"Germany":              "de",
	"Hungary":              "hu",
	"Italy":                "it",
	"Japan":                "jp",
	"Mexico":               "mx",
	"Monaco":               "mc",
	"Netherlands":          "nl",
	"Portugal":             "pt",
	"Qatar":                "qa",
	"Russia":               "ru",
	"Saudi Arabia":         "sa",
	"Singapore":            "sg",
	"Spain":                "es",
	"Turkey":               "tr",
	"UAE":                  "ae",
	"United Arab Emirates": "ae",
	"UK":                   "gb",
	"United Kingdom":       "gb",
	"USA":                  "us",
	"United States":        "us",
}

// CountryCode resolves a country name to a two-letter flag code. Names
// missing from the table fall back to their first two characters,
// lowercased; crude, but it never fails.
func CountryCode(name string) string {
	if code, ok := countryCodes[name]; ok {
		return code
	}
	runes := []rune(strings.ToLower(name))
	if len(runes) >= 2 {
		return string(runes[:2])
	}
	return string(runes)
}

// TrackAssetKind tags how much processing a track image still needs.
type TrackAssetKind int

const (
	// TrackAssetNone means no asset matched; draw the placeholder.
	TrackAssetNone TrackAssetKind = iota
	// TrackAssetBinary is a preprocessed 1-bit image, paste as-is.
	TrackAssetBinary
	// TrackAssetRaster is an original PNG/JPEG needing
	// crop/resize/threshold at render time.
	TrackAssetRaster
)

// TrackAsset is a resolved track-map image plus its processing tag, so
// the section renderer never branches on file extensions.
type TrackAsset struct {
	Kind  TrackAssetKind
	Image *image.Gray
}

// Assets resolves preprocessed and original image files below a root
// directory:
//
//	<root>/images/eInkF1logo.jpg
//	<root>/tracks_processed/*.bmp
//	<root>/tracks/*.{png,jpg,jpeg}
//	<root>/flags_processed/<code>.bmp  (or <code>.svg originals)
//
// All lookups degrade gracefully; a missing file is never an error.
type Assets struct {
	root string
	log  *zap.Logger
}

// NewAssets creates an asset resolver rooted at dir.
func NewAssets(dir string, logger *zap.Logger) *Assets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assets{root: dir, log: logger}
}

// Logo loads the header logo raster, or nil when absent.
func (a *Assets) Logo() image.Image {
	img := a.decodeFile(filepath.Join(a.root, "images", "eInkF1logo.jpg"))
	if img == nil {
		a.log.Debug("header logo not found")
	}
	return img
}

// Track resolves the best-matching track map. Search order: a
// preprocessed 1-bit bitmap matching the circuit id or normalized
// locality, then an original raster under the same rule, then any
// preprocessed bitmap as a placeholder of last resort.
func (a *Assets) Track(circuitID, locality string) TrackAsset {
	processedDir := filepath.Join(a.root, "tracks_processed")
	originalDir := filepath.Join(a.root, "tracks")

	keys := []string{}
	if circuitID != "" {
		keys = append(keys, strings.ToLower(circuitID))
	}
	if loc := strings.ToLower(strings.ReplaceAll(locality, " ", "_")); loc != "" {
		keys = append(keys, loc)
	}

	if path := findByKeys(processedDir, keys, ".bmp"); path != "" {
		if img := a.decodeFile(path); img != nil {
			return TrackAsset{Kind: TrackAssetBinary, Image: toGray(img)}
		}
	}

	if path := findByKeys(originalDir, keys, ".png", ".jpg", ".jpeg"); path != "" {
		if img := a.decodeFile(path); img != nil {
			return TrackAsset{Kind: TrackAssetRaster, Image: toGray(img)}
		}
	}

	// Last resort: any preprocessed track at all.
	if path := findByKeys(processedDir, nil, ".bmp"); path != "" {
		if img := a.decodeFile(path); img != nil {
			a.log.Info("no track asset matched, using stand-in",
				zap.String("circuit", circuitID), zap.String("file", filepath.Base(path)))
			return TrackAsset{Kind: TrackAssetBinary, Image: toGray(img)}
		}
	}

	return TrackAsset{Kind: TrackAssetNone}
}

// Flag loads the preprocessed flag bitmap for a country, falling back
// to rasterising an SVG original. Returns nil when neither exists; the
// caller then skips the flag, not the render.
func (a *Assets) Flag(country string) *image.Gray {
	code := CountryCode(country)
	if code == "" {
		return nil
	}
	dir := filepath.Join(a.root, "flags_processed")

	if img := a.decodeFile(filepath.Join(dir, code+".bmp")); img != nil {
		return toGray(img)
	}
	if img := a.renderSVG(filepath.Join(dir, code+".svg")); img != nil {
		return Threshold(toGray(img), binaryThreshold)
	}
	a.log.Debug("no flag asset", zap.String("country", country), zap.String("code", code))
	return nil
}

func (a *Assets) decodeFile(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	default:
		return nil
	}
	if err != nil {
		a.log.Warn("undecodable asset", zap.String("path", path), zap.Error(err))
		return nil
	}
	return img
}

func (a *Assets) renderSVG(path string) image.Image {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		a.log.Warn("unusable svg asset", zap.String("path", path), zap.Error(err))
		return nil
	}
	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		return nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	// White backing so transparent regions threshold to background.
	for i := range rgba.Pix {
		rgba.Pix[i] = 0xff
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return rgba
}

// findByKeys returns the first file in dir whose lowercase name
// contains one of the keys and carries one of the extensions. With no
// keys, any file with a matching extension wins.
func findByKeys(dir string, keys []string, exts ...string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, key := range keysOrAny(keys) {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := strings.ToLower(e.Name())
			ext := filepath.Ext(name)
			if !containsString(exts, ext) {
				continue
			}
			if key == "" || strings.Contains(name, key) {
				return filepath.Join(dir, e.Name())
			}
		}
	}
	return ""
}

func keysOrAny(keys []string) []string {
	if len(keys) == 0 {
		return []string{""}
	}
	return keys
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// toGray converts any decoded image to 8-bit grayscale.
func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), src, b.Min, xdraw.Src)
	return out
}

// Threshold maps every pixel to pure black or white at the cutoff.
func Threshold(src *image.Gray, cutoff uint8) *image.Gray {
	out := image.NewGray(src.Bounds())
	for i, p := range src.Pix {
		if p >= cutoff {
			out.Pix[i] = 0xff
		} else {
			out.Pix[i] = 0x00
		}
	}
	return out
}

// CropToContent returns the tight bounding box of all non-near-white
// pixels, or the full image when nothing qualifies.
func CropToContent(src *image.Gray) *image.Gray {
	b := src.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.GrayAt(x, y).Y < binaryThreshold {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return src
	}
	return src.SubImage(image.Rect(minX, minY, maxX+1, maxY+1)).(*image.Gray)
}

// ScaleToFit proportionally resizes src so it fits in maxW x maxH.
// Nearest-neighbour sampling keeps preprocessed 1-bit patterns blocky;
// anything else gets a smoothing kernel before thresholding.
func ScaleToFit(src *image.Gray, maxW, maxH int, nearest bool) *image.Gray {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || maxW <= 0 || maxH <= 0 {
		return src
	}
	ratio := minFloat(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	w := int(float64(b.Dx()) * ratio)
	h := int(float64(b.Dy()) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == b.Dx() && h == b.Dy() {
		return src
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	if nearest {
		xdraw.NearestNeighbor.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	}
	return out
}

// ScaleToWidth resizes src to an exact width, keeping the aspect ratio.
func ScaleToWidth(src *image.Gray, width int, nearest bool) *image.Gray {
	b := src.Bounds()
	if b.Dx() == 0 || width <= 0 || b.Dx() == width {
		return src
	}
	h := int(float64(b.Dy()) * float64(width) / float64(b.Dx()))
	if h < 1 {
		h = 1
	}
	out := image.NewGray(image.Rect(0, 0, width, h))
	if nearest {
		xdraw.NearestNeighbor.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
