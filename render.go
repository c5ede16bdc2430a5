package lblannotate

// Drawing of bounding boxes and captions onto the analysed image.

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// NamedColor is a palette entry.
type NamedColor struct {
	Name  string
	Color color.RGBA
}

// Palette is cycled through, one entry per label with at least one bounding box.
var Palette = []NamedColor{
	{"red", color.RGBA{255, 0, 0, 255}},
	{"blue", color.RGBA{0, 0, 255, 255}},
	{"green", color.RGBA{0, 128, 0, 255}},
	{"yellow", color.RGBA{255, 255, 0, 255}},
	{"purple", color.RGBA{128, 0, 128, 255}},
	{"orange", color.RGBA{255, 165, 0, 255}},
	{"cyan", color.RGBA{0, 255, 255, 255}},
	{"magenta", color.RGBA{255, 0, 255, 255}},
	{"lime", color.RGBA{0, 255, 0, 255}},
	{"pink", color.RGBA{255, 192, 203, 255}},
	{"teal", color.RGBA{0, 128, 128, 255}},
	{"brown", color.RGBA{165, 42, 42, 255}},
	{"navy", color.RGBA{0, 0, 128, 255}},
	{"olive", color.RGBA{128, 128, 0, 255}},
}

// Box and caption geometry, in pixels.
const (
	boxLineWidth = 3

	captionInsetX      = 5  // Horizontal offset of the caption from the box's left edge.
	captionInsetY      = 5  // Default offset below the box's top edge.
	captionTopMargin   = 15 // Boxes closer to the top get the caption below their bottom edge.
	captionBottomSpace = 20 // Space needed below a box before the caption moves above it.
	captionRaise       = 15 // Offset above the top edge when the caption moves above the box.
	captionPadding     = 2  // Background padding around the caption.

	// Text size estimate when no font metrics are used.
	estimatedCharWidth  = 6
	estimatedTextHeight = 10
)

var captionBackground = color.RGBA{0, 0, 0, 255}

// DefaultFace is the caption font used when no other face is configured.
var DefaultFace font.Face = basicfont.Face7x13

// DrawnBox records a bounding box drawn by Render.
type DrawnBox struct {
	Label      string
	Confidence float64 // The instance confidence. Range [0, 100].
	Rect       PixelRect
	Color      string // The palette color name.
}

// RenderStats summarises a call to Render.
type RenderStats struct {
	Boxes int
	Drawn []DrawnBox
}

// NoBoxes reports whether no instance had bounding box data.
func (s RenderStats) NoBoxes() bool {
	return s.Boxes == 0
}

// Renderer draws label instances onto images.
//
// The zero value draws captions with DefaultFace and sizes their background with a fixed
// per-character estimate.
type Renderer struct {
	Face        font.Face // The caption font. DefaultFace is used if nil.
	MeasureText bool      // Size caption backgrounds from the metrics of Face, if set.
}

// NewRenderer returns a Renderer drawing captions with face, sized by its metrics. A nil face
// selects DefaultFace.
func NewRenderer(face font.Face) *Renderer {
	if face == nil {
		face = DefaultFace
	}
	return &Renderer{Face: face, MeasureText: true}
}

// Render draws the outline and caption of every instance with a bounding box onto img, in label
// order. Instances of the same label share a palette color.
//
// Boxes are not clipped; a box outside of [0, 1] is drawn partially or not at all.
func (r *Renderer) Render(img *image.RGBA, labels []Label) RenderStats {
	bounds := img.Bounds()
	imgWidth, imgHeight := bounds.Dx(), bounds.Dy()
	dc := r.newContext(img)

	var stats RenderStats
	colorIdx := 0
	for _, l := range labels {
		if !l.HasBoxes() {
			continue
		}
		c := Palette[colorIdx%len(Palette)]
		colorIdx++

		for _, inst := range l.Instances {
			if inst.BoundingBox == nil {
				continue
			}
			rect := inst.BoundingBox.PixelRect(imgWidth, imgHeight)

			drawOutline(dc, rect, c.Color)
			r.drawCaption(dc, caption(l.Name, inst.Confidence), rect, imgHeight, c.Color)

			stats.Boxes++
			stats.Drawn = append(stats.Drawn, DrawnBox{
				Label:      l.Name,
				Confidence: inst.Confidence,
				Rect:       rect,
				Color:      c.Name,
			})
		}
	}

	return stats
}

// newContext returns a drawing context on img with the caption font of r selected.
func (r *Renderer) newContext(img *image.RGBA) *gg.Context {
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(r.face())
	return dc
}

func (r *Renderer) face() font.Face {
	if r.Face == nil {
		return DefaultFace
	}
	return r.Face
}

// drawOutline strokes the outline of rect, centred on its edges.
func drawOutline(dc *gg.Context, rect PixelRect, c color.Color) {
	dc.SetColor(c)
	dc.SetLineWidth(boxLineWidth)
	dc.DrawRectangle(rect.Left, rect.Top, rect.Width, rect.Height)
	dc.Stroke()
}

// caption formats the text shown next to an instance.
func caption(label string, confidence float64) string {
	return fmt.Sprintf("%s (%.1f%%)", label, confidence)
}

// captionPosition returns the top-left corner of the caption for a box in an image of the given
// height.
//
// The caption goes just inside the top edge of the box. Boxes touching the top of the image get
// it below their bottom edge instead, and boxes reaching the bottom get it above their top edge
// if there is room. The caption may still end up partially outside the image.
func captionPosition(rect PixelRect, imgHeight int) (x, y float64) {
	y = rect.Top + captionInsetY
	if rect.Top < captionTopMargin {
		y = rect.Bottom() + captionInsetY
	} else if rect.Bottom()+captionBottomSpace >= float64(imgHeight) {
		if rect.Top > captionTopMargin {
			y = rect.Top - captionRaise
		}
	}

	return rect.Left + captionInsetX, y
}

// textSize returns the width and height of text as drawn by r on dc.
func (r *Renderer) textSize(dc *gg.Context, text string) (width, height int) {
	if r.MeasureText && r.Face != nil {
		w, h := dc.MeasureString(text)
		return int(math.Ceil(w)), int(math.Ceil(h))
	}
	return runeCount(text) * estimatedCharWidth, estimatedTextHeight
}

// drawCaption draws text on a black background near rect.
func (r *Renderer) drawCaption(dc *gg.Context, text string, rect PixelRect, imgHeight int,
	c color.Color) {

	x, y := captionPosition(rect, imgHeight)
	w, h := r.textSize(dc, text)

	left := math.Round(x)
	top := math.Round(y)
	dc.SetColor(captionBackground)
	dc.DrawRectangle(left-captionPadding, top-captionPadding,
		float64(w+2*captionPadding), float64(h+2*captionPadding))
	dc.Fill()

	// DrawString positions the baseline.
	ascent := float64(r.face().Metrics().Ascent.Ceil())
	dc.SetColor(c)
	dc.DrawString(text, left, top+ascent)
}

// LoadFontFace loads the TrueType or OpenType font at path as a face of the given size in
// points.
func LoadFontFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read font %q: %v", path, err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse font %q: %v", path, err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create a face for font %q: %v", path, err)
	}

	return face, nil
}
