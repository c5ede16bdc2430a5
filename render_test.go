package lblannotate

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	white        = color.RGBA{255, 255, 255, 255}
	black        = color.RGBA{0, 0, 0, 255}
	approxFloats = cmpopts.EquateApprox(0, 1e-9)
)

func newWhiteImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	return img
}

// loadGoRegular writes the Go Regular font to a file and loads it at the given size.
func loadGoRegular(t *testing.T, size float64) font.Face {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0600); err != nil {
		t.Fatal(err)
	}
	face, err := LoadFontFace(path, size)
	if err != nil {
		t.Fatal(err)
	}
	return face
}

func TestCaptionPosition(t *testing.T) {
	tests := []struct {
		name      string
		rect      PixelRect
		imgHeight int
		wantY     float64
	}{
		{
			name:      "inside the top edge",
			rect:      PixelRect{Left: 50, Top: 100, Width: 100, Height: 100},
			imgHeight: 500,
			wantY:     105,
		},
		{
			name:      "box at the top goes below the box",
			rect:      PixelRect{Left: 50, Top: 10, Width: 100, Height: 100},
			imgHeight: 500,
			wantY:     115,
		},
		{
			name:      "box at the top wins over the bottom",
			rect:      PixelRect{Left: 50, Top: 10, Width: 100, Height: 485},
			imgHeight: 500,
			wantY:     500,
		},
		{
			name:      "box reaching the bottom goes above the box",
			rect:      PixelRect{Left: 50, Top: 100, Width: 100, Height: 380},
			imgHeight: 500,
			wantY:     85,
		},
		{
			name:      "box past the bottom goes above the box",
			rect:      PixelRect{Left: 50, Top: 200, Width: 100, Height: 300},
			imgHeight: 500,
			wantY:     185,
		},
		{
			name:      "no room above keeps the default",
			rect:      PixelRect{Left: 50, Top: 15, Width: 100, Height: 480},
			imgHeight: 500,
			wantY:     20,
		},
		{
			name:      "just enough room below keeps the default",
			rect:      PixelRect{Left: 50, Top: 100, Width: 100, Height: 379},
			imgHeight: 500,
			wantY:     105,
		},
	}

	for _, test := range tests {
		x, y := captionPosition(test.rect, test.imgHeight)
		if want := test.rect.Left + 5; x != want {
			t.Errorf("%s: x = %v, want %v", test.name, x, want)
		}
		if y != test.wantY {
			t.Errorf("%s: y = %v, want %v", test.name, y, test.wantY)
		}
	}
}

func TestCaption(t *testing.T) {
	tests := []struct {
		label      string
		confidence float64
		want       string
	}{
		{"Dog", 98.76, "Dog (98.8%)"},
		{"Person", 75, "Person (75.0%)"},
		{"Car", 100, "Car (100.0%)"},
	}

	for _, test := range tests {
		if got := caption(test.label, test.confidence); got != test.want {
			t.Errorf("caption(%q, %v) = %q, want %q", test.label, test.confidence, got, test.want)
		}
	}
}

func TestTextSize(t *testing.T) {
	const text = "Cat (90.0%)"

	tests := []struct {
		name          string
		renderer      *Renderer
		width, height int
	}{
		{"zero value estimates", &Renderer{}, 66, 10},
		{"metrics disabled estimates", &Renderer{Face: DefaultFace}, 66, 10},
		{"no face estimates", &Renderer{MeasureText: true}, 66, 10},
		{"built-in face metrics", NewRenderer(nil), 77, 13},
	}

	for _, test := range tests {
		dc := test.renderer.newContext(newWhiteImage(1, 1))
		w, h := test.renderer.textSize(dc, text)
		if w != test.width || h != test.height {
			t.Errorf("%s: textSize(%q) = %d, %d, want %d, %d", test.name, text, w, h,
				test.width, test.height)
		}
	}

	// The estimate counts characters, not bytes.
	r := &Renderer{}
	if w, _ := r.textSize(r.newContext(newWhiteImage(1, 1)), "Café"); w != 24 {
		t.Errorf("textSize(%q) width = %d, want 24", "Café", w)
	}
}

func TestRenderColorsPerLabel(t *testing.T) {
	box := func(left, top float64) *BoundingBox {
		return &BoundingBox{Left: left, Top: top, Width: 0.1, Height: 0.1}
	}
	labels := []Label{
		{Name: "Dog", Confidence: 99, Instances: []Instance{
			{BoundingBox: box(0.1, 0.1), Confidence: 99},
			{BoundingBox: box(0.5, 0.5), Confidence: 80},
			{Confidence: 70},
		}},
		{Name: "Animal", Confidence: 99},
		{Name: "Pet", Confidence: 95, Instances: []Instance{{Confidence: 95}}},
		{Name: "Ball", Confidence: 90, Instances: []Instance{
			{BoundingBox: box(0.3, 0.7), Confidence: 90},
		}},
	}

	img := newWhiteImage(200, 100)
	stats := (&Renderer{}).Render(img, labels)

	want := []DrawnBox{
		{Label: "Dog", Confidence: 99, Rect: PixelRect{20, 10, 20, 10}, Color: "red"},
		{Label: "Dog", Confidence: 80, Rect: PixelRect{100, 50, 20, 10}, Color: "red"},
		{Label: "Ball", Confidence: 90, Rect: PixelRect{60, 70, 20, 10}, Color: "blue"},
	}
	if diff := cmp.Diff(want, stats.Drawn, approxFloats); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
	if stats.Boxes != 3 || stats.NoBoxes() {
		t.Errorf("Boxes = %d, NoBoxes() = %v, want 3, false", stats.Boxes, stats.NoBoxes())
	}
}

func TestRenderPaletteWraps(t *testing.T) {
	var labels []Label
	for i := 0; i < len(Palette)+2; i++ {
		labels = append(labels, Label{Name: "L", Instances: []Instance{
			{BoundingBox: &BoundingBox{Left: 0.1, Top: 0.1, Width: 0.1, Height: 0.1}},
		}})
	}

	stats := (&Renderer{}).Render(newWhiteImage(50, 50), labels)
	if got, want := len(stats.Drawn), len(labels); got != want {
		t.Fatalf("drew %d boxes, want %d", got, want)
	}
	for i, b := range stats.Drawn {
		if want := Palette[i%len(Palette)].Name; b.Color != want {
			t.Errorf("box %d: color %q, want %q", i, b.Color, want)
		}
	}
}

func TestRenderDrawsOutlineAndCaption(t *testing.T) {
	img := newWhiteImage(100, 100)
	labels := []Label{{Name: "Cup", Confidence: 88, Instances: []Instance{
		{BoundingBox: &BoundingBox{Left: 0.2, Top: 0.5, Width: 0.6, Height: 0.4}, Confidence: 88},
	}}}

	// The box reaches the bottom of the image, so the caption goes above it at y = 35.
	(&Renderer{}).Render(img, labels)

	// The 3 px stroke is centred on the edges, so it fully covers the pixel on each side of an
	// edge.
	red := Palette[0].Color
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{20, 80, red},   // Left edge.
		{19, 80, red},   // Stroke width.
		{79, 80, red},   // Right edge.
		{80, 80, red},   // Stroke width.
		{50, 90, red},   // Bottom edge.
		{50, 49, red},   // Top edge.
		{23, 33, black}, // Caption background corner.
		{23, 46, black}, // Caption background, bottom left corner.
		{50, 31, white}, // Above the caption background.
		{50, 80, white}, // Inside the box.
		{10, 10, white}, // Outside the box.
	}
	for _, test := range tests {
		if got := img.RGBAAt(test.x, test.y); got != test.want {
			t.Errorf("pixel (%d, %d) = %v, want %v", test.x, test.y, got, test.want)
		}
	}
}

func TestRenderWithoutBoxes(t *testing.T) {
	img := newWhiteImage(20, 20)
	labels := []Label{
		{Name: "Outdoors", Confidence: 97},
		{Name: "Tree", Confidence: 90, Instances: []Instance{{Confidence: 90}}},
	}

	stats := (&Renderer{}).Render(img, labels)
	if !stats.NoBoxes() || len(stats.Drawn) != 0 {
		t.Errorf("Render drew %d boxes, want none", len(stats.Drawn))
	}
	if diff := cmp.Diff(newWhiteImage(20, 20).Pix, img.Pix); diff != "" {
		t.Error("Render changed the image without boxes")
	}
}

func TestRenderOutsideImage(t *testing.T) {
	img := newWhiteImage(50, 50)
	labels := []Label{{Name: "Ghost", Instances: []Instance{
		{BoundingBox: &BoundingBox{Left: 1.5, Top: 1.5, Width: 0.5, Height: 0.5}},
	}}}

	// Must not panic. The box is counted even though nothing of it is visible.
	if stats := (&Renderer{}).Render(img, labels); stats.Boxes != 1 {
		t.Errorf("Boxes = %d, want 1", stats.Boxes)
	}
}

func TestRenderMeasuredCaption(t *testing.T) {
	face := loadGoRegular(t, 20)
	r := NewRenderer(face)
	img := newWhiteImage(300, 200)
	labels := []Label{{Name: "Mug", Confidence: 91, Instances: []Instance{
		{BoundingBox: &BoundingBox{Left: 0.1, Top: 0.2, Width: 0.8, Height: 0.5}, Confidence: 91},
	}}}

	r.Render(img, labels)

	// The caption sits inside the top edge of the box at (35, 45).
	w, h := r.textSize(r.newContext(newWhiteImage(1, 1)), "Mug (91.0%)")
	if estimate := 11 * 6; w <= estimate {
		t.Fatalf("measured width %d, want more than the estimate %d at 20 points", w, estimate)
	}
	if want := face.Metrics().Height.Ceil(); h != want {
		t.Errorf("measured height %d, want the line height %d", h, want)
	}

	x, y := 35, 45
	for _, p := range []image.Point{{x - 2, y - 2}, {x + w + 1, y - 2}, {x - 2, y + h + 1},
		{x + w + 1, y + h + 1}} {
		if got := img.RGBAAt(p.X, p.Y); got != black {
			t.Errorf("background pixel %v = %v, want %v", p, got, black)
		}
	}
	if got := img.RGBAAt(x+w+3, y+h/2); got != white {
		t.Errorf("pixel right of the background = %v, want %v", got, white)
	}

	// The text is drawn over the background.
	text := false
	for py := y; py < y+h && !text; py++ {
		for px := x; px < x+w; px++ {
			if img.RGBAAt(px, py).R > 0 {
				text = true
				break
			}
		}
	}
	if !text {
		t.Error("no caption text found on the background")
	}
}

func TestLoadFontFace(t *testing.T) {
	face := loadGoRegular(t, 24)
	m := face.Metrics()
	if m.Ascent <= 0 || m.Height <= 0 {
		t.Errorf("metrics = %+v, want a positive ascent and height", m)
	}
	if adv, ok := face.GlyphAdvance('W'); !ok || adv <= 0 {
		t.Errorf("GlyphAdvance('W') = %v, %v, want a positive advance", adv, ok)
	}
}

func TestLoadFontFaceInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFontFace(path, 12); err == nil {
		t.Error("LoadFontFace succeeded for a file that is not a font")
	}
}

func TestLoadFontFaceMissingFile(t *testing.T) {
	if _, err := LoadFontFace("testdata/does-not-exist.ttf", 12); err == nil {
		t.Error("LoadFontFace succeeded for a missing file")
	}
}
