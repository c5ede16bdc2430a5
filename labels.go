package lblannotate

// The label representation shared by all labeling providers.

// BoundingBox defines an axis-aligned rectangle with the dimensions given as normalised ratios
// of the image size.
type BoundingBox struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// PixelRect is a rectangle in absolute pixel offsets from the top-left corner of an image.
type PixelRect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Right is the x offset of the right edge.
func (r PixelRect) Right() float64 {
	return r.Left + r.Width
}

// Bottom is the y offset of the bottom edge.
func (r PixelRect) Bottom() float64 {
	return r.Top + r.Height
}

// PixelRect scales the normalised box to an image of the given width and height.
//
// The result is not clamped to the image bounds. A box outside of [0, 1] yields a rectangle
// outside of the image.
func (b BoundingBox) PixelRect(width, height int) PixelRect {
	w := float64(width)
	h := float64(height)
	return PixelRect{
		Left:   b.Left * w,
		Top:    b.Top * h,
		Width:  b.Width * w,
		Height: b.Height * h,
	}
}

// Instance is a located occurrence of a label.
type Instance struct {
	BoundingBox *BoundingBox // Nil if the service did not locate the instance.
	Confidence  float64      // Range [0, 100].
}

// Label is a single detected category, as returned by the labeling service.
type Label struct {
	Confidence float64 // Range [0, 100].
	Instances  []Instance
	Name       string
	Parents    []string // Ancestors in the label taxonomy.
}

// HasBoxes reports whether at least one instance of l carries a bounding box.
func (l Label) HasBoxes() bool {
	for _, i := range l.Instances {
		if i.BoundingBox != nil {
			return true
		}
	}
	return false
}
