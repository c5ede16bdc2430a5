package lblannotate

// The analysis procedure: detect labels, fetch the image and draw the labels onto it.

import (
	"context"
	"image"
	"log"
)

// Labeler detects labels in an image held by an object store.
type Labeler interface {
	DetectLabels(ctx context.Context, req Request) ([]Label, error)
}

// ObjectStore returns the content of stored objects.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Outcome tags the result of Analyze.
type Outcome int

// The possible outcomes.
const (
	Failed    Outcome = iota // See Result.Failure.
	NoLabels                 // The service returned no labels. Nothing was fetched or drawn.
	Annotated                // The image was fetched and drawn on.
)

// Result is the result of Analyze.
type Result struct {
	Outcome Outcome
	Labels  []Label      // The labels as returned by the service, if the call succeeded.
	Image   *image.RGBA  // The annotated image. Nil unless Outcome is Annotated.
	Stats   RenderStats
	Failure *Failure // Set if and only if Outcome is Failed.
}

// Annotator runs the analysis of a single image.
type Annotator struct {
	Labeler  Labeler
	Store    ObjectStore
	Renderer *Renderer // A zero Renderer is used if nil.
}

// Analyze detects labels in the image named by req, then fetches the image and draws the
// labelled instances onto it.
//
// Each step runs only if the previous one succeeded. The image is not fetched when the service
// returns no labels.
func (a *Annotator) Analyze(ctx context.Context, req Request) Result {
	log.Printf("Requesting label detection for %s", req.Key)
	labels, err := a.Labeler.DetectLabels(ctx, req)
	if err != nil {
		return failed(err)
	}
	if len(labels) == 0 {
		return Result{Outcome: NoLabels}
	}

	log.Print("Retrieving the image for drawing bounding boxes")
	data, err := a.Store.GetObject(ctx, req.Bucket, req.Key)
	if err != nil {
		return failedWithLabels(err, labels)
	}
	img, err := decodeImage(data)
	if err != nil {
		return failedWithLabels(err, labels)
	}

	r := a.Renderer
	if r == nil {
		r = &Renderer{}
	}
	log.Print("Drawing bounding boxes for detected instances")
	stats := r.Render(img, labels)

	return Result{
		Outcome: Annotated,
		Labels:  labels,
		Image:   img,
		Stats:   stats,
	}
}

func failed(err error) Result {
	return Result{Outcome: Failed, Failure: ClassifyError(err)}
}

func failedWithLabels(err error, labels []Label) Result {
	res := failed(err)
	res.Labels = labels
	return res
}
