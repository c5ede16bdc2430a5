package lblannotate

// Google Cloud Vision object localization specific functionality.

import (
	"context"
	"fmt"
	"math"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// imageAnnotatorAPI is the subset of the Vision client used by VisionLabeler.
type imageAnnotatorAPI interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest,
		opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// VisionLabeler detects labels in Cloud Storage images with Google Cloud Vision object
// localization.
type VisionLabeler struct {
	client imageAnnotatorAPI
	conn   *vision.ImageAnnotatorClient
}

// NewVisionLabeler creates a VisionLabeler using the credentials and region of s. Close must be
// called when done.
func NewVisionLabeler(ctx context.Context, s *GCPSession) (*VisionLabeler, error) {
	opts := s.clientOptions()
	if ep := s.visionEndpoint(); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}

	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create the vision client: %w", err)
	}

	return &VisionLabeler{client: c, conn: c}, nil
}

// DetectLabels localizes objects in the Cloud Storage object named by req.
//
// Vision has no server-side confidence floor, so objects scoring below req.MinConfidence are
// dropped here. Objects are grouped by name into labels in the order the service returned them.
func (l *VisionLabeler) DetectLabels(ctx context.Context, req Request) ([]Label, error) {
	batch, err := l.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{
				Source: &visionpb.ImageSource{ImageUri: gcsURI(req.Bucket, req.Key)},
			},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_OBJECT_LOCALIZATION, MaxResults: int32(req.MaxLabels)},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision object localization failed: %w", err)
	}
	if len(batch.GetResponses()) == 0 {
		return nil, fmt.Errorf("vision returned no response for %s", gcsURI(req.Bucket, req.Key))
	}

	res := batch.GetResponses()[0]
	if res.GetError() != nil {
		return nil, fmt.Errorf("vision could not process %s: %w", gcsURI(req.Bucket, req.Key),
			status.ErrorProto(res.GetError()))
	}

	return fromLocalizedObjects(res.GetLocalizedObjectAnnotations(), req.MinConfidence), nil
}

// Close closes the connection of the Vision client.
func (l *VisionLabeler) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}

// fromLocalizedObjects converts Vision objects to labels, one per distinct object name. Scores
// are scaled from [0, 1] to [0, 100].
func fromLocalizedObjects(objects []*visionpb.LocalizedObjectAnnotation,
	minConfidence float64) []Label {

	labels := make([]Label, 0, len(objects))
	labelIdx := make(map[string]int, len(objects))
	for _, o := range objects {
		confidence := float64(o.GetScore()) * 100
		if confidence < minConfidence {
			continue
		}

		name := o.GetName()
		i, found := labelIdx[name]
		if !found {
			i = len(labels)
			labelIdx[name] = i
			labels = append(labels, Label{Name: name})
		}

		l := &labels[i]
		if confidence > l.Confidence {
			l.Confidence = confidence
		}
		l.Instances = append(l.Instances, Instance{
			BoundingBox: fromNormalizedVertices(o.GetBoundingPoly().GetNormalizedVertices()),
			Confidence:  confidence,
		})
	}

	return labels
}

// fromNormalizedVertices returns the axis-aligned envelope of the polygon, nil if it has no
// vertices.
func fromNormalizedVertices(vertices []*visionpb.NormalizedVertex) *BoundingBox {
	if len(vertices) == 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		x, y := float64(v.GetX()), float64(v.GetY())
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}

	return &BoundingBox{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}
