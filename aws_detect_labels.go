package lblannotate

// AWS Rekognition detect-labels specific functionality.

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// rekognitionDetectLabelsAPI is the subset of the Rekognition client used by
// RekognitionLabeler.
type rekognitionDetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput,
		optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionLabeler detects labels in S3 images with Amazon Rekognition.
type RekognitionLabeler struct {
	client rekognitionDetectLabelsAPI
}

// NewRekognitionLabeler creates a RekognitionLabeler using the configuration of s.
func NewRekognitionLabeler(s *AWSSession) *RekognitionLabeler {
	return &RekognitionLabeler{client: rekognition.NewFromConfig(s.Config)}
}

// DetectLabels calls Rekognition on the S3 object named by req. Thresholding and the label
// limit are applied by the service; the labels are returned in service order.
func (l *RekognitionLabeler) DetectLabels(ctx context.Context, req Request) ([]Label, error) {
	out, err := l.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(req.Bucket),
				Name:   aws.String(req.Key),
			},
		},
		MaxLabels:     aws.Int32(int32(req.MaxLabels)),
		MinConfidence: aws.Float32(float32(req.MinConfidence)),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect-labels failed: %w", err)
	}

	return fromRekognitionLabels(out.Labels), nil
}

// fromRekognitionLabels converts the SDK labels to the shared representation.
func fromRekognitionLabels(awsLabels []types.Label) []Label {
	labels := make([]Label, 0, len(awsLabels))
	for _, a := range awsLabels {
		// Convert the parents attribute to a []string.
		var parents []string
		if len(a.Parents) > 0 {
			parents = make([]string, len(a.Parents))
			for i, p := range a.Parents {
				parents[i] = aws.ToString(p.Name)
			}
		}

		label := Label{
			Confidence: float64(aws.ToFloat32(a.Confidence)),
			Name:       aws.ToString(a.Name),
			Parents:    parents,
		}
		if len(a.Instances) > 0 {
			label.Instances = make([]Instance, len(a.Instances))
			for i, inst := range a.Instances {
				label.Instances[i] = Instance{
					BoundingBox: fromRekognitionBox(inst.BoundingBox),
					Confidence:  float64(aws.ToFloat32(inst.Confidence)),
				}
			}
		}

		labels = append(labels, label)
	}

	return labels
}

func fromRekognitionBox(b *types.BoundingBox) *BoundingBox {
	if b == nil {
		return nil
	}
	return &BoundingBox{
		Left:   float64(aws.ToFloat32(b.Left)),
		Top:    float64(aws.ToFloat32(b.Top)),
		Width:  float64(aws.ToFloat32(b.Width)),
		Height: float64(aws.ToFloat32(b.Height)),
	}
}
