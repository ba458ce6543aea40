package rekognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100

	personLabel = "Person"
)

// Provider implements provider.Detector using AWS Rekognition
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.Detector interface at compile time
var _ provider.Detector = (*Provider)(nil)

// NewProvider creates a new Rekognition provider
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return "rekognition"
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, image []byte, opts provider.Options) ([]provider.DetectedFace, error) {
	if err := validateImage(image); err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}

	// Landmarks come back with DEFAULT; emotions need ALL.
	attr := types.AttributeDefault
	if opts.Emotion {
		attr = types.AttributeAll
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{attr},
	})
	if err != nil {
		return nil, domain.ErrDetectionUnavailable.WithError(fmt.Errorf("detect faces: %w", classifyError(err)))
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		box := toBox(detail.BoundingBox, opts)
		face := provider.DetectedFace{
			BoundingBox: box,
			Confidence:  float64(aws.ToFloat32(detail.Confidence)) / 100,
		}

		if opts.Eyes {
			face.Eyes = eyeBoxes(detail.Landmarks, box, opts)
		}

		if opts.Emotion && len(detail.Emotions) > 0 {
			face.Emotions = make(map[string]float64, len(detail.Emotions))
			for _, e := range detail.Emotions {
				face.Emotions[strings.ToLower(string(e.Type))] = float64(aws.ToFloat32(e.Confidence))
			}
			face.Emotion = provider.DominantEmotion(face.Emotions)
		}

		faces = append(faces, face)
	}

	return faces, nil
}

// DetectBodies uses DetectLabels and keeps the instances of the Person label
func (p *Provider) DetectBodies(ctx context.Context, image []byte, opts provider.Options) ([]provider.DetectedBody, error) {
	if err := validateImage(image); err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}

	output, err := p.client.rekognition.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(p.client.config.MaxLabels),
		MinConfidence: aws.Float32(p.client.config.MinLabelConfidence),
	})
	if err != nil {
		return nil, domain.ErrDetectionUnavailable.WithError(fmt.Errorf("detect labels: %w", classifyError(err)))
	}

	var bodies []provider.DetectedBody
	for _, label := range output.Labels {
		if aws.ToString(label.Name) != personLabel {
			continue
		}
		for _, inst := range label.Instances {
			if inst.BoundingBox == nil {
				continue
			}
			bodies = append(bodies, provider.DetectedBody{
				BoundingBox: toBox(inst.BoundingBox, opts),
				Confidence:  float64(aws.ToFloat32(inst.Confidence)) / 100,
			})
		}
	}

	return bodies, nil
}

// toBox converts a Rekognition ratio box into frame pixels
func toBox(b *types.BoundingBox, opts provider.Options) provider.BoundingBox {
	return provider.FromRelative(
		float64(aws.ToFloat32(b.Left)),
		float64(aws.ToFloat32(b.Top)),
		float64(aws.ToFloat32(b.Width)),
		float64(aws.ToFloat32(b.Height)),
		opts.Width, opts.Height,
	)
}

func eyeBoxes(landmarks []types.Landmark, face provider.BoundingBox, opts provider.Options) []provider.BoundingBox {
	var eyes []provider.BoundingBox
	for _, lm := range landmarks {
		if lm.Type != types.LandmarkTypeEyeLeft && lm.Type != types.LandmarkTypeEyeRight {
			continue
		}
		cx := float64(aws.ToFloat32(lm.X)) * float64(opts.Width)
		cy := float64(aws.ToFloat32(lm.Y)) * float64(opts.Height)
		eyes = append(eyes, provider.EyeBox(cx, cy, face))
	}
	return eyes
}
