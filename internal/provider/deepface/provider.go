package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.Detector using DeepFace API
type Provider struct {
	client *Client
}

// Ensure Provider implements provider.Detector
var _ provider.Detector = (*Provider)(nil)

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface"
}

// DetectFaces detects faces in the image. Emotion mode goes through /analyze,
// everything else through /represent.
func (p *Provider) DetectFaces(ctx context.Context, image []byte, opts provider.Options) ([]provider.DetectedFace, error) {
	if len(image) == 0 {
		return nil, domain.ErrBadRequest
	}
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	if opts.Emotion {
		return p.analyzeEmotions(ctx, imageBase64, opts)
	}

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, domain.ErrDetectionUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.FacialArea.W <= 0 || result.FacialArea.H <= 0 {
			continue
		}
		faces = append(faces, toFace(result.FacialArea, result.FaceConfidence, opts))
	}

	return faces, nil
}

func (p *Provider) analyzeEmotions(ctx context.Context, imageBase64 string, opts provider.Options) ([]provider.DetectedFace, error) {
	resp, err := p.client.Analyze(ctx, imageBase64, "emotion")
	if err != nil {
		return nil, domain.ErrDetectionUnavailable.WithError(fmt.Errorf("analyze emotion: %w", err))
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.Region.W <= 0 || result.Region.H <= 0 {
			continue
		}
		face := toFace(result.Region, result.FaceConfidence, opts)
		face.Emotions = result.Emotion
		face.Emotion = result.DominantEmotion
		if face.Emotion == "" {
			face.Emotion = provider.DominantEmotion(result.Emotion)
		}
		faces = append(faces, face)
	}

	return faces, nil
}

// DetectBodies is not offered by the DeepFace API
func (p *Provider) DetectBodies(ctx context.Context, image []byte, opts provider.Options) ([]provider.DetectedBody, error) {
	return nil, domain.ErrDetectionUnsupported
}

func toFace(area FacialArea, faceConfidence *float64, opts provider.Options) provider.DetectedFace {
	box := provider.BoundingBox{
		X:      float64(area.X),
		Y:      float64(area.Y),
		Width:  float64(area.W),
		Height: float64(area.H),
	}

	confidence := calculateConfidence(float64(area.W * area.H))
	if faceConfidence != nil && *faceConfidence > 0 {
		confidence = math.Min(1, *faceConfidence)
	}

	face := provider.DetectedFace{BoundingBox: box, Confidence: confidence}
	if opts.Eyes {
		for _, pt := range [][]float64{area.LeftEye, area.RightEye} {
			if len(pt) == 2 {
				face.Eyes = append(face.Eyes, provider.EyeBox(pt[0], pt[1], box))
			}
		}
	}
	return face
}

// calculateConfidence estimates confidence based on face area, used when the
// detector backend does not report face_confidence
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}
