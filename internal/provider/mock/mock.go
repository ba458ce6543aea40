package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
)

var emotions = []string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"}

// Provider implementa provider.Detector para testes e desenvolvimento.
// Results are derived from the image hash, so the same frame always yields
// the same boxes.
type Provider struct {
	// Faces per frame; defaults to 1
	Faces int
}

var _ provider.Detector = (*Provider)(nil)

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{Faces: 1}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectFaces simula detecção de faces
func (p *Provider) DetectFaces(ctx context.Context, image []byte, opts provider.Options) ([]provider.DetectedFace, error) {
	if err := validate(image, opts); err != nil {
		return nil, err
	}

	hash := sha256.Sum256(image)
	count := p.Faces
	if count <= 0 {
		count = 1
	}

	faces := make([]provider.DetectedFace, 0, count)
	slot := float64(opts.Width) / float64(count)
	for i := 0; i < count; i++ {
		// Face width between 20% and 35% of its slot, jittered by the hash.
		w := slot * (0.20 + 0.15*float64(hash[i%len(hash)])/255.0)
		h := w * 1.2
		x := slot*float64(i) + (slot-w)/2
		y := math.Max(0, (float64(opts.Height)-h)/2)
		box := provider.BoundingBox{X: x, Y: y, Width: w, Height: h}

		face := provider.DetectedFace{
			BoundingBox: box,
			Confidence:  0.80 + 0.19*float64(hash[(i+1)%len(hash)])/255.0,
		}

		if opts.Eyes {
			eyeY := box.Y + box.Height*0.38
			face.Eyes = []provider.BoundingBox{
				provider.EyeBox(box.X+box.Width*0.3, eyeY, box),
				provider.EyeBox(box.X+box.Width*0.7, eyeY, box),
			}
		}

		if opts.Emotion {
			face.Emotions = make(map[string]float64, len(emotions))
			for j, label := range emotions {
				face.Emotions[label] = float64(hash[(i+j+2)%len(hash)]) / 255.0 * 100
			}
			face.Emotion = provider.DominantEmotion(face.Emotions)
		}

		faces = append(faces, face)
	}

	return faces, nil
}

// DetectBodies returns one person box spanning the middle of the frame
func (p *Provider) DetectBodies(ctx context.Context, image []byte, opts provider.Options) ([]provider.DetectedBody, error) {
	if err := validate(image, opts); err != nil {
		return nil, err
	}

	return []provider.DetectedBody{
		{
			BoundingBox: provider.FromRelative(0.3, 0.1, 0.4, 0.85, opts.Width, opts.Height),
			Confidence:  0.9,
		},
	}, nil
}

func validate(image []byte, opts provider.Options) error {
	if len(image) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return domain.ErrBadRequest
	}
	return nil
}
