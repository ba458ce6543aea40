package provider

import "context"

// Detector define a interface para provedores de detecção usados no stream
type Detector interface {
	// Name identifies the provider in logs and events
	Name() string

	// DetectFaces detecta faces na imagem (JPEG); opts selects eyes and emotion
	DetectFaces(ctx context.Context, image []byte, opts Options) ([]DetectedFace, error)

	// DetectBodies detects people; providers without body support return
	// domain.ErrDetectionUnsupported
	DetectBodies(ctx context.Context, image []byte, opts Options) ([]DetectedBody, error)
}

// Options describes the frame and what to look for in it
type Options struct {
	Width   int  // frame width in pixels
	Height  int  // frame height in pixels
	Eyes    bool // locate eyes inside each face
	Emotion bool // classify the dominant emotion of each face
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox        `json:"bounding_box"`
	Confidence  float64            `json:"confidence"` // 0..1
	Eyes        []BoundingBox      `json:"eyes,omitempty"`
	Emotion     string             `json:"emotion,omitempty"`
	Emotions    map[string]float64 `json:"emotions,omitempty"`
}

// DetectedBody represents a person detected in the image
type DetectedBody struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"` // 0..1
}

// BoundingBox is a rectangle in frame pixel coordinates
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FromRelative converts a box expressed as fractions of the frame.
func FromRelative(left, top, width, height float64, frameW, frameH int) BoundingBox {
	return BoundingBox{
		X:      left * float64(frameW),
		Y:      top * float64(frameH),
		Width:  width * float64(frameW),
		Height: height * float64(frameH),
	}
}

// EyeBox builds a small box centred on an eye landmark, sized from the face.
func EyeBox(cx, cy float64, face BoundingBox) BoundingBox {
	w := face.Width * 0.25
	h := face.Height * 0.15
	return BoundingBox{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

// DominantEmotion returns the highest-scoring label, or "" for an empty map.
func DominantEmotion(scores map[string]float64) string {
	best := ""
	bestScore := -1.0
	for label, score := range scores {
		if score > bestScore || (score == bestScore && label < best) {
			best, bestScore = label, score
		}
	}
	return best
}
