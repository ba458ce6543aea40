package domain

import "time"

// DetectionMode selects what a stream looks for and draws
type DetectionMode string

const (
	ModeFace    DetectionMode = "face"
	ModeEye     DetectionMode = "eye"
	ModeEmotion DetectionMode = "emotion"
	ModeBody    DetectionMode = "body"
)

func (m DetectionMode) Valid() bool {
	switch m {
	case ModeFace, ModeEye, ModeEmotion, ModeBody:
		return true
	}
	return false
}

// DetectedBox is one drawn region in frame pixels
type DetectedBox struct {
	Kind       string  `json:"kind"` // face, eye, body
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence,omitempty"`
	Label      string  `json:"label,omitempty"`
}

// DetectionEvent summarises one annotated frame
type DetectionEvent struct {
	Mode      DetectionMode `json:"mode"`
	Seq       uint64        `json:"seq"`
	TraceID   string        `json:"trace_id"`
	Timestamp time.Time     `json:"timestamp"`
	Provider  string        `json:"provider"`
	Faces     int           `json:"faces"`
	Eyes      int           `json:"eyes"`
	Bodies    int           `json:"bodies"`
	Boxes     []DetectedBox `json:"boxes"`
}
