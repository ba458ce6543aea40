package annotator

import (
	"fmt"
	"math"
)

const (
	DefaultFocalLength    = 600.0
	DefaultKnownFaceWidth = 16.0 // cm
)

// EstimateDistance applies the pinhole model: known_width * focal_length /
// pixel_width, rounded to one decimal. ok is false when any input is not
// positive.
func EstimateDistance(pixelWidth, knownWidth, focalLength float64) (cm float64, ok bool) {
	if pixelWidth <= 0 || knownWidth <= 0 || focalLength <= 0 {
		return 0, false
	}
	d := knownWidth * focalLength / pixelWidth
	return math.Round(d*10) / 10, true
}

// DistanceLabel formats a distance the way it is drawn on the frame,
// e.g. "Distance: 60.0cm"
func DistanceLabel(cm float64) string {
	return fmt.Sprintf("Distance: %.1fcm", cm)
}
