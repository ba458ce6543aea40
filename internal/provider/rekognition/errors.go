package rekognition

import "errors"

var (
	// ErrInvalidImage indicates the image is empty or outside Rekognition size limits
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrThrottled indicates Rekognition rejected the call for rate reasons
	ErrThrottled = errors.New("rekognition request throttled")
)
