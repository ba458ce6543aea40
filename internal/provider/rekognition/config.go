package rekognition

// Config holds configuration for AWS Rekognition provider
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MaxLabels caps DetectLabels results when looking for people
	MaxLabels int32

	// MinLabelConfidence is the Rekognition-side cutoff (0..100) for labels
	MinLabelConfidence float32
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:             "us-east-1",
		MaxLabels:          10,
		MinLabelConfidence: 50,
	}
}
