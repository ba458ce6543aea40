package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/lookout/internal/config"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider/rekognition"
)

// ProviderType defines supported detection provider types
type ProviderType string

const (
	// ProviderTypeMock draws deterministic boxes, no external service
	ProviderTypeMock ProviderType = config.ProviderMock
	// ProviderTypeDeepFace is the DeepFace provider (local HTTP service)
	ProviderTypeDeepFace ProviderType = config.ProviderDeepFace
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud)
	ProviderTypeRekognition ProviderType = config.ProviderRekognition
)

// NewDetector creates a Detector instance based on configuration
//
// Environment variables:
//   - PROVIDER_TYPE: "mock", "deepface" or "rekognition" (default: "mock")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY via the AWS SDK credential chain
func NewDetector(ctx context.Context, cfg *config.Config) (provider.Detector, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeMock, "":
		return mock.New(), nil

	case ProviderTypeDeepFace:
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeRekognition:
		return createRekognitionProvider(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, ProviderTypeMock, ProviderTypeDeepFace, ProviderTypeRekognition)
	}
}

// createRekognitionProvider creates an AWS Rekognition provider instance
func createRekognitionProvider(ctx context.Context, cfg *config.Config) (provider.Detector, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) provider.Detector {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}

	return deepface.NewProvider(deepfaceConfig)
}
