package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
)

// TestProviderImplementsInterface verifies that Provider implements Detector
func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.Detector = (*Provider)(nil)
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, int32(10), cfg.MaxLabels)
	assert.Equal(t, float32(50), cfg.MinLabelConfidence)
}

// Helper function to create pointer values
func ptr[T any](v T) *T {
	return &v
}

// fakeImageData returns bytes large enough to pass validation
func fakeImageData() []byte {
	return make([]byte, 1024)
}

func newTestProvider(api RekognitionAPI) *Provider {
	return &Provider{client: &Client{rekognition: api, config: DefaultConfig()}}
}

var frameOpts = provider.Options{Width: 640, Height: 480}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, true},
		{"too small", 50, true},
		{"minimum", minImageSize, false},
		{"maximum", maxImageSize, false},
		{"too large", maxImageSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateImage(make([]byte, tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImage)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDetectFaces_Success(t *testing.T) {
	var gotAttrs []types.Attribute
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			gotAttrs = params.Attributes
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{
							Left:   ptr(float32(0.25)),
							Top:    ptr(float32(0.5)),
							Width:  ptr(float32(0.5)),
							Height: ptr(float32(0.25)),
						},
						Confidence: ptr(float32(99.5)),
					},
				},
			}, nil
		},
	}

	faces, err := newTestProvider(mock).DetectFaces(context.Background(), fakeImageData(), frameOpts)

	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, []types.Attribute{types.AttributeDefault}, gotAttrs)
	assert.InDelta(t, 160, faces[0].BoundingBox.X, 0.01)
	assert.InDelta(t, 240, faces[0].BoundingBox.Y, 0.01)
	assert.InDelta(t, 320, faces[0].BoundingBox.Width, 0.01)
	assert.InDelta(t, 120, faces[0].BoundingBox.Height, 0.01)
	assert.InDelta(t, 0.995, faces[0].Confidence, 0.0001)
	assert.Empty(t, faces[0].Eyes)
}

func TestDetectFaces_EyesAndEmotion(t *testing.T) {
	var gotAttrs []types.Attribute
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			gotAttrs = params.Attributes
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					{
						BoundingBox: &types.BoundingBox{
							Left: ptr(float32(0.25)), Top: ptr(float32(0.25)),
							Width: ptr(float32(0.5)), Height: ptr(float32(0.5)),
						},
						Confidence: ptr(float32(98)),
						Landmarks: []types.Landmark{
							{Type: types.LandmarkTypeEyeLeft, X: ptr(float32(0.4)), Y: ptr(float32(0.4))},
							{Type: types.LandmarkTypeEyeRight, X: ptr(float32(0.6)), Y: ptr(float32(0.4))},
							{Type: types.LandmarkTypeNose, X: ptr(float32(0.5)), Y: ptr(float32(0.5))},
						},
						Emotions: []types.Emotion{
							{Type: types.EmotionNameHappy, Confidence: ptr(float32(91.2))},
							{Type: types.EmotionNameCalm, Confidence: ptr(float32(5.1))},
						},
					},
				},
			}, nil
		},
	}

	opts := frameOpts
	opts.Eyes = true
	opts.Emotion = true
	faces, err := newTestProvider(mock).DetectFaces(context.Background(), fakeImageData(), opts)

	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, []types.Attribute{types.AttributeAll}, gotAttrs)
	require.Len(t, faces[0].Eyes, 2)
	// left eye centred at (256, 192), face is 320x240 so eye box is 80x36
	assert.InDelta(t, 216, faces[0].Eyes[0].X, 0.01)
	assert.InDelta(t, 174, faces[0].Eyes[0].Y, 0.01)
	assert.Equal(t, "happy", faces[0].Emotion)
	assert.Len(t, faces[0].Emotions, 2)
}

func TestDetectFaces_NoFaces(t *testing.T) {
	faces, err := newTestProvider(&mockRekognitionAPI{}).DetectFaces(context.Background(), fakeImageData(), frameOpts)

	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestDetectFaces_InvalidImage(t *testing.T) {
	called := false
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			called = true
			return nil, nil
		},
	}

	_, err := newTestProvider(mock).DetectFaces(context.Background(), []byte("tiny"), frameOpts)

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.False(t, called)
}

func TestDetectFaces_APIError(t *testing.T) {
	tests := []struct {
		name    string
		apiErr  error
		wantErr error
	}{
		{"access denied", &smithy.GenericAPIError{Code: errCodeAccessDenied}, ErrInvalidCredentials},
		{"throttled", &smithy.GenericAPIError{Code: errCodeThrottling}, ErrThrottled},
		{"bad format", &smithy.GenericAPIError{Code: errCodeInvalidImageFormat}, ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return nil, tt.apiErr
				},
			}

			_, err := newTestProvider(mock).DetectFaces(context.Background(), fakeImageData(), frameOpts)

			assert.ErrorIs(t, err, domain.ErrDetectionUnavailable)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDetectBodies_PersonInstances(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectLabelsFunc: func(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
			assert.Equal(t, int32(10), *params.MaxLabels)
			return &rekognition.DetectLabelsOutput{
				Labels: []types.Label{
					{Name: ptr("Chair"), Instances: []types.Instance{{BoundingBox: &types.BoundingBox{}}}},
					{
						Name: ptr(personLabel),
						Instances: []types.Instance{
							{
								BoundingBox: &types.BoundingBox{
									Left: ptr(float32(0.1)), Top: ptr(float32(0.0)),
									Width: ptr(float32(0.3)), Height: ptr(float32(1.0)),
								},
								Confidence: ptr(float32(87)),
							},
							{BoundingBox: nil},
						},
					},
				},
			}, nil
		},
	}

	bodies, err := newTestProvider(mock).DetectBodies(context.Background(), fakeImageData(), frameOpts)

	require.NoError(t, err)
	require.Len(t, bodies, 1)
	assert.InDelta(t, 64, bodies[0].BoundingBox.X, 0.01)
	assert.InDelta(t, 480, bodies[0].BoundingBox.Height, 0.01)
	assert.InDelta(t, 0.87, bodies[0].Confidence, 0.0001)
}

func TestDetectBodies_Error(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectLabelsFunc: func(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
			return nil, errors.New("network down")
		},
	}

	_, err := newTestProvider(mock).DetectBodies(context.Background(), fakeImageData(), frameOpts)

	assert.ErrorIs(t, err, domain.ErrDetectionUnavailable)
}
