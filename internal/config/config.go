package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"

	ProviderMock        = "mock"
	ProviderDeepFace    = "deepface"
	ProviderRekognition = "rekognition"

	CaptureSynthetic = "synthetic"
	CaptureV4L2      = "v4l2"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Record store
	StoreDriver  string `envconfig:"STORE_DRIVER" default:"file"`
	DataDir      string `envconfig:"DATA_DIR" default:"config"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"lookout"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Access
	MarkerSecret         string        `envconfig:"MARKER_SECRET"`
	MarkerTTL            time.Duration `envconfig:"MARKER_TTL" default:"24h"`
	CookieSecure         bool          `envconfig:"COOKIE_SECURE" default:"false"`
	SessionMaxAge        time.Duration `envconfig:"SESSION_MAX_AGE" default:"0"`
	SessionPruneInterval time.Duration `envconfig:"SESSION_PRUNE_INTERVAL" default:"1h"`
	LoginRateLimit       int           `envconfig:"LOGIN_RATE_LIMIT" default:"20"`
	LoginRateWindow      time.Duration `envconfig:"LOGIN_RATE_WINDOW" default:"1m"`

	// Provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"mock"`
	DeepFaceURL  string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Capture
	CaptureSource string `envconfig:"CAPTURE_SOURCE" default:"synthetic"`
	CaptureDevice string `envconfig:"CAPTURE_DEVICE" default:"/dev/video0"`
	CaptureWidth  int    `envconfig:"CAPTURE_WIDTH" default:"640"`
	CaptureHeight int    `envconfig:"CAPTURE_HEIGHT" default:"480"`
	CaptureFPS    int    `envconfig:"CAPTURE_FPS" default:"15"`

	// Stream
	StreamMaxFPS   float64 `envconfig:"STREAM_MAX_FPS" default:"10"`
	JPEGQuality    int     `envconfig:"JPEG_QUALITY" default:"80"`
	FocalLength    float64 `envconfig:"FOCAL_LENGTH" default:"600"`
	KnownFaceWidth float64 `envconfig:"KNOWN_FACE_WIDTH" default:"16.0"`

	// Events
	MQTTBroker   string `envconfig:"MQTT_BROKER"`
	MQTTTopic    string `envconfig:"MQTT_TOPIC" default:"lookout/detections"`
	MQTTClientID string `envconfig:"MQTT_CLIENT_ID" default:"lookout"`
}

// LoadDotEnv loads .env.local then .env when present. Variables already set
// in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFile:
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required for the file store")
		}
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.ProviderType {
	case ProviderMock, ProviderDeepFace, ProviderRekognition:
	default:
		return fmt.Errorf("unknown PROVIDER_TYPE %q", c.ProviderType)
	}

	switch c.CaptureSource {
	case CaptureSynthetic, CaptureV4L2:
	default:
		return fmt.Errorf("unknown CAPTURE_SOURCE %q", c.CaptureSource)
	}

	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 || c.CaptureFPS <= 0 {
		return errors.New("capture width, height and fps must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("JPEG_QUALITY must be between 1 and 100")
	}
	if c.StreamMaxFPS <= 0 {
		return errors.New("STREAM_MAX_FPS must be positive")
	}
	if c.MarkerTTL <= 0 {
		return errors.New("MARKER_TTL must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}
	if c.SessionMaxAge < 0 {
		return errors.New("SESSION_MAX_AGE must not be negative")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RetentionEnabled reports whether old browser sessions are pruned.
func (c *Config) RetentionEnabled() bool {
	return c.SessionMaxAge > 0
}

// MQTTEnabled reports whether detection events are published over MQTT.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}
