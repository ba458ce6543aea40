package ws

import (
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type EventType string

const (
	EventDetection EventType = "detection"
)

type Event struct {
	Type      EventType            `json:"type"`
	Mode      domain.DetectionMode `json:"mode"`
	Data      interface{}          `json:"data"`
	Timestamp time.Time            `json:"timestamp"`
}
