package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/capture"
	"github.com/saturnino-fabrica-de-software/lookout/internal/emitter"
)

// StatsDependencies lists the runtime counters exposed on /stats. Nil
// members are left out of the response.
type StatsDependencies struct {
	Source   capture.Source
	Supplier *capture.Supplier
	Clients  interface{ GetConnectedClients() int }
	MQTT     *emitter.MQTTEmitter
}

type StatsResponse struct {
	Capture   *capture.SourceStats   `json:"capture,omitempty"`
	Viewers   *capture.SupplierStats `json:"viewers,omitempty"`
	WSClients int                    `json:"ws_clients"`
	MQTT      *emitter.Stats         `json:"mqtt,omitempty"`
}

type StatsHandler struct {
	deps StatsDependencies
}

func NewStatsHandler(deps StatsDependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// Get handles GET /stats
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	var resp StatsResponse

	if h.deps.Source != nil {
		s := h.deps.Source.Stats()
		resp.Capture = &s
	}
	if h.deps.Supplier != nil {
		s := h.deps.Supplier.Stats()
		resp.Viewers = &s
	}
	if h.deps.Clients != nil {
		resp.WSClients = h.deps.Clients.GetConnectedClients()
	}
	if h.deps.MQTT != nil {
		s := h.deps.MQTT.Stats()
		resp.MQTT = &s
	}

	return c.JSON(resp)
}
