package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// LoginResponse is returned to JSON clients after a code is accepted
type LoginResponse struct {
	Status   string `json:"status" example:"success"`
	Redirect string `json:"redirect" example:"/"`
}

// StatusResponse acknowledges a settings change
type StatusResponse struct {
	Status string `json:"status" example:"success"`
}

// SettingsResponse is the current annotation settings
type SettingsResponse struct {
	Sensitivity  float64 `json:"sensitivity" example:"0.5"`
	ShowDistance bool    `json:"show_distance" example:"true"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// CaptureStats mirrors capture.SourceStats
type CaptureStats struct {
	Source         string `json:"source" example:"synthetic"`
	FramesCaptured uint64 `json:"frames_captured" example:"1200"`
	FramesDropped  uint64 `json:"frames_dropped" example:"3"`
	StartedAt      string `json:"started_at" example:"2024-01-01T00:00:00Z"`
	Running        bool   `json:"running" example:"true"`
}

// ViewerStats mirrors capture.SupplierStats
type ViewerStats struct {
	Viewers    int    `json:"viewers" example:"2"`
	TotalDrops uint64 `json:"total_drops" example:"14"`
}

// StatsResponse is the runtime counters snapshot
type StatsResponse struct {
	Capture   CaptureStats `json:"capture"`
	Viewers   ViewerStats  `json:"viewers"`
	WSClients int          `json:"ws_clients" example:"1"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code      string `json:"code" example:"VALIDATION_FAILED"`
	Message   string `json:"message" example:"Request validation failed"`
	RequestID string `json:"request_id,omitempty" example:"0f8c2f9e-6a43-4b1e-9d55-3d1f2a7c9b10"`
}

var errInternal = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "System error occurred!"}, "500", "Internal Server Error")

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Lookout",
		Version:     "v0.1.0",
		Description: "Live webcam detection demo gated by reference codes. Pages and MJPEG streams are not listed; they redirect to /login until a code is accepted.",
		Host:        "localhost:5000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /login - Redeem a reference code
		endpoint.New(
			endpoint.POST,
			"/login",
			endpoint.WithTags("Access"),
			endpoint.WithSummary("Redeem a reference code"),
			endpoint.WithDescription("Consumes one use of the code and remembers this browser. HTML clients are redirected to / (303); clients sending Accept: application/json get a JSON body. The marker cookie is set on success."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("application/x-www-form-urlencoded"), mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(LoginResponse{}, "200", "Code accepted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_REFERENCE_CODE", Message: "Invalid reference code!"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "USAGE_LIMIT_REACHED", Message: "This code has reached its maximum usage limit!"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: "System error occurred!"}, "503", "Service Unavailable"),
				errInternal,
			}),
		),

		// GET /update_sensitivity - Minimum confidence to draw
		endpoint.New(
			endpoint.GET,
			"/update_sensitivity",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Set detection sensitivity"),
			endpoint.WithDescription("Detections with a confidence below value are not drawn. Applies to every stream."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("value", parameter.Query, parameter.WithRequired(), parameter.WithDescription("Minimum confidence in [0,1]")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponse{}, "200", "Sensitivity updated"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /toggle_distance - Distance label on/off
		endpoint.New(
			endpoint.GET,
			"/toggle_distance",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Show or hide the distance label"),
			endpoint.WithDescription("Controls the distance estimate drawn above faces on /video_feed"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("show", parameter.Query, parameter.WithDescription("true or false, defaults to true")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponse{}, "200", "Setting updated"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /settings - Current settings
		endpoint.New(
			endpoint.GET,
			"/settings",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Current annotation settings"),
			endpoint.WithDescription("Returns the sensitivity and distance label state"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SettingsResponse{}, "200", "Current settings"),
			}),
			endpoint.WithErrors([]response.Response{errInternal}),
		),

		// GET /stats - Runtime counters
		endpoint.New(
			endpoint.GET,
			"/stats",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Capture and viewer counters"),
			endpoint.WithDescription("Frames captured and dropped, connected stream viewers, websocket clients and MQTT publishing counters"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatsResponse{}, "200", "Counters snapshot"),
			}),
			endpoint.WithErrors([]response.Response{errInternal}),
		),

		// GET /health - Liveness
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithDescription("Always ok while the process serves requests. No access code required."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Alive"),
			}),
			endpoint.WithErrors([]response.Response{}),
		),

		// GET /ready - Readiness
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Operations"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Checks that the reference code and browser session tables can be loaded. No access code required."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Record store unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
