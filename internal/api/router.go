package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/lookout/internal/access"
	"github.com/saturnino-fabrica-de-software/lookout/internal/annotator"
	"github.com/saturnino-fabrica-de-software/lookout/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/lookout/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/lookout/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/lookout/internal/capture"
	"github.com/saturnino-fabrica-de-software/lookout/internal/config"
	"github.com/saturnino-fabrica-de-software/lookout/internal/emitter"
	"github.com/saturnino-fabrica-de-software/lookout/internal/web"
	"github.com/saturnino-fabrica-de-software/lookout/internal/ws"
)

type Dependencies struct {
	Access    *access.Controller
	Store     handler.Pinger
	Source    capture.Source
	Supplier  *capture.Supplier
	Annotator *annotator.Annotator
	Hub       *ws.Hub
	MQTT      *emitter.MQTTEmitter // nil when MQTT is disabled
	Config    *config.Config
}

type Router struct {
	app          *fiber.App
	logger       *slog.Logger
	deps         *Dependencies
	loginLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "Lookout",
		DisableStartupMessage: true,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	cfg := r.deps.Config
	views := web.MustViews()

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))

	// Static assets and docs bypass the gate
	r.app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static()}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.Store, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Login (rate limited per client IP)
	r.loginLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.LoginRateLimit,
		Window: cfg.LoginRateWindow,
	})
	loginHandler := handler.NewLoginHandler(r.deps.Access, r.deps.Access.Markers(), views, r.logger, cfg.CookieSecure)
	r.app.Get(middleware.LoginPath, loginHandler.Show)
	r.app.Post(middleware.LoginPath, r.loginLimiter.Handler(), loginHandler.Submit)

	// Everything below requires an authenticated browser
	protected := r.app.Group("/", middleware.Gate(middleware.GateDependencies{
		Access:       r.deps.Access,
		Markers:      r.deps.Access.Markers(),
		Logger:       r.logger,
		CookieSecure: cfg.CookieSecure,
	}))

	settings := r.deps.Annotator.Settings()

	pageHandler := handler.NewPageHandler(views, settings)
	protected.Get("/", pageHandler.Index)
	protected.Get("/about", pageHandler.About)
	for mode, path := range handler.PagePaths {
		protected.Get(path, pageHandler.Detection(mode))
	}

	streamHandler := handler.NewStreamHandler(r.deps.Supplier, r.deps.Annotator, cfg.StreamMaxFPS, r.logger)
	for mode, path := range handler.StreamPaths {
		protected.Get(path, streamHandler.Stream(mode))
	}

	settingsHandler := handler.NewSettingsHandler(settings, r.logger)
	protected.Get("/update_sensitivity", settingsHandler.UpdateSensitivity)
	protected.Get("/toggle_distance", settingsHandler.ToggleDistance)
	protected.Get("/settings", settingsHandler.Get)

	statsDeps := handler.StatsDependencies{
		Source:   r.deps.Source,
		Supplier: r.deps.Supplier,
		MQTT:     r.deps.MQTT,
	}
	if r.deps.Hub != nil {
		statsDeps.Clients = r.deps.Hub
		protected.Get("/ws/detections", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
	protected.Get("/stats", handler.NewStatsHandler(statsDeps).Get)

	// Unknown routes go back to the login page
	r.app.Use(func(c *fiber.Ctx) error {
		return c.Redirect(middleware.LoginPath, fiber.StatusFound)
	})
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown(ctx context.Context) error {
	// Stop rate limiter cleanup goroutine
	if r.loginLimiter != nil {
		r.loginLimiter.Stop()
	}

	return r.app.ShutdownWithContext(ctx)
}
