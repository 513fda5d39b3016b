package api

import (
	"io/fs"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/bangka/console-gateway/docs"
	"github.com/bangka/console-gateway/internal/api/handler"
	"github.com/bangka/console-gateway/internal/api/middleware"
	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
	"github.com/bangka/console-gateway/internal/core/service"
	"github.com/bangka/console-gateway/internal/infrastructure/backend"
	"github.com/bangka/console-gateway/internal/infrastructure/config"
	redisstore "github.com/bangka/console-gateway/internal/infrastructure/db/redis"
)

// Dependencies are the connected infrastructure the router wires into handlers.
type Dependencies struct {
	Config  *config.Config
	Log     zerolog.Logger
	Mongo   *mongo.Database
	Redis   *redis.Client
	Backend *backend.Client
	Audit   ports.AuditRecorder
	// Shell is the console's index.html; Assets serves its static files and may be nil.
	Shell  []byte
	Assets fs.FS
	// Registerer receives the HTTP metrics. Defaults to the Prometheus default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	cfg := deps.Config
	log := deps.Log

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	inFlightTTL := 3 * cfg.Backend.Timeout
	sessions := redisstore.NewSessionRepository(deps.Redis, cfg.Session.TTL, inFlightTTL)
	notifier := redisstore.NewNotifier(deps.Redis, log)
	store := service.NewSessionStore(sessions, notifier, deps.Backend, deps.Audit, inFlightTTL, log)

	logoutFlow := service.NewLogoutFlow(store)
	loginFlow := service.NewLoginFlow(store)
	passwordFlow := service.NewPasswordChangeFlow(store, deps.Backend, logoutFlow, deps.Audit, log)
	recoveryFlow := service.NewRecoveryFlow(deps.Backend, cfg.FrontendURL, deps.Audit, log)

	authHandler := handler.NewAuthHandler(loginFlow, logoutFlow, store, cfg.Session.CookieSecure, log)
	passwordHandler := handler.NewPasswordHandler(passwordFlow, cfg.Session.CookieSecure)
	recoveryHandler := handler.NewRecoveryHandler(recoveryFlow)
	sessionHandler := handler.NewSessionHandler(store)
	pageHandler := handler.NewPageHandler(deps.Shell, store)

	session := middleware.Session(middleware.SessionOptions{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	})
	pageGate := middleware.Gate(store, middleware.GateOptions{SettleTimeout: cfg.GateSettleTimeout})
	apiGate := middleware.Gate(store, middleware.GateOptions{SettleTimeout: cfg.GateSettleTimeout, API: true})

	// --- Auth API ---
	auth := e.Group("/api/auth", session)
	auth.POST("/login", authHandler.Login)
	auth.POST("/clear-error", authHandler.ClearError)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/session", sessionHandler.Get)
	auth.GET("/session/events", sessionHandler.Events)
	auth.POST("/change-password", passwordHandler.Change, apiGate)
	auth.POST("/change-password/acknowledge", passwordHandler.Acknowledge)
	auth.POST("/password-reset", recoveryHandler.Request)
	auth.POST("/password-reset-confirm/:uid/:token", recoveryHandler.Confirm)

	// --- Console pages ---
	e.GET(domain.RouteEntry, pageHandler.Public, session)
	e.GET(domain.RouteLogin, pageHandler.Public, session)
	e.GET(domain.RouteForgotPassword, pageHandler.Shell)
	e.GET(domain.RouteResetPassword+"/:uid/:token", pageHandler.Shell)
	e.GET(domain.RouteChangePasswordRequired, pageHandler.Shell, session, pageGate)

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleProvincialAgriculturist, domain.RoleMunicipalAgriculturist} {
		prefix, _ := domain.RoleTree(role)
		tree := e.Group(prefix, session, pageGate, middleware.RBAC(role))
		tree.GET("", pageHandler.Shell)
		tree.GET("/*", pageHandler.Shell)
	}

	if deps.Assets != nil {
		e.StaticFS("/assets", deps.Assets)
	}

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis, deps.Backend)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	if !cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
