package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fleetyard/backoffice-api/internal/config"
	"github.com/fleetyard/backoffice-api/internal/handler"
	activityHandler "github.com/fleetyard/backoffice-api/internal/handler/activity"
	auditHandler "github.com/fleetyard/backoffice-api/internal/handler/audit"
	authHandler "github.com/fleetyard/backoffice-api/internal/handler/auth"
	documentHandler "github.com/fleetyard/backoffice-api/internal/handler/document"
	driverHandler "github.com/fleetyard/backoffice-api/internal/handler/driver"
	healthHandler "github.com/fleetyard/backoffice-api/internal/handler/health"
	leadHandler "github.com/fleetyard/backoffice-api/internal/handler/lead"
	notificationHandler "github.com/fleetyard/backoffice-api/internal/handler/notification"
	opportunityHandler "github.com/fleetyard/backoffice-api/internal/handler/opportunity"
	tenantHandler "github.com/fleetyard/backoffice-api/internal/handler/tenant"
	vehicleHandler "github.com/fleetyard/backoffice-api/internal/handler/vehicle"
	webhookHandler "github.com/fleetyard/backoffice-api/internal/handler/webhook"
	"github.com/fleetyard/backoffice-api/internal/middleware"
	authService "github.com/fleetyard/backoffice-api/internal/service/auth"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Auth         *authHandler.Handler
	Lead         *leadHandler.Handler
	Opportunity  *opportunityHandler.Handler
	Activity     *activityHandler.Handler
	Tenant       *tenantHandler.Handler
	Driver       *driverHandler.Handler
	Vehicle      *vehicleHandler.Handler
	Document     *documentHandler.Handler
	Notification *notificationHandler.Handler
	Webhook      *webhookHandler.Handler
	Audit        *auditHandler.Handler
}

// New builds the gin engine with the full middleware stack and all routes.
func New(cfg *config.Config, db *sqlx.DB, authSvc authService.Servicer, h Handlers, logger *zerolog.Logger) *gin.Engine {
	handler.RegisterValidators()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.WithRequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.CORS())
	engine.Use(middleware.RateLimit(cfg.RateLimit))
	engine.Use(httpMetrics())

	healthHandler.NewHandler(db).RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")

	public := api.Group("/public", middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	h.Lead.RegisterPublicRoutes(public)

	webhooks := api.Group("", middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	h.Webhook.RegisterRoutes(webhooks)

	h.Auth.RegisterRoutes(api)

	protected := api.Group("",
		middleware.GatewayAuth(cfg.Server.TrustGatewayHeaders),
		middleware.Auth(authSvc),
	)
	h.Lead.RegisterRoutes(protected)
	h.Opportunity.RegisterRoutes(protected)
	h.Activity.RegisterRoutes(protected)
	h.Tenant.RegisterRoutes(protected)
	h.Driver.RegisterRoutes(protected)
	h.Vehicle.RegisterRoutes(protected)
	h.Document.RegisterRoutes(protected)
	h.Notification.RegisterRoutes(protected)
	h.Audit.RegisterRoutes(protected)

	return engine
}

func httpMetrics() gin.HandlerFunc {
	requests := promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	latency := promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
