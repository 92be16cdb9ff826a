package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-coach/internal/documents"
	"resume-coach/internal/runs"
	"resume-coach/internal/services/health"
	"resume-coach/internal/shared/config"
	"resume-coach/internal/shared/metrics"
	"resume-coach/internal/shared/server/middleware"
	"resume-coach/internal/shared/server/respond"
	"resume-coach/internal/web"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	RunHandler      *runs.Handler
	DocumentHandler *documents.Handler
	WebHandler      *web.Handler
	Limiter         *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	// Forwarded headers are honoured only from listed proxies; ClientIP keys the submit limiter.
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		log.Printf("router: invalid TRUSTED_PROXIES %v: %v; trusting none", deps.Config.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil, false, false)
	}
	healthHandler := func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
	r.GET("/healthz", healthHandler)
	r.GET("/metrics", metrics.Handler())

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil)
	}
	submitRule := middleware.PerMinute(deps.Config.SubmitRatePerMin, deps.Config.SubmitRateBurst)
	submitLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Group:   "submit",
		Rule:    submitRule,
		Limiter: limiter,
	})

	if deps.WebHandler != nil {
		deps.WebHandler.RegisterRoutes(r, submitLimit)
	}

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler)
	if deps.RunHandler != nil {
		deps.RunHandler.RegisterRoutes(api, submitLimit)
	}

	// Run listings and stored résumés are only reachable with ADMIN_TOKEN set.
	if token := deps.Config.AdminToken; token != "" {
		admin := api.Group("", middleware.AdminToken(token))
		if deps.RunHandler != nil {
			deps.RunHandler.RegisterAdminRoutes(admin)
		}
		if deps.DocumentHandler != nil {
			deps.DocumentHandler.RegisterRoutes(admin)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":7862"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
