package rest

import (
	"context"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/logging"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// MaxBodyBytes is the request body cap.
const MaxBodyBytes = 20 << 10

type RouterOptions struct {
	CORSOrigin     string
	SecureCookies  bool
	AllowGuestSync bool
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

func NewRouter(svc SessionAPI, log logging.Logger, opts RouterOptions) *gin.Engine {
	if log == nil {
		log = logging.Nop{}
	}
	registerValidators()

	r := gin.New()
	r.Use(RequestID(), AccessLog(log), Recovery(log), CORS(opts.CORSOrigin), BodyLimit(MaxBodyBytes))

	h := NewHandler(svc, log, opts.SecureCookies)

	r.GET("/health", h.Health)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)
	r.POST("/logout", RequireAuth(svc), h.Logout)

	if opts.AllowGuestSync {
		log.Warn(context.Background(), "legacy guest sync enabled: POST /legacy/logout creates users without credentials")
		r.POST("/legacy/logout", h.GuestSync)
	}

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	return r
}
