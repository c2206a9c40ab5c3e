package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"wifi_provisioner/internal/logger"
	"wifi_provisioner/internal/service"
	"wifi_provisioner/web"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Runner executes fn on the goroutine that owns device state.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Options tunes the HTTP surface.
type Options struct {
	SaveRebootDelay time.Duration
	ControlPort     int
	Metrics         http.Handler // nil disables /metrics
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	loop     Runner
	log      *logger.Logger
	opts     Options

	dashboard []byte
}

func NewHandler(services *service.Service, loop Runner, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	dashboard := web.Dashboard
	if opts.ControlPort != 0 {
		dashboard = bytes.Replace(dashboard,
			[]byte(`data-control-port="81"`),
			[]byte(`data-control-port="`+strconv.Itoa(opts.ControlPort)+`"`), 1)
	}
	return &Handler{services: services, loop: loop, log: log, opts: opts, dashboard: dashboard}
}

// InitRoutes builds the device web server: portal, OTA and the JSON API.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", h.index)
	router.Any("/save", h.saveCredentials)
	router.POST("/update", h.uploadFirmware)

	router.GET("/health", h.health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if h.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.opts.Metrics))
	}
	h.registerAPIRoutes(router)

	// captive portal: every unknown URL lands on the setup page
	router.NoRoute(h.notFound)
	return router
}

// InitControlRoutes builds the push-socket server that runs on its own port.
func (h *Handler) InitControlRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", h.controlConnect)
	router.GET("/ws", h.controlConnect)
	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.GET("/logs", h.getLogs)
	}
}
