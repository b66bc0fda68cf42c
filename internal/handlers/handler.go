package handlers

import (
	"net/http"

	_ "user_accounts/docs"
	"user_accounts/internal/logger"
	"user_accounts/internal/metrics"
	"user_accounts/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	defaultBasePath = "/api/v1/users"
	statusOK        = "ok"
)

type Options struct {
	BasePath string
	Cookies  CookieOptions
	Metrics  *metrics.Metrics
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
	cookies  CookieOptions
	basePath string
}

// NewHandler constructs a new HTTP handler with dependencies. A nil logger
// discards output and nil metrics get a private registry.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.BasePath == "" {
		opts.BasePath = defaultBasePath
	}
	if opts.Cookies.Path == "" {
		opts.Cookies.Path = "/"
	}
	return &Handler{
		services: services,
		log:      log,
		metrics:  opts.Metrics,
		cookies:  opts.Cookies,
		basePath: opts.BasePath,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(h.recovered), h.requestLogger, h.metrics.Middleware(), h.errorResponder)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	router.GET("/health", h.health)

	h.registerUserRoutes(router)

	return router
}

func (h *Handler) registerUserRoutes(r *gin.Engine) {
	users := r.Group(h.basePath)
	{
		users.POST("/register", h.registerUser)
		users.POST("/login", h.loginUser)
		users.GET("/logout", h.sessionGuard, h.logoutUser)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
