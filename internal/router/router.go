package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/internal/handler"
	"github.com/noah-isme/bbsmart-api/internal/middleware"
	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/service"
	appErrors "github.com/noah-isme/bbsmart-api/pkg/errors"
	"github.com/noah-isme/bbsmart-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bbsmart-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bbsmart-api/pkg/middleware/requestid"
	"github.com/noah-isme/bbsmart-api/pkg/response"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Import   *handler.ImportHandler
	Record   *handler.RecordHandler
	Settings *handler.SettingsHandler
	Student  *handler.StudentHandler
	Metrics  *handler.MetricsHandler
}

// Options configures the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Auth           middleware.TokenValidator
	Metrics        *service.MetricsService
	Logger         *zap.Logger
}

// New builds the gin engine with every route of the registry API.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := middleware.RequireStaff()
	writers := middleware.RequireRoles(models.RoleAdminVIP, models.RoleAdmin, models.RoleRegistrar, models.RoleTeacher)
	audit := func(action string) gin.HandlerFunc { return middleware.Audit(opts.Logger, action) }

	api := r.Group(opts.APIPrefix)
	// the portal shows the school name before login
	api.GET("/settings", middleware.OptionalJWT(opts.Auth), h.Settings.Get)

	secured := api.Group("", middleware.JWT(opts.Auth))
	secured.PUT("/settings", staff, audit("settings.update"), h.Settings.Update)
	secured.POST("/settings/semesters", staff, audit("settings.add_semester"), h.Settings.AddSemester)

	secured.POST("/imports/:kind", staff, audit("import.apply"), h.Import.Import)

	records := secured.Group("/records/:resource")
	records.GET("", h.Record.List)
	records.POST("", writers, audit("record.save"), h.Record.Create)
	records.POST("/batch", writers, audit("record.save_batch"), h.Record.CreateBatch)
	records.DELETE("/:id", writers, audit("record.delete"), h.Record.Delete)

	secured.GET("/students", h.Student.List)
	secured.GET("/students/:id", h.Student.Get)
	secured.GET("/students/:id/transcript", h.Student.Transcript)

	secured.GET("/metrics/summary", staff, h.Metrics.Summary)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	return r
}
