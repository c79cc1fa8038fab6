package bootstrap

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/mohammadpnp/csv-import/internal/application/importer"
	httpecho "github.com/mohammadpnp/csv-import/internal/interfaces/http/echo"
)

type jobProcessor interface {
	Process(ctx context.Context, jobID string) (app.ProcessResult, error)
}

type ServerDeps struct {
	Enqueue            app.EnqueueImport
	GetJob             app.GetImportJob
	Processor          jobProcessor
	Gatherer           prometheus.Gatherer
	CORSAllowedOrigins []string
}

func NewHTTPServer(deps ServerDeps) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true

	origins := deps.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("10M"))
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))

	importHandler := httpecho.NewImportHandler(deps.Enqueue, deps.GetJob)
	processHandler := httpecho.NewProcessHandler(deps.Processor)
	httpecho.RegisterRoutes(server, importHandler, processHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		server.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return server
}
