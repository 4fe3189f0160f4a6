// Package api wires the gin HTTP surface: template management,
// exchange-rate lookups, the three-step consolidate/reconcile pipeline,
// job status polling, and the downloadable report/freeze-template
// artifacts.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/utasoy/market-reconciler/internal/api/middleware"
)

// NewRouter builds the gin engine for the given Deps.
func NewRouter(d *Deps, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = allowedOrigins
	corsCfg.AllowCredentials = true
	router.Use(cors.New(corsCfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/exchange-rates", getRates(d))
		v1.POST("/exchange-rates/refresh", refreshRates(d))

		v1.GET("/templates", handleTemplates(d))
		v1.POST("/templates", handleTemplates(d))
		v1.GET("/templates/:name", templateOps(d))
		v1.DELETE("/templates/:name", templateOps(d))
		v1.GET("/templates/export_all", exportAllTemplates(d))
		v1.POST("/templates/import_all", importAllTemplates(d))
		v1.POST("/templates/reset", resetTemplates(d))

		v1.POST("/calculate_stock", calculateStock(d))
		v1.POST("/consolidate_suppliers", consolidateSuppliers(d))
		v1.POST("/process_marketplace", processMarketplace(d))
		v1.POST("/simulate_nlp", simulateNLP(d))

		v1.GET("/jobs/:job_id", jobStatus(d))
		v1.GET("/download/:job_id", downloadResult(d))
		v1.GET("/download_template/freeze", downloadFreezeTemplate())
	}

	return router
}
