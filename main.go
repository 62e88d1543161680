package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"errsight/internal/config"
	"errsight/internal/db"
	"errsight/internal/geo"
	"errsight/internal/http/handlers"
	appmw "errsight/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	resolver := geo.Open(cfg.GeoIPDBPath)
	defer resolver.Close()

	handlers.InitPrometheusMetrics()

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.OPTIONS("/api/report", appmw.Preflight())
	r.POST("/api/report", appmw.CORS(handlers.ReportHandler(sqlDB, resolver)))

	r.OPTIONS("/api/logs", appmw.Preflight())
	r.GET("/api/logs", appmw.CORS(handlers.LogsHandler(sqlDB)))
	r.GET("/api/logs/{id}", appmw.CORS(handlers.LogDetail(sqlDB)))

	r.GET("/metrics", handlers.MetricsHandler())

	handler := handlers.RequestLogger(r.Handler)

	log.Printf("errsight listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
