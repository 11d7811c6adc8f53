package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cfg "photozone/src/configuration"
)

const shutdownTimeout = 10 * time.Second

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start))
	}
}

// NewRouter wires every route. auth may be nil when staff sign-in is off.
func NewRouter(config *cfg.Properties, handler *AppHandler, auth *AuthHandler) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), requestMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Cache-Control", "User-Agent"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if config.Server.Pprof {
		pprof.Register(router)
	}

	router.GET("/health", handler.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/property", handler.GetProperty)
	router.GET("/facets", handler.GetFacets)
	router.GET("/images", handler.GetImages)
	if config.Server.StaticDir != "" {
		router.Static("/app", config.Server.StaticDir)
	}

	viewer := router.Group("/", handler.withViewer)
	viewer.GET("/gallery", handler.GetGallery)
	viewer.PUT("/gallery/filter", handler.PutGalleryFilter)
	viewer.POST("/gallery/reset", handler.PostGalleryReset)
	viewer.POST("/selection/:id", handler.PostSelection)
	viewer.DELETE("/selection", handler.DeleteSelection)
	viewer.GET("/compare", handler.GetCompare)
	viewer.POST("/compare/pointer", handler.PostComparePointer)
	viewer.GET("/compare/ws", handler.CompareSocket)
	viewer.POST("/compare/report", handler.PostCompareReport)
	viewer.GET("/videos", handler.GetVideos)

	viewer.GET(pinPath, handler.GetPin)
	viewer.POST(pinPath+"/open", handler.PostPinOpen)
	viewer.POST(pinPath+"/digit", handler.PostPinDigit)
	viewer.POST(pinPath+"/clear", handler.PostPinClear)
	viewer.POST(pinPath+"/change", handler.PostPinChange)
	viewer.POST(pinPath+"/cancel", handler.PostPinCancel)
	viewer.POST("/admin/logout", handler.PostLogout)
	if auth != nil {
		viewer.GET("/auth/login", auth.Login)
		viewer.GET("/auth/callback", auth.Callback)
	}

	admin := viewer.Group("/", requireAdmin)
	admin.POST("/images", handler.PostImage)
	admin.DELETE("/images/:id", handler.DeleteImage)
	admin.PUT("/videos", handler.PutVideos)
	admin.POST("/videos", handler.PostVideo)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "not found"})
	})
	return router, nil
}

// RunServer serves router until ctx is cancelled, then shuts down gracefully.
func RunServer(ctx context.Context, config *cfg.Properties, router http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: config.Server.ReadTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
