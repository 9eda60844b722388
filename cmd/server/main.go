package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/services"
	httphandlers "deskcast/internal/handlers/http"
	"deskcast/internal/infrastructure/capture"
	"deskcast/internal/infrastructure/encoding"
	"deskcast/internal/infrastructure/middleware"
	"deskcast/internal/infrastructure/monitoring"
	wsignal "deskcast/internal/infrastructure/signal"
	webrtcinfra "deskcast/internal/infrastructure/webrtc"
	"deskcast/pkg/config"
	"deskcast/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/deskcast/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	collector := monitoring.NewPrometheusCollector()

	captureService := capture.NewService()
	if captureService.NumDisplays() == 0 {
		log.Warnw("no active displays detected, offers will be rejected")
	}

	peerFactory, err := webrtcinfra.NewPeerFactory(buildWebRTCConfig(cfg), log)
	if err != nil {
		log.Fatalw("failed to create peer factory", "error", err)
	}

	screenService := services.NewScreenService(
		peerFactory,
		captureService,
		encoding.NewH264Factory(),
		collector,
		cfg.Capture.Display,
		domain.PresetOrDefault(cfg.Capture.DefaultQuality),
		log,
	)

	wsServer := wsignal.NewWebSocketServer(screenService, wsignal.Options{
		PingInterval:      cfg.Signal.PingInterval,
		PongTimeout:       cfg.Signal.PongTimeout,
		WriteTimeout:      cfg.Signal.WriteTimeout,
		MessagesPerSecond: wsRate(cfg),
		MessageBurst:      cfg.RateLimiting.WebSocket.Burst,
		MaxMessageSize:    cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
	}, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	httphandlers.NewScreenHandler(screenService).SetupRoutes(router)
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": screenService.ActiveSessions(),
		})
	})
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("deskcast server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnw("http shutdown failed", "error", err)
	}

	// No capture goroutine or peer connection may outlive the process.
	screenService.CleanupAll(ctx)
	log.Infow("shutdown complete")
}

func buildWebRTCConfig(cfg *config.Config) webrtcinfra.Config {
	var wc webrtcinfra.Config
	for _, srv := range cfg.WebRTC.ICEServers {
		ice := webrtc.ICEServer{URLs: srv.URLs}
		if srv.Username != "" {
			ice.Username = srv.Username
			ice.Credential = srv.Credential
		}
		wc.ICEServers = append(wc.ICEServers, ice)
	}
	wc.PortRange.Min = cfg.WebRTC.PortRange.Min
	wc.PortRange.Max = cfg.WebRTC.PortRange.Max
	return wc
}

func wsRate(cfg *config.Config) float64 {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.MessagesPerSecond
}
