// Package main is the unified entry point for TalkTo: a single binary
// serving the REST surface, the WebSocket fan-out gateway, and the MCP
// tool server behind one gin engine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/common/config"
	"github.com/hyperslack/talkto/internal/common/httpmw"
	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/db"
	"github.com/hyperslack/talkto/internal/invocation"
	"github.com/hyperslack/talkto/internal/liveness"
	"github.com/hyperslack/talkto/internal/mcpserver"
	"github.com/hyperslack/talkto/internal/rest"
	"github.com/hyperslack/talkto/internal/store"
	"github.com/hyperslack/talkto/internal/wsgateway"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputPath: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("starting talkto",
		zap.Int("port", cfg.Port),
		zap.Bool("network", cfg.Network),
		zap.String("data_dir", cfg.DataDir),
	)

	dbConn, err := db.Open(cfg.DBPath())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer dbConn.Close()

	st, err := store.New(dbConn)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}

	hub := wsgateway.NewHub(log)
	engine := invocation.New(st, hub, log)
	detector := liveness.New(st, log)

	done := make(chan struct{})
	go hub.Run(done)
	go detector.Run(done)

	mcpHandlers := &mcpserver.Handlers{
		Store: st, Hub: hub, Engine: engine, Liveness: detector, Log: log, PromptDir: cfg.PromptsDir,
	}
	mcp := mcpserver.New(mcpHandlers)

	restHandler := rest.New(st, hub, engine, detector, log, cfg.Network)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(httpmw.RequestLogger(log))
	router.Use(authplane.Middleware(st, cfg.Network, log))

	api := router.Group("/api")
	rest.SetupRoutes(api, restHandler)

	router.POST("/mcp", mcp.Handler())
	router.GET("/ws", wsgateway.Handler(hub, st, log))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr), zap.String("advertised_base_url", cfg.AdvertisedBaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down talkto")
	close(done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("talkto stopped")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, mcp-session-id, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, Sec-WebSocket-Protocol")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
