package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin/internal/audit"
	"checkin/internal/auth"
	"checkin/internal/checkin"
	"checkin/internal/config"
	"checkin/internal/directory"
	"checkin/internal/httpmiddleware"
	"checkin/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	repo := checkin.NewPostgresRepository(db.Client)
	recorder := checkin.NewRecorder(repo)
	sink := audit.NewRedisStream(redisClient.Client, cfg.AuditStream)
	engine := checkin.NewEngine(recorder, sink, cfg.ScanOperator)
	if cfg.EventID != "" {
		engine.SelectEvent(cfg.EventID)
	}

	// Directory pushes keep the engine's snapshots current.
	feed := directory.NewFeed(redisClient.Client, cfg.RegistrantChannel, cfg.EventChannel, engine)
	go func() {
		if err := feed.Run(ctx); err != nil {
			log.Printf("directory feed stopped: %v", err)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status, state := http.StatusOK, "ok"
		if !redisHealthy || !dbHealthy {
			status, state = http.StatusServiceUnavailable, "degraded"
		}
		c.JSON(status, gin.H{"status": state, "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/operators/register", func(c *gin.Context) {
		var req struct {
			OperatorID string `json:"operator_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.OperatorID, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.OperatorAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	// Manual entry path: the typed identifier runs through the same
	// parse -> match -> record tail as a scan.
	authGroup.POST("/checkins/manual", func(c *gin.Context) {
		var req struct {
			Identifier string `json:"identifier" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rec, err := engine.SubmitManual(c.Request.Context(), req.Identifier, auth.Actor(c))
		switch {
		case errors.Is(err, checkin.ErrNoEventSelected):
			c.JSON(http.StatusConflict, gin.H{"error": "no event selected"})
		case errors.Is(err, checkin.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"record": rec})
		}
	})

	authGroup.PUT("/events/:id/select", func(c *gin.Context) {
		id := c.Param("id")
		engine.SelectEvent(id)
		if _, ok := engine.ActiveEvent(); !ok {
			c.JSON(http.StatusAccepted, gin.H{"selected": id, "note": "event not in current snapshot yet"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"selected": id})
	})

	authGroup.GET("/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"events": engine.Events()})
	})

	authGroup.GET("/events/:id/attendance", func(c *gin.Context) {
		records, err := repo.List(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	authGroup.GET("/status", func(c *gin.Context) {
		rec, eventID, ok := engine.LastRecorded()
		if !ok {
			c.JSON(http.StatusOK, gin.H{"last": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"last": rec, "event_id": eventID})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
